// Package dump reads and writes package-data dumps of the document store.
//
// A dump is either the package-data document itself:
//
//	{"package-data": {"bitcoind": {...}}}
//
// or a revisioned snapshot wrapping it:
//
//	{"id": 42, "value": {"package-data": {...}}}
//
// JSON and YAML are chosen by extension; a trailing .xz is decompressed.
package dump

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/quantmind-br/pkgstatus/internal/fsops"
	"github.com/quantmind-br/pkgstatus/internal/security"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is a dump encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file name
func FormatFor(path string) (Format, error) {
	switch fsops.BaseExt(path) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported dump format: %s", path)
	}
}

type document struct {
	Revision    int64                             `json:"id,omitempty" yaml:"id,omitempty"`
	Value       *core.Database                    `json:"value,omitempty" yaml:"value,omitempty"`
	PackageData map[string]*core.PackageDataEntry `json:"package-data,omitempty" yaml:"package-data,omitempty"`
}

// Decode reads a dump from r
func Decode(r io.Reader, format Format) (*core.Database, error) {
	var doc document

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode json dump: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml dump: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dump format: %s", format)
	}

	db := &core.Database{PackageData: doc.PackageData}
	if doc.Value != nil {
		db = doc.Value
	}
	if db.PackageData == nil {
		db.PackageData = make(map[string]*core.PackageDataEntry)
	}

	for id, entry := range db.PackageData {
		if entry == nil {
			delete(db.PackageData, id)
			continue
		}
		if entry.Manifest.ID == "" {
			entry.Manifest.ID = id
		}
		if err := security.ValidateEntry(id, entry); err != nil {
			return nil, fmt.Errorf("invalid dump: %w", err)
		}
	}
	return db, nil
}

// Load reads the dump at path
func Load(fs afero.Fs, path string) (*core.Database, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}

	r, err := fsops.OpenDecompressed(fs, path)
	if err != nil {
		return nil, fmt.Errorf("open dump: %w", err)
	}
	defer r.Close()

	return Decode(r, format)
}

// Encode renders db in the given format
func Encode(db *core.Database, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(db, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json dump: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(db)
		if err != nil {
			return nil, fmt.Errorf("encode yaml dump: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported dump format: %s", format)
	}
}

// Save writes db to path atomically
func Save(fs afero.Fs, path string, db *core.Database) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	data, err := Encode(db, format)
	if err != nil {
		return err
	}

	return fsops.WriteFileAtomic(fs, path, data, 0644)
}

// Entries returns the entries of db sorted by id
func Entries(db *core.Database) []*core.PackageDataEntry {
	ids := make([]string, 0, len(db.PackageData))
	for id := range db.PackageData {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]*core.PackageDataEntry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, db.PackageData[id])
	}
	return entries
}

// FromEntries builds a database keyed by manifest id
func FromEntries(entries []*core.PackageDataEntry) *core.Database {
	db := &core.Database{PackageData: make(map[string]*core.PackageDataEntry, len(entries))}
	for _, entry := range entries {
		db.PackageData[entry.ID()] = entry
	}
	return db
}
