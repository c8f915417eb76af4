// Package deps recomputes the dependency errors of installed packages.
package deps

import (
	"reflect"
	"sort"

	version "github.com/hashicorp/go-version"
	"github.com/quantmind-br/pkgstatus/internal/core"
	"github.com/rs/zerolog"
)

// Lookup resolves a package id to its entry, or nil when absent
type Lookup func(id string) *core.PackageDataEntry

// LookupFrom builds a Lookup over a slice of entries
func LookupFrom(entries []*core.PackageDataEntry) Lookup {
	byID := make(map[string]*core.PackageDataEntry, len(entries))
	for _, entry := range entries {
		byID[entry.ID()] = entry
	}
	return func(id string) *core.PackageDataEntry {
		return byID[id]
	}
}

// Check evaluates every current dependency of entry. The result has one key
// per current dependency; satisfied dependencies map to nil. Entries that
// are not installed have no dependency errors.
func Check(entry *core.PackageDataEntry, lookup Lookup) map[string]*core.DependencyError {
	if entry == nil || entry.Installed == nil {
		return nil
	}

	requirements := entry.Installed.Manifest.Dependencies
	if len(requirements) == 0 {
		requirements = entry.Manifest.Dependencies
	}

	errs := make(map[string]*core.DependencyError, len(entry.Installed.CurrentDependencies))
	for depID, current := range entry.Installed.CurrentDependencies {
		errs[depID] = checkOne(lookup(depID), requirements[depID], current)
	}
	return errs
}

func checkOne(dep *core.PackageDataEntry, req core.DepInfo, current core.CurrentDependencyInfo) *core.DependencyError {
	if dep == nil || dep.Installed == nil {
		return core.NotInstalled()
	}

	received := dep.Installed.Manifest.Version
	if req.Version != "" && !satisfies(received, req.Version) {
		return core.IncorrectVersion(req.Version, received)
	}

	main := dep.Installed.Status.Main
	switch {
	case main.Status == core.MainRunning:
	case main.Status == core.MainBackingUp && main.Started != nil:
	default:
		return core.NotRunning()
	}

	failures := make(map[string]core.HealthCheckResult)
	for checkID, res := range main.Health {
		if !watched(current, checkID) {
			continue
		}
		if res.Result != core.HealthResultSuccess {
			failures[checkID] = res
		}
	}
	if len(failures) > 0 {
		return core.HealthChecksFailed(failures)
	}
	return nil
}

// watched reports whether the dependent relies on checkID. An empty list
// means every check matters.
func watched(current core.CurrentDependencyInfo, checkID string) bool {
	if len(current.HealthChecks) == 0 {
		return true
	}
	for _, id := range current.HealthChecks {
		if id == checkID {
			return true
		}
	}
	return false
}

// satisfies reports whether v meets the constraint. Unparseable versions or
// constraints never satisfy.
func satisfies(v, constraint string) bool {
	have, err := version.NewVersion(v)
	if err != nil {
		return false
	}
	want, err := version.NewConstraint(constraint)
	if err != nil {
		return false
	}
	return want.Check(have)
}

// Apply recomputes dependency errors for every installed entry in place and
// returns the entries whose errors changed, sorted by id. Config errors
// already recorded are kept unless a more severe error replaces them.
func Apply(entries []*core.PackageDataEntry, log *zerolog.Logger) []*core.PackageDataEntry {
	lookup := LookupFrom(entries)

	var changed []*core.PackageDataEntry
	for _, entry := range entries {
		if entry.Installed == nil {
			continue
		}

		prev := entry.Installed.Status.DependencyErrors
		next := Check(entry, lookup)
		for depID, old := range prev {
			if old != nil && old.Type == core.DepConfigUnsatisfied {
				if _, tracked := next[depID]; tracked {
					next[depID] = next[depID].Merge(old)
				}
			}
		}

		if reflect.DeepEqual(normalize(prev), normalize(next)) {
			continue
		}

		entry.Installed.Status.DependencyErrors = next
		changed = append(changed, entry)

		if log != nil {
			log.Debug().
				Str("package", entry.ID()).
				Int("dependencies", len(next)).
				Int("errors", countErrors(next)).
				Msg("dependency errors updated")
		}
	}

	sort.Slice(changed, func(i, j int) bool {
		return changed[i].ID() < changed[j].ID()
	})
	return changed
}

// normalize treats a nil map and an empty map as equal
func normalize(m map[string]*core.DependencyError) map[string]*core.DependencyError {
	if len(m) == 0 {
		return nil
	}
	return m
}

func countErrors(m map[string]*core.DependencyError) int {
	n := 0
	for _, e := range m {
		if e != nil {
			n++
		}
	}
	return n
}
