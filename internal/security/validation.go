// Package security validates untrusted package data before it is stored or
// printed.
package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quantmind-br/pkgstatus/internal/core"
)

var (
	// ValidPackageIDRegex allows alphanumeric, dash, underscore, and dot
	ValidPackageIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

	// ValidVersionRegex allows standard version formats
	ValidVersionRegex = regexp.MustCompile(`^[a-zA-Z0-9._+-]+$`)
)

const (
	maxIDLength      = 255
	maxVersionLength = 100
)

// ValidatePackageID validates a package id for safety
func ValidatePackageID(id string) error {
	if id == "" {
		return fmt.Errorf("package id cannot be empty")
	}

	if len(id) > maxIDLength {
		return fmt.Errorf("package id too long (max %d characters)", maxIDLength)
	}

	if !ValidPackageIDRegex.MatchString(id) {
		return fmt.Errorf("invalid package id %q: must contain only alphanumeric, dash, underscore, or dot characters", id)
	}

	if strings.Contains(id, "..") {
		return fmt.Errorf("invalid package id %q: contains '..'", id)
	}

	return nil
}

// ValidateVersion validates a version string. Empty versions are allowed.
func ValidateVersion(version string) error {
	if version == "" {
		return nil
	}

	if len(version) >= maxVersionLength {
		return fmt.Errorf("version string too long (max %d characters)", maxVersionLength)
	}

	if !ValidVersionRegex.MatchString(version) {
		return fmt.Errorf("invalid version %q: must be alphanumeric with dots, dashes, or plus signs", version)
	}

	return nil
}

// ValidateEntry checks the id and versions of an entry stored under key
func ValidateEntry(key string, entry *core.PackageDataEntry) error {
	if err := ValidatePackageID(key); err != nil {
		return err
	}

	if id := entry.ID(); id != "" && id != key {
		return fmt.Errorf("package %s: manifest id %q does not match", key, id)
	}

	if err := ValidateVersion(entry.Manifest.Version); err != nil {
		return fmt.Errorf("package %s: %w", key, err)
	}

	if entry.Installed != nil {
		if err := ValidateVersion(entry.Installed.Manifest.Version); err != nil {
			return fmt.Errorf("package %s: installed %w", key, err)
		}
		for depID := range entry.Installed.CurrentDependencies {
			if err := ValidatePackageID(depID); err != nil {
				return fmt.Errorf("package %s: dependency: %w", key, err)
			}
		}
	}

	return nil
}

// CleanText makes untrusted text safe to print on a terminal. Escape
// sequences, null bytes, and other control characters are dropped and
// line breaks become spaces.
func CleanText(input string) string {
	result := strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case r < 32 || r == 0x7f:
			return -1
		case r >= 0x80 && r < 0xa0:
			// C1 controls, including CSI
			return -1
		}
		return r
	}, input)

	return strings.TrimSpace(result)
}
