// Package manifest reads the diff-product manifest: an ordered list of
// labeled binary sets to sweep pairwise. The manifest replaces a
// package manager's environment as the source of already-resolved
// library paths; abiscope never resolves package specs itself.
package manifest

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
)

// Library is one manifest entry: a label, the binary set (first
// element primary, the rest added binaries), and optionally either a
// public header to derive suppressions from or a handwritten
// suppression file.
type Library struct {
	Label        string   `toml:"label"`
	Version      string   `toml:"version"`
	Binaries     []string `toml:"binaries"`
	Header       string   `toml:"header"`
	Suppressions string   `toml:"suppressions"`
}

// SemVer parses the entry's version field. Returns nil without error
// when no version is set.
func (l *Library) SemVer() (*semver.Version, error) {
	if l.Version == "" {
		return nil, nil
	}
	v, err := semver.NewVersion(l.Version)
	if err != nil {
		return nil, fmt.Errorf("library %q has invalid version %q: %w", l.Label, l.Version, err)
	}
	return v, nil
}

// Manifest is an ordered collection of libraries. Labels are not
// required to be unique; the sweep pairs entries by position.
type Manifest struct {
	Libraries []Library `toml:"library"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks every entry is usable for a sweep.
func (m *Manifest) Validate() error {
	if len(m.Libraries) == 0 {
		return fmt.Errorf("manifest declares no [[library]] entries")
	}
	for i, lib := range m.Libraries {
		if lib.Label == "" {
			return fmt.Errorf("library entry %d has no label", i+1)
		}
		if len(lib.Binaries) == 0 {
			return fmt.Errorf("library %q declares no binaries", lib.Label)
		}
		if lib.Header != "" && lib.Suppressions != "" {
			return fmt.Errorf("library %q sets both header and suppressions; pick one", lib.Label)
		}
		if _, err := lib.SemVer(); err != nil {
			return err
		}
	}
	return nil
}
