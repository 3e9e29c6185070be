package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the rule file looked up in each data directory.
const FileName = "rules.yaml"

//go:embed default_rules.yaml
var defaultRules []byte

// Loader finds the rule file through a directory fallback hierarchy and
// falls back to the embedded defaults when none is present.
type Loader struct {
	dataDirs []string
}

// NewLoader initializes a Loader with the given data directory fallback hierarchy.
func NewLoader(dataDirs []string) *Loader {
	return &Loader{dataDirs: dataDirs}
}

// Load returns the first rules.yaml found in the data directories, or the defaults.
func (l *Loader) Load() (*Rules, error) {
	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, FileName)
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rules %s: %w", path, err)
		}
		r, err := Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return r, nil
	}
	return Default()
}

// LoadFile parses a specific rule file.
func LoadFile(path string) (*Rules, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules %s: %w", path, err)
	}
	r, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Default returns the embedded rule set.
func Default() (*Rules, error) {
	r, err := Parse(defaultRules)
	if err != nil {
		return nil, fmt.Errorf("embedded rules: %w", err)
	}
	return r, nil
}

// DefaultYAML exposes the embedded rule document, e.g. for `rules show`.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultRules...)
}

// Parse decodes, indexes and validates a rule document.
func Parse(raw []byte) (*Rules, error) {
	var r Rules
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}
	r.index()
	if err := ValidateSchema(&r); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}
