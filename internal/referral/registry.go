// Package referral implements the referral code registry and resolver.
// The registry is immutable reference data mapping normalized codes to
// their owners; the resolver normalizes, validates, and ranks typo
// suggestions against it.
package referral

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed referral_codes.yaml
var defaultRegistryYAML []byte

// Entry is one referral code and the person it is attributed to.
type Entry struct {
	Code  string `yaml:"code"`
	Owner string `yaml:"owner"`
}

// Registry is an immutable, ordered set of referral code entries.
// Order matters: suggestion ties are broken by registry position.
type Registry struct {
	entries []Entry
	index   map[string]Entry
}

// NewRegistry builds a registry from entries. Codes are normalized on the
// way in; entries whose code normalizes to empty are skipped, and a later
// duplicate of an already-present code is ignored.
func NewRegistry(entries []Entry) *Registry {
	r := &Registry{
		index: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		code := Normalize(e.Code)
		if code == "" {
			continue
		}
		if _, exists := r.index[code]; exists {
			continue
		}
		entry := Entry{Code: code, Owner: e.Owner}
		r.entries = append(r.entries, entry)
		r.index[code] = entry
	}
	return r
}

// DefaultRegistry returns the compiled-in registry.
func DefaultRegistry() *Registry {
	reg, err := parseRegistry(defaultRegistryYAML)
	if err != nil {
		// The embedded file is validated by tests; a parse failure here
		// is a build defect, not a runtime condition.
		panic(fmt.Sprintf("embedded referral registry is invalid: %v", err))
	}
	return reg
}

// LoadRegistry reads a YAML registry file from disk.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is operator-controlled config
	if err != nil {
		return nil, fmt.Errorf("reading referral registry: %w", err)
	}
	reg, err := parseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("parsing referral registry %s: %w", path, err)
	}
	return reg, nil
}

func parseRegistry(data []byte) (*Registry, error) {
	var doc struct {
		Codes []Entry `yaml:"codes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Codes) == 0 {
		return nil, fmt.Errorf("registry contains no codes")
	}
	return NewRegistry(doc.Codes), nil
}

// Lookup returns the entry for a normalized code.
func (r *Registry) Lookup(code string) (Entry, bool) {
	e, ok := r.index[code]
	return e, ok
}

// Contains reports whether a normalized code exists in the registry.
func (r *Registry) Contains(code string) bool {
	_, ok := r.index[code]
	return ok
}

// Entries returns the entries in registry order. The returned slice is
// shared; callers must not modify it.
func (r *Registry) Entries() []Entry {
	return r.entries
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.entries)
}
