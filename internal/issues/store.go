// Package issues persists fixed bug reports fetched from an issue tracker.
package issues

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Store maps an issue key (for example "CLI-123") to its creation timestamp
// as reported by the tracker.
type Store map[string]string

// Load reads a store written by Save.
func Load(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s := make(Store, len(raw))
	for k, v := range raw {
		s.Add(k, v)
	}
	return s, nil
}

// Save writes the store as indented JSON.
func (s Store) Save(path string) error {
	data, err := json.MarshalIndent(map[string]string(s), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Add records an issue. Keys are stored uppercased.
func (s Store) Add(key, created string) {
	s[strings.ToUpper(key)] = created
}

// Has reports whether key, in any case, is a known issue.
func (s Store) Has(key string) bool {
	_, ok := s[strings.ToUpper(key)]
	return ok
}

// Created returns the creation timestamp of key.
func (s Store) Created(key string) (string, bool) {
	v, ok := s[strings.ToUpper(key)]
	return v, ok
}

// Keys returns the issue keys in sorted order.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
