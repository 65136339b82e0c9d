// Package pathfilter implements include/exclude glob filtering of repository paths.
package pathfilter

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter matches slash-separated, repository-relative paths against glob patterns.
//
// Patterns use doublestar syntax. For compatibility with fnmatch-style lists,
// a leading "*/" also matches at any depth and a trailing "/*" matches
// everything below, so "*/test/*" excludes every file under any test directory.
// Patterns without a slash are matched against the base name as well.
type Filter struct {
	include []string
	exclude []string

	mu    sync.Mutex
	cache map[string]bool
}

// New creates a filter. An empty include list accepts every path not excluded.
func New(include, exclude []string) (*Filter, error) {
	f := &Filter{cache: make(map[string]bool)}
	for _, p := range include {
		expanded, err := expand(p)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		f.include = append(f.include, expanded...)
	}
	for _, p := range exclude {
		expanded, err := expand(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, expanded...)
	}
	return f, nil
}

// Match reports whether p passes the filter.
func (f *Filter) Match(p string) bool {
	if f == nil {
		return true
	}
	p = strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./")

	f.mu.Lock()
	if v, ok := f.cache[p]; ok {
		f.mu.Unlock()
		return v
	}
	f.mu.Unlock()

	v := f.match(p)

	f.mu.Lock()
	f.cache[p] = v
	f.mu.Unlock()
	return v
}

// Excluded reports whether p matches any exclude pattern.
func (f *Filter) Excluded(p string) bool {
	if f == nil {
		return false
	}
	return matchAny(f.exclude, strings.ReplaceAll(p, "\\", "/"))
}

func (f *Filter) match(p string) bool {
	// Check exclude patterns first
	if matchAny(f.exclude, p) {
		return false
	}

	// If no include patterns, accept all
	if len(f.include) == 0 {
		return true
	}

	return matchAny(f.include, p)
}

func matchAny(patterns []string, p string) bool {
	base := path.Base(p)
	for _, pattern := range patterns {
		if doublestar.MatchUnvalidated(pattern, p) {
			return true
		}
		if !strings.Contains(pattern, "/") && doublestar.MatchUnvalidated(pattern, base) {
			return true
		}
	}
	return false
}

// expand validates a pattern and returns the doublestar patterns it stands for.
func expand(p string) ([]string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return nil, nil
	}
	if !doublestar.ValidatePattern(p) {
		return nil, doublestar.ErrBadPattern
	}

	out := []string{p}
	widened := p
	if strings.HasPrefix(widened, "*/") {
		widened = "**/" + widened[2:]
	}
	if strings.HasSuffix(widened, "/*") {
		widened = widened[:len(widened)-2] + "/**"
	}
	if widened != p {
		out = append(out, widened)
	}
	return out, nil
}
