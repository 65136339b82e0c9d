// Package module maps file paths to repository-relative module keys.
//
// Both the effort and the history aggregators attribute their numbers to a
// module key produced here, so the two outputs can be joined by plain string
// equality. Keys always use forward slashes, never carry a leading or trailing
// separator, and are compared case-sensitively.
package module

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"
)

// Key is a normalized repository-relative directory path.
// The empty key denotes the repository root.
type Key string

// RootSentinel is the key some tools use for the repository root.
const RootSentinel Key = "."

// String returns the key as a plain string.
func (k Key) String() string {
	return string(k)
}

// IsRoot reports whether the key denotes the repository root.
func (k Key) IsRoot() bool {
	return k == "" || k == RootSentinel
}

// Normalizer turns absolute or repository-relative paths into module keys.
type Normalizer struct {
	root   string
	logger *slog.Logger
}

// NewNormalizer creates a normalizer for the repository rooted at repoRoot.
// Relative roots are resolved against the working directory.
func NewNormalizer(repoRoot string, logger *slog.Logger) (*Normalizer, error) {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{root: filepath.Clean(root), logger: logger}, nil
}

// Root returns the absolute repository root.
func (n *Normalizer) Root() string {
	return n.root
}

// RelPath returns p relative to the repository root, slash separated.
// Relative inputs are interpreted relative to the repository root, which makes
// the result independent of whether the caller passed an absolute path.
// A path outside the root is returned unchanged (slash separated) with a warning.
func (n *Normalizer) RelPath(p string) string {
	rel, ok := relativeTo(n.root, p)
	if !ok {
		n.logger.Warn("path is outside the repository root", "path", p, "root", n.root)
		return filepath.ToSlash(p)
	}
	return rel
}

// FileModule returns the module key of the file at p: the directory part of
// its repository-relative path, or the empty key for root-level files.
func (n *Normalizer) FileModule(p string) Key {
	return dirKey(n.RelPath(p))
}

// Normalize returns the key of a directory path. It is idempotent:
// Normalize(string(Normalize(p))) == Normalize(p).
func (n *Normalizer) Normalize(p string) Key {
	return Key(n.RelPath(p))
}

// Normalize is the functional form of Normalizer.Normalize.
func Normalize(p, repoRoot string) Key {
	root, err := filepath.Abs(repoRoot)
	if err != nil {
		return Key(filepath.ToSlash(p))
	}
	rel, ok := relativeTo(filepath.Clean(root), p)
	if !ok {
		return Key(filepath.ToSlash(p))
	}
	return Key(rel)
}

// FileModule is the functional form of Normalizer.FileModule.
func FileModule(p, repoRoot string) Key {
	return dirKey(string(Normalize(p, repoRoot)))
}

func relativeTo(root, p string) (string, bool) {
	abs := p
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, filepath.FromSlash(p))
	}
	abs = filepath.Clean(abs)

	if abs == root {
		return "", true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(abs, prefix) {
		return "", false
	}
	rel := strings.TrimLeft(abs[len(prefix):], string(filepath.Separator))
	return filepath.ToSlash(rel), true
}

func dirKey(rel string) Key {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return ""
	}
	return Key(dir)
}
