package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DiffOptions configures a diff operation.
type DiffOptions struct {
	RepoPath string
	DiffSpec string // e.g., "origin/main...HEAD" or "abc123..def456"
}

// DiffResult holds the result of a diff between two refs.
type DiffResult struct {
	Base         string
	Head         string
	ChangedFiles []FileChange
}

// ChangedPaths returns the set of paths touched by the diff, including both
// sides of a rename.
func (d *DiffResult) ChangedPaths() map[string]bool {
	paths := make(map[string]bool, len(d.ChangedFiles))
	for _, f := range d.ChangedFiles {
		if f.OldPath != "" {
			paths[f.OldPath] = true
		}
		if f.NewPath != "" {
			paths[f.NewPath] = true
		}
	}
	return paths
}

// ParseDiffSpec splits a diff spec into base and head refs.
// Supports both "..." (three-dot) and ".." (two-dot) syntax.
func ParseDiffSpec(spec string) (base, head string, err error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return "", "", fmt.Errorf("empty diff spec")
	}

	// Try three-dot first (merge-base comparison)
	if idx := strings.Index(spec, "..."); idx != -1 {
		base = spec[:idx]
		head = spec[idx+3:]
	} else if idx := strings.Index(spec, ".."); idx != -1 {
		base = spec[:idx]
		head = spec[idx+2:]
	} else {
		return "", "", fmt.Errorf("invalid diff spec %q: expected 'base..head' or 'base...head'", spec)
	}

	if base == "" {
		return "", "", fmt.Errorf("invalid diff spec %q: missing base ref", spec)
	}
	if head == "" {
		head = "HEAD"
	}

	return base, head, nil
}

// ReadDiff reads the list of changed files between two refs.
func ReadDiff(ctx context.Context, opts DiffOptions) (*DiffResult, error) {
	base, head, err := ParseDiffSpec(opts.DiffSpec)
	if err != nil {
		return nil, err
	}

	args := []string{
		"-C", opts.RepoPath,
		"diff",
		"--name-status",
		"-z",
		opts.DiffSpec,
	}

	out, err := exec.CommandContext(ctx, "git", args...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	entries, err := parseDiffNameStatus(out)
	if err != nil {
		return nil, err
	}

	return &DiffResult{
		Base:         base,
		Head:         head,
		ChangedFiles: entries,
	}, nil
}

// parseDiffNameStatus parses NUL-delimited `git diff --name-status -z` output.
// Format: STATUS\0PATH\0 (or STATUS\0OLDPATH\0NEWPATH\0 for renames/copies)
func parseDiffNameStatus(data []byte) ([]FileChange, error) {
	parts := bytes.Split(data, []byte{0x00})

	entries := make([]FileChange, 0, len(parts)/2)
	i := 0

	for i < len(parts) {
		status := strings.TrimSpace(string(parts[i]))
		if status == "" {
			i++
			continue
		}

		if i+1 >= len(parts) {
			break
		}

		kind := kindFromGitStatus(status)

		if status[0] == 'R' || status[0] == 'C' {
			// Rename/Copy: STATUS\0OLDPATH\0NEWPATH
			if i+2 >= len(parts) {
				return nil, fmt.Errorf("unexpected diff output: rename entry missing new path")
			}
			fc := FileChange{OldPath: string(parts[i+1]), NewPath: string(parts[i+2]), Kind: kind}
			if kind == ChangeKindAdded {
				fc.OldPath = ""
			}
			entries = append(entries, fc)
			i += 3
		} else {
			entries = append(entries, fileChangeFromRaw(gitRawEntry{status: status, path: string(parts[i+1])}))
			i += 2
		}
	}

	return entries, nil
}
