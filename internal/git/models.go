package git

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CommitInfo represents the information about a Git commit needed for activity metrics.
type CommitInfo struct {
	SHA     string
	Parents []string
	When    time.Time
	Author  AuthorInfo
	Message string
}

// Subject returns the first line of the commit message.
func (c CommitInfo) Subject() string {
	if idx := strings.IndexByte(c.Message, '\n'); idx != -1 {
		return c.Message[:idx]
	}
	return c.Message
}

// IsMerge reports whether the commit has more than one parent.
func (c CommitInfo) IsMerge() bool {
	return len(c.Parents) > 1
}

// AuthorInfo represents commit author information.
type AuthorInfo struct {
	Name  string
	Email string
}

// FileChange represents a file change within a commit.
// OldPath is empty for additions, NewPath is empty for deletions.
type FileChange struct {
	OldPath string
	NewPath string
	Kind    ChangeKind
}

// EffectivePath returns the path the change is attributed to:
// the new path when present, otherwise the old one.
func (f FileChange) EffectivePath() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// ChangeKind represents the type of change.
type ChangeKind int

const (
	ChangeKindAdded ChangeKind = iota
	ChangeKindModified
	ChangeKindDeleted
	ChangeKindRenamed
)

// String returns a string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeKindAdded:
		return "added"
	case ChangeKindModified:
		return "modified"
	case ChangeKindDeleted:
		return "deleted"
	case ChangeKindRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// CommitChangeSet bundles a commit with its file changes.
type CommitChangeSet struct {
	Commit  CommitInfo
	Changes []FileChange
}

// RenameDetectMode controls how file renames are detected.
type RenameDetectMode int

const (
	RenameDetectOff RenameDetectMode = iota
	RenameDetectSimple
	RenameDetectAggressive
)

// ParseRenameDetectMode converts a configuration value into a RenameDetectMode.
func ParseRenameDetectMode(s string) (RenameDetectMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "none":
		return RenameDetectOff, nil
	case "", "simple", "exact":
		return RenameDetectSimple, nil
	case "aggressive":
		return RenameDetectAggressive, nil
	default:
		return RenameDetectOff, fmt.Errorf("unknown rename detection mode %q (expected off, simple or aggressive)", s)
	}
}

// Backend selects the implementation used to walk history.
type Backend string

const (
	BackendGoGit  Backend = "go-git"
	BackendGitCLI Backend = "git-cli"
)

// ParseBackend validates a backend name. An empty name selects go-git.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendGoGit:
		return BackendGoGit, nil
	case BackendGitCLI:
		return BackendGitCLI, nil
	default:
		return "", fmt.Errorf("unknown history backend %q (expected %s or %s)", s, BackendGoGit, BackendGitCLI)
	}
}

// ReadOptions configures the history reader.
type ReadOptions struct {
	RepoPath     string
	Branch       string
	Since        *time.Time // inclusive
	Until        *time.Time
	Include      []string // Glob patterns to include
	Exclude      []string // Glob patterns to exclude
	RenameDetect RenameDetectMode
	Backend      Backend
	OnProgress   func(commits int)
	Logger       *slog.Logger
}
