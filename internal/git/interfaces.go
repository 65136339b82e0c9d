package git

import "context"

// RepositoryReader defines the interface for reading Git repository history.
type RepositoryReader interface {
	// ReadChanges returns the commits of the configured window in chronological order.
	ReadChanges(ctx context.Context) ([]CommitChangeSet, error)
}

// CommitLister lists commit metadata without diffing.
type CommitLister interface {
	ReadCommits(ctx context.Context) ([]CommitInfo, error)
}

// Compile-time interface conformance checks.
var (
	_ RepositoryReader = (*HistoryReader)(nil)
	_ CommitLister     = (*HistoryReader)(nil)
)
