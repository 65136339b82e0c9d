package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

var remotePrefixes = []string{"https://", "http://", "ssh://", "git://", "file://", "git@"}

// IsRemote reports whether locator names a remote repository rather than a local path.
func IsRemote(locator string) bool {
	l := strings.ToLower(strings.TrimSpace(locator))
	for _, p := range remotePrefixes {
		if strings.HasPrefix(l, p) {
			return true
		}
	}
	return false
}

// OpenOrClone returns a local working copy for locator. Local paths are returned
// unchanged; remote repositories are cloned into a temporary directory that the
// returned cleanup function removes.
func OpenOrClone(ctx context.Context, locator string, logger *slog.Logger) (string, func(), error) {
	if !IsRemote(locator) {
		return locator, func() {}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	dir, err := os.MkdirTemp("", "tdrspots-clone-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("could not remove clone", "dir", dir, "error", err)
		}
	}

	logger.Info("cloning repository", "url", locator, "dir", dir)
	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  locator,
		Tags: git.NoTags,
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("clone %s: %w", locator, err)
	}
	return dir, cleanup, nil
}

// TopLevel returns the absolute worktree root of the repository containing path.
// History paths are relative to this directory, whichever subdirectory path names.
func TopLevel(path string) (string, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repository %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree of %s: %w", path, err)
	}
	return filepath.Abs(wt.Filesystem.Root())
}
