package git

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrBinaryFile is returned when file contents at a revision are binary.
var ErrBinaryFile = errors.New("binary file")

// SnapshotReader reads file contents as of a given commit.
type SnapshotReader struct {
	repo *git.Repository
}

// NewSnapshotReader opens the repository at repoPath.
func NewSnapshotReader(repoPath string) (*SnapshotReader, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", repoPath, err)
	}
	return &SnapshotReader{repo: repo}, nil
}

// FileAt returns the contents of path in commit sha.
// It returns object.ErrFileNotFound when the file does not exist at that commit.
func (s *SnapshotReader) FileAt(sha, path string) ([]byte, error) {
	c, err := s.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", sha, err)
	}
	f, err := c.File(path)
	if err != nil {
		return nil, err
	}
	binary, err := f.IsBinary()
	if err != nil {
		return nil, err
	}
	if binary {
		return nil, ErrBinaryFile
	}
	contents, err := f.Contents()
	if err != nil {
		return nil, err
	}
	return []byte(contents), nil
}

// IsNotFound reports whether err means a file is absent at a revision.
func IsNotFound(err error) bool {
	return errors.Is(err, object.ErrFileNotFound)
}
