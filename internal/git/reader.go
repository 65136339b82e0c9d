package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/masmgr/tdrspots/internal/pathfilter"
)

// HistoryReader reads commit history from a Git repository.
type HistoryReader struct {
	repo   *git.Repository
	opts   ReadOptions
	filter *pathfilter.Filter
	logger *slog.Logger
}

// NewHistoryReader creates a new history reader for the given repository.
// The go-git backend opens the repository eagerly so a bad path fails here.
func NewHistoryReader(opts ReadOptions) (*HistoryReader, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	opts.Backend = backend

	filter, err := pathfilter.New(opts.Include, opts.Exclude)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &HistoryReader{opts: opts, filter: filter, logger: logger}
	if backend == BackendGoGit {
		repo, err := git.PlainOpenWithOptions(opts.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, fmt.Errorf("open repository %s: %w", opts.RepoPath, err)
		}
		r.repo = repo
	}
	return r, nil
}

// ReadChanges reads commit changes from the repository, oldest commit first.
// Merge commits contribute no file changes and are omitted, as are commits
// whose changes are all filtered out.
func (r *HistoryReader) ReadChanges(ctx context.Context) ([]CommitChangeSet, error) {
	if r.opts.Backend == BackendGitCLI {
		return r.readChangesGitCLI(ctx)
	}
	return r.readChangesGoGit(ctx)
}

func (r *HistoryReader) readChangesGoGit(ctx context.Context) ([]CommitChangeSet, error) {
	commits, err := r.listCommits(ctx)
	if err != nil {
		return nil, err
	}

	diffOpts := r.diffTreeOptions()
	results := make([]CommitChangeSet, 0, len(commits))
	processed := 0

	for _, c := range commits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c.NumParents() > 1 {
			continue
		}

		changes, err := r.commitChanges(ctx, c, diffOpts)
		if err != nil {
			return nil, fmt.Errorf("diff commit %s: %w", c.Hash, err)
		}

		processed++
		if r.opts.OnProgress != nil {
			r.opts.OnProgress(processed)
		}

		if len(changes) == 0 {
			continue
		}

		results = append(results, CommitChangeSet{
			Commit:  commitInfo(c),
			Changes: changes,
		})
	}

	r.logger.Debug("history read", "backend", r.opts.Backend, "commits", processed, "changesets", len(results))
	return results, nil
}

// listCommits returns the commits reachable from the start revision within
// the time window, oldest first.
func (r *HistoryReader) listCommits(ctx context.Context) ([]*object.Commit, error) {
	from, err := r.resolveStart()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) && isHeadRef(r.opts.Branch) {
			r.logger.Warn("repository has no commits", "repo", r.opts.RepoPath)
			return nil, nil
		}
		return nil, err
	}

	cIter, err := r.repo.Log(&git.LogOptions{
		From:  from,
		Order: git.LogOrderCommitterTime,
		Since: r.opts.Since,
		Until: r.opts.Until,
	})
	if err != nil {
		return nil, err
	}
	defer cIter.Close()

	var commits []*object.Commit
	err = cIter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(commits)
	return commits, nil
}

// ReadCommits returns commit metadata, merges included, oldest first.
// Path filters do not apply. The repository is read with go-git for every backend.
func (r *HistoryReader) ReadCommits(ctx context.Context) ([]CommitInfo, error) {
	if r.repo == nil {
		repo, err := git.PlainOpenWithOptions(r.opts.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return nil, fmt.Errorf("open repository %s: %w", r.opts.RepoPath, err)
		}
		r.repo = repo
	}
	commits, err := r.listCommits(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]CommitInfo, 0, len(commits))
	for _, c := range commits {
		infos = append(infos, commitInfo(c))
	}
	return infos, nil
}

func (r *HistoryReader) resolveStart() (plumbing.Hash, error) {
	if isHeadRef(r.opts.Branch) {
		ref, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return ref.Hash(), nil
	}
	rev := strings.TrimSpace(r.opts.Branch)
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	return *h, nil
}

func isHeadRef(branch string) bool {
	b := strings.TrimSpace(branch)
	return b == "" || strings.EqualFold(b, "HEAD")
}

func (r *HistoryReader) diffTreeOptions() *object.DiffTreeOptions {
	switch r.opts.RenameDetect {
	case RenameDetectSimple:
		opts := *object.DefaultDiffTreeOptions
		opts.OnlyExactRenames = true
		return &opts
	case RenameDetectAggressive:
		opts := *object.DefaultDiffTreeOptions
		return &opts
	default:
		return &object.DiffTreeOptions{}
	}
}

// commitChanges diffs a commit against its first parent, or against the empty
// tree for a root commit.
func (r *HistoryReader) commitChanges(ctx context.Context, c *object.Commit, opts *object.DiffTreeOptions) ([]FileChange, error) {
	toTree, err := c.Tree()
	if err != nil {
		return nil, err
	}

	fromTree := &object.Tree{}
	if c.NumParents() == 1 {
		parent, err := c.Parent(0)
		if err != nil {
			return nil, err
		}
		fromTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
	}

	diff, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, opts)
	if err != nil {
		return nil, err
	}

	changes := make([]FileChange, 0, len(diff))
	for _, ch := range diff {
		fc, ok := toFileChange(ch)
		if !ok {
			continue
		}
		if !r.filter.Match(fc.EffectivePath()) {
			continue
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

func toFileChange(ch *object.Change) (FileChange, bool) {
	from, to := ch.From, ch.To
	if !isFileMode(from.TreeEntry.Mode) && !isFileMode(to.TreeEntry.Mode) {
		return FileChange{}, false
	}

	switch {
	case from.Name == "" && to.Name != "":
		return FileChange{NewPath: to.Name, Kind: ChangeKindAdded}, true
	case from.Name != "" && to.Name == "":
		return FileChange{OldPath: from.Name, Kind: ChangeKindDeleted}, true
	case from.Name != to.Name:
		return FileChange{OldPath: from.Name, NewPath: to.Name, Kind: ChangeKindRenamed}, true
	case to.Name != "":
		return FileChange{OldPath: from.Name, NewPath: to.Name, Kind: ChangeKindModified}, true
	default:
		return FileChange{}, false
	}
}

// isFileMode reports whether the mode is a blob (regular, executable or symlink).
// Submodules are not files.
func isFileMode(m filemode.FileMode) bool {
	return m != filemode.Empty && m.IsFile()
}

func commitInfo(c *object.Commit) CommitInfo {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return CommitInfo{
		SHA:     c.Hash.String(),
		Parents: parents,
		When:    c.Committer.When,
		Author:  AuthorInfo{Name: c.Author.Name, Email: c.Author.Email},
		Message: strings.TrimRight(c.Message, "\n"),
	}
}
