// Package collect writes per-commit file metrics for offline analysis.
package collect

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/masmgr/tdrspots/internal/complexity"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/satd"
)

// Header is the CSV header written by Collector.Write.
var Header = []string{"commit_hash", "author_date", "file_path", "cyclomatic_complexity", "nloc", "has_comment_SATD"}

const progressEvery = 100

// ContentReader returns the contents of a file at a commit.
type ContentReader interface {
	FileAt(sha, path string) ([]byte, error)
}

var _ ContentReader = (*git.SnapshotReader)(nil)

// Record is one (commit, file) row.
// Metrics is nil when the file's language has no analyzer.
type Record struct {
	CommitHash string
	Date       time.Time
	Path       string
	Metrics    *Metrics
	HasSATD    bool
}

// Metrics holds the summed complexity and size of a file.
type Metrics struct {
	CCN  int
	NLOC int
}

// Stats summarizes a collection run.
type Stats struct {
	Commits int
	Rows    int
	Skipped int
}

// Collector walks history and measures every touched target file.
type Collector struct {
	History    git.RepositoryReader
	Contents   ContentReader
	Classifier *satd.Classifier
	Logger     *slog.Logger
}

// Write streams one CSV row per added, modified or renamed target file of
// every commit. Files that cannot be read or parsed are logged and skipped.
func (c *Collector) Write(ctx context.Context, w io.Writer) (Stats, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sets, err := c.History.ReadChanges(ctx)
	if err != nil {
		return Stats{}, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return Stats{}, err
	}

	var stats Stats
	for i, cs := range sets {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if i%progressEvery == 0 {
			logger.Info("collecting", "processed", i, "commit", cs.Commit.SHA, "date", cs.Commit.When.Format(time.RFC3339))
		}
		stats.Commits++

		for _, ch := range cs.Changes {
			if ch.Kind == git.ChangeKindDeleted || !c.Classifier.Targets(ch.NewPath) {
				continue
			}
			rec, err := c.measure(cs.Commit, ch.NewPath)
			if err != nil {
				stats.Skipped++
				logger.Warn("could not process file", "path", ch.NewPath, "commit", cs.Commit.SHA, "error", err)
				continue
			}
			if err := cw.Write(rec.row()); err != nil {
				return stats, err
			}
			stats.Rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return stats, err
	}
	logger.Info("collection complete", "commits", stats.Commits, "rows", stats.Rows, "skipped", stats.Skipped)
	return stats, nil
}

func (c *Collector) measure(commit git.CommitInfo, path string) (Record, error) {
	src, err := c.Contents.FileAt(commit.SHA, path)
	if err != nil {
		return Record{}, fmt.Errorf("read %s: %w", path, err)
	}

	rec := Record{
		CommitHash: commit.SHA,
		Date:       commit.When,
		Path:       path,
		HasSATD:    c.Classifier.Match(string(src)),
	}
	if complexity.IsGoSource(path) {
		fr, err := complexity.AnalyzeSource(path, src)
		if err != nil {
			return Record{}, err
		}
		rec.Metrics = &Metrics{CCN: fr.TotalCCN(), NLOC: fr.TotalNLOC()}
	}
	return rec, nil
}

func (r Record) row() []string {
	ccn, nloc := "", ""
	if r.Metrics != nil {
		ccn = strconv.Itoa(r.Metrics.CCN)
		nloc = strconv.Itoa(r.Metrics.NLOC)
	}
	return []string{
		r.CommitHash,
		r.Date.Format(time.RFC3339),
		r.Path,
		ccn,
		nloc,
		strconv.FormatBool(r.HasSATD),
	}
}
