// Package tdr runs the hotspot pipeline: effort, then history, then scoring.
package tdr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/aggregation"
	"github.com/masmgr/tdrspots/internal/bugfix"
	"github.com/masmgr/tdrspots/internal/complexity"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/module"
	"github.com/masmgr/tdrspots/internal/scoring"
)

var (
	// ErrSourceUnavailable means the effort stage produced nothing usable.
	// Run treats it as a warning and scores with zero effort.
	ErrSourceUnavailable = errors.New("no analyzable source")

	// ErrHistoryUnavailable means the repository history could not be traversed.
	ErrHistoryUnavailable = errors.New("history unavailable")

	// ErrNoSignal means neither stage produced any data.
	ErrNoSignal = errors.New("no effort or history signal")
)

// Options configures a pipeline run.
type Options struct {
	// RepoRoot is the repository top level, the base for every module key.
	RepoRoot string
	// SourceRoot is the directory the analyzer walks. Empty means RepoRoot.
	// It must lie inside RepoRoot so effort and history keys join.
	SourceRoot string
	Analyzer   complexity.Analyzer
	History    git.RepositoryReader
	Classifier bugfix.Classifier
	KPenalty   float64
	Scoring    config.ScoringConfig
	// Changed restricts the report to modules containing one of these
	// repository-relative paths. Nil keeps every module.
	Changed map[string]bool
	Logger  *slog.Logger
}

// Stats summarizes what each stage consumed.
type Stats struct {
	FilesAnalyzed int
	Functions     int
	EffortModules int
	// ChangedCommits counts non-merge commits that touched at least one
	// counted path; BugCommits is the subset classified as fixes.
	ChangedCommits  int
	BugCommits      int
	ActivityModules int
	Warnings        []complexity.FileError
	EffortErr       error
}

// Result is the outcome of a pipeline run.
type Result struct {
	Rows  []scoring.HotspotRow
	Stats Stats
}

// Run executes the pipeline sequentially. A failed effort stage degrades to
// zero effort; a failed history stage aborts the run with ErrHistoryUnavailable.
func Run(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.History == nil {
		return nil, fmt.Errorf("%w: no history source configured", ErrHistoryUnavailable)
	}

	n, err := module.NewNormalizer(opts.RepoRoot, logger)
	if err != nil {
		return nil, err
	}

	res := &Result{}

	effort, err := runEffort(ctx, opts, n, &res.Stats)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		res.Stats.EffortErr = err
		logger.Warn("continuing without effort signal", "root", opts.RepoRoot, "error", err)
	}

	activity := aggregation.NewHistoryAggregator(n, opts.Classifier)
	changeSets, err := opts.History.ReadChanges(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHistoryUnavailable, opts.RepoRoot, err)
	}
	activity.Process(changeSets)
	commits, bugs := activity.Counts()
	res.Stats.ChangedCommits = activity.Commits()
	res.Stats.BugCommits = activity.BugCommits()
	res.Stats.ActivityModules = len(commits)

	logger.Debug("stages complete",
		"effortModules", len(effort),
		"activityModules", len(commits),
		"changedCommits", res.Stats.ChangedCommits)

	if len(effort) == 0 && len(commits) == 0 {
		return nil, ErrNoSignal
	}

	rows := scoring.NewHotspotScorer(opts.Scoring).Score(effort, commits, bugs)
	if opts.Changed != nil {
		rows = filterChanged(rows, opts.Changed, n)
	}
	res.Rows = rows
	return res, nil
}

// runEffort analyzes the repository root and folds the result into module effort.
func runEffort(ctx context.Context, opts Options, n *module.Normalizer, stats *Stats) (map[module.Key]float64, error) {
	if opts.Analyzer == nil {
		return nil, fmt.Errorf("%w: no analyzer configured", ErrSourceUnavailable)
	}
	root := n.Root()
	if opts.SourceRoot != "" {
		abs, err := filepath.Abs(opts.SourceRoot)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		root = abs
	}
	result, err := opts.Analyzer.Analyze(ctx, []string{root})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	agg := aggregation.NewEffortAggregator(n, opts.KPenalty)
	agg.AddResult(result)
	effort := agg.Effort()

	stats.FilesAnalyzed = len(result.Files)
	stats.Functions = agg.Functions()
	stats.EffortModules = len(effort)
	stats.Warnings = result.Errors

	if len(effort) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, root)
	}
	return effort, nil
}

// filterChanged keeps rows whose module contains a changed path.
func filterChanged(rows []scoring.HotspotRow, changed map[string]bool, n *module.Normalizer) []scoring.HotspotRow {
	modules := make(map[module.Key]bool, len(changed))
	for p := range changed {
		modules[n.FileModule(p)] = true
	}
	out := rows[:0]
	for _, r := range rows {
		if modules[r.Module] {
			out = append(out, r)
		}
	}
	return out
}
