package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/bugfix"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/linker"
	"github.com/masmgr/tdrspots/internal/output"
	"github.com/masmgr/tdrspots/internal/tdr"
)

const progressEvery = 500

func effortFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns of source files the analyzer skips (can be specified multiple times)",
		},
		&cli.Float64Flag{
			Name:  "k-penalty",
			Usage: "Effort cost of one unit of cyclomatic complexity, in lines",
		},
		&cli.StringFlag{
			Name:  "analyzer",
			Usage: "Complexity analyzer (native, lizard)",
		},
		&cli.StringFlag{
			Name:  "lizard-csv",
			Usage: "Read function metrics from `lizard --csv` output instead of parsing Go sources",
		},
	}
}

func bugFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "bug-patterns",
			Usage: "Regex patterns marking bug-fix commits (can be specified multiple times)",
		},
		&cli.StringFlag{
			Name:  "links",
			Usage: "Bug-fix links file from the link command; its commits are the bug fixes",
		},
	}
}

// AnalyzeCmd returns the analyze command.
func AnalyzeCmd() *cli.Command {
	flags := append(historyFlags(), reportFlags()...)
	flags = append(flags, effortFlags()...)
	flags = append(flags, bugFlags()...)
	flags = append(flags,
		&cli.Float64Flag{
			Name:  "commit-weight",
			Usage: "Pain weight of one module touch",
		},
		&cli.Float64Flag{
			Name:  "bug-weight",
			Usage: "Pain weight of one bug-fix module touch",
		},
		&cli.StringFlag{
			Name:  "diff",
			Usage: "Only report modules changed in this diff spec (e.g. origin/main...HEAD)",
		},
	)

	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Rank modules by TDR-W score (effort x weighted bug-fix activity)",
		ArgsUsage: "[repository path or URL]",
		Flags:     flags,
		Action:    analyzeAction,
	}
}

func analyzeAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext) error {
		cfg := ctx.Config
		ctx.Banner("Analyzing %s", ctx.Locator)

		analyzer, err := tdr.NewAnalyzer(cfg.Effort, cfg.Filters.Exclude, ctx.Logger, nil)
		if err != nil {
			return err
		}
		classifier, err := resolveClassifier(c, cfg)
		if err != nil {
			return err
		}
		reader, err := ctx.HistoryReader(logProgress(ctx, "reading history"))
		if err != nil {
			return err
		}

		var changed map[string]bool
		if spec := c.String("diff"); spec != "" {
			diff, err := git.ReadDiff(c.Context, git.DiffOptions{RepoPath: ctx.RepoPath, DiffSpec: spec})
			if err != nil {
				return err
			}
			changed = diff.ChangedPaths()
		}

		res, err := tdr.Run(c.Context, tdr.Options{
			RepoRoot:   ctx.RepoPath,
			SourceRoot: ctx.SourceRoot,
			Analyzer:   analyzer,
			History:    reader,
			Classifier: classifier,
			KPenalty:   cfg.Effort.KPenalty,
			Scoring:    cfg.Scoring,
			Changed:    changed,
			Logger:     ctx.Logger,
		})
		if err != nil {
			return err
		}

		report := &output.HotspotReport{
			RepoPath:    ctx.Locator,
			Since:       ctx.Since,
			Until:       ctx.Until,
			GeneratedAt: time.Now(),
			KPenalty:    cfg.Effort.KPenalty,
			Weights:     cfg.Scoring.Weights,
			Summary: output.ReportSummary{
				FilesAnalyzed:  res.Stats.FilesAnalyzed,
				Functions:      res.Stats.Functions,
				ChangedCommits: res.Stats.ChangedCommits,
				BugCommits:     res.Stats.BugCommits,
				Warnings:       len(res.Stats.Warnings),
			},
			Rows: res.Rows,
		}
		return writeHotspotReport(c, ctx, report)
	})
}

// resolveClassifier builds the bug-commit predicate. A links file replaces
// message patterns with the linked fix commits.
func resolveClassifier(c *cli.Context, cfg *config.Config) (bugfix.Classifier, error) {
	var linked []string
	if path := c.String("links"); path != "" {
		links, err := linker.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load links: %w", err)
		}
		linked = linker.FixCommits(links)
		if len(linked) == 0 {
			return bugfix.NewCommitSet(nil), nil
		}
	}
	classifier, err := tdr.NewClassifier(cfg.Bugfix, linked)
	if err != nil {
		return nil, fmt.Errorf("invalid bug pattern: %w", err)
	}
	return classifier, nil
}

// logProgress returns a progress callback that logs every progressEvery items.
func logProgress(ctx *CommandContext, msg string) func(int) {
	return func(n int) {
		if n%progressEvery == 0 {
			ctx.Logger.Debug(msg, "processed", n)
		}
	}
}
