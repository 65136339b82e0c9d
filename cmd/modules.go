package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/tdrspots/internal/aggregation"
	"github.com/masmgr/tdrspots/internal/bugfix"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/module"
	"github.com/masmgr/tdrspots/internal/output"
	"github.com/masmgr/tdrspots/internal/tdr"
)

// EffortCmd returns the effort command.
func EffortCmd() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path or URL of the Git repository",
			Value:   ".",
		},
	}, reportFlags()...)
	flags = append(flags, effortFlags()...)

	return &cli.Command{
		Name:      "effort",
		Aliases:   []string{"e"},
		Usage:     "Report per-module effort (nloc + k*ccn) of the current tree",
		ArgsUsage: "[repository path or URL]",
		Flags:     flags,
		Action:    effortAction,
	}
}

func effortAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext) error {
		cfg := ctx.Config
		ctx.Banner("Measuring %s", ctx.Locator)

		analyzer, err := tdr.NewAnalyzer(cfg.Effort, cfg.Filters.Exclude, ctx.Logger, logProgress(ctx, "analyzing files"))
		if err != nil {
			return err
		}
		n, err := module.NewNormalizer(ctx.RepoPath, ctx.Logger)
		if err != nil {
			return err
		}
		res, err := analyzer.Analyze(c.Context, []string{ctx.SourceRoot})
		if err != nil {
			return fmt.Errorf("%w: %w", tdr.ErrSourceUnavailable, err)
		}
		for _, fe := range res.Errors {
			ctx.Logger.Warn("skipped file", "path", fe.Path, "error", fe.Err)
		}

		agg := aggregation.NewEffortAggregator(n, cfg.Effort.KPenalty)
		agg.AddResult(res)

		return output.WriteEffortReport(&output.EffortReport{
			RepoPath:    ctx.Locator,
			GeneratedAt: time.Now(),
			KPenalty:    cfg.Effort.KPenalty,
			Records:     agg.Table().Records(),
		}, ctx.OutputOptions(c))
	})
}

// ActivityCmd returns the activity command.
func ActivityCmd() *cli.Command {
	flags := append(historyFlags(), reportFlags()...)
	flags = append(flags, bugFlags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:  "show-fixes",
		Usage: "List the commits classified as bug fixes",
	})

	return &cli.Command{
		Name:      "activity",
		Usage:     "Report per-module commit and bug-fix touches in the history window",
		ArgsUsage: "[repository path or URL]",
		Flags:     flags,
		Action:    activityAction,
	}
}

func activityAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext) error {
		ctx.Banner("Reading history of %s", ctx.Locator)

		classifier, err := resolveClassifier(c, ctx.Config)
		if err != nil {
			return err
		}
		reader, err := ctx.HistoryReader(logProgress(ctx, "reading history"))
		if err != nil {
			return err
		}
		changeSets, err := reader.ReadChanges(c.Context)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", tdr.ErrHistoryUnavailable, ctx.Locator, err)
		}

		if c.Bool("show-fixes") {
			showFixes(changeSets, bugfix.Detect(classifier, changeSets))
		}

		n, err := module.NewNormalizer(ctx.RepoPath, ctx.Logger)
		if err != nil {
			return err
		}
		agg := aggregation.NewHistoryAggregator(n, classifier)
		agg.Process(changeSets)

		return output.WriteActivityReport(&output.ActivityReport{
			RepoPath:    ctx.Locator,
			Since:       ctx.Since,
			Until:       ctx.Until,
			GeneratedAt: time.Now(),
			Commits:     agg.Commits(),
			BugCommits:  agg.BugCommits(),
			Records:     agg.Table().Records(),
		}, ctx.OutputOptions(c))
	})
}

// showFixes prints the detected fix commits, newest first, on stderr.
func showFixes(changeSets []git.CommitChangeSet, fixes *bugfix.BugfixResult) {
	colorTitle := color.New(color.FgGreen).Add(color.Underline)
	colorTitle.Fprintf(os.Stderr, "Fixes (%d):\n", fixes.TotalBugfixes)

	for i := len(changeSets) - 1; i >= 0; i-- {
		commit := changeSets[i].Commit
		if _, ok := fixes.BugfixCommits[commit.SHA]; !ok {
			continue
		}
		color.New(color.FgYellow).Fprintf(os.Stderr, "\t- %s %s %s\n",
			shortSHA(commit.SHA), commit.When.Format("2006-01-02 15:04:05"), commit.Subject())
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
