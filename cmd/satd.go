package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/collect"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/satd"
)

func satdFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "language",
			Aliases: []string{"l"},
			Usage:   "Source language (go, java, python; default go)",
		},
		&cli.StringSliceFlag{
			Name:  "satd-patterns",
			Usage: "Regex patterns replacing the language's SATD markers",
		},
	}
}

func newSATDClassifier(c *cli.Context, cfg config.SATDConfig) (*satd.Classifier, error) {
	if v := c.String("language"); v != "" {
		cfg.Language = v
	}
	if v := c.StringSlice("satd-patterns"); len(v) > 0 {
		cfg.Patterns = v
	}
	return satd.NewClassifier(cfg.Language, cfg.Patterns)
}

// SATDCmd returns the satd command.
func SATDCmd() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path or URL of the Git repository",
			Value:   ".",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns to exclude (can be specified multiple times)",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of files to list",
		},
	}, satdFlags()...)

	return &cli.Command{
		Name:      "satd",
		Usage:     "Count self-admitted technical debt comments in the current tree",
		ArgsUsage: "[repository path or URL]",
		Flags:     flags,
		Action:    satdAction,
	}
}

func satdAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext) error {
		classifier, err := newSATDClassifier(c, ctx.Config.SATD)
		if err != nil {
			return err
		}
		ctx.Banner("Scanning %s for %s SATD comments", ctx.Locator, classifier.Language())

		res, err := classifier.Scan(c.Context, ctx.SourceRoot, ctx.Config.Filters.Exclude, ctx.Logger)
		if err != nil {
			return err
		}
		writeSATDSummary(c.App.Writer, res, ctx.Config.Report.Top)
		return nil
	})
}

func writeSATDSummary(out io.Writer, res *satd.ScanResult, top int) {
	if out == nil {
		out = os.Stdout
	}
	color.New(color.FgYellow).Fprintf(out, "Found %s markers in %s of %s files\n",
		humanize.Comma(int64(res.TotalMarkers())),
		humanize.Comma(int64(len(res.Files))),
		humanize.Comma(int64(res.Scanned)))

	files := res.Files
	if top > 0 && len(files) > top {
		files = files[:top]
	}
	for _, f := range files {
		fmt.Fprintf(out, "  %5d  %s\n", f.Markers, f.Path)
	}
}

// CollectCmd returns the collect command.
func CollectCmd() *cli.Command {
	flags := append([]cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path or URL of the Git repository",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch to walk",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Only collect commits since this date (YYYY-MM-DD)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "CSV output file",
			Value:   "metrics_data.csv",
		},
	}, satdFlags()...)

	return &cli.Command{
		Name:      "collect",
		Usage:     "Write per-commit complexity, size and SATD metrics of touched files as CSV (complexity and size are measured for Go only)",
		ArgsUsage: "[repository path or URL]",
		Flags:     flags,
		Action:    collectAction,
	}
}

func collectAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext) error {
		classifier, err := newSATDClassifier(c, ctx.Config.SATD)
		if err != nil {
			return err
		}

		// Every commit is collected unless --since narrows the walk.
		since := ctx.Since
		if !c.IsSet("since") {
			since = nil
		}
		history, err := git.NewHistoryReader(git.ReadOptions{
			RepoPath:     ctx.RepoPath,
			Branch:       ctx.Config.History.Branch,
			Since:        since,
			RenameDetect: git.RenameDetectSimple,
			Logger:       ctx.Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to open repository: %w", err)
		}
		contents, err := git.NewSnapshotReader(ctx.RepoPath)
		if err != nil {
			return err
		}

		path := c.String("output")
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()

		if classifier.Language() != satd.LanguageGo {
			ctx.Logger.Warn("complexity and size are measured for Go only; those cells stay empty",
				"language", classifier.Language())
		}
		ctx.Banner("Collecting %s metrics from %s", classifier.Language(), ctx.Locator)
		collector := &collect.Collector{
			History:    history,
			Contents:   contents,
			Classifier: classifier,
			Logger:     ctx.Logger,
		}
		stats, err := collector.Write(c.Context, f)
		if err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		ctx.Banner("Wrote %s rows from %s commits to %s",
			humanize.Comma(int64(stats.Rows)), humanize.Comma(int64(stats.Commits)), path)
		return nil
	})
}
