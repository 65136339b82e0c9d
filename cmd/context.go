package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/output"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across all analysis commands.
type CommandContext struct {
	Config *config.Config
	Logger *slog.Logger
	// Locator is the repository as given on the command line. SourceRoot is
	// its local directory, a temporary clone for remote locators. RepoPath is
	// the worktree top level containing SourceRoot; module keys are relative to it.
	Locator    string
	SourceRoot string
	RepoPath   string
	Since      *time.Time
	Until      time.Time

	cleanup func()
}

// NewCommandContext creates a context from CLI flags.
// It loads configuration, resolves the history window and clones remote repositories.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	since, err := parseDateFlag(c.String("since"))
	if err != nil {
		return nil, fmt.Errorf("invalid since date: %w", err)
	}
	until, err := parseDateFlag(c.String("until"))
	if err != nil {
		return nil, fmt.Errorf("invalid until date: %w", err)
	}

	untilTime := time.Now()
	if until != nil {
		untilTime = *until
	}
	if since == nil {
		s := untilTime.AddDate(0, 0, -cfg.History.WindowDays)
		since = &s
	}

	locator := c.String("repo")
	if c.NArg() > 0 {
		locator = c.Args().First()
	}

	logger := slog.Default()
	localPath, cleanup, err := git.OpenOrClone(c.Context, locator, logger)
	if err != nil {
		return nil, err
	}
	sourceRoot, err := filepath.Abs(localPath)
	if err != nil {
		cleanup()
		return nil, err
	}
	repoPath, err := git.TopLevel(sourceRoot)
	if err != nil {
		// Plain directories still work for effort and SATD scans.
		logger.Debug("not inside a git worktree", "path", sourceRoot, "error", err)
		repoPath = sourceRoot
	}

	return &CommandContext{
		Config:     cfg,
		Logger:     logger,
		Locator:    locator,
		SourceRoot: sourceRoot,
		RepoPath:   repoPath,
		Since:      since,
		Until:      untilTime,
		cleanup:    cleanup,
	}, nil
}

// Close removes a temporary clone, if any.
func (ctx *CommandContext) Close() {
	if ctx.cleanup != nil {
		ctx.cleanup()
	}
}

// HistoryReader opens the commit history of the configured window.
func (ctx *CommandContext) HistoryReader(onProgress func(int)) (*git.HistoryReader, error) {
	rename, err := git.ParseRenameDetectMode(ctx.Config.History.RenameDetect)
	if err != nil {
		return nil, err
	}
	reader, err := git.NewHistoryReader(git.ReadOptions{
		RepoPath:     ctx.RepoPath,
		Branch:       ctx.Config.History.Branch,
		Since:        ctx.Since,
		Until:        &ctx.Until,
		Include:      ctx.Config.History.Include,
		Exclude:      ctx.Config.History.Exclude,
		RenameDetect: rename,
		Backend:      git.Backend(ctx.Config.History.Backend),
		OnProgress:   onProgress,
		Logger:       ctx.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return reader, nil
}

// Banner prints a colored status line on stderr.
func (ctx *CommandContext) Banner(format string, args ...interface{}) {
	banner(format, args...)
}

func banner(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(os.Stderr, format+"\n", args...)
}

// OutputOptions creates OutputOptions from CLI flags and configuration.
func (ctx *CommandContext) OutputOptions(c *cli.Context) output.OutputOptions {
	opts := output.OutputOptions{
		Format:     getOutputFormat(c.String("format")),
		OutputPath: c.String("output"),
		Out:        c.App.Writer,
	}
	// Console and markdown always truncate; the machine formats only on request.
	if c.IsSet("top") || opts.Format == output.FormatConsole || opts.Format == output.FormatMarkdown {
		opts.Top = ctx.Config.Report.Top
	}
	return opts
}

// executeWithContext runs fn with a prepared CommandContext and releases it afterwards.
func executeWithContext(c *cli.Context, fn func(ctx *CommandContext) error) error {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	defer ctx.Close()
	return fn(ctx)
}
