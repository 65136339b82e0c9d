package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/output"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "tdrspots",
		Usage:   "Rank technical-debt hotspots by effort and bug-fix activity",
		Version: "1.0.0",
		Commands: []*cli.Command{
			AnalyzeCmd(),
			EffortCmd(),
			ActivityCmd(),
			LinkCmd(),
			FetchIssuesCmd(),
			SATDCmd(),
			CollectCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file with Jira credentials",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug messages",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Log errors only",
			},
		},
		Before:         setup,
		DefaultCommand: "analyze",
	}
}

// setup loads the env file and installs the process logger.
func setup(c *cli.Context) error {
	if path := c.String("env-file"); path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	slog.SetDefault(newLogger(c.App.ErrWriter, c.Bool("verbose"), c.Bool("quiet")))
	return nil
}

func newLogger(w io.Writer, verbose, quiet bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// historyFlags are shared by every command that reads commit history.
func historyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path or URL of the Git repository",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Analyze commits since this date (YYYY-MM-DD, default: window-days before until)",
		},
		&cli.StringFlag{
			Name:  "until",
			Usage: "Analyze commits until this date (YYYY-MM-DD)",
		},
		&cli.IntFlag{
			Name:  "window-days",
			Usage: "History window in days when --since is not given",
		},
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch to analyze",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "History backend (go-git, git-cli)",
		},
		&cli.StringFlag{
			Name:  "rename-detect",
			Usage: "Rename detection mode (off, simple, aggressive)",
		},
		&cli.StringSliceFlag{
			Name:  "history-include",
			Usage: "Only count changes to paths matching these globs (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "history-exclude",
			Usage: "Do not count changes to paths matching these globs (can be specified multiple times)",
		},
	}
}

// reportFlags are shared by every command that writes a module report.
func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of top results to show",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// parseDateFlag parses a date string flag.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return &t, nil
}

// parseRenameDetectFlag accepts the configuration values plus a few aliases.
func parseRenameDetectFlag(s string) (git.RenameDetectMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "no":
		return git.RenameDetectOff, nil
	case "true", "yes":
		return git.RenameDetectSimple, nil
	case "similarity":
		return git.RenameDetectAggressive, nil
	}
	return git.ParseRenameDetectMode(s)
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) output.OutputFormat {
	switch strings.ToLower(s) {
	case "json":
		return output.FormatJSON
	case "csv":
		return output.FormatCSV
	case "markdown", "md":
		return output.FormatMarkdown
	case "ci", "ndjson":
		return output.FormatCI
	default:
		return output.FormatConsole
	}
}

// loadConfig loads configuration from file or defaults, then applies
// environment and flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ApplyEnv()

	if c.IsSet("history-include") {
		cfg.History.Include = c.StringSlice("history-include")
	}
	if c.IsSet("history-exclude") {
		cfg.History.Exclude = c.StringSlice("history-exclude")
	}
	if c.IsSet("exclude") {
		cfg.Filters.Exclude = c.StringSlice("exclude")
	}
	if v := c.Int("window-days"); v > 0 {
		cfg.History.WindowDays = v
	}
	if v := c.String("branch"); v != "" {
		cfg.History.Branch = v
	}
	if v := c.String("backend"); v != "" {
		cfg.History.Backend = v
	}
	if v := c.String("rename-detect"); v != "" {
		mode, err := parseRenameDetectFlag(v)
		if err != nil {
			return nil, err
		}
		cfg.History.RenameDetect = [...]string{"off", "simple", "aggressive"}[mode]
	}
	if c.IsSet("k-penalty") {
		cfg.Effort.KPenalty = c.Float64("k-penalty")
	}
	if v := c.String("analyzer"); v != "" {
		cfg.Effort.Analyzer = v
	}
	if v := c.String("lizard-csv"); v != "" {
		cfg.Effort.Analyzer = "lizard"
		cfg.Effort.LizardCSV = v
	}
	if c.IsSet("commit-weight") {
		cfg.Scoring.Weights.Commit = c.Float64("commit-weight")
	}
	if c.IsSet("bug-weight") {
		cfg.Scoring.Weights.Bug = c.Float64("bug-weight")
	}
	if patterns := c.StringSlice("bug-patterns"); len(patterns) > 0 {
		cfg.Bugfix.Patterns = patterns
	}
	if v := c.Int("top"); v > 0 {
		cfg.Report.Top = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
