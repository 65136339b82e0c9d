package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/issues"
	"github.com/masmgr/tdrspots/internal/linker"
	"github.com/masmgr/tdrspots/internal/tdr"
)

// LinkCmd returns the link command.
func LinkCmd() *cli.Command {
	return &cli.Command{
		Name:      "link",
		Usage:     "Link commits to fixed issues by the issue keys in their messages",
		ArgsUsage: "[repository path or URL]",
		Flags: []cli.Flag{
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
				Name:  "issues",
				Usage: "Issue store written by fetch-issues",
			},
			&cli.StringFlag{
				Name:  "pattern",
				Usage: "Issue key regex; the first capture group is the key",
			},
			&cli.StringFlag{
				Name:  "repo-name",
				Usage: "Repository name recorded in each link (default: derived from the repository)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Bug-fix links output file",
			},
		},
		Action: linkAction,
	}
}

func linkAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext) error {
		cfg := ctx.Config.Linker
		if v := c.String("issues"); v != "" {
			cfg.IssuesFile = v
		}
		if v := c.String("pattern"); v != "" {
			cfg.IssueKeyPattern = v
		}
		if v := c.String("repo-name"); v != "" {
			cfg.RepoName = v
		}
		if v := c.String("output"); v != "" {
			cfg.Output = v
		}
		if cfg.RepoName == "" {
			cfg.RepoName = repoName(ctx.Locator)
		}

		store, err := issues.Load(cfg.IssuesFile)
		if err != nil {
			return fmt.Errorf("failed to load issues: %w", err)
		}
		l, err := linker.New(cfg.IssueKeyPattern, store, cfg.RepoName, ctx.Logger)
		if err != nil {
			return err
		}

		// Links span the whole history, so the reader has no window or path filter.
		reader, err := git.NewHistoryReader(git.ReadOptions{
			RepoPath: ctx.RepoPath,
			Branch:   ctx.Config.History.Branch,
			Logger:   ctx.Logger,
		})
		if err != nil {
			return fmt.Errorf("failed to open repository: %w", err)
		}

		ctx.Banner("Linking %s against %s issues", ctx.Locator, humanize.Comma(int64(len(store))))
		links, err := l.Run(c.Context, reader)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", tdr.ErrHistoryUnavailable, ctx.Locator, err)
		}
		if err := linker.Save(cfg.Output, links); err != nil {
			return err
		}
		ctx.Banner("Wrote %s links (%s fix commits) to %s",
			humanize.Comma(int64(len(links))),
			humanize.Comma(int64(len(linker.FixCommits(links)))),
			cfg.Output)
		return nil
	})
}

// repoName derives "owner/name" from a remote URL, or the directory name of a local path.
func repoName(locator string) string {
	l := strings.TrimSuffix(strings.TrimRight(locator, "/"), ".git")
	if git.IsRemote(l) {
		if i := strings.LastIndex(l, ":"); strings.HasPrefix(l, "git@") && i >= 0 {
			return l[i+1:]
		}
		parts := strings.Split(l, "/")
		if len(parts) >= 2 {
			return parts[len(parts)-2] + "/" + parts[len(parts)-1]
		}
		return l
	}
	abs, err := filepath.Abs(l)
	if err != nil {
		return filepath.Base(l)
	}
	return filepath.Base(abs)
}

// FetchIssuesCmd returns the fetch-issues command.
func FetchIssuesCmd() *cli.Command {
	return &cli.Command{
		Name:  "fetch-issues",
		Usage: "Download fixed bug issues from Jira into an issue store",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Usage:   "Jira project key",
			},
			&cli.StringFlag{
				Name:  "jql",
				Usage: "Custom JQL query (overrides --project)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Jira base URL",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Usage: "Issues per request",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Issue store output file",
			},
		},
		Action: fetchIssuesAction,
	}
}

func fetchIssuesAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	jira := cfg.Jira
	if v := c.String("project"); v != "" {
		jira.Project = v
	}
	if v := c.String("jql"); v != "" {
		jira.JQL = v
	}
	if v := c.String("base-url"); v != "" {
		jira.BaseURL = v
	}
	if v := c.Int("page-size"); v > 0 {
		jira.PageSize = v
	}
	out := cfg.Linker.IssuesFile
	if v := c.String("output"); v != "" {
		out = v
	}

	jql := jira.JQL
	if jql == "" {
		if jira.Project == "" {
			return fmt.Errorf("a Jira project (--project) or query (--jql) is required")
		}
		jql = issues.FixedBugsJQL(jira.Project)
	}

	logger := slog.Default()
	client := issues.NewJiraClient(jira.BaseURL, jira.Username, jira.APIToken)
	client.PageSize = jira.PageSize
	client.Logger = logger
	client.OnProgress = func(fetched, total int) {
		logger.Info("fetched issues", "fetched", fetched, "total", total)
	}

	store, err := client.Search(c.Context, jql)
	if err != nil {
		return err
	}
	if err := store.Save(out); err != nil {
		return err
	}
	banner("Saved %s issues to %s", humanize.Comma(int64(len(store))), out)
	return nil
}
