// Package linker links commits to tracker issues by the issue keys in their messages.
package linker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/issues"
)

// Link ties a fixing commit to the creation date of the issue it fixes.
type Link struct {
	RepoName          string `json:"repo_name"`
	FixCommitHash     string `json:"fix_commit_hash"`
	EarliestIssueDate string `json:"earliest_issue_date"`
}

// Linker matches commit messages against issue keys known to a store.
type Linker struct {
	pattern  *regexp.Regexp
	store    issues.Store
	repoName string
	logger   *slog.Logger
}

// New creates a linker. The pattern is matched case-insensitively; when it has
// a capture group, the first group is the issue key.
func New(pattern string, store issues.Store, repoName string, logger *slog.Logger) (*Linker, error) {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid issue key pattern: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{pattern: re, store: store, repoName: repoName, logger: logger}, nil
}

// Keys returns the distinct issue keys in message, uppercased, in order of appearance.
func (l *Linker) Keys(message string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range l.pattern.FindAllStringSubmatch(message, -1) {
		key := m[0]
		if len(m) > 1 && m[1] != "" {
			key = m[1]
		}
		key = strings.ToUpper(key)
		if seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// Link emits one entry per (commit, known issue) pair.
func (l *Linker) Link(commits []git.CommitInfo) []Link {
	links := []Link{}
	for _, c := range commits {
		for _, key := range l.Keys(c.Message) {
			created, ok := l.store.Created(key)
			if !ok {
				continue
			}
			links = append(links, Link{
				RepoName:          l.repoName,
				FixCommitHash:     c.SHA,
				EarliestIssueDate: created,
			})
		}
	}
	l.logger.Debug("linked commits", "commits", len(commits), "links", len(links))
	return links
}

// Run lists every commit of the repository and links it.
func (l *Linker) Run(ctx context.Context, lister git.CommitLister) ([]Link, error) {
	commits, err := lister.ReadCommits(ctx)
	if err != nil {
		return nil, err
	}
	return l.Link(commits), nil
}

// FixCommits returns the distinct fixing commit hashes in order of appearance.
func FixCommits(links []Link) []string {
	var shas []string
	seen := make(map[string]bool)
	for _, lk := range links {
		if seen[lk.FixCommitHash] {
			continue
		}
		seen[lk.FixCommitHash] = true
		shas = append(shas, lk.FixCommitHash)
	}
	return shas
}

// Save writes links as an indented JSON array.
func Save(path string, links []Link) error {
	if links == nil {
		links = []Link{}
	}
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Load reads links written by Save.
func Load(path string) ([]Link, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var links []Link
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return links, nil
}
