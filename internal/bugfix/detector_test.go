package bugfix

import (
	"testing"
	"time"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/git"
)

func TestNewDetector_ValidPatterns(t *testing.T) {
	patterns := []string{`\bfix(ed|es)?\b`, `\bbug\b`, `\bhotfix\b`}
	d, err := NewDetector(patterns)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.patterns) != 3 {
		t.Errorf("expected 3 compiled patterns, got %d", len(d.patterns))
	}
}

func TestNewDetector_InvalidPattern(t *testing.T) {
	patterns := []string{`[invalid`}
	_, err := NewDetector(patterns)
	if err == nil {
		t.Fatal("expected error for invalid pattern, got nil")
	}
}

func TestNewDetector_EmptyPatterns(t *testing.T) {
	d, err := NewDetector([]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.patterns) != 0 {
		t.Errorf("expected 0 compiled patterns, got %d", len(d.patterns))
	}
}

func TestNewDetector_SkipsBlankPatterns(t *testing.T) {
	d, err := NewDetector([]string{"fix", "", "  ", "bug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.patterns) != 2 {
		t.Errorf("expected 2 compiled patterns, got %d", len(d.patterns))
	}
}

func TestIsBugfix(t *testing.T) {
	d, err := NewDetector([]string{`\bfix(ed|es)?\b`, `\bbug\b`, `\bhotfix\b`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"matches fix", "fix: resolve null pointer", true},
		{"matches fixed", "fixed login issue", true},
		{"matches fixes", "fixes #123", true},
		{"matches bug", "bug in auth module", true},
		{"matches hotfix", "hotfix for production crash", true},
		{"case insensitive", "FIX: resolve issue", true},
		{"case insensitive mixed", "Fixed Login Issue", true},
		{"no match", "add new feature", false},
		{"no match refactor", "refactor: clean up code", false},
		{"partial word no match", "prefix fixation suffix", false},
		{"empty message", "", false},
		{"match in body", "Refactor parser\n\nAlso fixes a bug in tokenizer", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.IsBugfix(tt.message)
			if got != tt.want {
				t.Errorf("IsBugfix(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestIsBugfix_NoPatterns(t *testing.T) {
	d, _ := NewDetector([]string{})
	if d.IsBugfix("fix something") {
		t.Error("expected false when no patterns configured")
	}
}

func TestIsBugfix_DefaultPattern(t *testing.T) {
	d, err := NewDetector([]string{config.DefaultBugPattern})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		message string
		want    bool
	}{
		{"Fixes #123", true},
		{"fix #7: crash on empty input", true},
		{"fixed #42", true},
		{"Found a BUG in lexer", true},
		{"apply patch from upstream", true},
		{"debug logging", true}, // no leading word boundary on bug
		{"add bugs page", false},
		{"dispatcher cleanup", false},
		{"add feature", false},
	}
	for _, tt := range tests {
		if got := d.IsBugfix(tt.message); got != tt.want {
			t.Errorf("IsBugfix(%q) = %v, want %v", tt.message, got, tt.want)
		}
	}
}

func makeChangeSets() []git.CommitChangeSet {
	now := time.Now()
	return []git.CommitChangeSet{
		{
			Commit: git.CommitInfo{
				SHA:     "aaa111",
				When:    now,
				Author:  git.AuthorInfo{Name: "Alice", Email: "alice@example.com"},
				Message: "fix: resolve null pointer in auth",
			},
			Changes: []git.FileChange{
				{OldPath: "auth/login.go", NewPath: "auth/login.go", Kind: git.ChangeKindModified},
			},
		},
		{
			Commit: git.CommitInfo{
				SHA:     "bbb222",
				When:    now,
				Author:  git.AuthorInfo{Name: "Bob", Email: "bob@example.com"},
				Message: "feat: add user profile page",
			},
			Changes: []git.FileChange{
				{NewPath: "user/profile.go", Kind: git.ChangeKindAdded},
			},
		},
		{
			Commit: git.CommitInfo{
				SHA:     "ccc333",
				When:    now,
				Author:  git.AuthorInfo{Name: "Charlie", Email: "charlie@example.com"},
				Message: "bug: incorrect validation logic",
			},
			Changes: []git.FileChange{
				{OldPath: "old/file.go", Kind: git.ChangeKindDeleted},
			},
		},
	}
}

func TestDetect(t *testing.T) {
	d, err := NewDetector([]string{`\bfix\b`, `\bbug\b`})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := Detect(d, makeChangeSets())

	if result.TotalBugfixes != 2 {
		t.Errorf("TotalBugfixes = %d, want 2", result.TotalBugfixes)
	}
	if _, ok := result.BugfixCommits["aaa111"]; !ok {
		t.Error("expected aaa111 to be a bugfix commit")
	}
	if _, ok := result.BugfixCommits["bbb222"]; ok {
		t.Error("expected bbb222 to NOT be a bugfix commit")
	}
	if len(result.Ordered) != 2 || result.Ordered[0] != "aaa111" || result.Ordered[1] != "ccc333" {
		t.Errorf("Ordered = %v, want [aaa111 ccc333]", result.Ordered)
	}
}

func TestDetect_NoPatterns(t *testing.T) {
	d, _ := NewDetector([]string{})
	result := Detect(d, makeChangeSets())

	if result.TotalBugfixes != 0 {
		t.Errorf("TotalBugfixes = %d, want 0", result.TotalBugfixes)
	}
	if len(result.BugfixCommits) != 0 {
		t.Errorf("BugfixCommits length = %d, want 0", len(result.BugfixCommits))
	}
}

func TestDetect_MultiplePatterns(t *testing.T) {
	d, _ := NewDetector([]string{`\bhotfix\b`})
	if got := Detect(d, makeChangeSets()).TotalBugfixes; got != 0 {
		t.Errorf("TotalBugfixes = %d, want 0", got)
	}

	d, _ = NewDetector([]string{`\bhotfix\b`, `\bfix\b`})
	if got := Detect(d, makeChangeSets()).TotalBugfixes; got != 1 {
		t.Errorf("TotalBugfixes = %d, want 1", got)
	}

	d, _ = NewDetector([]string{`\bhotfix\b`, `\bfix\b`, `\bbug\b`})
	if got := Detect(d, makeChangeSets()).TotalBugfixes; got != 2 {
		t.Errorf("TotalBugfixes = %d, want 2", got)
	}
}

func TestDetect_NilClassifier(t *testing.T) {
	if got := Detect(nil, makeChangeSets()).TotalBugfixes; got != 0 {
		t.Errorf("TotalBugfixes = %d, want 0", got)
	}
}

func TestCommitSet(t *testing.T) {
	set := NewCommitSet([]string{"bbb222", " ", ""})
	if len(set) != 1 {
		t.Fatalf("len(set) = %d, want 1", len(set))
	}
	result := Detect(set, makeChangeSets())
	if result.TotalBugfixes != 1 || result.Ordered[0] != "bbb222" {
		t.Errorf("Detect(CommitSet) = %+v", result)
	}
}
