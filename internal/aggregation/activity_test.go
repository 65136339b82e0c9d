package aggregation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/masmgr/tdrspots/internal/bugfix"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/module"
)

func modified(p string) git.FileChange {
	return git.FileChange{OldPath: p, NewPath: p, Kind: git.ChangeKindModified}
}

func changeSet(sha, msg string, changes ...git.FileChange) git.CommitChangeSet {
	return git.CommitChangeSet{
		Commit:  git.CommitInfo{SHA: sha, Message: msg, When: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Changes: changes,
	}
}

func mustDetector(t testing.TB) *bugfix.Detector {
	t.Helper()
	d, err := bugfix.NewDetector([]string{`\bfix\b`, `bug\b`})
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return d
}

func TestHistoryAggregator_CountsPerFileTouch(t *testing.T) {
	a := NewHistoryAggregator(newNormalizer(t), mustDetector(t))
	a.AddCommit(changeSet("c1", "feature work",
		modified("lib/a.go"), modified("lib/b.go"), modified("lib/c.go")))

	commits, bugs := a.Counts()
	if commits["lib"] != 3 {
		t.Errorf("commits[lib] = %d, want 3 (one per touched file)", commits["lib"])
	}
	if len(bugs) != 0 {
		t.Errorf("bugs = %v, want none", bugs)
	}
}

func TestHistoryAggregator_BugTouches(t *testing.T) {
	a := NewHistoryAggregator(newNormalizer(t), mustDetector(t))
	a.Process([]git.CommitChangeSet{
		changeSet("c1", "Fix crash in parser", modified("lib/parser.go"), modified("app/main.go")),
		changeSet("c2", "add option", modified("lib/options.go")),
		changeSet("c3", "refactor\n\nalso a bug in lexer", modified("lib/lexer.go")),
	})

	commits, bugs := a.Counts()
	if commits["lib"] != 3 || bugs["lib"] != 2 {
		t.Errorf("lib = (%d, %d), want (3, 2)", commits["lib"], bugs["lib"])
	}
	if commits["app"] != 1 || bugs["app"] != 1 {
		t.Errorf("app = (%d, %d), want (1, 1)", commits["app"], bugs["app"])
	}
	if a.Commits() != 3 || a.BugCommits() != 2 {
		t.Errorf("Commits=%d BugCommits=%d, want 3 and 2", a.Commits(), a.BugCommits())
	}
}

func TestHistoryAggregator_EffectivePaths(t *testing.T) {
	a := NewHistoryAggregator(newNormalizer(t), nil)
	a.AddCommit(changeSet("c1", "move and delete",
		git.FileChange{OldPath: "old/x.go", NewPath: "new/x.go", Kind: git.ChangeKindRenamed},
		git.FileChange{OldPath: "gone/y.go", Kind: git.ChangeKindDeleted},
		git.FileChange{NewPath: "README", Kind: git.ChangeKindAdded},
	))

	commits, _ := a.Counts()
	want := map[module.Key]int{"new": 1, "gone": 1, "": 1}
	if len(commits) != len(want) {
		t.Fatalf("commits = %v, want %v", commits, want)
	}
	for k, v := range want {
		if commits[k] != v {
			t.Errorf("commits[%q] = %d, want %d", k, commits[k], v)
		}
	}
}

func TestHistoryAggregator_NoPathsContributesNothing(t *testing.T) {
	a := NewHistoryAggregator(newNormalizer(t), mustDetector(t))
	a.AddCommit(changeSet("c1", "fix bug", git.FileChange{Kind: git.ChangeKindModified}))

	commits, bugs := a.Counts()
	if len(commits) != 0 || len(bugs) != 0 {
		t.Errorf("counts = %v / %v, want empty", commits, bugs)
	}
}

func TestComputeActivity(t *testing.T) {
	n := newNormalizer(t)
	reader := git.NewMockHistoryReader([]git.CommitChangeSet{
		changeSet("c1", "fix: off by one", modified("lib/a.go")),
	}, nil)

	commits, bugs, err := ComputeActivity(context.Background(), reader, n, mustDetector(t))
	if err != nil {
		t.Fatalf("ComputeActivity: %v", err)
	}
	if commits["lib"] != 1 || bugs["lib"] != 1 {
		t.Errorf("lib = (%d, %d), want (1, 1)", commits["lib"], bugs["lib"])
	}
}

func TestComputeActivity_ReaderError(t *testing.T) {
	wantErr := errors.New("corrupt object")
	reader := git.NewMockHistoryReader(nil, wantErr)

	commits, bugs, err := ComputeActivity(context.Background(), reader, newNormalizer(t), nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if commits != nil || bugs != nil {
		t.Error("no maps may be returned on failure")
	}
}

func genChangeSets() *rapid.Generator[[]git.CommitChangeSet] {
	return rapid.Custom(func(t *rapid.T) []git.CommitChangeSet {
		count := rapid.IntRange(0, 20).Draw(t, "commits")
		out := make([]git.CommitChangeSet, 0, count)
		for i := 0; i < count; i++ {
			msg := rapid.SampledFrom([]string{"fix bug", "feature", "docs", "Fix #12", "patch"}).Draw(t, "msg")
			files := rapid.IntRange(0, 5).Draw(t, "files")
			changes := make([]git.FileChange, 0, files)
			for f := 0; f < files; f++ {
				dir := rapid.SampledFrom([]string{"a", "a/b", "c", ""}).Draw(t, "dir")
				p := fmt.Sprintf("f%d.go", f)
				if dir != "" {
					p = dir + "/" + p
				}
				switch rapid.IntRange(0, 3).Draw(t, "shape") {
				case 0:
					changes = append(changes, git.FileChange{NewPath: p, Kind: git.ChangeKindAdded})
				case 1:
					changes = append(changes, git.FileChange{OldPath: p, Kind: git.ChangeKindDeleted})
				case 2:
					changes = append(changes, modified(p))
				default:
					changes = append(changes, git.FileChange{})
				}
			}
			out = append(out, changeSet(fmt.Sprintf("c%d", i), msg, changes...))
		}
		return out
	})
}

func TestRapidActivity_BugsNeverExceedCommits(t *testing.T) {
	n := newNormalizer(t)
	d := mustDetector(t)

	rapid.Check(t, func(t *rapid.T) {
		a := NewHistoryAggregator(n, d)
		a.Process(genChangeSets().Draw(t, "sets"))

		commits, bugs := a.Counts()
		for key, b := range bugs {
			if b > commits[key] {
				t.Fatalf("bugs[%q]=%d > commits=%d", key, b, commits[key])
			}
		}
		if a.BugCommits() > a.Commits() {
			t.Fatalf("bug commits %d > commits %d", a.BugCommits(), a.Commits())
		}
	})
}

func TestRapidActivity_TotalEqualsFileEvents(t *testing.T) {
	n := newNormalizer(t)

	rapid.Check(t, func(t *rapid.T) {
		sets := genChangeSets().Draw(t, "sets")
		a := NewHistoryAggregator(n, nil)
		a.Process(sets)

		events := 0
		for _, cs := range sets {
			for _, c := range cs.Changes {
				if c.EffectivePath() != "" {
					events++
				}
			}
		}
		commits, _ := a.Counts()
		total := 0
		for _, c := range commits {
			total += c
		}
		if total != events {
			t.Fatalf("total touches = %d, want %d", total, events)
		}
	})
}

func TestRapidActivity_OrderIndependent(t *testing.T) {
	n := newNormalizer(t)
	d := mustDetector(t)

	rapid.Check(t, func(t *rapid.T) {
		sets := genChangeSets().Draw(t, "sets")
		forward := NewHistoryAggregator(n, d)
		forward.Process(sets)

		backward := NewHistoryAggregator(n, d)
		for i := len(sets) - 1; i >= 0; i-- {
			backward.AddCommit(sets[i])
		}

		fc, fb := forward.Counts()
		bc, bb := backward.Counts()
		if fmt.Sprint(fc) != fmt.Sprint(bc) || fmt.Sprint(fb) != fmt.Sprint(bb) {
			t.Fatalf("order changed the result: %v/%v vs %v/%v", fc, fb, bc, bb)
		}
	})
}
