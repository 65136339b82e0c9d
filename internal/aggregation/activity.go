package aggregation

import (
	"context"
	"sort"

	"github.com/masmgr/tdrspots/internal/bugfix"
	"github.com/masmgr/tdrspots/internal/git"
	"github.com/masmgr/tdrspots/internal/module"
)

// CommitActivity counts file touches and bug-fix file touches for one module.
// BugCount never exceeds CommitCount.
type CommitActivity struct {
	Module      module.Key
	CommitCount int
	BugCount    int
}

// Touch records one file event. A bug-related touch counts toward both counters.
func (c *CommitActivity) Touch(bug bool) {
	c.CommitCount++
	if bug {
		c.BugCount++
	}
}

// ActivityTable maps modules to activity counters, inserting explicitly via GetOrCreate.
type ActivityTable struct {
	records map[module.Key]*CommitActivity
}

// NewActivityTable creates an empty table.
func NewActivityTable() *ActivityTable {
	return &ActivityTable{records: make(map[module.Key]*CommitActivity)}
}

// GetOrCreate returns the counters for key, inserting zero counters if absent.
func (t *ActivityTable) GetOrCreate(key module.Key) *CommitActivity {
	r, ok := t.records[key]
	if !ok {
		r = &CommitActivity{Module: key}
		t.records[key] = r
	}
	return r
}

// Get returns the counters for key without inserting.
func (t *ActivityTable) Get(key module.Key) (CommitActivity, bool) {
	r, ok := t.records[key]
	if !ok {
		return CommitActivity{}, false
	}
	return *r, true
}

// Len returns the number of modules in the table.
func (t *ActivityTable) Len() int {
	return len(t.records)
}

// Records returns a copy of every record ordered by module key.
func (t *ActivityTable) Records() []CommitActivity {
	out := make([]CommitActivity, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// HistoryAggregator attributes every file touched by a commit to its module.
// A commit touching three files of one module counts three times for that module.
type HistoryAggregator struct {
	normalizer *module.Normalizer
	classifier bugfix.Classifier
	table      *ActivityTable

	commits    int
	bugCommits int
}

// NewHistoryAggregator creates an aggregator. A nil classifier marks no commit as a bug fix.
func NewHistoryAggregator(n *module.Normalizer, classifier bugfix.Classifier) *HistoryAggregator {
	return &HistoryAggregator{normalizer: n, classifier: classifier, table: NewActivityTable()}
}

// AddCommit folds one commit. File entries with neither an old nor a new path are skipped.
func (a *HistoryAggregator) AddCommit(cs git.CommitChangeSet) {
	bug := a.classifier != nil && a.classifier.IsBugfixCommit(cs.Commit)
	a.commits++
	if bug {
		a.bugCommits++
	}

	for _, change := range cs.Changes {
		p := change.EffectivePath()
		if p == "" {
			continue
		}
		a.table.GetOrCreate(a.normalizer.FileModule(p)).Touch(bug)
	}
}

// Process folds a sequence of commits.
func (a *HistoryAggregator) Process(changeSets []git.CommitChangeSet) {
	for _, cs := range changeSets {
		a.AddCommit(cs)
	}
}

// Commits returns the number of commits folded so far.
func (a *HistoryAggregator) Commits() int {
	return a.commits
}

// BugCommits returns the number of folded commits classified as bug fixes.
func (a *HistoryAggregator) BugCommits() int {
	return a.bugCommits
}

// Table exposes the accumulated counters.
func (a *HistoryAggregator) Table() *ActivityTable {
	return a.table
}

// Counts returns per-module commit and bug counts. Modules without bug touches
// are absent from the bug map. The returned maps are owned by the caller.
func (a *HistoryAggregator) Counts() (commits, bugs map[module.Key]int) {
	commits = make(map[module.Key]int, a.table.Len())
	bugs = make(map[module.Key]int)
	for key, r := range a.table.records {
		commits[key] = r.CommitCount
		if r.BugCount > 0 {
			bugs[key] = r.BugCount
		}
	}
	return commits, bugs
}

// ComputeActivity reads the history from reader and aggregates it.
// A reader error is returned as is; no partial counts are produced.
func ComputeActivity(ctx context.Context, reader git.RepositoryReader, n *module.Normalizer, classifier bugfix.Classifier) (commits, bugs map[module.Key]int, err error) {
	changeSets, err := reader.ReadChanges(ctx)
	if err != nil {
		return nil, nil, err
	}
	a := NewHistoryAggregator(n, classifier)
	a.Process(changeSets)
	commits, bugs = a.Counts()
	return commits, bugs, nil
}
