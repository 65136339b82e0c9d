package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/masmgr/tdrspots/internal/issues"
	"github.com/masmgr/tdrspots/internal/linker"
	"github.com/masmgr/tdrspots/internal/output"
)

// newFixtureRepo creates lib/a.go in two commits, the second a bug fix.
func newFixtureRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	start := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	steps := []struct {
		msg     string
		content string
	}{
		{msg: "initial", content: "package lib\n\nfunc A(x int) int {\n\treturn x\n}\n"},
		{msg: "CLI-7 patch negative input", content: "package lib\n\n// TODO cover zero\nfunc A(x int) int {\n\tif x > 0 {\n\t\treturn 1\n\t}\n\treturn 0\n}\n"},
	}
	for i, s := range steps {
		full := filepath.Join(dir, "lib", "a.go")
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(s.content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add("lib/a.go"); err != nil {
			t.Fatal(err)
		}
		sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: start.Add(time.Duration(i) * time.Hour)}
		if _, err := wt.Commit(s.msg, &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	}
	return dir
}

// newSingleCommitRepo commits files, keyed by slash path, in one commit.
func newSingleCommitRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := wt.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: time.Now().Add(-24 * time.Hour).Truncate(time.Second)}
	if _, err := wt.Commit("add module", &gogit.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return dir
}

const singleFunc = "package lib\n\nfunc A(x int) int {\n\treturn x\n}\n"

func analyzeJSON(t *testing.T, args ...string) output.JSONHotspotReport {
	t.Helper()
	out := filepath.Join(t.TempDir(), "report.json")
	runApp(t, append([]string{"analyze", "--format", "json", "--output", out}, args...)...)
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var report output.JSONHotspotReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return report
}

func runApp(t *testing.T, args ...string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	if err := app.Run(append([]string{"tdrspots", "--env-file", "", "--quiet"}, args...)); err != nil {
		t.Fatalf("Run(%v): %v\nstderr: %s", args, err, stderr.String())
	}
	return stdout.String()
}

func TestApp_Analyze(t *testing.T) {
	dir := newFixtureRepo(t)
	out := filepath.Join(t.TempDir(), "report.json")

	runApp(t, "analyze", "--repo", dir, "--format", "json", "--output", out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var report output.JSONHotspotReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(report.Items) != 1 {
		t.Fatalf("items = %+v, want one", report.Items)
	}
	got := report.Items[0]
	want := output.JSONHotspotModule{Module: "lib", TDRScore: 32, Effort: 16, Pain: 2, Commits: 2, Bugs: 1}
	if got != want {
		t.Errorf("item = %+v, want %+v", got, want)
	}
	if report.Summary.ChangedCommits != 2 || report.Summary.BugCommits != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
}

func TestApp_AnalyzeCountsNonSourceTouches(t *testing.T) {
	dir := newSingleCommitRepo(t, map[string]string{
		"lib/a.go":        singleFunc,
		"lib/config.json": "{}\n",
	})

	report := analyzeJSON(t, "--repo", dir)

	// The analyzer skips *.json, but the history still counts both touches.
	want := output.JSONHotspotModule{Module: "lib", TDRScore: 8, Effort: 8, Pain: 1, Commits: 2, Bugs: 0}
	if len(report.Items) != 1 || report.Items[0] != want {
		t.Errorf("items = %+v, want [%+v]", report.Items, want)
	}
}

func TestApp_AnalyzeHistoryExclude(t *testing.T) {
	dir := newSingleCommitRepo(t, map[string]string{
		"lib/a.go":        singleFunc,
		"lib/config.json": "{}\n",
	})

	report := analyzeJSON(t, "--repo", dir, "--history-exclude", "*.json")

	if len(report.Items) != 1 || report.Items[0].Commits != 1 || report.Items[0].TDRScore != 4 {
		t.Errorf("items = %+v, want lib with one touch", report.Items)
	}
}

func TestApp_AnalyzeSubdirectory(t *testing.T) {
	dir := newSingleCommitRepo(t, map[string]string{
		"sub/lib/a.go": singleFunc,
		"other/b.go":   singleFunc,
	})

	report := analyzeJSON(t, "--repo", filepath.Join(dir, "sub"))

	// Only sources under sub/ carry effort; keys stay relative to the top level.
	want := output.JSONHotspotModule{Module: "sub/lib", TDRScore: 4, Effort: 8, Pain: 0.5, Commits: 1}
	if len(report.Items) != 1 || report.Items[0] != want {
		t.Errorf("items = %+v, want [%+v]", report.Items, want)
	}
}

func TestApp_AnalyzeSummarySkipsEmptyCommits(t *testing.T) {
	dir := newFixtureRepo(t)
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: time.Now().Add(-time.Hour).Truncate(time.Second)}
	if _, err := wt.Commit("empty", &gogit.CommitOptions{Author: sig, Committer: sig, AllowEmptyCommits: true}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	report := analyzeJSON(t, "--repo", dir)

	if report.Summary.ChangedCommits != 2 {
		t.Errorf("changedCommits = %d, want 2", report.Summary.ChangedCommits)
	}
}

func TestApp_AnalyzeWithLinks(t *testing.T) {
	dir := newFixtureRepo(t)
	tmp := t.TempDir()

	links := filepath.Join(tmp, "links.json")
	if err := linker.Save(links, nil); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(tmp, "report.json")
	runApp(t, "analyze", "--repo", dir, "--links", links, "--format", "json", "--output", out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var report output.JSONHotspotReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatal(err)
	}
	// No linked fixes: two plain touches, pain 1, tdr 16.
	if len(report.Items) != 1 || report.Items[0].Bugs != 0 || report.Items[0].TDRScore != 16 {
		t.Errorf("items = %+v", report.Items)
	}
}

func TestApp_Effort(t *testing.T) {
	dir := newFixtureRepo(t)
	stdout := runApp(t, "effort", "--repo", dir, "--format", "csv")

	rows, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	if err != nil {
		t.Fatalf("csv: %v\n%s", err, stdout)
	}
	if len(rows) != 2 || strings.Join(rows[1], ",") != "lib,6,2,16.00" {
		t.Errorf("rows = %v", rows)
	}
}

func TestApp_Activity(t *testing.T) {
	dir := newFixtureRepo(t)
	stdout := runApp(t, "activity", "--repo", dir, "--format", "json")

	var report output.JSONActivityReport
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, stdout)
	}
	if len(report.Modules) != 1 || report.Modules[0] != (output.JSONActivityModule{Module: "lib", Commits: 2, Bugs: 1}) {
		t.Errorf("modules = %+v", report.Modules)
	}
}

func TestApp_Link(t *testing.T) {
	dir := newFixtureRepo(t)
	tmp := t.TempDir()

	store := issues.Store{}
	store.Add("CLI-7", "2020-01-01T00:00:00.000+0000")
	issuesFile := filepath.Join(tmp, "issues.json")
	if err := store.Save(issuesFile); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(tmp, "bug-fixes.json")

	runApp(t, "link", "--repo", dir, "--issues", issuesFile, "--repo-name", "apache/commons-cli", "--output", out)

	links, err := linker.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 1 || links[0].RepoName != "apache/commons-cli" || links[0].EarliestIssueDate != "2020-01-01T00:00:00.000+0000" {
		t.Errorf("links = %+v", links)
	}
}

func TestApp_SATD(t *testing.T) {
	dir := newFixtureRepo(t)
	stdout := runApp(t, "satd", "--repo", dir, "--language", "go")
	if !strings.Contains(stdout, "lib/a.go") {
		t.Errorf("stdout = %q, want lib/a.go listed", stdout)
	}
}

func TestApp_Collect(t *testing.T) {
	dir := newFixtureRepo(t)
	out := filepath.Join(t.TempDir(), "metrics.csv")
	runApp(t, "collect", "--repo", dir, "--language", "go", "--output", out)

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v, want header and two rows", rows)
	}
	if rows[1][3] != "1" || rows[1][5] != "false" || rows[2][3] != "2" || rows[2][4] != "6" || rows[2][5] != "true" {
		t.Errorf("rows = %v", rows)
	}
}

func TestApp_CollectDefaultLanguageMeasuresMetrics(t *testing.T) {
	dir := newFixtureRepo(t)
	out := filepath.Join(t.TempDir(), "metrics.csv")
	runApp(t, "collect", "--repo", dir, "--output", out)

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %v, want header and two rows", rows)
	}
	for _, row := range rows[1:] {
		if row[3] == "" || row[4] == "" {
			t.Errorf("row %v has empty complexity or nloc", row)
		}
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		locator string
		want    string
	}{
		{locator: "https://github.com/apache/commons-cli", want: "apache/commons-cli"},
		{locator: "https://github.com/apache/commons-cli.git", want: "apache/commons-cli"},
		{locator: "git@github.com:apache/commons-cli.git", want: "apache/commons-cli"},
		{locator: "/src/commons-cli/", want: "commons-cli"},
	}
	for _, tt := range tests {
		if got := repoName(tt.locator); got != tt.want {
			t.Errorf("repoName(%q) = %q, want %q", tt.locator, got, tt.want)
		}
	}
}
