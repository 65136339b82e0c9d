package output

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/masmgr/tdrspots/internal/scoring"
)

func sampleReport() *HotspotReport {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	since := now.AddDate(0, 0, -180)
	return &HotspotReport{
		RepoPath:    "/test/repo",
		Since:       &since,
		Until:       now,
		GeneratedAt: now,
		KPenalty:    5,
		Summary:     ReportSummary{FilesAnalyzed: 12, Functions: 340, ChangedCommits: 1500, BugCommits: 210},
		Rows: []scoring.HotspotRow{
			{Module: "core", Effort: 100, Commits: 4, Bugs: 2, Pain: 4, TDRScore: 400},
			{Module: "lib", Effort: 50, Commits: 1, Bugs: 1, Pain: 1.5, TDRScore: 75},
			{Module: "util/strings", Effort: 10.456, Commits: 2, Bugs: 0, Pain: 1, TDRScore: 10.456},
		},
	}
}

func TestCIHotspotWriter_Write(t *testing.T) {
	tmpFile := t.TempDir() + "/ci_output.ndjson"
	writer := &CIHotspotWriter{}
	if err := writer.Write(sampleReport(), OutputOptions{Format: FormatCI, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 { // 1 summary + 3 modules
		t.Fatalf("expected 4 lines, got %d: %s", len(lines), string(data))
	}

	var summary CISummary
	if err := json.Unmarshal([]byte(lines[0]), &summary); err != nil {
		t.Fatalf("Failed to parse summary: %v", err)
	}
	if summary.Type != "summary" || summary.TotalModules != 3 || summary.MaxTDRScore != 400 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.ChangedCommits != 1500 || summary.BugCommits != 210 {
		t.Errorf("summary counters = %+v", summary)
	}

	var last CIModuleEntry
	if err := json.Unmarshal([]byte(lines[3]), &last); err != nil {
		t.Fatalf("Failed to parse entry: %v", err)
	}
	if last.Type != "module" || last.Rank != 3 || last.Module != "util/strings" || last.TDRScore != 10.46 {
		t.Errorf("last entry = %+v", last)
	}
}

func TestCIHotspotWriter_Top(t *testing.T) {
	tmpFile := t.TempDir() + "/ci_top.ndjson"
	writer := &CIHotspotWriter{}
	if err := writer.Write(sampleReport(), OutputOptions{Format: FormatCI, Top: 1, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines with top=1, got %d", len(lines))
	}
}

func TestCIHotspotWriter_Empty(t *testing.T) {
	tmpFile := t.TempDir() + "/ci_empty.ndjson"
	report := sampleReport()
	report.Rows = nil

	writer := &CIHotspotWriter{}
	if err := writer.Write(report, OutputOptions{Format: FormatCI, OutputPath: tmpFile}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := readTestFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var summary CISummary
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &summary); err != nil {
		t.Fatalf("Failed to parse summary: %v", err)
	}
	if summary.TotalModules != 0 || summary.MaxTDRScore != 0 {
		t.Errorf("summary = %+v, want zeros", summary)
	}
}

func readTestFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}
