package output

import (
	"io"
	"time"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/aggregation"
	"github.com/masmgr/tdrspots/internal/scoring"
)

// Compile-time interface conformance checks.
var (
	_ HotspotReportWriter = (*ConsoleHotspotWriter)(nil)
	_ HotspotReportWriter = (*JSONHotspotWriter)(nil)
	_ HotspotReportWriter = (*CSVHotspotWriter)(nil)
	_ HotspotReportWriter = (*MarkdownHotspotWriter)(nil)
	_ HotspotReportWriter = (*CIHotspotWriter)(nil)
)

// OutputFormat represents the output format type.
type OutputFormat string

const (
	FormatConsole  OutputFormat = "console"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
	FormatCI       OutputFormat = "ci"
)

// DefaultTop is the number of rows shown when no limit is configured.
const DefaultTop = 20

// OutputOptions controls output behavior.
type OutputOptions struct {
	Format     OutputFormat
	Top        int
	OutputPath string
	// Out receives the report when OutputPath is empty. Nil means stdout.
	Out io.Writer
}

// ReportSummary holds the stage counters shown alongside the ranking.
type ReportSummary struct {
	FilesAnalyzed  int
	Functions      int
	ChangedCommits int
	BugCommits     int
	Warnings       int
}

// HotspotReport holds the ranked modules of one run.
type HotspotReport struct {
	RepoPath    string
	Since       *time.Time
	Until       time.Time
	GeneratedAt time.Time
	KPenalty    float64
	Weights     config.WeightConfig
	Summary     ReportSummary
	Rows        []scoring.HotspotRow
}

// EffortReport holds per-module effort without history.
type EffortReport struct {
	RepoPath    string
	GeneratedAt time.Time
	KPenalty    float64
	Records     []aggregation.EffortRecord
}

// ActivityReport holds per-module commit activity without effort.
type ActivityReport struct {
	RepoPath    string
	Since       *time.Time
	Until       time.Time
	GeneratedAt time.Time
	Commits     int
	BugCommits  int
	Records     []aggregation.CommitActivity
}

// HotspotReportWriter writes hotspot reports.
type HotspotReportWriter interface {
	Write(report *HotspotReport, options OutputOptions) error
}

// NewHotspotReportWriter creates a report writer for the specified format.
func NewHotspotReportWriter(format OutputFormat) HotspotReportWriter {
	switch format {
	case FormatJSON:
		return &JSONHotspotWriter{}
	case FormatCSV:
		return &CSVHotspotWriter{}
	case FormatMarkdown:
		return &MarkdownHotspotWriter{}
	case FormatCI:
		return &CIHotspotWriter{}
	default:
		return &ConsoleHotspotWriter{}
	}
}
