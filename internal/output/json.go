package output

import (
	"encoding/json"
	"fmt"
	"time"
)

// JSONHotspotWriter writes hotspot reports as JSON.
type JSONHotspotWriter struct{}

// JSONHotspotReport is the JSON output structure for a hotspot report.
type JSONHotspotReport struct {
	RepoPath     string              `json:"repo"`
	Since        *string             `json:"since,omitempty"`
	Until        string              `json:"until"`
	GeneratedAt  string              `json:"generatedAt"`
	KPenalty     float64             `json:"kPenalty"`
	Weights      JSONWeights         `json:"weights"`
	Summary      JSONSummary         `json:"summary"`
	TotalModules int                 `json:"totalModules"`
	Items        []JSONHotspotModule `json:"items"`
}

// JSONWeights holds the pain weights in JSON format.
type JSONWeights struct {
	Commit float64 `json:"commit"`
	Bug    float64 `json:"bug"`
}

// JSONSummary holds the stage counters in JSON format.
type JSONSummary struct {
	FilesAnalyzed  int `json:"filesAnalyzed"`
	Functions      int `json:"functions"`
	ChangedCommits int `json:"changedCommits"`
	BugCommits     int `json:"bugCommits"`
	Warnings       int `json:"warnings"`
}

// JSONHotspotModule is the JSON output structure for a single module.
type JSONHotspotModule struct {
	Module   string  `json:"module"`
	TDRScore float64 `json:"tdrScore"`
	Effort   float64 `json:"effort"`
	Pain     float64 `json:"pain"`
	Commits  int     `json:"commits"`
	Bugs     int     `json:"bugs"`
}

// Write outputs the hotspot report as JSON.
func (w *JSONHotspotWriter) Write(report *HotspotReport, options OutputOptions) error {
	rows := limitTop(report.Rows, options.Top)

	items := make([]JSONHotspotModule, len(rows))
	for i, r := range rows {
		items[i] = JSONHotspotModule{
			Module:   string(r.Module),
			TDRScore: round2(r.TDRScore),
			Effort:   round2(r.Effort),
			Pain:     round2(r.Pain),
			Commits:  r.Commits,
			Bugs:     r.Bugs,
		}
	}

	s := report.Summary
	return writeJSON(JSONHotspotReport{
		RepoPath:    report.RepoPath,
		Since:       formatSinceDate(report.Since),
		Until:       report.Until.Format(reportDateLayout),
		GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
		KPenalty:    report.KPenalty,
		Weights:     JSONWeights{Commit: report.Weights.Commit, Bug: report.Weights.Bug},
		Summary: JSONSummary{
			FilesAnalyzed:  s.FilesAnalyzed,
			Functions:      s.Functions,
			ChangedCommits: s.ChangedCommits,
			BugCommits:     s.BugCommits,
			Warnings:       s.Warnings,
		},
		TotalModules: len(report.Rows),
		Items:        items,
	}, options)
}

// JSONEffortReport is the JSON output structure for an effort report.
type JSONEffortReport struct {
	RepoPath    string             `json:"repo"`
	GeneratedAt string             `json:"generatedAt"`
	KPenalty    float64            `json:"kPenalty"`
	Modules     []JSONEffortModule `json:"modules"`
}

// JSONEffortModule is one module of an effort report.
type JSONEffortModule struct {
	Module string  `json:"module"`
	NLOC   int     `json:"nloc"`
	CCN    int     `json:"ccn"`
	Effort float64 `json:"effort"`
}

// JSONActivityReport is the JSON output structure for an activity report.
type JSONActivityReport struct {
	RepoPath    string               `json:"repo"`
	Since       *string              `json:"since,omitempty"`
	Until       string               `json:"until"`
	GeneratedAt string               `json:"generatedAt"`
	Commits     int                  `json:"commits"`
	BugCommits  int                  `json:"bugCommits"`
	Modules     []JSONActivityModule `json:"modules"`
}

// JSONActivityModule is one module of an activity report.
type JSONActivityModule struct {
	Module  string `json:"module"`
	Commits int    `json:"commits"`
	Bugs    int    `json:"bugs"`
}

func writeJSON(data interface{}, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
