package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// CIHotspotWriter writes hotspot reports as NDJSON (one JSON object per line) for CI pipelines.
type CIHotspotWriter struct{}

// CISummary is the first line of CI output, containing aggregate statistics.
type CISummary struct {
	Type           string  `json:"type"`
	TotalModules   int     `json:"totalModules"`
	MaxTDRScore    float64 `json:"maxTdrScore"`
	ChangedCommits int     `json:"changedCommits"`
	BugCommits     int     `json:"bugCommits"`
}

// CIModuleEntry represents a single module in CI output.
type CIModuleEntry struct {
	Type     string  `json:"type"`
	Rank     int     `json:"rank"`
	Module   string  `json:"module"`
	TDRScore float64 `json:"tdrScore"`
	Bugs     int     `json:"bugs"`
}

// Write outputs the hotspot report as NDJSON.
func (w *CIHotspotWriter) Write(report *HotspotReport, options OutputOptions) error {
	rows := limitTop(report.Rows, options.Top)

	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	var maxScore float64
	if len(rows) > 0 {
		maxScore = rows[0].TDRScore
	}
	summary := CISummary{
		Type:           "summary",
		TotalModules:   len(rows),
		MaxTDRScore:    round2(maxScore),
		ChangedCommits: report.Summary.ChangedCommits,
		BugCommits:     report.Summary.BugCommits,
	}
	if err := writeNDJSONLine(out, summary); err != nil {
		return err
	}

	for i, r := range rows {
		entry := CIModuleEntry{
			Type:     "module",
			Rank:     i + 1,
			Module:   string(r.Module),
			TDRScore: round2(r.TDRScore),
			Bugs:     r.Bugs,
		}
		if err := writeNDJSONLine(out, entry); err != nil {
			return err
		}
	}

	return nil
}

func writeNDJSONLine(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal NDJSON: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
