package output

import (
	"fmt"
	"strings"
)

// MarkdownHotspotWriter writes hotspot reports as Markdown.
type MarkdownHotspotWriter struct{}

// Write outputs the hotspot report as Markdown.
func (w *MarkdownHotspotWriter) Write(report *HotspotReport, options OutputOptions) error {
	top := options.Top
	if top == 0 {
		top = DefaultTop
	}
	rows := limitTop(report.Rows, top)

	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	fmt.Fprintln(out, "# Technical Debt Hotspots")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Repository:** %s\n\n", escapeMarkdown(report.RepoPath))
	label, value := dateRangeLabelAndValue(report.Since, report.Until)
	fmt.Fprintf(out, "**%s:** %s\n\n", label, value)
	s := report.Summary
	fmt.Fprintf(out, "**Files Analyzed:** %d (%d functions)\n\n", s.FilesAnalyzed, s.Functions)
	fmt.Fprintf(out, "**Commits with Changes:** %d (%d bug fixes)\n\n", s.ChangedCommits, s.BugCommits)

	fmt.Fprintln(out, "## Top Modules")
	fmt.Fprintln(out)
	if len(rows) == 0 {
		fmt.Fprintln(out, "_No hotspots found._")
		return nil
	}
	fmt.Fprintln(out, "| # | Module | TDR Score | Effort | Pain | Commits | Bugs |")
	fmt.Fprintln(out, "|---|--------|-----------|--------|------|---------|------|")
	for i, r := range rows {
		fmt.Fprintf(out, "| %d | `%s` | %.2f | %.2f | %.2f | %d | %d |\n",
			i+1, strings.ReplaceAll(moduleLabel(r.Module), "`", "'"),
			round2(r.TDRScore), round2(r.Effort), round2(r.Pain), r.Commits, r.Bugs)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "**Scoring:** effort = nloc + %g·ccn, pain = %g·commits + %g·bugs, TDR = effort × pain\n",
		report.KPenalty, report.Weights.Commit, report.Weights.Bug)
	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"|", "\\|",
		"*", "\\*",
		"_", "\\_",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
