package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

var titleColor = color.New(color.FgGreen, color.Bold)

// ConsoleHotspotWriter writes hotspot reports as a fixed-width table.
type ConsoleHotspotWriter struct{}

// Write outputs the hotspot report to the console.
func (w *ConsoleHotspotWriter) Write(report *HotspotReport, options OutputOptions) error {
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

	titleColor.Fprintln(out, "Technical Debt Hotspots (TDR-W)")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	label, value := dateRangeLabelAndValue(report.Since, report.Until)
	fmt.Fprintf(out, "%s: %s\n", label, value)
	s := report.Summary
	fmt.Fprintf(out, "Files analyzed: %s (%s functions)\n",
		humanize.Comma(int64(s.FilesAnalyzed)), humanize.Comma(int64(s.Functions)))
	fmt.Fprintf(out, "Commits with changes: %s (%s bug fixes)\n",
		humanize.Comma(int64(s.ChangedCommits)), humanize.Comma(int64(s.BugCommits)))
	if s.Warnings > 0 {
		color.New(color.FgYellow).Fprintf(out, "Files skipped with warnings: %d\n", s.Warnings)
	}
	fmt.Fprintln(out)

	if len(rows) == 0 {
		fmt.Fprintln(out, "No hotspots found.")
		return nil
	}

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			moduleLabel(r.Module),
			humanize.CommafWithDigits(round2(r.TDRScore), 2),
			humanize.CommafWithDigits(round2(r.Effort), 2),
			strconv.FormatFloat(round2(r.Pain), 'f', 2, 64),
			strconv.Itoa(r.Commits),
			strconv.Itoa(r.Bugs),
		})
	}
	if err := writeModuleTable(out, []string{"Module", "TDR Score", "Effort", "Pain", "Commits", "Bugs"}, data); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nShowing %d of %d modules (effort = nloc + %g*ccn, pain = %g*commits + %g*bugs)\n",
		len(rows), len(report.Rows), report.KPenalty, report.Weights.Commit, report.Weights.Bug)
	return nil
}

// writeModuleTable renders a right-aligned table.
func writeModuleTable(out io.Writer, header []string, data [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header(header)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
