package output

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/masmgr/tdrspots/internal/aggregation"
)

// WriteEffortReport writes per-module effort, largest first.
// Console, JSON and CSV are supported.
func WriteEffortReport(report *EffortReport, options OutputOptions) error {
	records := slices.Clone(report.Records)
	slices.SortStableFunc(records, func(a, b aggregation.EffortRecord) int {
		ea, eb := a.Effort(report.KPenalty), b.Effort(report.KPenalty)
		switch {
		case ea > eb:
			return -1
		case ea < eb:
			return 1
		}
		return cmp.Compare(a.Module, b.Module)
	})
	records = limitTop(records, options.Top)

	switch options.Format {
	case FormatJSON:
		modules := make([]JSONEffortModule, len(records))
		for i, r := range records {
			modules[i] = JSONEffortModule{
				Module: string(r.Module),
				NLOC:   r.NLOCSum,
				CCN:    r.CCNSum,
				Effort: round2(r.Effort(report.KPenalty)),
			}
		}
		return writeJSON(JSONEffortReport{
			RepoPath:    report.RepoPath,
			GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
			KPenalty:    report.KPenalty,
			Modules:     modules,
		}, options)
	case FormatCSV:
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				string(r.Module),
				strconv.Itoa(r.NLOCSum),
				strconv.Itoa(r.CCNSum),
				formatFloat2(r.Effort(report.KPenalty)),
			})
		}
		return writeCSV([]string{"Module", "NLOC", "CCN", "Effort"}, rows, options)
	case FormatConsole, "":
	default:
		return fmt.Errorf("format %q is not supported for effort reports", options.Format)
	}

	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	titleColor.Fprintln(out, "Module Effort")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	fmt.Fprintf(out, "Modules: %s (effort = nloc + %g*ccn)\n\n", humanize.Comma(int64(len(report.Records))), report.KPenalty)

	data := make([][]string, 0, len(records))
	for _, r := range records {
		data = append(data, []string{
			moduleLabel(r.Module),
			humanize.Comma(int64(r.NLOCSum)),
			humanize.Comma(int64(r.CCNSum)),
			humanize.CommafWithDigits(round2(r.Effort(report.KPenalty)), 2),
		})
	}
	return writeModuleTable(out, []string{"Module", "NLOC", "CCN", "Effort"}, data)
}

// WriteActivityReport writes per-module commit activity, busiest first.
// Console, JSON and CSV are supported.
func WriteActivityReport(report *ActivityReport, options OutputOptions) error {
	records := slices.Clone(report.Records)
	slices.SortStableFunc(records, func(a, b aggregation.CommitActivity) int {
		if a.CommitCount != b.CommitCount {
			return b.CommitCount - a.CommitCount
		}
		if a.BugCount != b.BugCount {
			return b.BugCount - a.BugCount
		}
		return cmp.Compare(a.Module, b.Module)
	})
	records = limitTop(records, options.Top)

	switch options.Format {
	case FormatJSON:
		modules := make([]JSONActivityModule, len(records))
		for i, r := range records {
			modules[i] = JSONActivityModule{Module: string(r.Module), Commits: r.CommitCount, Bugs: r.BugCount}
		}
		return writeJSON(JSONActivityReport{
			RepoPath:    report.RepoPath,
			Since:       formatSinceDate(report.Since),
			Until:       report.Until.Format(reportDateLayout),
			GeneratedAt: report.GeneratedAt.Format(time.RFC3339),
			Commits:     report.Commits,
			BugCommits:  report.BugCommits,
			Modules:     modules,
		}, options)
	case FormatCSV:
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{string(r.Module), strconv.Itoa(r.CommitCount), strconv.Itoa(r.BugCount)})
		}
		return writeCSV([]string{"Module", "Commits", "Bugs"}, rows, options)
	case FormatConsole, "":
	default:
		return fmt.Errorf("format %q is not supported for activity reports", options.Format)
	}

	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	titleColor.Fprintln(out, "Module Activity")
	fmt.Fprintf(out, "Repository: %s\n", report.RepoPath)
	label, value := dateRangeLabelAndValue(report.Since, report.Until)
	fmt.Fprintf(out, "%s: %s\n", label, value)
	fmt.Fprintf(out, "Commits: %s (%s bug fixes)\n\n",
		humanize.Comma(int64(report.Commits)), humanize.Comma(int64(report.BugCommits)))

	data := make([][]string, 0, len(records))
	for _, r := range records {
		data = append(data, []string{moduleLabel(r.Module), strconv.Itoa(r.CommitCount), strconv.Itoa(r.BugCount)})
	}
	return writeModuleTable(out, []string{"Module", "Commits", "Bugs"}, data)
}
