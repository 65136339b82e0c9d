package output

import (
	"encoding/csv"
	"strconv"
)

// CSVHotspotWriter writes hotspot reports as CSV.
type CSVHotspotWriter struct{}

// Write outputs the hotspot report as CSV.
func (w *CSVHotspotWriter) Write(report *HotspotReport, options OutputOptions) error {
	rows := limitTop(report.Rows, options.Top)

	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			string(r.Module),
			formatFloat2(r.TDRScore),
			formatFloat2(r.Effort),
			formatFloat2(r.Pain),
			strconv.Itoa(r.Commits),
			strconv.Itoa(r.Bugs),
		})
	}
	return writeCSV([]string{"Module", "TDRScore", "Effort", "Pain", "Commits", "Bugs"}, data, options)
}

func formatFloat2(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', 2, 64)
}

func writeCSV(header []string, rows [][]string, options OutputOptions) error {
	out, file, err := openOutputWriter(options)
	if err != nil {
		return err
	}
	if file != nil {
		defer file.Close()
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(header); err != nil {
		return err
	}
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return writer.Error()
}
