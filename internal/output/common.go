package output

import (
	"io"
	"math"
	"os"
	"time"

	"github.com/masmgr/tdrspots/internal/module"
)

const reportDateLayout = "2006-01-02"

func limitTop[T any](items []T, top int) []T {
	if top <= 0 || top >= len(items) {
		return items
	}
	return items[:top]
}

func dateRangeLabelAndValue(since *time.Time, until time.Time) (string, string) {
	if since != nil {
		return "Period", since.Format(reportDateLayout) + " to " + until.Format(reportDateLayout)
	}
	return "Until", until.Format(reportDateLayout)
}

func formatSinceDate(since *time.Time) *string {
	if since == nil {
		return nil
	}
	formatted := since.Format(reportDateLayout)
	return &formatted
}

// openOutputWriter returns the report destination. The file, if any, must be closed by the caller.
func openOutputWriter(options OutputOptions) (io.Writer, *os.File, error) {
	if options.OutputPath == "" {
		if options.Out != nil {
			return options.Out, nil, nil
		}
		return os.Stdout, nil, nil
	}
	file, err := os.Create(options.OutputPath)
	if err != nil {
		return nil, nil, err
	}
	return file, file, nil
}

// round2 rounds for display; scores are never rounded before ranking.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// moduleLabel renders the root key readably.
func moduleLabel(k module.Key) string {
	if k.IsRoot() {
		return "(root)"
	}
	return string(k)
}
