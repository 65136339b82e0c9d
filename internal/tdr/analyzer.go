package tdr

import (
	"fmt"
	"log/slog"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/bugfix"
	"github.com/masmgr/tdrspots/internal/complexity"
)

// NewAnalyzer returns the complexity analyzer selected by cfg.
func NewAnalyzer(cfg config.EffortConfig, exclude []string, logger *slog.Logger, onProgress complexity.ProgressFunc) (complexity.Analyzer, error) {
	switch cfg.Analyzer {
	case "", "native":
		a, err := complexity.NewGoAnalyzer(complexity.GoAnalyzerOptions{
			Exclude:    exclude,
			Logger:     logger,
			OnProgress: onProgress,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "lizard":
		if cfg.LizardCSV == "" {
			return nil, fmt.Errorf("effort analyzer lizard requires a CSV path")
		}
		return complexity.NewLizardCSV(cfg.LizardCSV, logger), nil
	default:
		return nil, fmt.Errorf("unknown effort analyzer %q", cfg.Analyzer)
	}
}

// NewClassifier returns the bug-commit classifier for the configured patterns.
// A non-empty set of linked SHAs takes precedence over message patterns.
func NewClassifier(cfg config.BugfixConfig, linked []string) (bugfix.Classifier, error) {
	if len(linked) > 0 {
		return bugfix.NewCommitSet(linked), nil
	}
	d, err := bugfix.NewDetector(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	return d, nil
}
