package scoring

import (
	"sort"
	"strings"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/module"
)

// HotspotRow is one module of the ranked report.
type HotspotRow struct {
	Module   module.Key
	Effort   float64
	Commits  int
	Bugs     int
	Pain     float64
	TDRScore float64
}

// HotspotScorer joins effort and activity per module and ranks modules by TDR score.
type HotspotScorer struct {
	weights config.WeightConfig
}

// NewHotspotScorer creates a scorer with the given pain weights.
func NewHotspotScorer(cfg config.ScoringConfig) *HotspotScorer {
	return &HotspotScorer{weights: cfg.Weights}
}

// Pain returns wCommit*commits + wBug*bugs.
func (s *HotspotScorer) Pain(commits, bugs int) float64 {
	return s.weights.Commit*float64(commits) + s.weights.Bug*float64(bugs)
}

// Score computes a row for every module present in any input, treating a
// missing entry as zero. Excluded modules and rows with a TDR score of zero
// are dropped. Rows are ordered by TDR score descending, then module ascending.
func (s *HotspotScorer) Score(effort map[module.Key]float64, commits, bugs map[module.Key]int) []HotspotRow {
	keys := make(map[module.Key]struct{}, len(effort)+len(commits))
	for k := range effort {
		keys[k] = struct{}{}
	}
	for k := range commits {
		keys[k] = struct{}{}
	}
	for k := range bugs {
		keys[k] = struct{}{}
	}

	rows := make([]HotspotRow, 0, len(keys))
	for k := range keys {
		if IsExcludedModule(k) {
			continue
		}
		row := HotspotRow{
			Module:  k,
			Effort:  effort[k],
			Commits: commits[k],
			Bugs:    bugs[k],
		}
		row.Pain = s.Pain(row.Commits, row.Bugs)
		row.TDRScore = row.Effort * row.Pain
		if row.TDRScore <= 0 {
			continue
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TDRScore != rows[j].TDRScore {
			return rows[i].TDRScore > rows[j].TDRScore
		}
		return rows[i].Module < rows[j].Module
	})
	return rows
}

// IsExcludedModule reports whether a module never appears in the report:
// the repository root, or any key containing "test" in any case.
// The substring match also drops names such as "latest".
func IsExcludedModule(k module.Key) bool {
	if k.IsRoot() {
		return true
	}
	return strings.Contains(strings.ToLower(string(k)), "test")
}

// Score ranks modules with the given pain weights.
func Score(effort map[module.Key]float64, commits, bugs map[module.Key]int, cfg config.ScoringConfig) []HotspotRow {
	return NewHotspotScorer(cfg).Score(effort, commits, bugs)
}
