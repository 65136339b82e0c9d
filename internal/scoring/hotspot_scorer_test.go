package scoring

import (
	"math"
	"testing"

	"github.com/masmgr/tdrspots/config"
	"github.com/masmgr/tdrspots/internal/module"
)

func defaultScorer() *HotspotScorer {
	return NewHotspotScorer(config.DefaultConfig().Scoring)
}

func TestHotspotScorer_Example(t *testing.T) {
	rows := defaultScorer().Score(
		map[module.Key]float64{"core": 100},
		map[module.Key]int{"core": 4},
		map[module.Key]int{"core": 2},
	)

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]
	if r.Pain != 4.0 {
		t.Errorf("Pain = %v, want 4.0", r.Pain)
	}
	if r.TDRScore != 400.0 {
		t.Errorf("TDRScore = %v, want 400.0", r.TDRScore)
	}
}

func TestHotspotScorer_SingleBugFixModule(t *testing.T) {
	rows := defaultScorer().Score(
		map[module.Key]float64{"lib": 50},
		map[module.Key]int{"lib": 1},
		map[module.Key]int{"lib": 1},
	)

	want := HotspotRow{Module: "lib", Effort: 50, Commits: 1, Bugs: 1, Pain: 1.5, TDRScore: 75.0}
	if len(rows) != 1 || rows[0] != want {
		t.Fatalf("rows = %+v, want [%+v]", rows, want)
	}
}

func TestHotspotScorer_MissingSignalIsZero(t *testing.T) {
	rows := defaultScorer().Score(
		map[module.Key]float64{"only-effort": 10, "both": 10},
		map[module.Key]int{"only-history": 7, "both": 2},
		nil,
	)

	if len(rows) != 1 || rows[0].Module != "both" {
		t.Fatalf("rows = %+v, want only the module with both signals", rows)
	}
	if rows[0].TDRScore != 10 {
		t.Errorf("TDRScore = %v, want 10", rows[0].TDRScore)
	}
}

func TestHotspotScorer_Exclusions(t *testing.T) {
	effort := map[module.Key]float64{
		"":              10,
		".":             10,
		"src/test/java": 10,
		"TestUtils":     10,
		"latest":        10,
		"src/main":      10,
	}
	commits := map[module.Key]int{
		"": 1, ".": 1, "src/test/java": 1, "TestUtils": 1, "latest": 1, "src/main": 1,
	}

	rows := defaultScorer().Score(effort, commits, nil)
	if len(rows) != 1 || rows[0].Module != "src/main" {
		t.Fatalf("rows = %+v, want only src/main", rows)
	}
}

func TestHotspotScorer_OrderingAndTieBreak(t *testing.T) {
	effort := map[module.Key]float64{"b": 10, "a": 10, "c": 30, "d": 1}
	commits := map[module.Key]int{"a": 2, "b": 2, "c": 2, "d": 2}

	rows := defaultScorer().Score(effort, commits, nil)
	got := make([]module.Key, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.Module)
	}
	want := []module.Key{"c", "a", "b", "d"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestHotspotScorer_CustomWeights(t *testing.T) {
	s := NewHotspotScorer(config.ScoringConfig{Weights: config.WeightConfig{Commit: 0, Bug: 2}})
	rows := s.Score(
		map[module.Key]float64{"x": 3, "y": 3},
		map[module.Key]int{"x": 5, "y": 5},
		map[module.Key]int{"x": 1},
	)
	if len(rows) != 1 || rows[0].Module != "x" || math.Abs(rows[0].TDRScore-6) > 1e-9 {
		t.Fatalf("rows = %+v, want x with 6", rows)
	}
}

func TestIsExcludedModule(t *testing.T) {
	tests := []struct {
		key  module.Key
		want bool
	}{
		{"", true},
		{".", true},
		{"src/test/java", true},
		{"Tests", true},
		{"contest", true},
		{"src/main/java", false},
		{"lib", false},
	}
	for _, tt := range tests {
		if got := IsExcludedModule(tt.key); got != tt.want {
			t.Errorf("IsExcludedModule(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestScore_FunctionalForm(t *testing.T) {
	rows := Score(
		map[module.Key]float64{"lib": 50},
		map[module.Key]int{"lib": 1},
		map[module.Key]int{"lib": 1},
		config.DefaultConfig().Scoring,
	)
	if len(rows) != 1 || rows[0].TDRScore != 75 {
		t.Fatalf("rows = %+v", rows)
	}
}
