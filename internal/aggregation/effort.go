package aggregation

import (
	"sort"

	"github.com/masmgr/tdrspots/internal/complexity"
	"github.com/masmgr/tdrspots/internal/module"
)

// DefaultKPenalty is the effort cost of one unit of cyclomatic complexity, in lines.
const DefaultKPenalty = 5.0

// EffortRecord accumulates size and complexity for one module.
// Its sums only grow.
type EffortRecord struct {
	Module  module.Key
	NLOCSum int
	CCNSum  int
}

// Add folds one function's metrics into the record. Negative inputs are ignored.
func (r *EffortRecord) Add(nloc, ccn int) {
	if nloc > 0 {
		r.NLOCSum += nloc
	}
	if ccn > 0 {
		r.CCNSum += ccn
	}
}

// Effort returns nloc_sum + kPenalty*ccn_sum.
func (r EffortRecord) Effort(kPenalty float64) float64 {
	return float64(r.NLOCSum) + kPenalty*float64(r.CCNSum)
}

// EffortTable maps modules to effort records. Records are created only through
// GetOrCreate, so a module without analyzed functions is absent rather than zero.
type EffortTable struct {
	records map[module.Key]*EffortRecord
}

// NewEffortTable creates an empty table.
func NewEffortTable() *EffortTable {
	return &EffortTable{records: make(map[module.Key]*EffortRecord)}
}

// GetOrCreate returns the record for key, inserting a zero record if absent.
func (t *EffortTable) GetOrCreate(key module.Key) *EffortRecord {
	r, ok := t.records[key]
	if !ok {
		r = &EffortRecord{Module: key}
		t.records[key] = r
	}
	return r
}

// Get returns the record for key without inserting.
func (t *EffortTable) Get(key module.Key) (EffortRecord, bool) {
	r, ok := t.records[key]
	if !ok {
		return EffortRecord{}, false
	}
	return *r, true
}

// Len returns the number of modules in the table.
func (t *EffortTable) Len() int {
	return len(t.records)
}

// Records returns a copy of every record ordered by module key.
func (t *EffortTable) Records() []EffortRecord {
	out := make([]EffortRecord, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}

// EffortAggregator attributes function metrics to modules and accumulates effort.
type EffortAggregator struct {
	normalizer *module.Normalizer
	kPenalty   float64
	table      *EffortTable
	functions  int
}

// NewEffortAggregator creates an aggregator that keys modules with n.
func NewEffortAggregator(n *module.Normalizer, kPenalty float64) *EffortAggregator {
	return &EffortAggregator{normalizer: n, kPenalty: kPenalty, table: NewEffortTable()}
}

// AddFunction attributes fn, defined in filePath, to the file's module.
func (a *EffortAggregator) AddFunction(filePath string, fn complexity.FunctionMetric) {
	key := a.normalizer.FileModule(filePath)
	a.table.GetOrCreate(key).Add(fn.NLOC, fn.CyclomaticComplexity)
	a.functions++
}

// AddResult folds every function of an analyzer result.
func (a *EffortAggregator) AddResult(res *complexity.Result) {
	if res == nil {
		return
	}
	for _, f := range res.Files {
		for _, fn := range f.Functions {
			a.AddFunction(f.Path, fn)
		}
	}
}

// Functions returns the number of functions folded so far.
func (a *EffortAggregator) Functions() int {
	return a.functions
}

// Table exposes the accumulated records.
func (a *EffortAggregator) Table() *EffortTable {
	return a.table
}

// Effort returns the per-module effort. The returned map is owned by the caller.
func (a *EffortAggregator) Effort() map[module.Key]float64 {
	out := make(map[module.Key]float64, a.table.Len())
	for key, r := range a.table.records {
		out[key] = r.Effort(a.kPenalty)
	}
	return out
}

// ComputeEffort aggregates an analyzer result into per-module effort.
// An empty or nil result yields an empty map.
func ComputeEffort(res *complexity.Result, n *module.Normalizer, kPenalty float64) map[module.Key]float64 {
	a := NewEffortAggregator(n, kPenalty)
	a.AddResult(res)
	return a.Effort()
}
