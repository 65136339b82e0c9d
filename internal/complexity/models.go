package complexity

import (
	"context"
	"fmt"
)

// FunctionMetric holds size and complexity of one analyzed function.
type FunctionMetric struct {
	Name                 string
	StartLine            int
	EndLine              int
	NLOC                 int
	CyclomaticComplexity int
}

// FileResult groups the function metrics of one source file.
type FileResult struct {
	Path      string
	Language  string
	Functions []FunctionMetric
}

// TotalNLOC returns the sum of NLOC over all functions in the file.
func (f FileResult) TotalNLOC() int {
	total := 0
	for _, fn := range f.Functions {
		total += fn.NLOC
	}
	return total
}

// TotalCCN returns the sum of cyclomatic complexity over all functions in the file.
func (f FileResult) TotalCCN() int {
	total := 0
	for _, fn := range f.Functions {
		total += fn.CyclomaticComplexity
	}
	return total
}

// FileError records a file that could not be analyzed.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Result is the output of one analyzer run.
type Result struct {
	Files  []FileResult
	Errors []FileError
}

// FunctionCount returns the number of functions across all files.
func (r *Result) FunctionCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Functions)
	}
	return n
}

// Analyzer produces per-function metrics for the source files under roots.
// Failures on individual files are reported in Result.Errors; an error return
// means the analysis as a whole could not run.
type Analyzer interface {
	Analyze(ctx context.Context, roots []string) (*Result, error)
}

// ProgressFunc is called after each analyzed file with the running file count.
type ProgressFunc func(files int)
