package complexity

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/src-d/enry/v2"
)

// Column layout of `lizard --csv` output.
const (
	lizardColNLOC = iota
	lizardColCCN
	lizardColToken
	lizardColParam
	lizardColLength
	lizardColLocation
	lizardColFile
	lizardColFunction
	lizardColLongName
	lizardColStart
	lizardColEnd
	lizardColumns
)

// LizardCSV reads function metrics produced by an external `lizard --csv` run.
// It lets languages other than Go contribute effort.
type LizardCSV struct {
	path   string
	logger *slog.Logger
}

// NewLizardCSV creates a reader for the CSV file at path.
func NewLizardCSV(path string, logger *slog.Logger) *LizardCSV {
	if logger == nil {
		logger = slog.Default()
	}
	return &LizardCSV{path: path, logger: logger}
}

// Analyze loads the CSV file. Relative file names in the CSV are resolved against
// the first root. With several roots, files outside all of them are dropped.
func (l *LizardCSV) Analyze(ctx context.Context, roots []string) (*Result, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open lizard csv: %w", err)
	}
	defer f.Close()

	base := ""
	if len(roots) > 0 {
		base = roots[0]
	}
	result, err := ParseLizardCSV(f, base, l.logger)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.Files = keepUnder(result.Files, roots)
	return result, nil
}

// ParseLizardCSV parses lizard CSV rows from r. Malformed rows are recorded in
// Result.Errors and skipped. A header row, if present, is ignored.
func ParseLizardCSV(r io.Reader, base string, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &Result{}
	index := make(map[string]int)
	line := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				result.Errors = append(result.Errors, FileError{Path: fmt.Sprintf("line %d", line), Err: err})
				continue
			}
			return nil, fmt.Errorf("read lizard csv: %w", err)
		}
		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "NLOC") {
			continue
		}

		fn, file, err := parseLizardRecord(record)
		if err != nil {
			logger.Debug("skipping lizard row", "line", line, "error", err)
			result.Errors = append(result.Errors, FileError{Path: fmt.Sprintf("line %d", line), Err: err})
			continue
		}
		if base != "" && !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}

		i, ok := index[file]
		if !ok {
			i = len(result.Files)
			index[file] = i
			result.Files = append(result.Files, FileResult{
				Path:     file,
				Language: enry.GetLanguage(filepath.Base(file), nil),
			})
		}
		result.Files[i].Functions = append(result.Files[i].Functions, fn)
	}

	return result, nil
}

func parseLizardRecord(record []string) (FunctionMetric, string, error) {
	if len(record) < lizardColumns {
		return FunctionMetric{}, "", fmt.Errorf("expected %d columns, got %d", lizardColumns, len(record))
	}
	ints := make([]int, 0, 4)
	for _, col := range []int{lizardColNLOC, lizardColCCN, lizardColStart, lizardColEnd} {
		v, err := strconv.Atoi(strings.TrimSpace(record[col]))
		if err != nil {
			return FunctionMetric{}, "", fmt.Errorf("column %d: %w", col, err)
		}
		if v < 0 {
			return FunctionMetric{}, "", fmt.Errorf("column %d: negative value %d", col, v)
		}
		ints = append(ints, v)
	}
	file := strings.TrimSpace(record[lizardColFile])
	if file == "" {
		return FunctionMetric{}, "", errors.New("empty file column")
	}
	return FunctionMetric{
		Name:                 strings.TrimSpace(record[lizardColFunction]),
		NLOC:                 ints[0],
		CyclomaticComplexity: ints[1],
		StartLine:            ints[2],
		EndLine:              ints[3],
	}, file, nil
}

func keepUnder(files []FileResult, roots []string) []FileResult {
	if len(roots) <= 1 {
		return files
	}
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		if abs, err := filepath.Abs(r); err == nil {
			cleaned = append(cleaned, abs)
		}
	}
	out := files[:0]
	for _, f := range files {
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			continue
		}
		for _, r := range cleaned {
			if rel, err := filepath.Rel(r, abs); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}
