package complexity

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/src-d/enry/v2"

	"github.com/masmgr/tdrspots/internal/pathfilter"
)

const languageGo = "Go"

// GoAnalyzer measures Go functions with go/parser.
type GoAnalyzer struct {
	filter     *pathfilter.Filter
	logger     *slog.Logger
	onProgress ProgressFunc
}

// GoAnalyzerOptions configures a GoAnalyzer.
type GoAnalyzerOptions struct {
	Exclude    []string
	Logger     *slog.Logger
	OnProgress ProgressFunc
}

// NewGoAnalyzer creates an analyzer for Go sources.
func NewGoAnalyzer(opts GoAnalyzerOptions) (*GoAnalyzer, error) {
	filter, err := pathfilter.New(nil, opts.Exclude)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GoAnalyzer{filter: filter, logger: logger, onProgress: opts.OnProgress}, nil
}

// Analyze walks every root and measures the Go files found.
// Roots that do not exist produce an error; unparsable files are reported in Result.Errors.
func (a *GoAnalyzer) Analyze(ctx context.Context, roots []string) (*Result, error) {
	result := &Result{}
	analyzed := 0

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			a.analyzePath(root, filepath.Base(root), result)
			continue
		}

		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if walkErr != nil {
				result.Errors = append(result.Errors, FileError{Path: p, Err: walkErr})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}

			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if rel != "." && (d.Name() == ".git" || enry.IsVendor(rel+"/") || a.filter.Excluded(rel+"/x")) {
					return fs.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !a.filter.Match(rel) || enry.IsVendor(rel) {
				return nil
			}
			if a.analyzePath(p, rel, result) {
				analyzed++
				if a.onProgress != nil {
					a.onProgress(analyzed)
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// analyzePath measures a single file, returning false when it is not a Go source.
func (a *GoAnalyzer) analyzePath(p, rel string, result *Result) bool {
	if !IsGoSource(rel) {
		return false
	}
	src, err := os.ReadFile(p)
	if err != nil {
		a.logger.Warn("could not read file", "path", p, "error", err)
		result.Errors = append(result.Errors, FileError{Path: p, Err: err})
		return false
	}
	fr, err := AnalyzeSource(p, src)
	if err != nil {
		a.logger.Warn("could not analyze file", "path", p, "error", err)
		result.Errors = append(result.Errors, FileError{Path: p, Err: err})
		return false
	}
	result.Files = append(result.Files, *fr)
	return true
}

// IsGoSource reports whether the file name denotes Go source code.
func IsGoSource(name string) bool {
	return enry.GetLanguage(filepath.Base(name), nil) == languageGo
}

// AnalyzeSource measures the functions of a Go source file held in memory.
func AnalyzeSource(name string, src []byte) (*FileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, name, src, parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	codeLines, err := codeLineSet(src)
	if err != nil {
		return nil, err
	}

	fr := &FileResult{Path: name, Language: languageGo}
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		start := fset.Position(fn.Pos()).Line
		end := fset.Position(fn.End()).Line

		nloc := 0
		for line := start; line <= end; line++ {
			if codeLines[line] {
				nloc++
			}
		}

		fr.Functions = append(fr.Functions, FunctionMetric{
			Name:                 funcName(fn),
			StartLine:            start,
			EndLine:              end,
			NLOC:                 nloc,
			CyclomaticComplexity: CyclomaticComplexity(fn),
		})
	}
	return fr, nil
}

// CyclomaticComplexity computes the cyclomatic complexity of a function:
// one plus the number of decision points.
func CyclomaticComplexity(fn *ast.FuncDecl) int {
	complexity := 1
	ast.Inspect(fn, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.IfStmt, *ast.ForStmt, *ast.RangeStmt:
			complexity++
		case *ast.CaseClause:
			if n.List != nil {
				complexity++
			}
		case *ast.CommClause:
			if n.Comm != nil {
				complexity++
			}
		case *ast.BinaryExpr:
			if n.Op == token.LAND || n.Op == token.LOR {
				complexity++
			}
		}
		return true
	})
	return complexity
}

// codeLineSet returns the set of lines that carry at least one non-comment token.
func codeLineSet(src []byte) (map[int]bool, error) {
	fset := token.NewFileSet()
	tf := fset.AddFile("", fset.Base(), len(src))

	var errs scanner.ErrorList
	var s scanner.Scanner
	s.Init(tf, src, func(pos token.Position, msg string) { errs.Add(pos, msg) }, 0)

	lines := make(map[int]bool)
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		// Automatically inserted semicolons have lit "\n" and belong to no code.
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		line := tf.Line(pos)
		lines[line] = true
		if tok == token.STRING {
			for i := 1; i <= strings.Count(lit, "\n"); i++ {
				lines[line+i] = true
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.New(errs.Error())
	}
	return lines, nil
}

func funcName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	recv := fn.Recv.List[0].Type
	for {
		switch t := recv.(type) {
		case *ast.StarExpr:
			recv = t.X
			continue
		case *ast.IndexExpr:
			recv = t.X
			continue
		case *ast.IndexListExpr:
			recv = t.X
			continue
		case *ast.Ident:
			return t.Name + "::" + fn.Name.Name
		}
		return fn.Name.Name
	}
}
