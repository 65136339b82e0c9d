package satd

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/src-d/enry/v2"

	"github.com/masmgr/tdrspots/internal/pathfilter"
)

// FileReport is the marker count of one file.
type FileReport struct {
	Path    string `json:"path"`
	Markers int    `json:"markers"`
}

// ScanResult holds the files with markers and the number of files scanned.
type ScanResult struct {
	Files   []FileReport
	Scanned int
}

// TotalMarkers sums the markers of every file.
func (r *ScanResult) TotalMarkers() int {
	total := 0
	for _, f := range r.Files {
		total += f.Markers
	}
	return total
}

// Scan walks root and counts marker lines in every target file.
// Unreadable files are logged and skipped. Files are ordered by marker count
// descending, then path.
func (c *Classifier) Scan(ctx context.Context, root string, exclude []string, logger *slog.Logger) (*ScanResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	filter, err := pathfilter.New(nil, exclude)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{}
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			logger.Warn("could not walk path", "path", p, "error", walkErr)
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
			if rel != "." && (d.Name() == ".git" || enry.IsVendor(rel+"/") || filter.Excluded(rel+"/x")) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !filter.Match(rel) || !c.Targets(rel) {
			return nil
		}

		src, err := os.ReadFile(p)
		if err != nil {
			logger.Warn("could not read file", "path", p, "error", err)
			return nil
		}
		if enry.IsBinary(src) {
			return nil
		}
		result.Scanned++
		if n := c.CountLines(src); n > 0 {
			result.Files = append(result.Files, FileReport{Path: rel, Markers: n})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result.Files, func(i, j int) bool {
		if result.Files[i].Markers != result.Files[j].Markers {
			return result.Files[i].Markers > result.Files[j].Markers
		}
		return result.Files[i].Path < result.Files[j].Path
	})
	return result, nil
}
