// Package ingest enumerates candidate recipe card scans from the source
// directory in a stable order.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tboyle/recipe-press/constants"
	"github.com/tboyle/recipe-press/internal/common"
)

// ImageJob identifies one scan to process. Name doubles as the tracking key.
type ImageJob struct {
	Path string
	Name string
}

// ScanStats summarizes one directory enumeration.
type ScanStats struct {
	Scanned uint32
	Matched uint32
	Skipped uint32
}

// ListImages returns the image files in dir, lexically sorted by filename.
// Hidden files and unsupported extensions are skipped. A missing directory is
// a common.ErrNotFound.
func ListImages(dir string) ([]ImageJob, ScanStats, error) {
	var stats ScanStats
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, stats, common.NewAppError("SOURCE_DIR_MISSING",
				fmt.Sprintf("image directory not found: %s", dir), common.ErrNotFound)
		}
		return nil, stats, fmt.Errorf("read dir: %w", err)
	}

	jobs := make([]ImageJob, 0, len(entries))
	for _, e := range entries {
		stats.Scanned++
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			stats.Skipped++
			continue
		}
		if !constants.IsImageExt(filepath.Ext(e.Name())) {
			stats.Skipped++
			continue
		}
		stats.Matched++
		jobs = append(jobs, ImageJob{Path: filepath.Join(dir, e.Name()), Name: e.Name()})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name < jobs[j].Name })
	return jobs, stats, nil
}

// Select resolves the --image argument against the enumerated jobs: a 1-based
// index or an exact filename.
func Select(jobs []ImageJob, ref string) (ImageJob, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if len(jobs) == 1 {
			return jobs[0], nil
		}
		return ImageJob{}, common.NewAppError("IMAGE_REQUIRED",
			"multiple images found; pass --image <name or 1-based index>", common.ErrInvalidInput)
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		if idx < 1 || idx > len(jobs) {
			return ImageJob{}, common.NewAppError("IMAGE_INDEX",
				fmt.Sprintf("image index %d out of range 1..%d", idx, len(jobs)), common.ErrInvalidInput)
		}
		return jobs[idx-1], nil
	}
	for _, j := range jobs {
		if j.Name == ref {
			return j, nil
		}
	}
	return ImageJob{}, common.NewAppError("IMAGE_NOT_FOUND",
		fmt.Sprintf("image not found: %s", ref), common.ErrNotFound)
}
