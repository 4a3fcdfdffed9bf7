// Package scanner lists the recognized image files of a directory and decodes
// them into the catalog the duplicate resolver works on.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"imagededupe/logging"
)

// ListImages returns the regular files directly inside dir whose extension is
// recognized, sorted by name. Sub-directories are not descended into.
func ListImages(dir string, extensions map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if IsRecognized(e.Name(), extensions) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// BuildCatalog decodes every path in order. Files that fail to decode are
// reported and left out of the catalog; they stay on disk untouched.
func BuildCatalog(paths []string, loader Loader, reporter logging.Reporter, progress *ProgressTracker) CatalogResult {
	var result CatalogResult
	for _, path := range paths {
		rec, err := loader.LoadImage(path)
		if err != nil {
			result.Failures++
			reporter.Record(logging.EventDecodeFailed,
				zap.String("path", path),
				zap.String("phase", "catalog"),
				zap.Error(err))
			progress.Step(false)
			continue
		}
		result.Records = append(result.Records, rec)
		progress.Step(true)
	}
	progress.Stop()
	return result
}
