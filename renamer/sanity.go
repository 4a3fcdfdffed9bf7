package renamer

import (
	"path/filepath"

	"go.uber.org/zap"

	"imagededupe/fsutil"
	"imagededupe/logging"
	"imagededupe/naming"
	"imagededupe/scanner"
)

// Checker re-lists a directory and renames every recognized file whose name
// is not canonical. Canonical files are never touched, so running it again
// right after changes nothing.
type Checker struct {
	mover
	extensions map[string]struct{}
	failures   int
}

// NewChecker creates a Checker sharing gen with the rename phase
func NewChecker(gen *naming.Generator, extensions map[string]struct{}, reporter logging.Reporter) *Checker {
	return &Checker{
		mover:      mover{gen: gen, reporter: reporter, rename: fsutil.RenameNoClobber},
		extensions: extensions,
	}
}

// Enforce repairs dir and returns how many files were renamed. An error is
// returned only when the directory cannot be listed.
func (c *Checker) Enforce(dir string) (int, error) {
	c.failures = 0

	paths, err := scanner.ListImages(dir, c.extensions)
	if err != nil {
		return 0, err
	}
	listing, err := naming.ReadListing(dir)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, path := range paths {
		name := filepath.Base(path)
		if naming.IsCanonical(name, c.extensions) {
			continue
		}
		c.reporter.Record(logging.EventNamingViolation,
			zap.String("path", path),
			zap.String("phase", PhaseSanity))
		if c.move(dir, path, scanner.GetFileFormat(path), listing, PhaseSanity) != "" {
			repaired++
		} else {
			c.failures++
		}
	}
	return repaired, nil
}

// Failures returns how many repairs failed in the last Enforce
func (c *Checker) Failures() int {
	return c.failures
}
