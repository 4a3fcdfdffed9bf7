// Package renamer moves images to canonical names. Engine renames every
// survivor of the duplicate pass; Checker repairs whatever still breaks the
// naming convention afterwards.
package renamer

import (
	"path/filepath"

	"go.uber.org/zap"

	"imagededupe/fsutil"
	"imagededupe/logging"
	"imagededupe/naming"
	"imagededupe/scanner"
	"imagededupe/types"
)

// Phase names attached to every rename event
const (
	PhaseRename = "rename"
	PhaseSanity = "sanity_check"
)

// mover renames files inside one directory; shared by Engine and Checker
type mover struct {
	gen      *naming.Generator
	reporter logging.Reporter
	rename   func(src, dst string) error
}

// move gives path a fresh canonical name and keeps listing in sync with the
// directory. It returns the new path, or "" after logging a failure.
func (m *mover) move(dir, path, ext string, listing map[string]struct{}, phase string) string {
	name, err := m.gen.Next(listing, ext)
	if err != nil {
		m.reporter.Record(logging.EventRenameFailed,
			zap.String("path", path),
			zap.String("phase", phase),
			zap.Error(err))
		return ""
	}

	dst := filepath.Join(dir, name)
	if err := m.rename(path, dst); err != nil {
		m.reporter.Record(logging.EventRenameFailed,
			zap.String("path", path),
			zap.String("to", dst),
			zap.String("phase", phase),
			zap.Error(err))
		return ""
	}

	delete(listing, filepath.Base(path))
	listing[name] = struct{}{}
	m.reporter.Record(logging.EventRenamed,
		zap.String("path", path),
		zap.String("to", dst),
		zap.String("phase", phase))
	return dst
}

// Engine renames every record it is given, compliant or not
type Engine struct {
	mover
	renamed  int
	failures int
}

// NewEngine creates an Engine drawing names from gen
func NewEngine(gen *naming.Generator, reporter logging.Reporter) *Engine {
	return &Engine{mover: mover{gen: gen, reporter: reporter, rename: fsutil.RenameNoClobber}}
}

// RenameAll renames each record inside dir, updating Path in place on
// success. Files that cannot be renamed keep their old name and path.
// Extensions are preserved in lower case.
func (e *Engine) RenameAll(dir string, records []*types.ImageRecord) []*types.ImageRecord {
	e.renamed, e.failures = 0, 0

	listing, err := naming.ReadListing(dir)
	if err != nil {
		listing = make(map[string]struct{})
		for _, rec := range records {
			listing[filepath.Base(rec.Path)] = struct{}{}
		}
	}

	for _, rec := range records {
		ext := rec.Extension
		if ext == "" {
			ext = scanner.GetFileFormat(rec.Path)
		}
		if dst := e.move(dir, rec.Path, ext, listing, PhaseRename); dst != "" {
			rec.Path = dst
			e.renamed++
		} else {
			e.failures++
		}
	}
	return records
}

// Counts returns renamed and failed totals of the last RenameAll
func (e *Engine) Counts() (renamed, failures int) {
	return e.renamed, e.failures
}
