package scanner

import (
	"fmt"
	"io"
)

// ProgressTracker prints a single updating progress line while the catalog
// is decoded. A nil tracker or one without an output is silent.
type ProgressTracker struct {
	out        io.Writer
	processed  int
	errors     int
	totalFiles int
}

// NewProgressTracker initializes the progress tracker
func NewProgressTracker(out io.Writer, totalFiles int) *ProgressTracker {
	return &ProgressTracker{out: out, totalFiles: totalFiles}
}

// Step counts one processed file
func (p *ProgressTracker) Step(ok bool) {
	if p == nil {
		return
	}
	p.processed++
	if !ok {
		p.errors++
	}
	if p.out == nil {
		return
	}
	if p.errors > 0 {
		fmt.Fprintf(p.out, "\rDecoding: %d/%d (Errors: %d)", p.processed, p.totalFiles, p.errors)
	} else {
		fmt.Fprintf(p.out, "\rDecoding: %d/%d", p.processed, p.totalFiles)
	}
}

// Stop ends the progress line
func (p *ProgressTracker) Stop() {
	if p == nil || p.out == nil || p.processed == 0 {
		return
	}
	fmt.Fprintln(p.out)
}

// Processed returns how many files were stepped through and how many failed
func (p *ProgressTracker) Processed() (int, int) {
	if p == nil {
		return 0, 0
	}
	return p.processed, p.errors
}
