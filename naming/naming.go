// Package naming produces and recognizes canonical image filenames of the
// form image-<timestamp>.<ext>, where the timestamp is the local wall-clock
// time written as YYYYMMDDhhmmss.
package naming

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

const (
	Prefix          = "image-"
	TimestampLayout = "20060102150405"
)

// ErrNamesExhausted is returned when no free name was found within the attempt budget
var ErrNamesExhausted = errors.New("no free canonical name")

var canonicalPattern = regexp.MustCompile(`^image-(\d+)\.([a-z0-9]+)$`)

// Canonical formats the name for timestamp t and extension ext
func Canonical(t time.Time, ext string) string {
	return Prefix + t.Format(TimestampLayout) + "." + ext
}

// IsCanonical reports whether name matches the pattern with one of the
// recognized extensions. Extensions must be lower case to match.
func IsCanonical(name string, exts map[string]struct{}) bool {
	m := canonicalPattern.FindStringSubmatch(name)
	if m == nil {
		return false
	}
	_, ok := exts[m[2]]
	return ok
}

// ReadListing returns the names of every entry in dir
func ReadListing(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	listing := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		listing[e.Name()] = struct{}{}
	}
	return listing, nil
}

// Generator hands out canonical names that are unique within one run.
// A single Generator must be shared by every phase of the run.
type Generator struct {
	now         func() time.Time
	maxAttempts int
	reserved    map[string]struct{}
	cursor      map[string]time.Time // ext -> earliest timestamp still unused by this run
}

// NewGenerator creates a Generator; now defaults to time.Now
func NewGenerator(now func() time.Time, maxAttempts int) *Generator {
	if now == nil {
		now = time.Now
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Generator{
		now:         now,
		maxAttempts: maxAttempts,
		reserved:    make(map[string]struct{}),
		cursor:      make(map[string]time.Time),
	}
}

// Next returns a free name for ext that is neither in listing nor handed out
// earlier by this Generator, and reserves it. On a collision the timestamp
// advances one second at a time.
func (g *Generator) Next(listing map[string]struct{}, ext string) (string, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" {
		return "", fmt.Errorf("empty extension")
	}

	ts := g.now().Truncate(time.Second)
	if c, ok := g.cursor[ext]; ok && c.After(ts) {
		ts = c
	}

	for i := 0; i < g.maxAttempts; i++ {
		name := Canonical(ts, ext)
		if !g.taken(listing, name) {
			g.reserved[name] = struct{}{}
			g.cursor[ext] = ts.Add(time.Second)
			return name, nil
		}
		ts = ts.Add(time.Second)
	}
	return "", fmt.Errorf("%w for .%s after %d attempts", ErrNamesExhausted, ext, g.maxAttempts)
}

func (g *Generator) taken(listing map[string]struct{}, name string) bool {
	if _, ok := g.reserved[name]; ok {
		return true
	}
	_, ok := listing[name]
	return ok
}

// Reserved reports whether name was handed out by this Generator
func (g *Generator) Reserved(name string) bool {
	_, ok := g.reserved[name]
	return ok
}
