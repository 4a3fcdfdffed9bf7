package naming

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var exts = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "bmp": {}}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIsCanonical(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"image-20261016093000.jpg", true},
		{"image-1.png", true},
		{"image-20261016093000.JPG", false},
		{"image-20261016-093000.jpg", false},
		{"image-.jpg", false},
		{"image-123.gif", false},
		{"photo-123.jpg", false},
		{"image-123.jpg.bak", false},
		{"a.jpg", false},
		{"Image-123.jpg", false},
	}
	for _, tc := range cases {
		if got := IsCanonical(tc.name, exts); got != tc.want {
			t.Errorf("IsCanonical(%q)=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	ts := time.Date(2026, 10, 16, 9, 30, 5, 999, time.UTC)
	if got := Canonical(ts, "jpg"); got != "image-20261016093005.jpg" {
		t.Fatalf("got %q", got)
	}
}

func TestNextNeverRepeats(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	g := NewGenerator(fixedClock(now), 10)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name, err := g.Next(nil, "jpg")
		if err != nil {
			t.Fatalf("Next #%d: %v", i, err)
		}
		if seen[name] {
			t.Fatalf("duplicate name %q", name)
		}
		if !IsCanonical(name, exts) {
			t.Fatalf("non-canonical name %q", name)
		}
		if !g.Reserved(name) {
			t.Fatalf("%q not reserved", name)
		}
		seen[name] = true
	}
}

func TestNextSkipsListing(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	listing := map[string]struct{}{
		Canonical(now, "jpg"):                  {},
		Canonical(now.Add(time.Second), "jpg"): {},
	}
	g := NewGenerator(fixedClock(now), 10)

	name, err := g.Next(listing, ".JPG")
	if err != nil {
		t.Fatal(err)
	}
	if want := Canonical(now.Add(2*time.Second), "jpg"); name != want {
		t.Fatalf("got %q want %q", name, want)
	}
}

func TestNextExtensionsShareTimestamp(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	g := NewGenerator(fixedClock(now), 10)

	a, _ := g.Next(nil, "jpg")
	b, _ := g.Next(nil, "png")
	if a != "image-20261016093000.jpg" || b != "image-20261016093000.png" {
		t.Fatalf("got %q %q", a, b)
	}
}

func TestNextFollowsClock(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	clock := now
	g := NewGenerator(func() time.Time { return clock }, 10)

	first, _ := g.Next(nil, "jpg")
	clock = now.Add(time.Hour)
	second, _ := g.Next(nil, "jpg")
	if first != Canonical(now, "jpg") || second != Canonical(now.Add(time.Hour), "jpg") {
		t.Fatalf("got %q %q", first, second)
	}
}

func TestNextExhausted(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	listing := map[string]struct{}{}
	for i := 0; i < 3; i++ {
		listing[Canonical(now.Add(time.Duration(i)*time.Second), "png")] = struct{}{}
	}
	g := NewGenerator(fixedClock(now), 3)

	if _, err := g.Next(listing, "png"); !errors.Is(err, ErrNamesExhausted) {
		t.Fatalf("want ErrNamesExhausted, got %v", err)
	}
	if _, err := g.Next(listing, ""); err == nil {
		t.Fatal("expected error for empty extension")
	}
}

func TestReadListing(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a.jpg", "image-1.png"} {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	listing, err := ReadListing(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(listing) != 2 {
		t.Fatalf("listing=%v", listing)
	}
	if _, err := ReadListing(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}
