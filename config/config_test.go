package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.SimilarityThreshold != DefaultThreshold {
		t.Fatalf("threshold=%v", cfg.SimilarityThreshold)
	}
	if !cfg.Log.Compress || cfg.Log.MaxSizeMB != 1 || cfg.Log.MaxAgeDays != 10 {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dedupe.yaml")
	data := []byte(`
directory: /srv/photos
similarity_threshold: 0.95
extensions: [".JPG", "png", "jpg", " "]
log:
  file: /tmp/dedupe.log
  debug: true
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Directory != "/srv/photos" || cfg.SimilarityThreshold != 0.95 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if want := []string{"jpg", "png"}; !reflect.DeepEqual(cfg.Extensions, want) {
		t.Fatalf("extensions=%v want %v", cfg.Extensions, want)
	}
	if cfg.CompareSize != DefaultCompareSize || cfg.MaxNameAttempts != DefaultMaxNameAttempts {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if !cfg.Log.Debug || cfg.Log.File != "/tmp/dedupe.log" || cfg.Log.MaxSizeMB != 1 {
		t.Fatalf("log=%+v", cfg.Log)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("similarity_threshold: [nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.SimilarityThreshold = 1.5 }},
		{"threshold below zero", func(c *Config) { c.SimilarityThreshold = -0.1 }},
		{"no extensions", func(c *Config) { c.Extensions = []string{"", "."} }},
		{"negative compare size", func(c *Config) { c.CompareSize = -1 }},
		{"zero attempts", func(c *Config) { c.MaxNameAttempts = 0 }},
		{"negative log age", func(c *Config) { c.Log.MaxAgeDays = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestExtensionSet(t *testing.T) {
	cfg := Default()
	cfg.Extensions = []string{".PNG", "Jpg"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	set := cfg.ExtensionSet()
	if _, ok := set["png"]; !ok {
		t.Fatalf("set=%v", set)
	}
	if _, ok := set["jpg"]; !ok {
		t.Fatalf("set=%v", set)
	}
	if len(set) != 2 {
		t.Fatalf("set=%v", set)
	}
}
