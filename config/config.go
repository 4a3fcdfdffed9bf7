// Package config holds the run configuration: the similarity threshold, the
// recognized extensions and the log/journal sinks.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultThreshold       = 0.9
	DefaultCompareSize     = 512
	DefaultMaxNameAttempts = 1000
	DefaultLogMaxSizeMB    = 1
	DefaultLogMaxAgeDays   = 10
)

// DefaultExtensions are the image types handled when nothing else is configured
var DefaultExtensions = []string{"png", "jpg", "jpeg", "bmp"}

// LogConfig configures the operational log file
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	Debug      bool   `yaml:"debug"`
}

// Config is passed to every component at construction
type Config struct {
	Directory           string    `yaml:"directory"`
	SimilarityThreshold float64   `yaml:"similarity_threshold"`
	Extensions          []string  `yaml:"extensions"`
	CompareSize         int       `yaml:"compare_size"`
	MaxNameAttempts     int       `yaml:"max_name_attempts"`
	Journal             string    `yaml:"journal"`
	Log                 LogConfig `yaml:"log"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		SimilarityThreshold: DefaultThreshold,
		Extensions:          append([]string(nil), DefaultExtensions...),
		CompareSize:         DefaultCompareSize,
		MaxNameAttempts:     DefaultMaxNameAttempts,
		Log: LogConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxAgeDays: DefaultLogMaxAgeDays,
			Compress:   true,
		},
	}
}

// Load reads a YAML file on top of the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Extensions = NormalizeExtensions(cfg.Extensions)
	return cfg, nil
}

// Validate checks value ranges and normalizes the extension list
func (c *Config) Validate() error {
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity_threshold must be within [0,1], got %v", c.SimilarityThreshold)
	}
	c.Extensions = NormalizeExtensions(c.Extensions)
	if len(c.Extensions) == 0 {
		return errors.New("at least one extension is required")
	}
	if c.CompareSize < 0 {
		return fmt.Errorf("compare_size must not be negative, got %d", c.CompareSize)
	}
	if c.MaxNameAttempts < 1 {
		return fmt.Errorf("max_name_attempts must be at least 1, got %d", c.MaxNameAttempts)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxAgeDays < 0 {
		return errors.New("log rotation limits must not be negative")
	}
	return nil
}

// ExtensionSet returns the recognized extensions as a lookup set
func (c *Config) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Extensions))
	for _, ext := range c.Extensions {
		set[ext] = struct{}{}
	}
	return set
}

// NormalizeExtension lower-cases ext and strips a leading dot
func NormalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// NormalizeExtensions normalizes every entry, dropping blanks and duplicates
func NormalizeExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = NormalizeExtension(ext)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}
