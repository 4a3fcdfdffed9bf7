package scanner

import (
	"path/filepath"
	"strings"
)

// GetFileFormat returns the lowercase file extension without the dot
func GetFileFormat(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// IsRecognized checks the extension of path against the configured set,
// ignoring case
func IsRecognized(path string, extensions map[string]struct{}) bool {
	ext := GetFileFormat(path)
	if ext == "" {
		return false
	}
	_, ok := extensions[ext]
	return ok
}
