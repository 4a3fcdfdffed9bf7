package imageprocessor

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"imagededupe/types"
)

// ImageLoader interface defines methods for image loading
type ImageLoader interface {
	// CanLoad determines if this loader can handle the given file
	CanLoad(path string) bool

	// LoadImage decodes the file into a record that owns its pixels
	LoadImage(path string) (*types.ImageRecord, error)
}

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	// Formats this loader can handle
	SupportedFormats []FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	format := GetFileFormat(path)
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return fileExists(path)
		}
	}
	return false
}

// Supports reports whether ext (with or without the dot) is one of the loader's formats
func (l *BaseImageLoader) Supports(ext string) bool {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	format, ok := formatExtensions[strings.ToLower(ext)]
	if !ok {
		return false
	}
	for _, supported := range l.SupportedFormats {
		if format == supported {
			return true
		}
	}
	return false
}

// newRecord wraps decoded pixels into an ImageRecord
func newRecord(path string, img image.Image) (*types.ImageRecord, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, newImageLoadError("decoded image is empty", path, nil)
	}
	return &types.ImageRecord{
		Path:      path,
		Pixels:    img,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Extension: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
	}, nil
}

// fileExists checks if a regular file exists and is accessible
func fileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %s", message, path)
	}
	return fmt.Errorf("%s: %s: %w", message, path, err)
}
