package imageprocessor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"imagededupe/types"
)

// preferredLoader is set by optional backends (see opencv_loader.go)
var preferredLoader func() ImageLoader

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standardLoader := NewStandardImageLoader()
	for ext := range formatExtensions {
		registry.RegisterLoader(ext, standardLoader)
	}
	registry.defaultLoader = standardLoader

	if preferredLoader != nil {
		preferred := preferredLoader()
		if s, ok := preferred.(interface{ Supports(ext string) bool }); ok {
			for ext := range formatExtensions {
				if s.Supports(ext) {
					registry.RegisterLoader(ext, preferred)
				}
			}
		}
	}

	return registry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.loaders[ext] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}
	return r.defaultLoader
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	_, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// LoadImage decodes path with the registered loader. When a specialised
// loader fails the pure-Go default gets a second try.
func (r *ImageLoaderRegistry) LoadImage(path string) (*types.ImageRecord, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return nil, fmt.Errorf("no suitable loader found for: %s", path)
	}

	rec, err := loader.LoadImage(path)
	if err == nil || loader == r.defaultLoader {
		return rec, err
	}
	if fallback, ferr := r.defaultLoader.LoadImage(path); ferr == nil {
		return fallback, nil
	}
	return nil, err
}
