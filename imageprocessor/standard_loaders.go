package imageprocessor

import (
	"github.com/disintegration/imaging"

	"imagededupe/types"

	// BMP, TIFF and WebP are not in the standard library
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// StandardImageLoader decodes images in pure Go
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatGIF,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
	}
}

// LoadImage decodes path, applying the EXIF orientation tag when present
func (l *StandardImageLoader) LoadImage(path string) (*types.ImageRecord, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, newImageLoadError("failed to decode image", path, err)
	}
	return newRecord(path, img)
}
