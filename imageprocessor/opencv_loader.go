//go:build gocv

package imageprocessor

import (
	"gocv.io/x/gocv"

	"imagededupe/types"
)

func init() {
	preferredLoader = func() ImageLoader { return NewOpenCVImageLoader() }
}

// OpenCVImageLoader decodes through OpenCV. It is only built with -tags gocv
// and then takes over every format OpenCV reads; GIF stays with the pure-Go loader.
type OpenCVImageLoader struct {
	BaseImageLoader
}

// NewOpenCVImageLoader creates the OpenCV backed loader
func NewOpenCVImageLoader() *OpenCVImageLoader {
	return &OpenCVImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatJPEG,
				FormatPNG,
				FormatBMP,
				FormatTIFF,
				FormatWEBP,
			},
		},
	}
}

// LoadImage reads path in colour and converts the Mat to an image.Image
func (l *OpenCVImageLoader) LoadImage(path string) (*types.ImageRecord, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, newImageLoadError("failed to load image with OpenCV", path, nil)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, newImageLoadError("cannot convert OpenCV matrix", path, err)
	}
	return newRecord(path, img)
}
