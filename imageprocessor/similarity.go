package imageprocessor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"imagededupe/types"
)

// SSIM constants for 8-bit samples
const (
	ssimWindow = 7
	ssimK1     = 0.01
	ssimK2     = 0.03
	dataRange  = 255.0
)

type rotation struct {
	degrees int
	apply   func(image.Image) *image.NRGBA
}

// imaging rotates counter-clockwise; any fixed direction covers all four orientations
var rotations = []rotation{
	{0, nil},
	{90, imaging.Rotate90},
	{180, imaging.Rotate180},
	{270, imaging.Rotate270},
}

// Comparator scores the similarity of two images across the four right-angle
// orientations of the second one.
type Comparator struct {
	// CompareSize caps the longest edge the comparison runs at. 0 means the
	// first image's native size.
	CompareSize int
}

// NewComparator creates a Comparator working at most at compareSize pixels
func NewComparator(compareSize int) *Comparator {
	return &Comparator{CompareSize: compareSize}
}

// Score returns the best SSIM between a and any rotation of b, in [0,1]
func (c *Comparator) Score(a, b *types.ImageRecord) float64 {
	score, _ := c.BestOrientation(a, b)
	return score
}

// BestOrientation returns the highest score and the rotation of b, in
// degrees, that produced it. Neither record is modified.
func (c *Comparator) BestOrientation(a, b *types.ImageRecord) (float64, int) {
	if a == nil || b == nil || a.Pixels == nil || b.Pixels == nil {
		return 0, 0
	}
	ab := a.Pixels.Bounds()
	if ab.Empty() || b.Pixels.Bounds().Empty() {
		return 0, 0
	}

	w, h := workingSize(ab.Dx(), ab.Dy(), c.CompareSize)
	ref := lumaPlane(fit(a.Pixels, w, h))

	best, bestAngle := 0.0, 0
	for _, r := range rotations {
		candidate := b.Pixels
		if r.apply != nil {
			candidate = r.apply(candidate)
		}
		score := ssim(ref, lumaPlane(fit(candidate, w, h)))
		if score > best {
			best, bestAngle = score, r.degrees
		}
	}
	return best, bestAngle
}

// workingSize scales w x h down so the longest edge is at most limit
func workingSize(w, h, limit int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if limit <= 0 || longest <= limit {
		return w, h
	}
	scale := float64(limit) / float64(longest)
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	return sw, sh
}

// fit resamples img to exactly w x h
func fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Linear)
}

type plane struct {
	w, h int
	pix  []float64
}

// lumaPlane converts img to luminance samples in 0..255
func lumaPlane(img image.Image) *plane {
	gray := imaging.Grayscale(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	p := &plane{w: w, h: h, pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			p.pix[y*w+x] = float64(row[x*4])
		}
	}
	return p
}

// ssim is the mean structural similarity over every full square window,
// using a uniform window and sample covariance. Planes must be the same size.
func ssim(x, y *plane) float64 {
	if x.w != y.w || x.h != y.h || x.w == 0 || x.h == 0 {
		return 0
	}
	w, h := x.w, x.h

	win := ssimWindow
	if w < win {
		win = w
	}
	if h < win {
		win = h
	}
	if win%2 == 0 {
		win--
	}

	// summed-area tables, one row and column of zero padding
	stride := w + 1
	size := stride * (h + 1)
	sx := make([]float64, size)
	sy := make([]float64, size)
	sxx := make([]float64, size)
	syy := make([]float64, size)
	sxy := make([]float64, size)
	for row := 0; row < h; row++ {
		var rx, ry, rxx, ryy, rxy float64
		for col := 0; col < w; col++ {
			a := x.pix[row*w+col]
			b := y.pix[row*w+col]
			rx += a
			ry += b
			rxx += a * a
			ryy += b * b
			rxy += a * b
			i := (row+1)*stride + col + 1
			sx[i] = sx[i-stride] + rx
			sy[i] = sy[i-stride] + ry
			sxx[i] = sxx[i-stride] + rxx
			syy[i] = syy[i-stride] + ryy
			sxy[i] = sxy[i-stride] + rxy
		}
	}

	c1 := (ssimK1 * dataRange) * (ssimK1 * dataRange)
	c2 := (ssimK2 * dataRange) * (ssimK2 * dataRange)
	n := float64(win * win)
	unbias := 1.0
	if n > 1 {
		unbias = n / (n - 1)
	}

	var total float64
	var count int
	for top := 0; top+win <= h; top++ {
		for left := 0; left+win <= w; left++ {
			tl := top*stride + left
			tr := tl + win
			bl := tl + win*stride
			br := bl + win

			mx := (sx[br] - sx[tr] - sx[bl] + sx[tl]) / n
			my := (sy[br] - sy[tr] - sy[bl] + sy[tl]) / n
			vx := ((sxx[br]-sxx[tr]-sxx[bl]+sxx[tl])/n - mx*mx) * unbias
			vy := ((syy[br]-syy[tr]-syy[bl]+syy[tl])/n - my*my) * unbias
			cov := ((sxy[br]-sxy[tr]-sxy[bl]+sxy[tl])/n - mx*my) * unbias

			total += ((2*mx*my + c1) * (2*cov + c2)) / ((mx*mx + my*my + c1) * (vx + vy + c2))
			count++
		}
	}

	mean := total / float64(count)
	switch {
	case math.IsNaN(mean) || mean < 0:
		return 0
	case mean > 1:
		return 1
	}
	return mean
}
