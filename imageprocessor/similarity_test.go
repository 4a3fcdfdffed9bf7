package imageprocessor

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/disintegration/imaging"

	"imagededupe/types"
)

// wavePattern is smooth, asymmetric under every rotation and has real structure
func wavePattern(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := float64(x) / float64(w)
			v := float64(y) / float64(h)
			r := 128 + 60*math.Sin(2*math.Pi*3*u) + 40*math.Cos(2*math.Pi*2*v+u)
			g := 100 + 80*u*v + 30*math.Sin(2*math.Pi*5*v)
			b := 60 + 150*u
			img.SetNRGBA(x, y, color.NRGBA{R: clamp8(r), G: clamp8(g), B: clamp8(b), A: 255})
		}
	}
	return img
}

func noisePattern(w, h int, seed int64) *image.NRGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 255
			continue
		}
		img.Pix[i] = uint8(rnd.Intn(256))
	}
	return img
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func record(path string, img image.Image) *types.ImageRecord {
	b := img.Bounds()
	return &types.ImageRecord{Path: path, Pixels: img, Width: b.Dx(), Height: b.Dy(), Extension: "png"}
}

func TestScoreIdentical(t *testing.T) {
	c := NewComparator(0)
	img := wavePattern(80, 60)
	if got := c.Score(record("a", img), record("b", imaging.Clone(img))); got != 1 {
		t.Fatalf("identical images scored %v", got)
	}
}

func TestScoreOrientationInvariance(t *testing.T) {
	c := NewComparator(0)
	base := wavePattern(64, 64)
	a := record("a", base)

	rotated := []struct {
		degrees int
		img     image.Image
	}{
		{0, base},
		{90, imaging.Rotate90(base)},
		{180, imaging.Rotate180(base)},
		{270, imaging.Rotate270(base)},
	}
	for _, r := range rotated {
		score, _ := c.BestOrientation(a, record("b", r.img))
		if score < 0.999 {
			t.Errorf("rotation %d: score %v", r.degrees, score)
		}
	}

	// non-square images keep their aspect ratio under 180 degrees
	wide := wavePattern(96, 48)
	if got := c.Score(record("a", wide), record("b", imaging.Rotate180(wide))); got < 0.999 {
		t.Errorf("180 on non-square: %v", got)
	}
}

func TestBestOrientationReportsAngle(t *testing.T) {
	c := NewComparator(0)
	base := wavePattern(48, 48)
	_, angle := c.BestOrientation(record("a", base), record("b", imaging.Rotate90(base)))
	// undoing a counter-clockwise quarter turn takes three more
	if angle != 270 {
		t.Fatalf("angle=%d", angle)
	}
}

func TestScoreIsSymmetricAndBounded(t *testing.T) {
	c := NewComparator(0)
	a := record("a", noisePattern(40, 40, 1))
	b := record("b", noisePattern(40, 40, 2))

	s1 := c.Score(a, b)
	if s1 < 0 || s1 > 1 {
		t.Fatalf("score out of range: %v", s1)
	}
	if s1 > 0.3 {
		t.Fatalf("unrelated noise scored %v", s1)
	}
	if s2 := c.Score(b, a); math.Abs(s1-s2) > 1e-9 {
		t.Fatalf("asymmetric: %v vs %v", s1, s2)
	}
}

func TestScoreUnrelatedBelowThreshold(t *testing.T) {
	c := NewComparator(512)
	a := record("a", wavePattern(120, 80))
	b := record("b", noisePattern(120, 80, 7))
	if got := c.Score(a, b); got >= 0.9 {
		t.Fatalf("unrelated images scored %v", got)
	}
}

func TestScoreAcrossResolutions(t *testing.T) {
	big := wavePattern(640, 360)
	small := imaging.Rotate180(imaging.Resize(big, 320, 180, imaging.Lanczos))

	for _, size := range []int{0, 128} {
		c := NewComparator(size)
		if got := c.Score(record("big", big), record("small", small)); got < 0.95 {
			t.Errorf("compare size %d: downscaled rotated copy scored %v", size, got)
		}
	}
}

func TestScoreDoesNotMutateRecords(t *testing.T) {
	c := NewComparator(32)
	img := wavePattern(50, 40)
	orig := imaging.Clone(img)
	a := record("a", img)
	b := record("b", imaging.Rotate90(img))

	c.Score(a, b)
	if a.Width != 50 || a.Height != 40 || b.Width != 40 || b.Height != 50 {
		t.Fatalf("dimensions changed: %+v %+v", a, b)
	}
	for i := range orig.Pix {
		if orig.Pix[i] != img.Pix[i] {
			t.Fatal("pixels of a were modified")
		}
	}
}

func TestScoreDegenerateInputs(t *testing.T) {
	c := NewComparator(0)
	if got := c.Score(nil, record("b", wavePattern(4, 4))); got != 0 {
		t.Fatalf("nil record scored %v", got)
	}
	empty := &types.ImageRecord{Pixels: image.NewNRGBA(image.Rect(0, 0, 0, 0))}
	if got := c.Score(empty, record("b", wavePattern(4, 4))); got != 0 {
		t.Fatalf("empty image scored %v", got)
	}
	tiny := wavePattern(3, 5)
	if got := c.Score(record("a", tiny), record("b", tiny)); got != 1 {
		t.Fatalf("tiny identical images scored %v", got)
	}
}

func TestWorkingSize(t *testing.T) {
	cases := []struct {
		w, h, limit  int
		wantW, wantH int
	}{
		{1920, 1080, 512, 512, 288},
		{1080, 1920, 512, 288, 512},
		{400, 300, 512, 400, 300},
		{1920, 1080, 0, 1920, 1080},
		{5000, 2, 100, 100, 1},
	}
	for _, tc := range cases {
		w, h := workingSize(tc.w, tc.h, tc.limit)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("workingSize(%d,%d,%d)=%d,%d want %d,%d", tc.w, tc.h, tc.limit, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestSSIMInvertedClampsToZero(t *testing.T) {
	p := lumaPlane(noisePattern(30, 30, 3))
	inv := &plane{w: p.w, h: p.h, pix: make([]float64, len(p.pix))}
	for i, v := range p.pix {
		inv.pix[i] = 255 - v
	}
	if got := ssim(p, inv); got != 0 {
		t.Fatalf("inverted noise scored %v", got)
	}
}
