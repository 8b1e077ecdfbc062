package capture

import (
	"context"
	"image"

	"golang.org/x/image/draw"
)

// Heuristic sampling defaults.
const (
	DefaultSourceSize    = 200
	DefaultSampleSize    = 100
	DefaultSkinThreshold = 0.15
	skinRedFloor         = 60
	skinGreenFloor       = 40
	skinBlueFloor        = 20
	skinRedMargin        = 15
	skinGreenBlueSpread  = 15
)

// Heuristic detects a face by measuring the fraction of skin-toned pixels in
// a square crop taken from the frame center.
type Heuristic struct {
	SourceSize int
	SampleSize int
	Threshold  float64
}

// NewHeuristic returns a heuristic detector with default sampling parameters.
func NewHeuristic() *Heuristic {
	return &Heuristic{
		SourceSize: DefaultSourceSize,
		SampleSize: DefaultSampleSize,
		Threshold:  DefaultSkinThreshold,
	}
}

// Detect reports whether the skin ratio of the center crop exceeds the threshold.
func (h *Heuristic) Detect(_ context.Context, f Frame) bool {
	if f.Image == nil {
		return false
	}
	return h.SkinRatio(f.Image) > h.Threshold
}

func (h *Heuristic) Name() string {
	return "heuristic"
}

// SkinRatio samples the center crop of img, scaled to SampleSize square,
// and returns the fraction of pixels classified as skin.
func (h *Heuristic) SkinRatio(img image.Image) float64 {
	sample := h.sample(img)
	if sample == nil {
		return 0
	}

	b := sample.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return 0
	}

	skin := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			i := sample.PixOffset(x, y)
			if IsSkin(sample.Pix[i], sample.Pix[i+1], sample.Pix[i+2]) {
				skin++
			}
		}
	}

	return float64(skin) / float64(total)
}

func (h *Heuristic) sample(img image.Image) *image.RGBA {
	src := centerCrop(img.Bounds(), h.SourceSize)
	if src.Empty() {
		return nil
	}

	size := h.SampleSize
	if size <= 0 {
		size = DefaultSampleSize
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}

// centerCrop returns a side×side rectangle centered in b, clipped to b.
func centerCrop(b image.Rectangle, side int) image.Rectangle {
	if side <= 0 {
		side = DefaultSourceSize
	}
	cx := b.Min.X + b.Dx()/2
	cy := b.Min.Y + b.Dy()/2
	half := side / 2
	r := image.Rect(cx-half, cy-half, cx-half+side, cy-half+side)
	return r.Intersect(b)
}

// IsSkin applies the skin-tone color heuristic to an 8-bit RGB triple:
// red dominant over green and blue by a minimum margin, channel floors, and
// green and blue close to each other.
func IsSkin(r, g, b uint8) bool {
	ri, gi, bi := int(r), int(g), int(b)

	if ri <= skinRedFloor || gi <= skinGreenFloor || bi <= skinBlueFloor {
		return false
	}
	if ri-gi <= skinRedMargin || ri-bi <= skinRedMargin {
		return false
	}
	spread := gi - bi
	if spread < 0 {
		spread = -spread
	}
	return spread < skinGreenBlueSpread
}
