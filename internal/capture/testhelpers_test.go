package capture_test

import (
	"image"
	"image/color"
)

var (
	skinTone = color.RGBA{R: 200, G: 120, B: 110, A: 255}
	backdrop = color.RGBA{R: 30, G: 40, B: 90, A: 255}
)

// stripedFrame returns a w×h image filled with backdrop whose center
// 200×200 region carries skinRows rows of skin tone at its top.
func stripedFrame(w, h, skinRows int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, backdrop)
		}
	}

	top := h/2 - 100
	left := w/2 - 100
	for y := top; y < top+skinRows; y++ {
		for x := left; x < left+200; x++ {
			img.SetRGBA(x, y, skinTone)
		}
	}
	return img
}
