// Package colorutil converts between the scanner's YCbCr planes and RGB, and
// holds the overlay colours of the debug renderer and viewer.
package colorutil

import (
	"fmt"
	"image"
	"image/color"

	"cardscan/internal/cv"
)

// Overlay colours.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

// descale14 rounds a 14-bit fixed point value to an integer.
func descale14(x int32) int32 { return (x + 1<<13) >> 14 }

func saturate(x int32) uint8 {
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	}
	return uint8(x)
}

// YCbCrToRGB converts one full-range pixel using 14-bit fixed point
// coefficients.
func YCbCrToRGB(y, cb, cr uint8) (r, g, b uint8) {
	sCb := int32(cb) - 128
	sCr := int32(cr) - 128
	yy := int32(y)
	r = saturate(yy + descale14(sCr*22987))
	g = saturate(yy + descale14(sCb*-5636+sCr*-11698))
	b = saturate(yy + descale14(sCb*29049))
	return r, g, b
}

// MergeYCbCr builds an opaque RGBA image the size of y. Chroma planes may be
// full or half size; a nil chroma plane is treated as neutral.
func MergeYCbCr(y, cb, cr *cv.Image) (*image.RGBA, error) {
	w, h := y.Size()
	sx, sy, err := chromaStep(w, h, cb, cr)
	if err != nil {
		return nil, err
	}
	chromaRows := 0
	if cb != nil {
		_, chromaRows = cb.Size()
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for row := 0; row < h; row++ {
		ys := y.RowU8(row)
		var cbs, crs []uint8
		if cb != nil {
			cy := min(row/sy, chromaRows-1)
			cbs = cb.RowU8(cy)
			crs = cr.RowU8(cy)
		}
		px := out.Pix[row*out.Stride:]
		for x, lum := range ys[:w] {
			cbv, crv := uint8(128), uint8(128)
			if cbs != nil {
				cx := min(x/sx, len(cbs)-1)
				cbv, crv = cbs[cx], crs[cx]
			}
			r, g, b := YCbCrToRGB(lum, cbv, crv)
			px[4*x], px[4*x+1], px[4*x+2], px[4*x+3] = r, g, b, 255
		}
	}
	return out, nil
}

// chromaStep returns how many luma pixels share a chroma sample.
func chromaStep(w, h int, cb, cr *cv.Image) (int, int, error) {
	if cb == nil && cr == nil {
		return 1, 1, nil
	}
	if cb == nil || cr == nil {
		return 0, 0, fmt.Errorf("only one chroma plane given")
	}
	cw, ch := cb.Size()
	if w2, h2 := cr.Size(); w2 != cw || h2 != ch {
		return 0, 0, fmt.Errorf("chroma planes differ: %dx%d and %dx%d", cw, ch, w2, h2)
	}
	switch {
	case cw == w && ch == h:
		return 1, 1, nil
	case (cw == w/2 || cw == (w+1)/2) && (ch == h/2 || ch == (h+1)/2) && cw > 0 && ch > 0:
		return 2, 2, nil
	}
	return 0, 0, fmt.Errorf("chroma %dx%d does not fit luma %dx%d", cw, ch, w, h)
}
