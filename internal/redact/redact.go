// Package redact blurs the digits of a card number on the rectified card, so
// that card images can be stored or shown without the full number.
package redact

import (
	"fmt"

	"cardscan/internal/cv"
	"cardscan/internal/cvbridge"
	"cardscan/internal/model"
	"cardscan/internal/scan"
	"cardscan/pkg/geometry"

	"gocv.io/x/gocv"
)

// BlurKernel is the median blur aperture.
const BlurKernel = 25

// Cells returns the regions to blur: every digit cell but the last unblurred,
// grown by a pixel on each side. The first four cells are twice as tall to
// cover the small print below them. A negative unblurred blurs nothing.
func Cells(vseg scan.VSeg, hseg scan.HSeg, unblurred int) []geometry.RectInt {
	if unblurred < 0 {
		return nil
	}
	n := min(hseg.NOffsets, scan.MaxDigits) - unblurred
	var out []geometry.RectInt
	for i := 0; i < n; i++ {
		h := model.DigitHeight + 2
		if i < 4 {
			h *= 2
		}
		out = append(out, geometry.NewRectInt(hseg.Offsets[i]-1, vseg.YOffset-1, int(hseg.NumberWidth)+2, h))
	}
	return out
}

// BlurDigits median-blurs the digit cells of m in place.
func BlurDigits(m gocv.Mat, vseg scan.VSeg, hseg scan.HSeg, unblurred int) error {
	if m.Empty() {
		return fmt.Errorf("empty image")
	}
	if m.Type() != gocv.MatTypeCV8UC1 && m.Type() != gocv.MatTypeCV8UC3 && m.Type() != gocv.MatTypeCV8UC4 {
		return fmt.Errorf("unsupported mat type %v", m.Type())
	}
	for _, c := range Cells(vseg, hseg, unblurred) {
		r, ok := c.Clip(m.Cols(), m.Rows())
		if !ok {
			continue
		}
		region := m.Region(r)
		gocv.MedianBlur(region, &region, BlurKernel)
		region.Close()
	}
	return nil
}

// BlurImage blurs the digit cells of an 8-bit card image in place.
func BlurImage(card *cv.Image, vseg scan.VSeg, hseg scan.HSeg, unblurred int) error {
	m, err := cvbridge.ToMat(card)
	if err != nil {
		return fmt.Errorf("failed to convert card: %w", err)
	}
	defer m.Close()
	if err := BlurDigits(m, vseg, hseg, unblurred); err != nil {
		return err
	}
	return cvbridge.CopyFromMat(m, card)
}
