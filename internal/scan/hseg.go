package scan

import (
	"fmt"
	"math"

	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/model"

	"gonum.org/v1/gonum/floats"
)

// digitProfile is the mean normalized column gradient across one digit
// cell, sampled at each of its DigitWidth columns.
var digitProfile = [model.DigitWidth]float64{
	0.26228655, 0.30289554, 0.34632607, 0.38725636, 0.42745813, 0.45875135,
	0.46498017, 0.45258447, 0.43045216, 0.42430462, 0.44796554, 0.47726529,
	0.48471646, 0.46457738, 0.42799847, 0.38851183, 0.33966308, 0.28802608,
	0.25377602,
}

// MaxDigits is the longest card number the scanner reads.
const MaxDigits = 16

// HSeg places the digits of the number strip horizontally. Offsets holds the
// left edge of each of the NOffsets digit cells; Score is the L1 distance of
// the synthesized profile from the observed one.
type HSeg struct {
	NOffsets      int
	Offsets       [MaxDigits]int
	Score         float32
	NumberWidth   float32
	PatternOffset int
}

type widthRange struct{ min, max, step float32 }

type offsetRange struct {
	min, max, step int
	unbounded      bool
}

// BestHSeg searches digit pitch and strip offset for the placement whose
// synthesized gradient profile is closest to the observed one. strip is the
// CardWidth x DigitHeight number strip, usually a region of the card.
func BestHSeg(strip *cv.Image, vseg VSeg, ws *Workspace) HSeg {
	if w, h := strip.Size(); w != detect.CardWidth || h != model.DigitHeight {
		panic(fmt.Sprintf("scan: number strip must be %dx%d, got %dx%d",
			detect.CardWidth, model.DigitHeight, w, h))
	}
	ws = orNew(ws)

	cv.MorphGrad3Cross(strip, ws.grad)
	profile := ws.profile
	clear(profile)
	for y := 0; y < model.DigitHeight; y++ {
		for x, v := range ws.grad.RowU8(y) {
			profile[x] += float64(v)
		}
	}
	lo, hi := floats.Min(profile), floats.Max(profile)
	if hi > lo {
		for i, v := range profile {
			profile[i] = (v - lo) / (hi - lo)
		}
	} else {
		clear(profile)
	}

	best := HSeg{NOffsets: vseg.NumberLength, Score: detect.CardWidth}
	best = searchHSeg(profile, vseg, best, widthRange{17.1, 19.7, 0.5}, offsetRange{min: 0, step: 10, unbounded: true}, ws)
	best = searchHSeg(profile, vseg, best, around(best.NumberWidth, 0.5, 0.2), offsetsAround(best.PatternOffset, 10), ws)
	best = searchHSeg(profile, vseg, best, around(best.NumberWidth, 0.2, 0.1), offsetsAround(best.PatternOffset, 3), ws)
	best = searchHSeg(profile, vseg, best, around(best.NumberWidth, 0.1, 0.05), offsetsAround(best.PatternOffset, 3), ws)
	return best
}

func around(width, span, step float32) widthRange {
	return widthRange{width - span, width + span, step}
}

func offsetsAround(offset, span int) offsetRange {
	return offsetRange{min: max(0, offset-span), max: offset + span, step: 1}
}

func roundEven32(v float32) int {
	return int(math.RoundToEven(float64(v)))
}

func searchHSeg(profile []float64, vseg VSeg, best HSeg, widths widthRange, offsets offsetRange, ws *Workspace) HSeg {
	pattern := ws.pattern
	var candidate [MaxDigits]int
	for width := widths.min; width < widths.max; width += widths.step {
		patternWidth := float32(vseg.PatternLength) * width
		maxOffset := detect.CardWidth - roundEven32(patternWidth)
		if !offsets.unbounded && offsets.max < maxOffset {
			maxOffset = offsets.max
		}
		for offset := offsets.min; offset < maxOffset; offset += offsets.step {
			clear(pattern)
			n := 0
			inBounds := true
			for i, digit := range vseg.NumberPattern {
				if !digit {
					continue
				}
				center := offset + roundEven32(float32(i)*width)
				if center >= 0 && center+model.DigitWidth < detect.CardWidth {
					copy(pattern[center:], digitProfile[:])
				} else {
					inBounds = false
				}
				if n < MaxDigits {
					candidate[n] = center
				}
				n++
			}
			if !inBounds {
				continue
			}
			score := float32(floats.Distance(profile, pattern, 1))
			if score < best.Score {
				best.Offsets = candidate
				best.Score = score
				best.NumberWidth = width
				best.PatternOffset = offset
			}
		}
	}
	return best
}
