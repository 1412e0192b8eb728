package scan

import (
	"fmt"

	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/model"
	"cardscan/pkg/geometry"
)

const (
	// vsegWindow is the number of rows summed when placing the number strip.
	vsegWindow = model.DigitHeight
	// coarseStep is the row stride of the first scoring pass.
	coarseStep = 4
	// refineMargin extends the dense pass beyond the coarse window.
	refineMargin = 8
)

// VSeg locates the card number vertically: the strip starting at YOffset,
// DigitHeight rows tall, best matches Pattern with summed strip score Score.
type VSeg struct {
	Score         float32
	YOffset       int
	Pattern       model.Pattern
	NumberPattern []bool
	PatternLength int
	NumberLength  int
}

func newVSeg(score float32, yOffset int, p model.Pattern) VSeg {
	return VSeg{
		Score:         score,
		YOffset:       yOffset,
		Pattern:       p,
		NumberPattern: p.Slots(),
		PatternLength: len(p.Slots()),
		NumberLength:  p.Digits(),
	}
}

func mustCard(card *cv.Image) {
	if card.Depth != cv.DepthU8 || card.Channels != 1 {
		panic(fmt.Sprintf("scan: card must be 8-bit gray, got %v x%d", card.Depth, card.Channels))
	}
	if card.HasROI() {
		panic("scan: card must not have a region of interest")
	}
	if card.Width != detect.CardWidth || card.Height != detect.CardHeight {
		panic(fmt.Sprintf("scan: card must be %dx%d, got %dx%d",
			detect.CardWidth, detect.CardHeight, card.Width, card.Height))
	}
}

// BestVSeg scores rows of a rectified card with the strip classifier and
// returns the DigitHeight-row window with the highest summed visa-like or
// amex-like score. Every fourth row is scored first; rows around the best
// coarse window are then filled in and the search repeated.
func BestVSeg(card *cv.Image, strip model.StripClassifier, ws *Workspace) VSeg {
	mustCard(card)
	ws = orNew(ws)
	defer card.ResetROI()

	clear(ws.visa[:])
	clear(ws.amex[:])

	score := func(y int) {
		card.SetROI(geometry.NewRectInt(model.StripX, y, model.StripWidth, 1))
		p := strip.ScoreStrip(ws.features.Strip(card))
		ws.visa[y] = p[model.VisaLike]
		ws.amex[y] = p[model.AmexLike]
	}

	for y := 0; y < detect.CardHeight; y += coarseStep {
		score(y)
	}
	best := bestWindow(&ws.visa, &ws.amex)

	lo := max(0, best.YOffset-refineMargin)
	hi := min(detect.CardHeight, best.YOffset+vsegWindow+refineMargin)
	for y := lo; y < hi; y++ {
		if ws.visa[y] == 0 && ws.amex[y] == 0 {
			score(y)
		}
	}
	return bestWindow(&ws.visa, &ws.amex)
}

// bestWindow runs a box filter of vsegWindow rows over both score columns.
// Visa-like windows are considered before amex-like ones and only strictly
// better windows replace the incumbent.
func bestWindow(visa, amex *[detect.CardHeight]float32) VSeg {
	var (
		visaSum, amexSum   float32
		visaRing, amexRing [vsegWindow]float32
		score              float32
		yOffset            int
		pattern            model.Pattern
	)
	for y := 0; y < detect.CardHeight; y++ {
		visaSum += visa[y]
		amexSum += amex[y]
		i := y % vsegWindow
		visaRing[i] = visa[y]
		amexRing[i] = amex[y]
		if y < vsegWindow-1 {
			continue
		}
		if visaSum > score {
			score, pattern, yOffset = visaSum, model.PatternVisa, y-vsegWindow+1
		}
		if amexSum > score {
			score, pattern, yOffset = amexSum, model.PatternAmex, y-vsegWindow+1
		}
		next := (y + 1) % vsegWindow
		visaSum -= visaRing[next]
		amexSum -= amexRing[next]
	}
	return newVSeg(score, yOffset, pattern)
}
