package model

import (
	"math"

	"cardscan/internal/cv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Synthetic rendering levels.
const (
	Paper uint8 = 200
	Ink   uint8 = 60
)

// SyntheticStrip renders the row that a flat, evenly lit card bearing
// pattern p produces through the middle of its digits: two dark strokes per
// digit slot, slots DigitWidth apart and centred in the strip.
func SyntheticStrip(p Pattern) *cv.Image {
	row := cv.NewImage(StripWidth, 1, cv.DepthU8, 1)
	row.Fill(Paper)
	DrawStrokes(row.RowU8(0), p)
	return row
}

// DrawStrokes writes the stroke pattern of p into a StripWidth row.
func DrawStrokes(row []uint8, p Pattern) {
	s := p.Slots()
	start := (StripWidth - len(s)*DigitWidth) / 2
	for i, digit := range s {
		if !digit {
			continue
		}
		x0 := start + i*DigitWidth
		for _, dx := range [...]int{4, 5, 6, 12, 13, 14} {
			row[x0+dx] = Ink
		}
	}
}

// TemplateStripClassifier compares strip features with those of the
// synthetic visa and amex rows. A feature vector identical to a template
// scores 1 for it; the score falls linearly with the mean absolute
// difference, reaching 0 at 1/Sharpness.
type TemplateStripClassifier struct {
	Sharpness float32
	visa      []float32
	amex      []float32
}

// NewTemplateStripClassifier builds the templates from SyntheticStrip.
func NewTemplateStripClassifier() *TemplateStripClassifier {
	f := NewFeatures()
	visa := append([]float32(nil), f.Strip(SyntheticStrip(PatternVisa))...)
	amex := append([]float32(nil), f.Strip(SyntheticStrip(PatternAmex))...)
	return &TemplateStripClassifier{Sharpness: 4, visa: visa, amex: amex}
}

func (c *TemplateStripClassifier) ScoreStrip(features []float32) [3]float32 {
	visa := c.match(features, c.visa)
	amex := c.match(features, c.amex)
	return [3]float32{1 - max(visa, amex), visa, amex}
}

func (c *TemplateStripClassifier) match(features, template []float32) float32 {
	if len(features) != len(template) {
		return 0
	}
	var l1 float32
	for i, v := range features {
		l1 += float32(math.Abs(float64(v - template[i])))
	}
	return max(0, 1-c.Sharpness*l1/float32(len(template)))
}

// glyphs is a 5x7 digit font, one string per row.
var glyphs = [10][7]string{
	{"01110", "10001", "10011", "10101", "11001", "10001", "01110"},
	{"00100", "01100", "00100", "00100", "00100", "00100", "01110"},
	{"01110", "10001", "00001", "00010", "00100", "01000", "11111"},
	{"11111", "00010", "00100", "00010", "00001", "10001", "01110"},
	{"00010", "00110", "01010", "10010", "11111", "00010", "00010"},
	{"11111", "10000", "11110", "00001", "00001", "10001", "01110"},
	{"00110", "01000", "10000", "11110", "10001", "10001", "01110"},
	{"11111", "00001", "00010", "00100", "01000", "01000", "01000"},
	{"01110", "10001", "10001", "01110", "10001", "10001", "01110"},
	{"01110", "10001", "10001", "01111", "00001", "00010", "01100"},
}

// glyphScale is the size in pixels of one font dot.
const glyphScale = 3

// StrokeWeight thins or thickens rendered glyphs by one pixel.
type StrokeWeight int

const (
	Thin StrokeWeight = iota - 1
	Regular
	Bold
)

func (w StrokeWeight) String() string {
	switch w {
	case Thin:
		return "thin"
	case Bold:
		return "bold"
	}
	return "regular"
}

const (
	glyphWidth  = 5 * glyphScale
	glyphHeight = 7 * glyphScale
)

func glyphMask(d int) *[glyphHeight][glyphWidth]bool {
	var m [glyphHeight][glyphWidth]bool
	for r, line := range glyphs[d] {
		for c := range line {
			if line[c] != '1' {
				continue
			}
			for py := 0; py < glyphScale; py++ {
				for px := 0; px < glyphScale; px++ {
					m[r*glyphScale+py][c*glyphScale+px] = true
				}
			}
		}
	}
	return &m
}

// DrawGlyph renders digit d in the digit cell whose top-left corner is
// (x, y). The glyph is centred in the cell and only its dots are written.
func DrawGlyph(dst *cv.Image, x, y, d int) {
	DrawGlyphWeight(dst, x, y, d, Regular)
}

// DrawGlyphWeight renders digit d like DrawGlyph. Bold dilates the strokes
// one pixel right and down, Thin erodes them from the same sides.
func DrawGlyphWeight(dst *cv.Image, x, y, d int, w StrokeWeight) {
	m := glyphMask(d)
	at := func(r, c int) bool {
		return r >= 0 && r < glyphHeight && c >= 0 && c < glyphWidth && m[r][c]
	}
	ox := x + (DigitWidth-glyphWidth)/2
	oy := y + (DigitHeight-glyphHeight)/2
	for r := 0; r <= glyphHeight; r++ {
		for c := 0; c <= glyphWidth; c++ {
			var ink bool
			switch w {
			case Thin:
				ink = at(r, c) && at(r+1, c) && at(r, c+1) && at(r+1, c+1)
			case Bold:
				ink = at(r, c) || at(r-1, c) || at(r, c-1) || at(r-1, c-1)
			default:
				ink = at(r, c)
			}
			if ink {
				dst.SetU8(ox+c, oy+r, Ink)
			}
		}
	}
}

// TemplateDigitClassifier matches feature tiles against rendered glyphs and
// turns the mean absolute differences into a softmax distribution.
type TemplateDigitClassifier struct {
	Sharpness float64
	Weight    StrokeWeight
	templates [10]*mat.Dense
}

// NewTemplateDigitClassifier renders and featurizes the ten glyphs.
func NewTemplateDigitClassifier() *TemplateDigitClassifier {
	return NewWeightedDigitClassifier(Regular)
}

// NewWeightedDigitClassifier renders the templates with stroke weight w.
func NewWeightedDigitClassifier(w StrokeWeight) *TemplateDigitClassifier {
	f := NewFeatures()
	c := &TemplateDigitClassifier{Sharpness: 400, Weight: w}
	cell := cv.NewImage(DigitWidth, DigitHeight, cv.DepthU8, 1)
	for d := range c.templates {
		cell.Fill(Paper)
		DrawGlyphWeight(cell, 0, 0, d, w)
		c.templates[d] = mat.DenseCopyOf(f.Tile(cell))
	}
	return c
}

func (c *TemplateDigitClassifier) Classify(tile *mat.Dense) [10]float32 {
	var diff mat.Dense
	logits := make([]float64, 10)
	n := float64(DigitWidth * DigitHeight)
	for d, t := range c.templates {
		diff.Sub(tile, t)
		logits[d] = -c.Sharpness * elementL1(&diff) / n
	}
	lse := floats.LogSumExp(logits)
	var out [10]float32
	for d, l := range logits {
		out[d] = float32(math.Exp(l - lse))
	}
	return out
}

func elementL1(m *mat.Dense) float64 {
	r, c := m.Dims()
	var s float64
	for i := 0; i < r; i++ {
		s += floats.Norm(m.RawRowView(i)[:c], 1)
	}
	return s
}
