package scan

import (
	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/model"
	"cardscan/pkg/geometry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
)

func blankCard() *cv.Image {
	card := cv.NewImage(detect.CardWidth, detect.CardHeight, cv.DepthU8, 1)
	card.Fill(model.Paper)
	return card
}

// drawBand draws the stroke pattern of p on the rows y0..y0+DigitHeight-1,
// shifted right by shift pixels.
func drawBand(card *cv.Image, y0 int, p model.Pattern, shift int) {
	for y := y0; y < y0+model.DigitHeight; y++ {
		x := model.StripX + shift
		model.DrawStrokes(card.RowU8(y)[x:x+model.StripWidth], p)
	}
}

// cellLefts returns the left edge of each digit cell of p on the card.
func cellLefts(p model.Pattern) []int {
	s := p.Slots()
	start := model.StripX + (model.StripWidth-len(s)*model.DigitWidth)/2
	var out []int
	for i, digit := range s {
		if digit {
			out = append(out, start+i*model.DigitWidth)
		}
	}
	return out
}

func drawDigits(card *cv.Image, y0 int, p model.Pattern, digits []uint8) {
	for i, x := range cellLefts(p) {
		model.DrawGlyph(card, x, y0, int(digits[i]))
	}
}

func numberStrip(card *cv.Image, y0 int) *cv.Image {
	card.SetROI(geometry.NewRectInt(0, y0, detect.CardWidth, model.DigitHeight))
	return card
}

func expectOffsetsNear(h HSeg, p model.Pattern) {
	want := cellLefts(p)
	ExpectWithOffset(1, h.NOffsets).To(Equal(len(want)))
	for i, x := range want {
		ExpectWithOffset(1, h.Offsets[i]).To(BeNumerically("~", x, 1), "digit %d", i)
	}
	ExpectWithOffset(1, h.NumberWidth).To(BeNumerically("~", model.DigitWidth, 0.2))
}

var _ = Describe("BestVSeg", func() {
	var (
		strip model.StripClassifier
		ws    *Workspace
	)

	BeforeEach(func() {
		strip = model.NewTemplateStripClassifier()
		ws = NewWorkspace()
	})

	It("finds a visa-like number strip", func() {
		card := blankCard()
		drawBand(card, 150, model.PatternVisa, 0)

		v := BestVSeg(card, strip, ws)
		Expect(v.YOffset).To(Equal(150))
		Expect(v.Pattern).To(Equal(model.PatternVisa))
		Expect(v.Score).To(Equal(float32(27)))
		Expect(v.NumberLength).To(Equal(16))
		Expect(v.PatternLength).To(Equal(19))
		Expect(v.NumberPattern).To(HaveLen(19))
		Expect(card.HasROI()).To(BeFalse())
	})

	It("finds an amex-like number strip", func() {
		card := blankCard()
		drawBand(card, 200, model.PatternAmex, 0)

		v := BestVSeg(card, strip, ws)
		Expect(v.YOffset).To(Equal(200))
		Expect(v.Pattern).To(Equal(model.PatternAmex))
		Expect(v.Score).To(Equal(float32(27)))
		Expect(v.NumberLength).To(Equal(15))
	})

	It("prefers the exact match over an imperfect competitor", func() {
		card := blankCard()
		drawBand(card, 40, model.PatternAmex, 1)
		drawBand(card, 150, model.PatternVisa, 0)

		v := BestVSeg(card, strip, ws)
		Expect(v.YOffset).To(Equal(150))
		Expect(v.Pattern).To(Equal(model.PatternVisa))
	})

	It("reports nothing on a blank card", func() {
		v := BestVSeg(blankCard(), strip, nil)
		Expect(v.Score).To(BeZero())
		Expect(v.Pattern).To(Equal(model.PatternUnknown))
		Expect(v.NumberLength).To(BeZero())
	})

	It("requires a whole card", func() {
		card := blankCard()
		card.SetROI(geometry.NewRectInt(0, 0, 100, 100))
		Expect(func() { BestVSeg(card, strip, ws) }).To(Panic())
		Expect(func() { BestVSeg(cv.NewImage(10, 10, cv.DepthU8, 1), strip, ws) }).To(Panic())
	})
})

var _ = Describe("bestWindow", func() {
	It("keeps the first of equal windows and favours visa on ties", func() {
		var visa, amex [detect.CardHeight]float32
		for y := 10; y < 37; y++ {
			visa[y] = 1
			amex[y] = 1
		}
		v := bestWindow(&visa, &amex)
		Expect(v.YOffset).To(Equal(10))
		Expect(v.Pattern).To(Equal(model.PatternVisa))
		Expect(v.Score).To(Equal(float32(27)))
	})

	It("ends the window with the row that completes it", func() {
		var visa, amex [detect.CardHeight]float32
		amex[detect.CardHeight-1] = 0.5
		v := bestWindow(&visa, &amex)
		Expect(v.YOffset).To(Equal(detect.CardHeight - model.DigitHeight))
		Expect(v.Pattern).To(Equal(model.PatternAmex))
	})
})

var _ = Describe("BestHSeg", func() {
	visaVSeg := newVSeg(27, 150, model.PatternVisa)
	amexVSeg := newVSeg(27, 150, model.PatternAmex)

	It("places visa-like strokes", func() {
		card := blankCard()
		drawBand(card, 150, model.PatternVisa, 0)
		h := BestHSeg(numberStrip(card, 150), visaVSeg, nil)
		expectOffsetsNear(h, model.PatternVisa)
		Expect(h.Score).To(BeNumerically("<", detect.CardWidth))
		Expect(card.ROI()).To(Equal(geometry.NewRectInt(0, 150, detect.CardWidth, model.DigitHeight)))
	})

	It("places amex-like strokes", func() {
		card := blankCard()
		drawBand(card, 150, model.PatternAmex, 0)
		expectOffsetsNear(BestHSeg(numberStrip(card, 150), amexVSeg, nil), model.PatternAmex)
	})

	It("places rendered digits", func() {
		card := blankCard()
		drawDigits(card, 150, model.PatternVisa, mustDigits("4123567890412356"))
		expectOffsetsNear(BestHSeg(numberStrip(card, 150), visaVSeg, NewWorkspace()), model.PatternVisa)
	})

	It("keeps every cell on the card for a flat strip", func() {
		card := blankCard()
		h := BestHSeg(numberStrip(card, 150), visaVSeg, nil)
		Expect(h.NOffsets).To(Equal(16))
		Expect(h.Score).To(BeNumerically("<", detect.CardWidth))
		for i := 0; i < h.NOffsets; i++ {
			Expect(h.Offsets[i] + model.DigitWidth).To(BeNumerically("<", detect.CardWidth))
			if i > 0 {
				Expect(h.Offsets[i]).To(BeNumerically(">", h.Offsets[i-1]))
			}
		}
	})

	It("has no digits for an unknown pattern", func() {
		h := BestHSeg(numberStrip(blankCard(), 150), VSeg{}, nil)
		Expect(h.NOffsets).To(BeZero())
	})

	It("requires a number strip", func() {
		Expect(func() { BestHSeg(blankCard(), visaVSeg, nil) }).To(Panic())
	})
})

var _ = Describe("NumberScores", func() {
	It("aggregates", func() {
		var a, b NumberScores
		a[0][3] = 1
		b[0][3] = 2
		b[1][7] = 4
		a.Scale(0.5)
		a.AddScaled(&b, 0.25)
		Expect(a[0][3]).To(Equal(float32(1)))
		Expect(a[1][7]).To(Equal(float32(1)))
		Expect(a.Sum()).To(Equal(float32(2)))

		d, peak, sum := a.RowArgMax(1)
		Expect(d).To(Equal(7))
		Expect(peak).To(Equal(float32(1)))
		Expect(sum).To(Equal(float32(1)))
	})

	It("breaks ties towards the lower digit", func() {
		var s NumberScores
		s[0][2], s[0][5] = 0.5, 0.5
		d, _, _ := s.RowArgMax(0)
		Expect(d).To(Equal(2))
	})
})

var _ = Describe("Combiners", func() {
	oneHot := func(d int) [10]float32 {
		var v [10]float32
		v[d] = 1
		return v
	}

	It("votes across classifiers", func() {
		out := CombineVotes([][10]float32{oneHot(4), oneHot(4), oneHot(1)})
		Expect(out[4]).To(Equal(float32(0.5)))
		Expect(out[1]).To(BeZero())

		out = CombineVotes([][10]float32{oneHot(4), oneHot(4), oneHot(4)})
		Expect(out[4]).To(Equal(float32(1)))

		Expect(CombineVotes([][10]float32{oneHot(2)})).To(Equal(oneHot(2)))
		Expect(CombineVotes(nil)).To(Equal([10]float32{}))
	})

	It("averages", func() {
		out := CombineMean([][10]float32{oneHot(4), oneHot(1)})
		Expect(out[4]).To(Equal(float32(0.5)))
		Expect(out[1]).To(Equal(float32(0.5)))
		Expect(CombineMean(nil)).To(Equal([10]float32{}))
	})
})

var _ = Describe("Categorize", func() {
	It("reads rendered digits with the template classifier", func() {
		digits := mustDigits("4123567890412356")
		card := blankCard()
		drawDigits(card, 150, model.PatternVisa, digits)

		vseg := newVSeg(27, 150, model.PatternVisa)
		hseg := HSeg{NOffsets: 16}
		copy(hseg.Offsets[:], cellLefts(model.PatternVisa))

		scores := Categorize(card, vseg, hseg, []model.DigitClassifier{model.NewTemplateDigitClassifier()}, nil, nil)
		for i, want := range digits {
			d, peak, _ := scores.RowArgMax(i)
			Expect(d).To(Equal(int(want)), "digit %d", i)
			Expect(peak).To(BeNumerically(">", 0.99))
		}
		Expect(scores.Sum()).To(BeNumerically(">", 15.9))
		Expect(card.HasROI()).To(BeFalse())
	})

	It("passes every classifier the same tile", func() {
		card := blankCard()
		var seen []*mat.Dense
		spy := model.DigitClassifierFunc(func(tile *mat.Dense) [10]float32 {
			seen = append(seen, mat.DenseCopyOf(tile))
			return [10]float32{}
		})
		hseg := HSeg{NOffsets: 2, Offsets: [MaxDigits]int{33, 52}}
		Categorize(card, newVSeg(27, 150, model.PatternVisa), hseg, []model.DigitClassifier{spy, spy}, CombineMean, nil)
		Expect(seen).To(HaveLen(4))
		r, c := seen[0].Dims()
		Expect([]int{r, c}).To(Equal([]int{model.DigitHeight, model.DigitWidth}))
		Expect(mat.Equal(seen[0], seen[1])).To(BeTrue())
	})
})
