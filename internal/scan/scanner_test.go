package scan

import (
	"cardscan/internal/model"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"
)

// sequenceClassifier answers with the next digit of digits on every call, so
// that successive cells of a frame read as the number.
func sequenceClassifier(digits []uint8) model.DigitClassifier {
	i := 0
	return model.DigitClassifierFunc(func(*mat.Dense) [10]float32 {
		var out [10]float32
		out[digits[i%len(digits)]] = 1
		i++
		return out
	})
}

func usableFrame(number string) FrameResult {
	digits := mustDigits(number)
	r := FrameResult{Usable: true, Progress: ProgressHSeg}
	r.HSeg.NOffsets = len(digits)
	for i, d := range digits {
		r.Scores[i][d] = 1
	}
	return r
}

func record(s *Scanner, number string, n int) {
	for i := 0; i < n; i++ {
		s.RecordFrame(usableFrame(number))
	}
}

var _ = Describe("ScanFrame", func() {
	var models model.Set

	BeforeEach(func() {
		models = model.Set{
			Strip:  model.NewTemplateStripClassifier(),
			Digits: []model.DigitClassifier{sequenceClassifier(mustDigits("4111111111111111"))},
		}
	})

	It("reads a card with a number strip", func() {
		card := blankCard()
		drawBand(card, 150, model.PatternVisa, 0)

		r := ScanFrame(card, FrameMeta{FocusScore: 12}, models, nil, nil)
		Expect(r.UpsideDown).To(BeFalse())
		Expect(r.Usable).To(BeTrue())
		Expect(r.Progress).To(Equal(ProgressHSeg))
		Expect(r.VSeg.YOffset).To(Equal(150))
		Expect(r.HSeg.NOffsets).To(Equal(16))
		Expect(r.Scores.Sum()).To(Equal(float32(16)))
		Expect(r.FocusScore).To(Equal(float32(12)))
		Expect(card.HasROI()).To(BeFalse())
	})

	It("flags a strip in the top half as upside down", func() {
		card := blankCard()
		drawBand(card, 40, model.PatternVisa, 0)

		r := ScanFrame(card, FrameMeta{}, models, nil, nil)
		Expect(r.UpsideDown).To(BeTrue())
		Expect(r.Usable).To(BeFalse())
		Expect(r.Progress).To(Equal(ProgressEdges))
	})

	It("rejects a weak strip", func() {
		card := blankCard()
		for y := 150; y <= 160; y++ {
			model.DrawStrokes(card.RowU8(y)[model.StripX:model.StripX+model.StripWidth], model.PatternVisa)
		}

		r := ScanFrame(card, FrameMeta{}, models, nil, nil)
		Expect(r.VSeg.Score).To(Equal(float32(11)))
		Expect(r.UpsideDown).To(BeFalse())
		Expect(r.Usable).To(BeFalse())
		Expect(r.Progress).To(Equal(ProgressEdges))
	})

	It("rejects unreadable digits", func() {
		card := blankCard()
		drawBand(card, 150, model.PatternVisa, 0)
		models.Digits = []model.DigitClassifier{model.DigitClassifierFunc(func(*mat.Dense) [10]float32 {
			return [10]float32{}
		})}

		r := ScanFrame(card, FrameMeta{}, models, nil, nil)
		Expect(r.Usable).To(BeFalse())
		Expect(r.Progress).To(Equal(ProgressVSeg))
	})
})

var _ = Describe("Scanner", func() {
	var s *Scanner

	BeforeEach(func() {
		s = NewScanner(model.DefaultSet())
	})

	It("starts without a score", func() {
		Expect(s.State()).To(Equal(NoScore))
		Expect(s.Result().Complete).To(BeFalse())
		_, _, ok := s.MostRecentUsable()
		Expect(ok).To(BeFalse())
	})

	It("completes after a three frame lead", func() {
		record(s, "4111111111111111", 2)
		Expect(s.Result().Complete).To(BeFalse())
		Expect(s.State()).To(Equal(Accumulating))

		record(s, "4111111111111111", 1)
		r := s.Result()
		Expect(r.Complete).To(BeTrue())
		Expect(r.NNumbers).To(Equal(16))
		Expect(r.Digits).To(Equal(mustDigits("4111111111111111")))
		Expect(r.CardType).To(Equal(Visa))
		Expect(r.String()).To(Equal("4111 1111 1111 1111"))
		Expect(s.State()).To(Equal(Confirmed))
	})

	It("reads fifteen digit numbers", func() {
		record(s, "378282246310005", 3)
		r := s.Result()
		Expect(r.Complete).To(BeTrue())
		Expect(r.NNumbers).To(Equal(15))
		Expect(r.CardType).To(Equal(Amex))
	})

	DescribeTable("requires a clear digit count",
		func(sixteen, fifteen int, complete bool) {
			record(s, "4111111111111111", sixteen)
			record(s, "378282246310005", fifteen)
			Expect(s.Result().Complete).To(Equal(complete))
		},
		Entry("lead of two", 4, 2, false),
		Entry("lead of four", 6, 2, true),
		Entry("minority above half", 7, 4, false),
		Entry("minority at half", 8, 4, true),
		Entry("fifteen wins", 0, 3, true),
	)

	It("waits for every digit to be stable", func() {
		for i := 0; i < 5; i++ {
			f := usableFrame("4111111111111111")
			f.Scores[7][1] = 0.6
			f.Scores[7][2] = 0.4
			s.RecordFrame(f)
		}
		Expect(s.Result().Complete).To(BeFalse())
		Expect(s.State()).To(Equal(Accumulating))
	})

	It("honours a custom stability threshold", func() {
		s = NewScanner(model.DefaultSet(), WithMinStability(0.5), WithDecay(0.5))
		for i := 0; i < 3; i++ {
			f := usableFrame("4111111111111111")
			f.Scores[7][1] = 0.6
			f.Scores[7][2] = 0.4
			s.RecordFrame(f)
		}
		Expect(s.Result().Complete).To(BeTrue())
	})

	It("rejects numbers failing the checksum", func() {
		record(s, "4111111111111112", 3)
		r := s.Result()
		Expect(r.Complete).To(BeFalse())
		Expect(r.Digits).To(Equal(mustDigits("4111111111111112")))
		Expect(s.State()).To(Equal(Stable))
	})

	It("rejects unknown card types", func() {
		record(s, "1000000000000008", 3)
		Expect(s.Result().Complete).To(BeFalse())
		Expect(s.State()).To(Equal(Stable))
	})

	It("skips upside-down and unusable frames", func() {
		s.RecordFrame(FrameResult{UpsideDown: true})
		Expect(s.Analytics().NumFrames()).To(BeZero())

		s.RecordFrame(FrameResult{Progress: ProgressVSeg})
		Expect(s.Analytics().NumFrames()).To(Equal(uint32(1)))

		bad := usableFrame("4111111111111111")
		bad.HSeg.NOffsets = 12
		s.RecordFrame(bad)
		fifteen, sixteen := s.Counts()
		Expect(fifteen + sixteen).To(BeZero())
		Expect(s.State()).To(Equal(NoScore))
	})

	It("remembers the last usable segmentation and resets", func() {
		f := usableFrame("4111111111111111")
		f.VSeg.YOffset = 160
		s.RecordFrame(f)
		v, h, ok := s.MostRecentUsable()
		Expect(ok).To(BeTrue())
		Expect(v.YOffset).To(Equal(160))
		Expect(h.NOffsets).To(Equal(16))

		s.Reset()
		_, _, ok = s.MostRecentUsable()
		Expect(ok).To(BeFalse())
		Expect(s.Analytics().NumFrames()).To(BeZero())
		Expect(s.State()).To(Equal(NoScore))
	})

	It("scans rectified cards end to end", func() {
		models := model.Set{
			Strip:  model.NewTemplateStripClassifier(),
			Digits: []model.DigitClassifier{sequenceClassifier(mustDigits("4111111111111111"))},
		}
		ws := NewWorkspace()
		s = NewScanner(models, WithWorkspace(ws))
		Expect(s.Workspace()).To(BeIdenticalTo(ws))

		card := blankCard()
		drawBand(card, 150, model.PatternVisa, 0)
		for i := 0; i < 3; i++ {
			Expect(s.AddFrame(card, FrameMeta{}).Usable).To(BeTrue())
		}
		r := s.Result()
		Expect(r.Complete).To(BeTrue())
		Expect(r.Digits).To(Equal(mustDigits("4111111111111111")))

		frames := s.Analytics().Frames()
		Expect(frames).To(HaveLen(3))
		Expect(frames[2].Values).To(HaveKeyWithValue("pattern", "visa"))
		Expect(frames[2].Values).To(HaveKeyWithValue("usable", "true"))
		Expect(frames[2].Values).To(HaveKeyWithValue("vseg_offset", "150"))
	})
})

var _ = Describe("Analytics", func() {
	It("keeps the most recent frames in order", func() {
		var a Analytics
		for i := 0; i < 25; i++ {
			a.Record(FrameResult{FrameMeta: FrameMeta{FocusScore: float32(i)}})
		}
		Expect(a.NumFrames()).To(Equal(uint32(25)))
		frames := a.Frames()
		Expect(frames).To(HaveLen(AnalyticsFrames))
		Expect(frames[0].Index).To(Equal(uint32(5)))
		Expect(frames[0].Values).To(HaveKeyWithValue("focus", "5.00"))
		Expect(frames[19].Index).To(Equal(uint32(24)))
	})

	It("returns fewer frames before the ring fills", func() {
		var a Analytics
		f := a.Record(FrameResult{Progress: ProgressHSeg})
		Expect(f.Index).To(BeZero())
		Expect(f.Values).To(HaveKeyWithValue("progress", "hseg"))
		Expect(a.Frames()).To(HaveLen(1))
	})
})
