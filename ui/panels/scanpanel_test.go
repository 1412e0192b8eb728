package panels

import (
	"cardscan/internal/cv"
	"cardscan/internal/model"
	"cardscan/internal/pipeline"
	"cardscan/internal/scan"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Summarize", func() {
	It("describes a frame without a card", func() {
		st := pipeline.Step{Focus: 3.3, Brightness: 90, Progress: scan.ProgressNone}
		sum := Summarize(st, scan.Result{}, scan.NoScore)
		Expect(sum).To(Equal(Summary{
			Progress: "none",
			Focus:    "3.3 (brightness 90)",
			Edges:    "0 of 4",
			Strip:    "-",
			Digits:   "-",
			State:    "no-score",
			Number:   "-",
		}))
	})

	It("describes a read card", func() {
		st := pipeline.Step{Card: cv.NewImage(428, 270, cv.DepthU8, 1), Progress: scan.ProgressHSeg}
		st.Result.Usable = true
		st.Result.Flipped = true
		st.Result.VSeg.Pattern = model.PatternVisa
		st.Result.VSeg.YOffset = 150
		st.Result.VSeg.Score = 27
		st.Result.HSeg.NOffsets = 16
		st.Result.Scores[0][4] = 1

		digits, err := scan.ParseDigits("4111111111111111")
		Expect(err).NotTo(HaveOccurred())
		r := scan.Result{Complete: true, Digits: digits, NNumbers: 16, CardType: scan.Visa}

		sum := Summarize(st, r, scan.Confirmed)
		Expect(sum.Progress).To(Equal("hseg"))
		Expect(sum.Strip).To(Equal(model.PatternVisa.String() + " at row 150, score 27.0, turned"))
		Expect(sum.Digits).To(Equal("16 cells, 1.00 confident"))
		Expect(sum.State).To(Equal("confirmed"))
		Expect(sum.Number).To(Equal("visa 4111 1111 1111 1111"))
	})
})

var _ = Describe("FormatAnalytics", func() {
	It("sorts the values", func() {
		f := scan.FrameAnalytics{Index: 7, Values: map[string]string{"usable": "true", "focus": "9.00"}}
		Expect(FormatAnalytics(f)).To(Equal("#7 focus=9.00 usable=true"))
	})
})
