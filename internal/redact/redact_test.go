package redact

import (
	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/scan"
	"cardscan/pkg/geometry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func segmentation() (scan.VSeg, scan.HSeg) {
	v := scan.VSeg{Score: 27, YOffset: 150}
	h := scan.HSeg{NOffsets: 16, NumberWidth: 19.3}
	for i := 0; i < h.NOffsets; i++ {
		h.Offsets[i] = 30 + 23*i
	}
	return v, h
}

var _ = Describe("Cells", func() {
	It("covers every digit but the unblurred ones", func() {
		v, h := segmentation()
		cells := Cells(v, h, 4)
		Expect(cells).To(HaveLen(12))
		Expect(cells[0]).To(Equal(geometry.NewRectInt(29, 149, 21, 58)))
		Expect(cells[3].Height).To(Equal(58))
		Expect(cells[4]).To(Equal(geometry.NewRectInt(121, 149, 21, 29)))
	})

	It("blurs nothing for a negative count", func() {
		v, h := segmentation()
		Expect(Cells(v, h, -1)).To(BeEmpty())
		Expect(Cells(v, h, 20)).To(BeEmpty())
		Expect(Cells(v, h, 0)).To(HaveLen(16))
	})
})

var _ = Describe("BlurImage", func() {
	It("removes detail from the blurred cells only", func() {
		v, h := segmentation()
		card := cv.NewImage(detect.CardWidth, detect.CardHeight, cv.DepthU8, 1)
		card.Fill(200)
		for i := 0; i < h.NOffsets; i++ {
			card.RowU8(v.YOffset + 13)[h.Offsets[i]+9] = 0
			card.RowU8(v.YOffset + 40)[h.Offsets[i]+9] = 0
		}
		card.RowU8(5)[5] = 0

		Expect(BlurImage(card, v, h, 4)).To(Succeed())

		for i := 0; i < h.NOffsets; i++ {
			x := h.Offsets[i] + 9
			if i < 12 {
				Expect(card.AtU8(x, v.YOffset+13)).To(Equal(uint8(200)), "digit %d", i)
			} else {
				Expect(card.AtU8(x, v.YOffset+13)).To(BeZero(), "digit %d", i)
			}
			if i < 4 {
				Expect(card.AtU8(x, v.YOffset+40)).To(Equal(uint8(200)), "digit %d", i)
			} else {
				Expect(card.AtU8(x, v.YOffset+40)).To(BeZero(), "digit %d", i)
			}
		}
		Expect(card.AtU8(5, 5)).To(BeZero())
	})

	It("rejects float images", func() {
		v, h := segmentation()
		card := cv.NewImage(detect.CardWidth, detect.CardHeight, cv.DepthF32, 1)
		Expect(BlurImage(card, v, h, 0)).NotTo(Succeed())
	})
})
