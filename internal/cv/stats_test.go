package cv

import (
	"math"
	"math/rand"

	"cardscan/pkg/geometry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Image statistics", func() {
	It("computes the spread of absolute values", func() {
		img := NewImage(4, 1, DepthS16, 1)
		copy(img.RowS16(0), []int16{-2, 2, 0, 4})
		Expect(StddevOfAbs(img)).To(BeNumerically("~", math.Sqrt2, 1e-12))
	})

	It("averages only the region of interest", func() {
		img := NewImage(10, 10, DepthU8, 1)
		img.SetROI(geometry.NewRectInt(2, 2, 3, 3))
		img.Fill(90)
		Expect(Mean(img)).To(Equal(90.0))
		img.ResetROI()
		Expect(Mean(img)).To(BeNumerically("~", 8.1, 1e-12))
	})

	Describe("frame scores", func() {
		var img *Image

		BeforeEach(func() {
			img = NewImage(640, 480, DepthU8, 1)
			img.SetROI(geometry.NewRectInt(249, 195, 142, 90))
			img.Fill(200)
			img.ResetROI()
		})

		It("measures brightness over the centre third of the card area", func() {
			Expect(BrightnessScore(img, false)).To(Equal(200.0))
			Expect(img.HasROI()).To(BeFalse())

			full := BrightnessScore(img, true)
			Expect(full).To(BeNumerically("<", 200))
			Expect(full).To(BeNumerically(">", 0))
		})

		It("scores flat regions as out of focus", func() {
			Expect(FocusScore(img, false)).To(BeZero())
			Expect(FocusScore(img, true)).To(BeNumerically(">", 0))
		})

		It("scores texture higher than blur", func() {
			sharp := randomImage(rand.New(rand.NewSource(7)), 640, 480)
			soft := NewImage(640, 480, DepthU8, 1)
			for y := 0; y < 480; y++ {
				for x := 0; x < 640; x++ {
					soft.SetU8(x, y, uint8((x+y)%256))
				}
			}
			Expect(FocusScore(sharp, false)).To(BeNumerically(">", FocusScore(soft, false)))
		})

		It("keeps an existing region of interest", func() {
			roi := geometry.NewRectInt(0, 0, 320, 240)
			img.SetROI(roi)
			BrightnessScore(img, false)
			Expect(img.ROI()).To(Equal(roi))
		})
	})
})
