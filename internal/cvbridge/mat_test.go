package cvbridge

import (
	"cardscan/internal/cv"
	"cardscan/pkg/geometry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gocv.io/x/gocv"
)

func gradient(w, h int) *cv.Image {
	img := cv.NewImage(w, h, cv.DepthU8, 1)
	for y := 0; y < h; y++ {
		row := img.RowU8(y)
		for x := range row {
			row[x] = uint8(x + 10*y)
		}
	}
	return img
}

var _ = Describe("Mat conversion", func() {
	It("copies the active region both ways", func() {
		img := gradient(20, 10)
		img.SetROI(geometry.NewRectInt(5, 2, 8, 4))

		m, err := ToMat(img)
		Expect(err).NotTo(HaveOccurred())
		defer m.Close()
		Expect(m.Cols()).To(Equal(8))
		Expect(m.Rows()).To(Equal(4))
		Expect(m.GetUCharAt(0, 0)).To(Equal(uint8(25)))

		back, err := FromMat(m)
		Expect(err).NotTo(HaveOccurred())
		Expect(back.HasROI()).To(BeFalse())
		for y := 0; y < 4; y++ {
			Expect(back.RowU8(y)).To(Equal(img.RowU8(y)))
		}
	})

	It("rejects mismatched sizes and depths", func() {
		_, err := ToMat(cv.NewImage(4, 4, cv.DepthS16, 1))
		Expect(err).To(MatchError(ContainSubstring("unsupported depth")))

		m, err := ToMat(gradient(6, 3))
		Expect(err).NotTo(HaveOccurred())
		defer m.Close()
		Expect(CopyFromMat(m, cv.NewImage(3, 6, cv.DepthU8, 1))).To(MatchError(ContainSubstring("does not match")))

		empty := gocv.NewMat()
		defer empty.Close()
		_, err = FromMat(empty)
		Expect(err).To(MatchError("empty mat"))
	})
})
