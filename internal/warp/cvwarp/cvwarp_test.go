package cvwarp

import (
	"cardscan/internal/cv"
	"cardscan/internal/warp"
	"cardscan/pkg/geometry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Warper", func() {
	It("agrees with the CPU backend inside the card", func() {
		src := cv.NewImage(200, 150, cv.DepthU8, 1)
		for y := 0; y < 150; y++ {
			row := src.RowU8(y)
			for x := range row {
				row[x] = uint8(x/2 + y/3)
			}
		}
		corners := [4]geometry.Point2D{{X: 20, Y: 10}, {X: 180, Y: 15}, {X: 12, Y: 140}, {X: 190, Y: 130}}

		cpu := cv.NewImage(100, 60, cv.DepthU8, 1)
		ocv := cv.NewImage(100, 60, cv.DepthU8, 1)
		Expect(warp.CPUWarper{}.Warp(src, corners, cpu)).To(Succeed())
		Expect(Warper{}.Warp(src, corners, ocv)).To(Succeed())

		for y := 1; y < 59; y++ {
			for x := 1; x < 99; x++ {
				diff := int(cpu.AtU8(x, y)) - int(ocv.AtU8(x, y))
				Expect(diff).To(BeNumerically("<=", 1))
				Expect(diff).To(BeNumerically(">=", -1))
			}
		}
	})

	It("rejects float images", func() {
		src := cv.NewImage(10, 10, cv.DepthF32, 1)
		dst := cv.NewImage(10, 10, cv.DepthF32, 1)
		corners := warp.DestinationPoints(10, 10)
		Expect(Warper{}.Warp(src, corners, dst)).NotTo(Succeed())
	})
})
