package warp

import (
	"errors"

	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/pkg/geometry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func pt(x, y float64) geometry.Point2D { return geometry.Point2D{X: x, Y: y} }

func rampImage(w, h int, value func(x, y int) uint8) *cv.Image {
	img := cv.NewImage(w, h, cv.DepthU8, 1)
	for y := 0; y < h; y++ {
		row := img.RowU8(y)
		for x := range row {
			row[x] = value(x, y)
		}
	}
	return img
}

var _ = Describe("CalcPerspTransform", func() {
	quads := [][2][4]geometry.Point2D{
		{
			{pt(20.3, 10.7), pt(180.2, 15.1), pt(12.5, 140), pt(190, 130.4)},
			{pt(0, 0), pt(99, 0), pt(0, 59), pt(99, 59)},
		},
		{
			{pt(105, 105), pt(533, 105), pt(105, 375), pt(533, 375)},
			{pt(0, 0), pt(427, 0), pt(0, 269), pt(427, 269)},
		},
		{
			{pt(-3, 7), pt(310, -12), pt(25, 401), pt(290, 388)},
			{pt(10, 20), pt(50, 25), pt(12, 70), pt(55, 66)},
		},
	}

	It("maps every source corner onto its destination", func() {
		for _, q := range quads {
			m, err := CalcPerspTransform(q[0], q[1])
			Expect(err).NotTo(HaveOccurred())
			Expect(m[2][2]).To(Equal(1.0))
			for i := range q[0] {
				p, ok := m.Apply(q[0][i])
				Expect(ok).To(BeTrue())
				Expect(p.X).To(BeNumerically("~", q[1][i].X, 1e-6))
				Expect(p.Y).To(BeNumerically("~", q[1][i].Y, 1e-6))
			}
			Expect(m.Error(q[0], q[1])).To(BeNumerically("<", 1e-6))
		}
	})

	It("inverts", func() {
		q := quads[0]
		m, err := CalcPerspTransform(q[0], q[1])
		Expect(err).NotTo(HaveOccurred())
		inv, err := m.Inverse()
		Expect(err).NotTo(HaveOccurred())
		Expect(inv.Error(q[1], q[0])).To(BeNumerically("<", 1e-6))
	})

	It("reports degenerate correspondences", func() {
		var src [4]geometry.Point2D
		_, err := CalcPerspTransform(src, quads[0][1])
		Expect(errors.Is(err, ErrSingular)).To(BeTrue())
	})

	It("solves the identity", func() {
		corners := quads[1][1]
		m, err := CalcPerspTransform(corners, corners)
		Expect(err).NotTo(HaveOccurred())
		id := Identity()
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				Expect(m[r][c]).To(BeNumerically("~", id[r][c], 1e-9))
			}
		}
	})
})

var _ = Describe("Matrix.Layout", func() {
	m := Matrix{{1, 2, 3}, {4, 5, 6}, {7, 8, 1}}

	It("writes 3x3 in either order", func() {
		Expect(m.Layout(9, true)).To(Equal([]float32{1, 2, 3, 4, 5, 6, 7, 8, 1}))
		Expect(m.Layout(9, false)).To(Equal([]float32{1, 4, 7, 2, 5, 8, 3, 6, 1}))
	})

	It("pads to 4x4 for texture transforms", func() {
		Expect(m.Layout(16, true)).To(Equal([]float32{
			1, 2, 0, 3,
			4, 5, 0, 6,
			0, 0, 1, 0,
			7, 8, 0, 1,
		}))
	})

	It("truncates short buffers", func() {
		Expect(m.Layout(4, true)).To(Equal([]float32{1, 2, 3, 4}))
	})
})

var _ = Describe("Unwarp", func() {
	corners := [4]geometry.Point2D{pt(20.3, 10.7), pt(180.2, 15.1), pt(12.5, 140), pt(190, 130.4)}

	It("brings each source corner to within a pixel of its destination", func() {
		xs := rampImage(200, 150, func(x, _ int) uint8 { return uint8(x) })
		ys := rampImage(200, 150, func(_, y int) uint8 { return uint8(y) })
		outX := cv.NewImage(100, 60, cv.DepthU8, 1)
		outY := cv.NewImage(100, 60, cv.DepthU8, 1)
		Expect(Unwarp(xs, corners, outX)).To(Succeed())
		Expect(Unwarp(ys, corners, outY)).To(Succeed())

		for i, d := range DestinationPoints(100, 60) {
			x, y := int(d.X), int(d.Y)
			Expect(float64(outX.AtU8(x, y))).To(BeNumerically("~", corners[i].X, 1), "corner %d", i)
			Expect(float64(outY.AtU8(x, y))).To(BeNumerically("~", corners[i].Y, 1), "corner %d", i)
		}
	})

	It("fills outside the source with black", func() {
		src := rampImage(50, 50, func(_, _ int) uint8 { return 200 })
		outside := [4]geometry.Point2D{pt(-40, -40), pt(30, -40), pt(-40, 30), pt(30, 30)}
		dst := cv.NewImage(20, 20, cv.DepthU8, 1)
		Expect(Unwarp(src, outside, dst)).To(Succeed())
		Expect(dst.AtU8(0, 0)).To(BeZero())
		Expect(dst.AtU8(19, 19)).To(Equal(uint8(200)))
	})

	It("handles multi-channel images", func() {
		src := cv.NewImage(40, 40, cv.DepthU8, 3)
		for y := 0; y < 40; y++ {
			row := src.RowU8(y)
			for x := 0; x < 40; x++ {
				row[3*x], row[3*x+1], row[3*x+2] = 10, 20, 30
			}
		}
		dst := cv.NewImage(10, 10, cv.DepthU8, 3)
		Expect(Unwarp(src, [4]geometry.Point2D{pt(5, 5), pt(30, 6), pt(4, 33), pt(35, 35)}, dst)).To(Succeed())
		Expect(dst.RowU8(5)[15:18]).To(Equal([]uint8{10, 20, 30}))
	})

	It("panics on mismatched channels", func() {
		src := cv.NewImage(10, 10, cv.DepthU8, 1)
		dst := cv.NewImage(10, 10, cv.DepthU8, 3)
		Expect(func() { _ = Unwarp(src, corners, dst) }).To(Panic())
	})
})

var _ = Describe("TransformCard", func() {
	c := geometry.Corners{
		TopLeft: pt(1, 2), TopRight: pt(3, 4), BottomLeft: pt(5, 6), BottomRight: pt(7, 8),
	}

	It("orders corners for each orientation", func() {
		Expect(SourcePoints(c, detect.LandscapeRight)).To(Equal(c.Array()))
		Expect(SourcePoints(c, detect.Portrait)).To(Equal([4]geometry.Point2D{c.BottomLeft, c.TopLeft, c.BottomRight, c.TopRight}))
		Expect(SourcePoints(c, detect.LandscapeLeft)).To(Equal([4]geometry.Point2D{c.BottomRight, c.BottomLeft, c.TopRight, c.TopLeft}))
		Expect(SourcePoints(c, detect.PortraitUpsideDown)).To(Equal([4]geometry.Point2D{c.TopRight, c.BottomRight, c.TopLeft, c.BottomLeft}))
	})

	It("reproduces an already rectified card", func() {
		plane := rampImage(428, 270, func(x, y int) uint8 { return uint8(x*3 + y*5) })
		full := geometry.CornersFromArray(DestinationPoints(428, 270))
		card, err := TransformCard(plane, full, detect.LandscapeRight, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(card.Width).To(Equal(detect.CardWidth))
		Expect(card.Height).To(Equal(detect.CardHeight))
		for y := 0; y < 270; y += 13 {
			Expect(card.RowU8(y)).To(Equal(plane.RowU8(y)), "row %d", y)
		}
	})

	It("wraps solver failures", func() {
		plane := cv.NewImage(428, 270, cv.DepthU8, 1)
		_, err := TransformCard(plane, geometry.Corners{}, detect.LandscapeRight, CPUWarper{})
		Expect(err).To(MatchError(ContainSubstring("cpu warper")))
		Expect(errors.Is(err, ErrSingular)).To(BeTrue())
	})
})
