package detect

import (
	"math"

	"cardscan/internal/cv"
	"cardscan/pkg/geometry"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// cardPlane draws a filled rectangle of value fg on a bg background. The
// rectangle covers columns x0..x1 and rows y0..y1 inclusive.
func cardPlane(w, h, x0, y0, x1, y1 int, bg, fg uint8) *cv.Image {
	img := cv.NewImage(w, h, cv.DepthU8, 1)
	for y := 0; y < h; y++ {
		row := img.RowU8(y)
		for x := range row {
			if x >= x0 && x <= x1 && y >= y0 && y <= y1 {
				row[x] = fg
			} else {
				row[x] = bg
			}
		}
	}
	return img
}

var _ = Describe("Orientation", func() {
	It("names and reverses orientations", func() {
		Expect(Portrait.String()).To(Equal("portrait"))
		Expect(LandscapeLeft.Opposite()).To(Equal(LandscapeRight))
		Expect(PortraitUpsideDown.Opposite()).To(Equal(Portrait))
		Expect(Orientation(9).Opposite()).To(Equal(Portrait))
		Expect(PortraitUpsideDown.IsPortrait()).To(BeTrue())
		Expect(LandscapeRight.IsPortrait()).To(BeFalse())

		o, ok := ParseOrientation("landscape-right")
		Expect(ok).To(BeTrue())
		Expect(o).To(Equal(LandscapeRight))
		_, ok = ParseOrientation("sideways")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("DetectionBoxes", func() {
	It("places boxes around the landscape card guide", func() {
		b := DetectionBoxes(geometry.NewSize(640, 480), LandscapeRight, DefaultInsets())
		Expect(b.Top).To(Equal(geometry.NewRectInt(125, 91, 389, 28)))
		Expect(b.Bottom).To(Equal(geometry.NewRectInt(125, 360, 389, 28)))
		Expect(b.Left).To(Equal(geometry.NewRectInt(87, 119, 38, 241)))
		Expect(b.Right).To(Equal(geometry.NewRectInt(514, 119, 38, 241)))
	})

	It("swaps inset axes for portrait frames", func() {
		b := DetectionBoxes(geometry.NewSize(640, 480), Portrait, DefaultInsets())
		Expect(b.Array()).To(Equal([4]geometry.RectInt{
			geometry.NewRectInt(204, 12, 231, 28),
			geometry.NewRectInt(204, 439, 231, 28),
			geometry.NewRectInt(166, 40, 38, 399),
			geometry.NewRectInt(435, 40, 38, 399),
		}))
	})

	It("works on the central 4:3 region of wide frames", func() {
		b := DetectionBoxes(geometry.NewSize(1280, 720), LandscapeLeft, DefaultInsets())
		Expect(b.Top).To(Equal(geometry.NewRectInt(348, 136, 583, 44)))
	})

	It("collapses for unknown orientations", func() {
		b := DetectionBoxes(geometry.NewSize(640, 480), Orientation(0), DefaultInsets())
		Expect(b.Top.Empty()).To(BeTrue())
		Expect(b.Left.Empty()).To(BeTrue())
	})

	It("widens with more slop", func() {
		narrow := DetectionBoxes(geometry.NewSize(640, 480), LandscapeRight, DefaultInsets())
		wide := DetectionBoxes(geometry.NewSize(640, 480), LandscapeRight, DefaultInsets().WithSlop(0.06))
		Expect(wide.Top.Height).To(BeNumerically(">", narrow.Top.Height))
		Expect(wide.Left.Width).To(BeNumerically(">", narrow.Left.Width))
	})
})

var _ = Describe("GuideFrame", func() {
	It("insets the preview", func() {
		g := GuideFrame(LandscapeLeft, DefaultInsets(), 640, 480)
		Expect(g.X).To(BeNumerically("~", 140, 1e-9))
		Expect(g.Y).To(BeNumerically("~", 79.5, 1e-9))
		Expect(g.Width).To(BeNumerically("~", 360, 1e-9))
		Expect(g.Height).To(BeNumerically("~", 321, 1e-9))
	})
})

var _ = Describe("DetectEdges", func() {
	expectLine := func(e Edge, theta, rho float64) {
		ExpectWithOffset(1, e.Found).To(BeTrue())
		ExpectWithOffset(1, e.Line.Theta).To(BeNumerically("~", theta, 1e-9))
		ExpectWithOffset(1, e.Line.Rho).To(BeNumerically("~", rho, 1e-6))
	}

	It("finds all four edges of a centred card", func() {
		y := cardPlane(640, 480, 106, 106, 533, 375, 40, 80)
		edges, ok := DetectEdges(Planes{Y: y}, LandscapeRight, DefaultInsets(), cv.NewWorkspace())
		Expect(ok).To(BeTrue())
		Expect(edges.Count()).To(Equal(4))

		expectLine(edges.Top, math.Pi/2, 105)
		expectLine(edges.Bottom, math.Pi/2, 375)
		expectLine(edges.Left, math.Pi, -105)
		expectLine(edges.Right, math.Pi, -533)
		Expect(edges.Top.Plane).To(Equal(0))

		Expect(edges.Corners.TopLeft.X).To(BeNumerically("~", 105, 1e-6))
		Expect(edges.Corners.TopLeft.Y).To(BeNumerically("~", 105, 1e-6))
		Expect(edges.Corners.BottomRight.X).To(BeNumerically("~", 533, 1e-6))
		Expect(edges.Corners.BottomRight.Y).To(BeNumerically("~", 375, 1e-6))
		Expect(y.HasROI()).To(BeFalse())
	})

	It("falls back to chroma planes and rescales them", func() {
		y := cardPlane(640, 480, 0, 0, -1, -1, 40, 40)
		cb := cardPlane(320, 240, 53, 53, 266, 187, 40, 80)
		edges, ok := DetectEdges(Planes{Y: y, Cb: cb}, LandscapeRight, DefaultInsets(), nil)
		Expect(ok).To(BeTrue())

		Expect(edges.Top.Plane).To(Equal(1))
		expectLine(edges.Top, math.Pi/2, 104)
		expectLine(edges.Bottom, math.Pi/2, 374)
		expectLine(edges.Left, math.Pi, -104)
		expectLine(edges.Right, math.Pi, -532)
	})

	It("reports missing edges", func() {
		// Only the top and bottom edges fall inside their search boxes.
		y := cardPlane(640, 480, 0, 106, 639, 375, 40, 80)
		edges, ok := DetectEdges(Planes{Y: y}, LandscapeRight, DefaultInsets(), nil)
		Expect(ok).To(BeFalse())
		Expect(edges.Top.Found).To(BeTrue())
		Expect(edges.Bottom.Found).To(BeTrue())
		Expect(edges.Left.Found).To(BeFalse())
		Expect(edges.Left.Line.IsNull()).To(BeTrue())
		Expect(edges.Count()).To(Equal(2))
	})

	It("rejects unknown orientations", func() {
		y := cardPlane(640, 480, 106, 106, 533, 375, 40, 80)
		edges, ok := DetectEdges(Planes{Y: y}, Orientation(0), DefaultInsets(), nil)
		Expect(ok).To(BeFalse())
		Expect(edges.Top.Line.IsNull()).To(BeTrue())
	})
})

var _ = Describe("BestLineForSample", func() {
	It("returns the null line for an empty region", func() {
		img := cv.NewImage(10, 10, cv.DepthU8, 1)
		img.SetROI(geometry.NewRectInt(0, 0, 0, 5))
		Expect(BestLineForSample(img, true, nil).IsNull()).To(BeTrue())
	})
})
