package frames

import (
	"image"
	"image/color"
	"math"

	"cardscan/internal/detect"
	"cardscan/internal/model"
	"cardscan/internal/scan"
	"cardscan/pkg/colorutil"
	"cardscan/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// planeColors marks which plane an edge was found on.
var planeColors = [3]color.RGBA{colorutil.Green, colorutil.Cyan, colorutil.Magenta}

// Overlay renders the frame with its search boxes, the edges found and, when
// all four were found, the card corners.
func Overlay(f *Frame, boxes detect.Boxes, edges detect.Edges) (*image.RGBA, error) {
	img, err := colorutil.MergeYCbCr(f.Y, f.Cb, f.Cr)
	if err != nil {
		return nil, err
	}
	for _, b := range boxes.Array() {
		drawRect(img, b.X, b.Y, b.X+b.Width-1, b.Y+b.Height-1, colorutil.Yellow)
	}
	for _, e := range []detect.Edge{edges.Top, edges.Bottom, edges.Left, edges.Right} {
		if e.Found {
			drawParametric(img, e.Line, planeColors[e.Plane])
		}
	}
	if edges.FoundAll() {
		for _, p := range edges.Corners.Array() {
			fillCircle(img, int(math.Round(p.X)), int(math.Round(p.Y)), 4, colorutil.Red)
		}
	}
	return img, nil
}

// DrawSegmentation outlines the number strip and each digit cell on a
// rectified card image.
func DrawSegmentation(img *image.RGBA, vseg scan.VSeg, hseg scan.HSeg) {
	w := img.Bounds().Dx()
	drawRect(img, 0, vseg.YOffset, w-1, vseg.YOffset+model.DigitHeight-1, colorutil.Yellow)
	cell := int(hseg.NumberWidth)
	for i := 0; i < hseg.NOffsets && i < scan.MaxDigits; i++ {
		x := hseg.Offsets[i]
		drawRect(img, x, vseg.YOffset+1, x+cell-1, vseg.YOffset+model.DigitHeight-2, colorutil.Cyan)
	}
}

// Preview scales img to fit within maxW x maxH, keeping its aspect ratio.
// Images that already fit are copied unscaled.
func Preview(img image.Image, maxW, maxH int) *image.RGBA {
	b := img.Bounds()
	scale := math.Min(float64(maxW)/float64(b.Dx()), float64(maxH)/float64(b.Dy()))
	if scale > 1 {
		scale = 1
	}
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
		return dst
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// lineEndpoints clips a Hough line to the w x h image. Mostly horizontal
// lines are evaluated at the left and right borders, the others at the top
// and bottom.
func lineEndpoints(l geometry.ParametricLine, w, h int) (geometry.Point2D, geometry.Point2D, bool) {
	if l.IsNull() || w <= 0 || h <= 0 {
		return geometry.Point2D{}, geometry.Point2D{}, false
	}
	c, s := math.Cos(l.Theta), math.Sin(l.Theta)
	if math.Abs(s) > math.Abs(c) {
		x1 := float64(w - 1)
		return geometry.Point2D{X: 0, Y: l.Rho / s},
			geometry.Point2D{X: x1, Y: (l.Rho - x1*c) / s}, true
	}
	y1 := float64(h - 1)
	return geometry.Point2D{X: l.Rho / c, Y: 0},
		geometry.Point2D{X: (l.Rho - y1*s) / c, Y: y1}, true
}

func drawParametric(img *image.RGBA, l geometry.ParametricLine, c color.RGBA) {
	b := img.Bounds()
	p0, p1, ok := lineEndpoints(l, b.Dx(), b.Dy())
	if !ok {
		return
	}
	a, z := p0.Round(), p1.Round()
	drawLine(img, a.X, a.Y, z.X, z.Y, c)
}

// drawLine draws a line using Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	bounds := img.Bounds()
	dx, dy := abs(x2-x1), abs(y2-y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		if (image.Point{X: x1, Y: y1}).In(bounds) {
			img.SetRGBA(x1, y1, c)
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawRect draws a rectangle outline between two inclusive corners.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	drawLine(img, x1, y1, x2, y1, c)
	drawLine(img, x1, y2, x2, y2, c)
	drawLine(img, x1, y1, x1, y2, c)
	drawLine(img, x2, y1, x2, y2, c)
}

func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	bounds := img.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && (image.Point{X: x, Y: y}).In(bounds) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
