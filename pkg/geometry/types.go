// Package geometry provides basic geometric types used throughout the scanner.
package geometry

import (
	"image"
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Round returns the nearest integer point.
func (p Point2D) Round() PointInt {
	return PointInt{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
}

// PointInt represents a 2D point with integer coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RectInt represents a rectangle with integer coordinates.
type RectInt struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRectInt creates a new RectInt.
func NewRectInt(x, y, width, height int) RectInt {
	return RectInt{X: x, Y: y, Width: width, Height: height}
}

// Inset shrinks the rectangle by dx on the left and right and dy on the top
// and bottom. Negative values grow it.
func (r RectInt) Inset(dx, dy int) RectInt {
	return RectInt{X: r.X + dx, Y: r.Y + dy, Width: r.Width - 2*dx, Height: r.Height - 2*dy}
}

// Points returns the corners in top-left, top-right, bottom-left,
// bottom-right order. The far corners sit at x+width and y+height.
func (r RectInt) Points() Corners {
	x0, y0 := float64(r.X), float64(r.Y)
	x1, y1 := float64(r.X+r.Width), float64(r.Y+r.Height)
	return Corners{
		TopLeft:     Point2D{X: x0, Y: y0},
		TopRight:    Point2D{X: x1, Y: y0},
		BottomLeft:  Point2D{X: x0, Y: y1},
		BottomRight: Point2D{X: x1, Y: y1},
	}
}

// Empty reports whether the rectangle has no area.
func (r RectInt) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether r lies entirely inside outer.
func (r RectInt) Within(outer RectInt) bool {
	return r.X >= outer.X && r.Y >= outer.Y &&
		r.X+r.Width <= outer.X+outer.Width && r.Y+r.Height <= outer.Y+outer.Height
}

// Image converts to an image.Rectangle.
func (r RectInt) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Clip intersects r with a w x h image. ok is false when nothing is left.
func (r RectInt) Clip(w, h int) (image.Rectangle, bool) {
	out := r.Image().Intersect(image.Rect(0, 0, w, h))
	return out, !out.Empty()
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size represents a 2D integer size.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewSize creates a new Size.
func NewSize(width, height int) Size {
	return Size{Width: width, Height: height}
}

// CardRectForScreen centres a card of standard size on a screen, scaling it
// by the smaller of the two axis ratios when the actual screen differs from
// the standard one. Any zero dimension yields an empty rectangle.
func CardRectForScreen(card, standardScreen, actualScreen Size) RectInt {
	if card.Width == 0 || card.Height == 0 ||
		standardScreen.Width == 0 || standardScreen.Height == 0 ||
		actualScreen.Width == 0 || actualScreen.Height == 0 {
		return RectInt{}
	}
	w, h := card.Width, card.Height
	if actualScreen != standardScreen {
		wr := float32(actualScreen.Width) / float32(standardScreen.Width)
		hr := float32(actualScreen.Height) / float32(standardScreen.Height)
		ratio := min(wr, hr)
		w = int(float32(card.Width) * ratio)
		h = int(float32(card.Height) * ratio)
	}
	return RectInt{
		X:      (actualScreen.Width - w) / 2,
		Y:      (actualScreen.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}
