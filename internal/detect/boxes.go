package detect

import (
	"math"

	"cardscan/pkg/geometry"
)

// Card and sample dimensions the insets are derived from.
const (
	CardWidth  = 428
	CardHeight = 270

	PortraitSampleWidth   = 480
	PortraitSampleHeight  = 640
	LandscapeSampleWidth  = PortraitSampleHeight
	LandscapeSampleHeight = PortraitSampleWidth
)

// Insets are the fractions of the sample that lie outside the card guide on
// each axis, plus the slop allowed either side of the expected edge.
type Insets struct {
	PortraitVertical    float64
	PortraitHorizontal  float64
	LandscapeVertical   float64
	LandscapeHorizontal float64

	VerticalSlop   float64
	HorizontalSlop float64
}

// DefaultInsets centres the standard card in the standard preview sizes with
// a 3% search margin.
func DefaultInsets() Insets {
	return Insets{
		PortraitVertical:    float64((PortraitSampleHeight-CardHeight)/2) / PortraitSampleHeight,
		PortraitHorizontal:  float64((PortraitSampleWidth-CardWidth)/2) / PortraitSampleWidth,
		LandscapeVertical:   float64((LandscapeSampleHeight-CardHeight)/2) / LandscapeSampleHeight,
		LandscapeHorizontal: float64((LandscapeSampleWidth-CardWidth)/2) / LandscapeSampleWidth,
		VerticalSlop:        0.03,
		HorizontalSlop:      0.03,
	}
}

// WithSlop returns a copy of the insets with both slop fractions set to f.
func (in Insets) WithSlop(f float64) Insets {
	in.VerticalSlop = f
	in.HorizontalSlop = f
	return in
}

// Boxes are the four windows searched for card edges.
type Boxes struct {
	Top    geometry.RectInt
	Bottom geometry.RectInt
	Left   geometry.RectInt
	Right  geometry.RectInt
}

// Array returns the boxes in top, bottom, left, right order.
func (b Boxes) Array() [4]geometry.RectInt {
	return [4]geometry.RectInt{b.Top, b.Bottom, b.Left, b.Right}
}

// DetectionBoxes computes the edge search windows for a sample of the given
// size. Everything is relative to the central 4:3 region of the sample, so a
// 1280x720 frame is searched the same way as a 640x480 one. Frames are
// always delivered in sensor (landscape) coordinates, which is why the
// portrait case swaps the axes of its insets.
func DetectionBoxes(size geometry.Size, o Orientation, in Insets) Boxes {
	width := size.Height * 4 / 3
	leftMargin := (size.Width - width) / 2
	w, h := width, size.Height

	var insetV, slopV, insetH, slopH int
	switch o {
	case Portrait, PortraitUpsideDown:
		insetV = roundInt(in.PortraitHorizontal * float64(h))
		slopV = roundInt(in.HorizontalSlop * float64(h))
		insetH = roundInt(in.PortraitVertical * float64(w))
		slopH = roundInt(in.VerticalSlop * float64(w))
	case LandscapeLeft, LandscapeRight:
		insetV = roundInt(in.LandscapeVertical * float64(h))
		slopV = roundInt(in.HorizontalSlop * float64(h))
		insetH = roundInt(in.LandscapeHorizontal * float64(w))
		slopH = roundInt(in.VerticalSlop * float64(w))
	}

	frame := geometry.NewRectInt(leftMargin, 0, w-1, h-1)
	outer := frame.Inset(insetH-slopH, insetV-slopV)
	inner := frame.Inset(insetH+slopH, insetV+slopV)

	return Boxes{
		Top:    geometry.NewRectInt(inner.X, outer.Y, inner.Width, 2*slopV),
		Bottom: geometry.NewRectInt(inner.X, inner.Y+inner.Height, inner.Width, 2*slopV),
		Left:   geometry.NewRectInt(outer.X, inner.Y, 2*slopH, inner.Height),
		Right:  geometry.NewRectInt(inner.X+inner.Width, inner.Y, 2*slopH, inner.Height),
	}
}

// GuideFrame returns the on-screen rectangle the user should align the card
// with, for a preview of the given size.
func GuideFrame(o Orientation, in Insets, previewWidth, previewHeight float64) geometry.Rect {
	var insetW, insetH float64
	switch o {
	case Portrait, PortraitUpsideDown:
		insetW = in.PortraitHorizontal * previewWidth
		insetH = in.PortraitVertical * previewHeight
	case LandscapeLeft, LandscapeRight:
		insetW = in.LandscapeVertical * previewWidth
		insetH = in.LandscapeHorizontal * previewHeight
	}
	return geometry.Rect{
		X:      insetW,
		Y:      insetH,
		Width:  previewWidth - 2*insetW,
		Height: previewHeight - 2*insetH,
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
