package warp

import (
	"fmt"
	"math"

	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/pkg/geometry"
)

// Warper rectifies the quadrilateral src in an image onto the whole of dst.
// The corners are given as top-left, top-right, bottom-left, bottom-right of
// the output.
type Warper interface {
	Name() string
	Warp(src *cv.Image, corners [4]geometry.Point2D, dst *cv.Image) error
}

// CPUWarper is the portable bilinear backend.
type CPUWarper struct{}

func (CPUWarper) Name() string { return "cpu" }

func (CPUWarper) Warp(src *cv.Image, corners [4]geometry.Point2D, dst *cv.Image) error {
	return Unwarp(src, corners, dst)
}

// DestinationPoints returns the output corners used for an image of size
// w x h. The far corners sit on the last row and column.
func DestinationPoints(w, h int) [4]geometry.Point2D {
	return geometry.NewRectInt(0, 0, w-1, h-1).Points().Array()
}

// edgeTolerance absorbs solver round-off for points mapped onto the last
// row or column.
const edgeTolerance = 1e-6

// Unwarp resamples the quadrilateral corners of src into dst with bilinear
// interpolation. Output pixels whose source falls outside src are 0. Both
// images must be 8-bit with the same channel count.
func Unwarp(src *cv.Image, corners [4]geometry.Point2D, dst *cv.Image) error {
	if src.Depth != cv.DepthU8 || dst.Depth != cv.DepthU8 {
		panic(fmt.Sprintf("warp: expected 8-bit images, got %v and %v", src.Depth, dst.Depth))
	}
	if src.Channels != dst.Channels {
		panic(fmt.Sprintf("warp: channel mismatch %d vs %d", src.Channels, dst.Channels))
	}

	dw, dh := dst.Size()
	m, err := CalcPerspTransform(corners, DestinationPoints(dw, dh))
	if err != nil {
		return err
	}
	inv, err := m.Inverse()
	if err != nil {
		return err
	}

	sw, sh := src.Size()
	ch := src.Channels
	maxX, maxY := float64(sw-1), float64(sh-1)
	for y := 0; y < dh; y++ {
		out := dst.RowU8(y)
		for x := 0; x < dw; x++ {
			o := out[x*ch : x*ch+ch]
			p, ok := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			if !ok || p.X < -edgeTolerance || p.Y < -edgeTolerance ||
				p.X > maxX+edgeTolerance || p.Y > maxY+edgeTolerance {
				clear(o)
				continue
			}
			sample(src, min(max(p.X, 0), maxX), min(max(p.Y, 0), maxY), o)
		}
	}
	return nil
}

// sample writes the bilinear interpolation of src at (fx, fy) into out. The
// point must lie inside the image.
func sample(src *cv.Image, fx, fy float64, out []uint8) {
	sw, sh := src.Size()
	ch := src.Channels
	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, sw-1), min(y0+1, sh-1)
	ax, ay := fx-float64(x0), fy-float64(y0)

	top, bottom := src.RowU8(y0), src.RowU8(y1)
	for c := 0; c < ch; c++ {
		t := float64(top[x0*ch+c])*(1-ax) + float64(top[x1*ch+c])*ax
		b := float64(bottom[x0*ch+c])*(1-ax) + float64(bottom[x1*ch+c])*ax
		out[c] = uint8(math.Round(t*(1-ay) + b*ay))
	}
}

// SourcePoints orders the detected corners so that the rectified card comes
// out upright for the orientation the frame was captured in.
func SourcePoints(c geometry.Corners, o detect.Orientation) [4]geometry.Point2D {
	switch o {
	case detect.Portrait:
		return [4]geometry.Point2D{c.BottomLeft, c.TopLeft, c.BottomRight, c.TopRight}
	case detect.LandscapeLeft:
		return [4]geometry.Point2D{c.BottomRight, c.BottomLeft, c.TopRight, c.TopLeft}
	case detect.PortraitUpsideDown:
		return [4]geometry.Point2D{c.TopRight, c.BottomRight, c.TopLeft, c.BottomLeft}
	default:
		return c.Array()
	}
}

// TransformCard rectifies plane to the canonical card size. The corners must
// be in the plane's own coordinates; scale luma corners by one half before
// rectifying a chroma plane.
func TransformCard(plane *cv.Image, corners geometry.Corners, o detect.Orientation, w Warper) (*cv.Image, error) {
	if w == nil {
		w = CPUWarper{}
	}
	card := cv.NewImage(detect.CardWidth, detect.CardHeight, plane.Depth, plane.Channels)
	if err := w.Warp(plane, SourcePoints(corners, o), card); err != nil {
		return nil, fmt.Errorf("failed to rectify card with %s warper: %w", w.Name(), err)
	}
	return card, nil
}
