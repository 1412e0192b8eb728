// Package cvwarp rectifies cards with OpenCV's perspective warp. It is an
// interchangeable alternative to warp.CPUWarper.
package cvwarp

import (
	"fmt"
	"image"

	"cardscan/internal/cv"
	"cardscan/internal/cvbridge"
	"cardscan/internal/warp"
	"cardscan/pkg/geometry"

	"gocv.io/x/gocv"
)

// Warper implements warp.Warper with gocv.WarpPerspective, using linear
// interpolation and a black constant border.
type Warper struct{}

var _ warp.Warper = Warper{}

func (Warper) Name() string { return "opencv" }

func (Warper) Warp(src *cv.Image, corners [4]geometry.Point2D, dst *cv.Image) error {
	dw, dh := dst.Size()
	m, err := warp.CalcPerspTransform(corners, warp.DestinationPoints(dw, dh))
	if err != nil {
		return err
	}

	in, err := cvbridge.ToMat(src)
	if err != nil {
		return fmt.Errorf("failed to convert source: %w", err)
	}
	defer in.Close()

	transformMat := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer transformMat.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			transformMat.SetDoubleAt(r, c, m[r][c])
		}
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.WarpPerspective(in, &out, transformMat, image.Point{X: dw, Y: dh})

	return cvbridge.CopyFromMat(out, dst)
}
