package model

import (
	"fmt"

	"cardscan/internal/cv"

	"gonum.org/v1/gonum/mat"
)

// Features extracts classifier inputs. It keeps its scratch images between
// calls and must not be shared between goroutines.
type Features struct {
	grad *cv.Image
	down *cv.Image
	norm *cv.Image

	tileGrad *cv.Image
	tileEq   *cv.Image
	tile     *mat.Dense
}

// NewFeatures allocates the scratch images.
func NewFeatures() *Features {
	return &Features{
		grad:     cv.NewImage(StripWidth, 1, cv.DepthU8, 1),
		down:     cv.NewImage(StripFeatures, 1, cv.DepthU8, 1),
		norm:     cv.NewImage(StripFeatures, 1, cv.DepthF32, 1),
		tileGrad: cv.NewImage(DigitWidth, DigitHeight, cv.DepthU8, 1),
		tileEq:   cv.NewImage(DigitWidth, DigitHeight, cv.DepthU8, 1),
		tile:     mat.NewDense(DigitHeight, DigitWidth, nil),
	}
}

// Strip turns a StripWidth x 1 row into StripFeatures values in [0, 1]: the
// 1-D morphological gradient, halved, then stretched to its own range. The
// result aliases f's buffers and is overwritten by the next call.
func (f *Features) Strip(row *cv.Image) []float32 {
	if w, h := row.Size(); w != StripWidth || h != 1 {
		panic(fmt.Sprintf("model: strip must be %dx1, got %dx%d", StripWidth, w, h))
	}
	cv.MorphGrad3Row(row, f.grad)
	cv.LinearDown2(f.grad, f.down)
	cv.NormalizeToF32(f.down, f.norm)
	return f.norm.RowF32(0)
}

// Tile turns a DigitWidth x DigitHeight cell into a feature matrix: the
// cross-shaped morphological gradient, histogram-equalized and scaled to
// [0, 1]. The result aliases f's buffers and is overwritten by the next call.
func (f *Features) Tile(cell *cv.Image) *mat.Dense {
	if w, h := cell.Size(); w != DigitWidth || h != DigitHeight {
		panic(fmt.Sprintf("model: digit cell must be %dx%d, got %dx%d", DigitWidth, DigitHeight, w, h))
	}
	cv.MorphGrad3Cross(cell, f.tileGrad)
	cv.EqualizeHist(f.tileGrad, f.tileEq)
	for y := 0; y < DigitHeight; y++ {
		for x, v := range f.tileEq.RowU8(y) {
			f.tile.Set(y, x, float64(v)/255)
		}
	}
	return f.tile
}
