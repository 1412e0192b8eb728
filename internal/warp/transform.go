// Package warp solves the card's perspective transform and rectifies it to
// the canonical card size.
package warp

import (
	"errors"
	"fmt"
	"math"

	"cardscan/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the corner correspondence does not determine
// a perspective transform.
var ErrSingular = errors.New("singular perspective system")

// Matrix is a 3x3 planar homography mapping (x, y, 1) to (x', y', w).
// Element (2,2) is always 1.
type Matrix [3][3]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// CalcPerspTransform solves the homography taking each src point to the dst
// point with the same index. The 8x8 system is solved by QR decomposition,
// which needs no invertibility guarantee up front.
func CalcPerspTransform(src, dst [4]geometry.Point2D) (Matrix, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		sx, sy := src[i].X, src[i].Y
		dx, dy := dst[i].X, dst[i].Y

		// x' = (a*x + b*y + c) / (g*x + h*y + 1)
		a.SetRow(i, []float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx})
		b.SetVec(i, dx)

		// y' = (d*x + e*y + f) / (g*x + h*y + 1)
		a.SetRow(i+4, []float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy})
		b.SetVec(i+4, dy)
	}

	var qr mat.QR
	qr.Factorize(a)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return Matrix{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	for i := 0; i < 8; i++ {
		if v := x.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return Matrix{}, ErrSingular
		}
	}

	return Matrix{
		{x.AtVec(0), x.AtVec(1), x.AtVec(2)},
		{x.AtVec(3), x.AtVec(4), x.AtVec(5)},
		{x.AtVec(6), x.AtVec(7), 1},
	}, nil
}

// Layout flattens the matrix into n float32 values. With n >= 16 the result
// is the 4x4 matrix used for 3D texture transforms: the translation terms
// move to the fourth column, the perspective terms to the fourth row, and
// both (2,2) and (3,3) are 1. Otherwise the plain 3x3 matrix is written,
// truncated to n values if n < 9.
func (m Matrix) Layout(n int, rowMajor bool) []float32 {
	size := 3
	if n >= 16 {
		size = 4
	}
	var full [4][4]float64
	full[0][0], full[0][1] = m[0][0], m[0][1]
	full[1][0], full[1][1] = m[1][0], m[1][1]
	full[2][2] = 1

	o := size - 3
	full[0][2+o] = m[0][2]
	full[1][2+o] = m[1][2]
	full[2+o][0] = m[2][0]
	full[2+o][1] = m[2][1]
	full[2+o][2+o] = 1

	out := make([]float32, n)
	for c := 0; c < size; c++ {
		for r := 0; r < size; r++ {
			i := r + c*size
			if rowMajor {
				i = c + r*size
			}
			if i < n {
				out[i] = float32(full[r][c])
			}
		}
	}
	return out
}

// Apply maps p through the homography. It fails for points on the line at
// infinity.
func (m Matrix) Apply(p geometry.Point2D) (geometry.Point2D, bool) {
	w := m[2][0]*p.X + m[2][1]*p.Y + m[2][2]
	if w == 0 {
		return geometry.Point2D{}, false
	}
	return geometry.Point2D{
		X: (m[0][0]*p.X + m[0][1]*p.Y + m[0][2]) / w,
		Y: (m[1][0]*p.X + m[1][1]*p.Y + m[1][2]) / w,
	}, true
}

// Inverse returns the inverse transform, normalized so that (2,2) is 1.
func (m Matrix) Inverse() (Matrix, error) {
	d := m.dense()
	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return Matrix{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	s := inv.At(2, 2)
	if s == 0 {
		return Matrix{}, ErrSingular
	}
	var out Matrix
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r][c] = inv.At(r, c) / s
		}
	}
	return out, nil
}

func (m Matrix) dense() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}

// Error returns the mean distance between dst and src mapped through m.
func (m Matrix) Error(src, dst [4]geometry.Point2D) float64 {
	var total float64
	for i := range src {
		p, ok := m.Apply(src[i])
		if !ok {
			return math.Inf(1)
		}
		total += p.Distance(dst[i])
	}
	return total / float64(len(src))
}
