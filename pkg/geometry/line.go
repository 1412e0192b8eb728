package geometry

import "math"

// ParametricLine is a line in Hough normal form: x*cos(Theta) + y*sin(Theta) = Rho.
type ParametricLine struct {
	Rho   float64 `json:"rho"`
	Theta float64 `json:"theta"`
}

// nullTheta marks a line that was not found.
const nullTheta = math.MaxFloat32

// NullLine returns the "not found" sentinel.
func NullLine() ParametricLine {
	return ParametricLine{Rho: nullTheta, Theta: nullTheta}
}

// IsNull reports whether the line is the "not found" sentinel.
func (l ParametricLine) IsNull() bool {
	return l.Theta == nullTheta
}

// minIntersectDeterminant rejects nearly parallel line pairs.
const minIntersectDeterminant = 1e-10

// Intersect returns the crossing point of two lines. It fails for null lines
// and when the system determinant falls below 1e-10. The comparison is
// signed, so pairs whose determinant is negative are also rejected; callers
// pair lines so that well-formed corners have a positive determinant.
func Intersect(a, b ParametricLine) (Point2D, bool) {
	if a.IsNull() || b.IsNull() {
		return Point2D{}, false
	}
	c1, s1 := math.Cos(a.Theta), math.Sin(a.Theta)
	c2, s2 := math.Cos(b.Theta), math.Sin(b.Theta)
	det := c1*s2 - s1*c2
	if det < minIntersectDeterminant {
		return Point2D{}, false
	}
	return Point2D{
		X: (s2*a.Rho - s1*b.Rho) / det,
		Y: (c1*b.Rho - c2*a.Rho) / det,
	}, true
}

// ShiftOrigin re-expresses a line found in a window whose origin sits at
// (dx, dy) in the parent frame.
func ShiftOrigin(l ParametricLine, dx, dy int) ParametricLine {
	if l.IsNull() {
		return l
	}
	x, y := float64(dx), float64(dy)
	offsetAngle := math.Pi / 2
	if dx != 0 {
		offsetAngle = math.Atan(y / x)
	}
	delta := l.Theta - offsetAngle + math.Pi/2
	mag := math.Sqrt(x*x + y*y)
	return ParametricLine{
		Rho:   l.Rho + mag*math.Cos(math.Pi/2-delta),
		Theta: l.Theta,
	}
}

// ScaleRho multiplies rho, used when a line was found on a subsampled plane.
func (l ParametricLine) ScaleRho(f float64) ParametricLine {
	if l.IsNull() {
		return l
	}
	return ParametricLine{Rho: l.Rho * f, Theta: l.Theta}
}
