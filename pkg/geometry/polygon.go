package geometry

import "math"

// Polygon returns the corners in winding order: TL, TR, BR, BL.
func (c Corners) Polygon() []Point2D {
	return []Point2D{c.TopLeft, c.TopRight, c.BottomRight, c.BottomLeft}
}

// IsConvex reports whether the corners form a convex quadrilateral.
func (c Corners) IsConvex() bool {
	return IsConvex(c.Polygon())
}

// Area returns the area enclosed by the corners.
func (c Corners) Area() float64 {
	return PolygonArea(c.Polygon())
}

// IsConvex returns true if the polygon vertices turn consistently in one
// direction. Collinear runs are ignored; fewer than three points, or a
// polygon with no turn at all, is not convex.
func IsConvex(polygon []Point2D) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}
	var sign int
	for i := 0; i < n; i++ {
		cross := crossProduct(polygon[i], polygon[(i+1)%n], polygon[(i+2)%n])
		if cross == 0 {
			continue
		}
		current := 1
		if cross < 0 {
			current = -1
		}
		if sign == 0 {
			sign = current
		} else if current != sign {
			return false
		}
	}
	return sign != 0
}

// PolygonArea returns the unsigned area of a simple polygon.
func PolygonArea(polygon []Point2D) float64 {
	var twice float64
	for i, p := range polygon {
		q := polygon[(i+1)%len(polygon)]
		twice += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(twice) / 2
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
