package geometry

// Corners holds the four corners of a quadrilateral.
type Corners struct {
	TopLeft     Point2D `json:"top_left"`
	TopRight    Point2D `json:"top_right"`
	BottomLeft  Point2D `json:"bottom_left"`
	BottomRight Point2D `json:"bottom_right"`
}

// Array returns the corners as TL, TR, BL, BR.
func (c Corners) Array() [4]Point2D {
	return [4]Point2D{c.TopLeft, c.TopRight, c.BottomLeft, c.BottomRight}
}

// CornersFromArray is the inverse of Array.
func CornersFromArray(p [4]Point2D) Corners {
	return Corners{TopLeft: p[0], TopRight: p[1], BottomLeft: p[2], BottomRight: p[3]}
}

// Scale multiplies every corner by f.
func (c Corners) Scale(f float64) Corners {
	return Corners{
		TopLeft:     c.TopLeft.Scale(f),
		TopRight:    c.TopRight.Scale(f),
		BottomLeft:  c.BottomLeft.Scale(f),
		BottomRight: c.BottomRight.Scale(f),
	}
}
