package detect

import (
	"cardscan/internal/cv"
	"cardscan/pkg/geometry"
)

const (
	// Larger divisors accept shorter lines.
	houghThresholdDivisor = 6
)

// BestLineForSample looks for the strongest roughly vertical or horizontal
// line in the active region of plane. The line is expressed in the region's
// own coordinates. The null line is returned when nothing qualifies.
func BestLineForSample(plane *cv.Image, vertical bool, ws *cv.Workspace) geometry.ParametricLine {
	w, h := plane.Size()
	if w <= 0 || h <= 0 {
		return geometry.NullLine()
	}

	dx := cv.NewImage(w, h, cv.DepthS16, 1)
	dy := cv.NewImage(w, h, cv.DepthS16, 1)
	cv.Sobel7DX(plane, dx, ws)
	cv.Sobel7DY(plane, dy, ws)

	edges := cv.NewImage(w, h, cv.DepthU8, 1)
	cv.Canny7Adaptive(dx, dy, edges, ws)

	params := cv.DefaultHoughParams(vertical, max(w, h)/houghThresholdDivisor)
	return cv.HoughLine(edges, dx, dy, params, ws)
}

// Planes holds the luma plane of a frame and, optionally, its chroma planes.
// Chroma planes are usually half the luma resolution.
type Planes struct {
	Y  *cv.Image
	Cb *cv.Image
	Cr *cv.Image
}

func (p Planes) array() [3]*cv.Image {
	return [3]*cv.Image{p.Y, p.Cb, p.Cr}
}

// Chroma planes are half size, so their rho is doubled.
var rhoMultiplier = [3]float64{1, 2, 2}

// Edge is one detected card edge in full luma coordinates.
type Edge struct {
	Line  geometry.ParametricLine
	Found bool
	Plane int // 0 for Y, 1 for Cb, 2 for Cr
}

// Edges is the outcome of DetectEdges.
type Edges struct {
	Top    Edge
	Bottom Edge
	Left   Edge
	Right  Edge

	// Corners is valid only when DetectEdges reports success.
	Corners geometry.Corners
}

// FoundAll reports whether every edge was found.
func (e Edges) FoundAll() bool {
	return e.Top.Found && e.Bottom.Found && e.Left.Found && e.Right.Found
}

// Count returns the number of edges found.
func (e Edges) Count() int {
	n := 0
	for _, edge := range []Edge{e.Top, e.Bottom, e.Left, e.Right} {
		if edge.Found {
			n++
		}
	}
	return n
}

// DetectEdges searches each edge box of each plane, in Y, Cb, Cr order, and
// keeps the first line found per edge. It reports success only when all four
// edges are found and every pair of adjacent edges meets at a well defined
// corner.
func DetectEdges(planes Planes, o Orientation, in Insets, ws *cv.Workspace) (Edges, bool) {
	null := Edge{Line: geometry.NullLine()}
	edges := Edges{Top: null, Bottom: null, Left: null, Right: null}
	if planes.Y == nil || !o.valid() {
		return edges, false
	}
	if ws == nil {
		ws = cv.NewWorkspace()
	}

	samples := planes.array()
	var boxes [3]Boxes
	for i, s := range samples {
		if s != nil {
			boxes[i] = DetectionBoxes(geometry.NewSize(s.Width, s.Height), o, in)
		}
	}

	edges.Top = findEdge(samples, boxes, func(b Boxes) geometry.RectInt { return b.Top }, false, ws)
	edges.Bottom = findEdge(samples, boxes, func(b Boxes) geometry.RectInt { return b.Bottom }, false, ws)
	edges.Left = findEdge(samples, boxes, func(b Boxes) geometry.RectInt { return b.Left }, true, ws)
	edges.Right = findEdge(samples, boxes, func(b Boxes) geometry.RectInt { return b.Right }, true, ws)

	if !edges.FoundAll() {
		return edges, false
	}

	var ok [4]bool
	edges.Corners.TopLeft, ok[0] = geometry.Intersect(edges.Top.Line, edges.Left.Line)
	edges.Corners.BottomLeft, ok[1] = geometry.Intersect(edges.Bottom.Line, edges.Left.Line)
	edges.Corners.TopRight, ok[2] = geometry.Intersect(edges.Top.Line, edges.Right.Line)
	edges.Corners.BottomRight, ok[3] = geometry.Intersect(edges.Bottom.Line, edges.Right.Line)
	return edges, ok[0] && ok[1] && ok[2] && ok[3]
}

func findEdge(samples [3]*cv.Image, boxes [3]Boxes, pick func(Boxes) geometry.RectInt, vertical bool, ws *cv.Workspace) Edge {
	for i, s := range samples {
		if s == nil {
			continue
		}
		box := pick(boxes[i])
		if box.Empty() || !box.Within(geometry.NewRectInt(0, 0, s.Width, s.Height)) {
			continue
		}
		local := searchBox(s, box, vertical, ws)
		line := geometry.ShiftOrigin(local, box.X, box.Y).ScaleRho(rhoMultiplier[i])
		if !line.IsNull() {
			return Edge{Line: line, Found: true, Plane: i}
		}
	}
	return Edge{Line: geometry.NullLine()}
}

// searchBox runs BestLineForSample on box and restores the plane's previous
// region of interest.
func searchBox(plane *cv.Image, box geometry.RectInt, vertical bool, ws *cv.Workspace) geometry.ParametricLine {
	hadROI, prev := plane.HasROI(), plane.ROI()
	plane.SetROI(box)
	defer func() {
		if hadROI {
			plane.SetROI(prev)
		} else {
			plane.ResetROI()
		}
	}()
	return BestLineForSample(plane, vertical, ws)
}
