package cv

// Workspace owns scratch buffers reused across calls. A Workspace belongs to
// one scanning session and must not be shared between goroutines.
type Workspace struct {
	sobel    []int16
	cannyMag []int32
	cannyMap []uint8
	stack    []int32
	hough    []int32
	rows     [3][]int16
}

// NewWorkspace returns an empty workspace. Buffers grow on demand.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// sobelScratch returns a transposed intermediate buffer of n elements. The
// first Sobel7 pass over 8-bit input is bounded by 64*255 (smooth kernel) or
// 10*255 (edge kernel), so int16 holds it exactly.
func (ws *Workspace) sobelScratch(n int) []int16 {
	if cap(ws.sobel) < n {
		ws.sobel = make([]int16, n)
	}
	return ws.sobel[:n]
}

func (ws *Workspace) magRows(n int) []int32 {
	if cap(ws.cannyMag) < n {
		ws.cannyMag = make([]int32, n)
	}
	m := ws.cannyMag[:n]
	for i := range m {
		m[i] = 0
	}
	return m
}

func (ws *Workspace) edgeMap(n int) []uint8 {
	if cap(ws.cannyMap) < n {
		ws.cannyMap = make([]uint8, n)
	}
	return ws.cannyMap[:n]
}

func (ws *Workspace) accumulator(n int) []int32 {
	if cap(ws.hough) < n {
		ws.hough = make([]int32, n)
	}
	a := ws.hough[:n]
	for i := range a {
		a[i] = 0
	}
	return a
}

// ringRows returns three row buffers of width n for three-row stencils.
func (ws *Workspace) ringRows(n int) [3][]int16 {
	for i := range ws.rows {
		if cap(ws.rows[i]) < n {
			ws.rows[i] = make([]int16, n)
		}
		ws.rows[i] = ws.rows[i][:n]
	}
	return ws.rows
}

func orNew(ws *Workspace) *Workspace {
	if ws == nil {
		return NewWorkspace()
	}
	return ws
}
