package cv

import "math"

const (
	cannyShift = 15
	// tan(22.5 degrees) in 15-bit fixed point, truncated.
	cannyTG22 = 13573
)

// Edge map states.
const (
	edgeMaybe uint8 = 0
	edgeNot   uint8 = 1
	edgeYes   uint8 = 2
)

// Canny7 finds edges from precomputed 7-tap Sobel gradients. The gradient
// magnitude is |dx|+|dy|. Pixels above high seed edges, pixels above low that
// survive non-maximum suppression join an edge when 8-connected to a seed.
// Output pixels are 255 on edges and 0 elsewhere.
func Canny7(dx, dy, dst *Image, low, high float64, ws *Workspace) {
	mustGray(dx, DepthS16)
	mustGray(dy, DepthS16)
	mustGray(dst, DepthU8)
	mustSameSize(dx, dy)
	mustSameSize(dx, dst)
	ws = orNew(ws)

	if low > high {
		low, high = high, low
	}
	lo, hi := int32(math.Floor(low)), int32(math.Floor(high))
	w, h := dx.Size()
	if w == 0 || h == 0 {
		return
	}

	// Three magnitude rows with a zero column on each side, used as a ring.
	magStep := w + 2
	mags := ws.magRows(3 * magStep)
	var ring [3][]int32
	for i := range ring {
		ring[i] = mags[i*magStep : (i+1)*magStep]
	}

	// The map has a one-pixel border of edgeNot so that hysteresis never
	// leaves the image.
	mapStep := w + 2
	emap := ws.edgeMap(mapStep * (h + 2))
	for i := 0; i < mapStep; i++ {
		emap[i] = edgeNot
		emap[mapStep*(h+1)+i] = edgeNot
	}

	st := newEdgeStack(ws, max(1<<10, w*h/10))

	for i := 0; i <= h; i++ {
		cur := ring[2]
		if i == 0 {
			cur = ring[1]
		}
		if i < h {
			rdx, rdy := dx.RowS16(i), dy.RowS16(i)
			cur[0], cur[w+1] = 0, 0
			for j := 0; j < w; j++ {
				cur[j+1] = abs32(int32(rdx[j])) + abs32(int32(rdy[j]))
			}
		} else {
			for j := range cur {
				cur[j] = 0
			}
		}
		if i == 0 {
			continue
		}

		row := mapStep*i + 1
		emap[row-1], emap[row+w] = edgeNot, edgeNot
		above, mid, below := ring[0], ring[1], ring[2]
		rdx, rdy := dx.RowS16(i-1), dy.RowS16(i-1)
		st.reserve(w)

		prevFlag := false
		for j := 0; j < w; j++ {
			x, y := int64(rdx[j]), int64(rdy[j])
			s := 1
			if x^y < 0 {
				s = -1
			}
			m := mid[j+1]
			if x < 0 {
				x = -x
			}
			if y < 0 {
				y = -y
			}
			if m > lo {
				tg22x := x * cannyTG22
				tg67x := tg22x + ((x + x) << cannyShift)
				y <<= cannyShift
				var peak bool
				switch {
				case y < tg22x:
					peak = m > mid[j] && m >= mid[j+2]
				case y > tg67x:
					peak = m > above[j+1] && m >= below[j+1]
				default:
					peak = m > above[j+1-s] && m > below[j+1+s]
				}
				if peak {
					if m > hi && !prevFlag && emap[row+j-mapStep] != edgeYes {
						emap[row+j] = edgeYes
						st.push(int32(row + j))
						prevFlag = true
					} else {
						emap[row+j] = edgeMaybe
					}
					continue
				}
			}
			prevFlag = false
			emap[row+j] = edgeNot
		}

		ring[0], ring[1], ring[2] = ring[1], ring[2], ring[0]
	}

	neighbours := [8]int32{
		-1, 1,
		int32(-mapStep - 1), int32(-mapStep), int32(-mapStep + 1),
		int32(mapStep - 1), int32(mapStep), int32(mapStep + 1),
	}
	for !st.empty() {
		st.reserve(8)
		p := st.pop()
		for _, d := range neighbours {
			if emap[p+d] == edgeMaybe {
				emap[p+d] = edgeYes
				st.push(p + d)
			}
		}
	}
	ws.stack = st.items[:0]

	for i := 0; i < h; i++ {
		src := emap[mapStep*(i+1)+1:]
		out := dst.RowU8(i)
		for j := range out {
			if src[j] == edgeYes {
				out[j] = 255
			} else {
				out[j] = 0
			}
		}
	}
}

// AdaptiveThresholds derives Canny thresholds from the image itself: low is
// the mean gradient magnitude and high is three times that.
func AdaptiveThresholds(dx, dy *Image) (low, high float64) {
	mustGray(dx, DepthS16)
	mustGray(dy, DepthS16)
	mustSameSize(dx, dy)
	w, h := dx.Size()
	if w*h == 0 {
		return 0, 0
	}
	var sum int64
	for y := 0; y < h; y++ {
		for _, v := range dx.RowS16(y) {
			sum += int64(abs32(int32(v)))
		}
		for _, v := range dy.RowS16(y) {
			sum += int64(abs32(int32(v)))
		}
	}
	mean := float64(sum) / float64(w*h)
	low, high = math.Floor(mean), math.Floor(3*mean)
	if low > high {
		low, high = high, low
	}
	return low, high
}

// Canny7Adaptive runs Canny7 with AdaptiveThresholds.
func Canny7Adaptive(dx, dy, dst *Image, ws *Workspace) {
	low, high := AdaptiveThresholds(dx, dy)
	Canny7(dx, dy, dst, low, high, ws)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// edgeStack is the hysteresis worklist of edge-map indices. It grows by half
// its capacity whenever a row could overflow it.
type edgeStack struct {
	items []int32
	limit int
}

func newEdgeStack(ws *Workspace, size int) *edgeStack {
	items := ws.stack
	if cap(items) < size {
		items = make([]int32, 0, size)
	}
	return &edgeStack{items: items[:0], limit: max(size, cap(items))}
}

func (s *edgeStack) reserve(n int) {
	if len(s.items)+n <= s.limit {
		return
	}
	s.limit = max(s.limit*3/2, s.limit+8, len(s.items)+n)
	grown := make([]int32, len(s.items), s.limit)
	copy(grown, s.items)
	s.items = grown
}

func (s *edgeStack) push(i int32) { s.items = append(s.items, i) }

func (s *edgeStack) pop() int32 {
	i := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	return i
}

func (s *edgeStack) empty() bool { return len(s.items) == 0 }
