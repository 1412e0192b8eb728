package cv

// lanes is the block width of the VectorFilter loops. It matches eight 16-bit
// lanes of a 128-bit register, and the inner loops have fixed trip counts so
// the compiler can keep a block in registers.
const lanes = 8

// VectorFilter is the data-parallel strategy. Rows are processed in
// fixed-width blocks; the last block of a row is shifted back to end exactly
// at the row's end, recomputing a few outputs instead of branching into a
// scalar tail. Every block writes a pure function of the input, so the
// overlap is harmless. Spans narrower than one block use the element loop.
type VectorFilter struct{}

func (VectorFilter) Name() string { return "vector" }

// blocks visits block starts covering [lo, hi) with the final block ending at
// hi. It reports false when the span is narrower than one block.
func blocks(lo, hi int, fn func(i int)) bool {
	if hi-lo < lanes {
		return false
	}
	for i := lo; ; i += lanes {
		if i > hi-lanes {
			i = hi - lanes
		}
		fn(i)
		if i == hi-lanes {
			return true
		}
	}
}

// convolveLine7 correlates line with k and stores each result at
// out[base+i*step]. Both Sobel passes go through here: the first with a
// transposing step, the second transposing back.
func convolveLine7[T sample](line []T, k *[7]int32, out []int16, base, step int) {
	n := len(line)
	edge := min(3, n)
	for i := 0; i < edge; i++ {
		out[base+i*step] = saturate16(correlateAt(line, i, k))
	}
	for i := max(edge, n-3); i < n; i++ {
		out[base+i*step] = saturate16(correlateAt(line, i, k))
	}
	ok := blocks(3, n-3, func(i int) {
		s := line[i-3 : i+lanes+3]
		var acc [lanes]int32
		for t := 0; t < 7; t++ {
			kt := k[t]
			for l := 0; l < lanes; l++ {
				acc[l] += kt * int32(s[l+t])
			}
		}
		for l := 0; l < lanes; l++ {
			out[base+(i+l)*step] = saturate16(acc[l])
		}
	})
	if !ok {
		for i := 3; i < n-3; i++ {
			out[base+i*step] = saturate16(correlateAt(line, i, k))
		}
	}
}

func (VectorFilter) Sobel7(src, dst *Image, dx bool, ws *Workspace) {
	w, h := src.Size()
	first, second := sobel7Kernels(dx)
	scratch := ws.sobelScratch(w * h)
	for y := 0; y < h; y++ {
		convolveLine7(src.RowU8(y), first, scratch, y, h)
	}
	base := dst.offset(0)
	for x := 0; x < w; x++ {
		convolveLine7(scratch[x*h:(x+1)*h], second, dst.S16, base+x, dst.Stride)
	}
}

// horizontalAbsDiff writes |row[x+1]-row[x-1]| with clamped ends.
func horizontalAbsDiff(row []uint8, out []int16) {
	n := len(row)
	out[0] = absDiff8(row[min(1, n-1)], row[0])
	if n > 1 {
		out[n-1] = absDiff8(row[n-1], row[n-2])
	}
	ok := blocks(1, n-1, func(i int) {
		for l := 0; l < lanes; l++ {
			out[i+l] = absDiff8(row[i+l+1], row[i+l-1])
		}
	})
	if !ok {
		for i := 1; i < n-1; i++ {
			out[i] = absDiff8(row[i+1], row[i-1])
		}
	}
}

func (VectorFilter) Scharr3DXAbs(src, dst *Image, ws *Workspace) {
	w, h := src.Size()
	ring := ws.ringRows(w)
	row := func(r int) []int16 { return ring[r%3] }
	horizontalAbsDiff(src.RowU8(0), row(0))
	if h > 1 {
		horizontalAbsDiff(src.RowU8(1), row(1))
	}
	for y := 0; y < h; y++ {
		if y+1 < h && y > 0 {
			horizontalAbsDiff(src.RowU8(y+1), row(y+1))
		}
		above, cur, below := row(clampIndex(y-1, h)), row(y), row(clampIndex(y+1, h))
		out := dst.RowS16(y)
		if !blocks(0, w, func(i int) {
			for l := 0; l < lanes; l++ {
				out[i+l] = 3*(above[i+l]+below[i+l]) + 10*cur[i+l]
			}
		}) {
			for i := 0; i < w; i++ {
				out[i] = 3*(above[i]+below[i]) + 10*cur[i]
			}
		}
	}
}

func (VectorFilter) Scharr3DYAbs(src, dst *Image, ws *Workspace) {
	w, h := src.Size()
	ring := ws.ringRows(w)
	inter := ring[0]
	for y := 0; y < h; y++ {
		up, down := src.RowU8(clampIndex(y-1, h)), src.RowU8(clampIndex(y+1, h))
		if !blocks(0, w, func(i int) {
			for l := 0; l < lanes; l++ {
				inter[i+l] = absDiff8(down[i+l], up[i+l])
			}
		}) {
			for i := 0; i < w; i++ {
				inter[i] = absDiff8(down[i], up[i])
			}
		}
		out := dst.RowS16(y)
		out[0] = 3*(inter[0]+inter[min(1, w-1)]) + 10*inter[0]
		if w > 1 {
			out[w-1] = 3*(inter[w-2]+inter[w-1]) + 10*inter[w-1]
		}
		if !blocks(1, w-1, func(i int) {
			for l := 0; l < lanes; l++ {
				out[i+l] = 3*(inter[i+l-1]+inter[i+l+1]) + 10*inter[i+l]
			}
		}) {
			for i := 1; i < w-1; i++ {
				out[i] = 3*(inter[i-1]+inter[i+1]) + 10*inter[i]
			}
		}
	}
}

func (VectorFilter) Sobel3DXDY(src, dst *Image) {
	w, h := src.Size()
	for y := 0; y < h; y++ {
		above := src.RowU8(clampIndex(y-1, h))
		below := src.RowU8(clampIndex(y+1, h))
		out := dst.RowS16(y)
		at := func(i int) int16 {
			l, r := clampIndex(i-1, w), clampIndex(i+1, w)
			return int16(above[l]) - int16(above[r]) - int16(below[l]) + int16(below[r])
		}
		out[0] = at(0)
		out[w-1] = at(w - 1)
		if !blocks(1, w-1, func(i int) {
			for l := 0; l < lanes; l++ {
				j := i + l
				out[j] = int16(above[j-1]) - int16(above[j+1]) - int16(below[j-1]) + int16(below[j+1])
			}
		}) {
			for i := 1; i < w-1; i++ {
				out[i] = at(i)
			}
		}
	}
}

func (VectorFilter) MorphGrad3Row(src, dst *Image) {
	in, out := src.RowU8(0), dst.RowU8(0)
	n := len(in)
	at := func(i int) uint8 {
		a, b, c := in[clampIndex(i-1, n)], in[i], in[clampIndex(i+1, n)]
		return max3(a, b, c) - min3(a, b, c)
	}
	out[0] = at(0)
	out[n-1] = at(n - 1)
	if !blocks(1, n-1, func(i int) {
		for l := 0; l < lanes; l++ {
			a, b, c := in[i+l-1], in[i+l], in[i+l+1]
			out[i+l] = max3(a, b, c) - min3(a, b, c)
		}
	}) {
		for i := 1; i < n-1; i++ {
			out[i] = at(i)
		}
	}
}

func (VectorFilter) MorphGrad3Cross(src, dst *Image) {
	w, h := src.Size()
	for y := 0; y < h; y++ {
		north := src.RowU8(clampIndex(y-1, h))
		row := src.RowU8(y)
		south := src.RowU8(clampIndex(y+1, h))
		out := dst.RowU8(y)
		at := func(x int) uint8 {
			west, east := row[clampIndex(x-1, w)], row[clampIndex(x+1, w)]
			hi := max(west, row[x], east, north[x], south[x])
			lo := min(west, row[x], east, north[x], south[x])
			return hi - lo
		}
		out[0] = at(0)
		out[w-1] = at(w - 1)
		if !blocks(1, w-1, func(i int) {
			for l := 0; l < lanes; l++ {
				x := i + l
				hi := max(row[x-1], row[x], row[x+1], north[x], south[x])
				lo := min(row[x-1], row[x], row[x+1], north[x], south[x])
				out[x] = hi - lo
			}
		}) {
			for x := 1; x < w-1; x++ {
				out[x] = at(x)
			}
		}
	}
}

func (VectorFilter) LinearDown2(src, dst *Image) {
	in, out := src.RowU8(0), dst.RowU8(0)
	n := len(out)
	if !blocks(0, n, func(i int) {
		s := in[2*i : 2*i+2*lanes]
		for l := 0; l < lanes; l++ {
			out[i+l] = uint8((uint16(s[2*l]) + uint16(s[2*l+1]) + 1) >> 1)
		}
	}) {
		for i := 0; i < n; i++ {
			out[i] = uint8((uint16(in[2*i]) + uint16(in[2*i+1]) + 1) >> 1)
		}
	}
}

func (VectorFilter) MinMax(src *Image) (uint8, uint8) {
	w, h := src.Size()
	var lo, hi [lanes]uint8
	for l := range lo {
		lo[l] = 255
	}
	for y := 0; y < h; y++ {
		row := src.RowU8(y)
		if !blocks(0, w, func(i int) {
			for l := 0; l < lanes; l++ {
				lo[l] = min(lo[l], row[i+l])
				hi[l] = max(hi[l], row[i+l])
			}
		}) {
			for _, v := range row {
				lo[0] = min(lo[0], v)
				hi[0] = max(hi[0], v)
			}
		}
	}
	mn, mx := lo[0], hi[0]
	for l := 1; l < lanes; l++ {
		mn = min(mn, lo[l])
		mx = max(mx, hi[l])
	}
	return mn, mx
}

func (f VectorFilter) NormalizeToF32(src, dst *Image) {
	lo, hi := f.MinMax(src)
	w, h := src.Size()
	delta := float32(hi) - float32(lo)
	base := float32(lo)
	for y := 0; y < h; y++ {
		in, out := src.RowU8(y), dst.RowF32(y)
		if delta == 0 {
			for i := range out {
				out[i] = 0.5
			}
			continue
		}
		if !blocks(0, w, func(i int) {
			for l := 0; l < lanes; l++ {
				out[i+l] = (float32(in[i+l]) - base) / delta
			}
		}) {
			for i, v := range in {
				out[i] = (float32(v) - base) / delta
			}
		}
	}
}

func (VectorFilter) EqualizeHist(src, dst *Image) {
	w, h := src.Size()
	// Four interleaved histograms avoid store-to-load stalls on runs of
	// equal pixels.
	var parts [4][256]int
	for y := 0; y < h; y++ {
		row := src.RowU8(y)
		i := 0
		for ; i+4 <= len(row); i += 4 {
			parts[0][row[i]]++
			parts[1][row[i+1]]++
			parts[2][row[i+2]]++
			parts[3][row[i+3]]++
		}
		for ; i < len(row); i++ {
			parts[0][row[i]]++
		}
	}
	var hist [256]int
	for v := 0; v < 256; v++ {
		hist[v] = parts[0][v] + parts[1][v] + parts[2][v] + parts[3][v]
	}
	lut := equalizeLUT(&hist, w*h)
	for y := 0; y < h; y++ {
		in, out := src.RowU8(y), dst.RowU8(y)
		if !blocks(0, w, func(i int) {
			for l := 0; l < lanes; l++ {
				out[i+l] = lut[in[i+l]]
			}
		}) {
			for i, v := range in {
				out[i] = lut[v]
			}
		}
	}
}
