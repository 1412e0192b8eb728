package cv

// ScalarFilter is the portable reference implementation. Every other
// strategy is tested against it.
type ScalarFilter struct{}

func (ScalarFilter) Name() string { return "scalar" }

// Sobel7 runs two 1-D passes. The first writes its result transposed into
// the workspace so that the second pass again walks contiguous rows, and
// transposes back on output.
func (ScalarFilter) Sobel7(src, dst *Image, dx bool, ws *Workspace) {
	w, h := src.Size()
	first, second := sobel7Kernels(dx)
	scratch := ws.sobelScratch(w * h)

	for y := 0; y < h; y++ {
		row := src.RowU8(y)
		for x := 0; x < w; x++ {
			scratch[x*h+y] = int16(correlateAt(row, x, first))
		}
	}
	base := dst.offset(0)
	for x := 0; x < w; x++ {
		col := scratch[x*h : (x+1)*h]
		for y := 0; y < h; y++ {
			dst.S16[base+y*dst.Stride+x] = saturate16(correlateAt(col, y, second))
		}
	}
}

func (ScalarFilter) Scharr3DXAbs(src, dst *Image, _ *Workspace) {
	w, h := src.Size()
	g := func(x, y int) int16 {
		row := src.RowU8(y)
		return absDiff8(row[clampIndex(x+1, w)], row[clampIndex(x-1, w)])
	}
	for y := 0; y < h; y++ {
		out := dst.RowS16(y)
		ym, yp := clampIndex(y-1, h), clampIndex(y+1, h)
		for x := 0; x < w; x++ {
			out[x] = 3*(g(x, ym)+g(x, yp)) + 10*g(x, y)
		}
	}
}

func (ScalarFilter) Scharr3DYAbs(src, dst *Image, _ *Workspace) {
	w, h := src.Size()
	g := func(x, y int) int16 {
		return absDiff8(src.RowU8(clampIndex(y+1, h))[x], src.RowU8(clampIndex(y-1, h))[x])
	}
	for y := 0; y < h; y++ {
		out := dst.RowS16(y)
		for x := 0; x < w; x++ {
			out[x] = 3*(g(clampIndex(x-1, w), y)+g(clampIndex(x+1, w), y)) + 10*g(x, y)
		}
	}
}

func (ScalarFilter) Sobel3DXDY(src, dst *Image) {
	w, h := src.Size()
	for y := 0; y < h; y++ {
		above := src.RowU8(clampIndex(y-1, h))
		below := src.RowU8(clampIndex(y+1, h))
		out := dst.RowS16(y)
		for x := 0; x < w; x++ {
			l, r := clampIndex(x-1, w), clampIndex(x+1, w)
			out[x] = int16(above[l]) - int16(above[r]) - int16(below[l]) + int16(below[r])
		}
	}
}

func (ScalarFilter) MorphGrad3Row(src, dst *Image) {
	in, out := src.RowU8(0), dst.RowU8(0)
	n := len(in)
	for i := 0; i < n; i++ {
		a, b, c := in[clampIndex(i-1, n)], in[i], in[clampIndex(i+1, n)]
		out[i] = max3(a, b, c) - min3(a, b, c)
	}
}

func (ScalarFilter) MorphGrad3Cross(src, dst *Image) {
	w, h := src.Size()
	for y := 0; y < h; y++ {
		north := src.RowU8(clampIndex(y-1, h))
		row := src.RowU8(y)
		south := src.RowU8(clampIndex(y+1, h))
		out := dst.RowU8(y)
		for x := 0; x < w; x++ {
			west, east := row[clampIndex(x-1, w)], row[clampIndex(x+1, w)]
			hi := max(max3(west, row[x], east), north[x], south[x])
			lo := min(min3(west, row[x], east), north[x], south[x])
			out[x] = hi - lo
		}
	}
}

func (ScalarFilter) LinearDown2(src, dst *Image) {
	in, out := src.RowU8(0), dst.RowU8(0)
	for i := range out {
		out[i] = uint8((uint16(in[2*i]) + uint16(in[2*i+1]) + 1) >> 1)
	}
}

func (ScalarFilter) MinMax(src *Image) (uint8, uint8) {
	_, h := src.Size()
	lo, hi := uint8(255), uint8(0)
	for y := 0; y < h; y++ {
		for _, v := range src.RowU8(y) {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

func (f ScalarFilter) NormalizeToF32(src, dst *Image) {
	lo, hi := f.MinMax(src)
	_, h := src.Size()
	delta := float32(hi) - float32(lo)
	for y := 0; y < h; y++ {
		in, out := src.RowU8(y), dst.RowF32(y)
		for x, v := range in {
			if delta == 0 {
				out[x] = 0.5
				continue
			}
			out[x] = (float32(v) - float32(lo)) / delta
		}
	}
}

func (ScalarFilter) EqualizeHist(src, dst *Image) {
	w, h := src.Size()
	var hist [256]int
	for y := 0; y < h; y++ {
		for _, v := range src.RowU8(y) {
			hist[v]++
		}
	}
	lut := equalizeLUT(&hist, w*h)
	for y := 0; y < h; y++ {
		in, out := src.RowU8(y), dst.RowU8(y)
		for x, v := range in {
			out[x] = lut[v]
		}
	}
}
