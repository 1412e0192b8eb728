package cv

import "math"

// 7-tap derivative-of-Gaussian kernels. Their products sum to 64 in the
// smoothing direction.
var (
	sobel7Edge   = [7]int32{-1, -4, -5, 0, 5, 4, 1}
	sobel7Smooth = [7]int32{1, 6, 15, 20, 15, 6, 1}
)

func sobel7Kernels(dx bool) (first, second *[7]int32) {
	if dx {
		return &sobel7Edge, &sobel7Smooth
	}
	return &sobel7Smooth, &sobel7Edge
}

type sample interface {
	~uint8 | ~int16
}

// correlateAt returns sum(k[t] * line[i+t-3]). Taps past either end fold onto
// the edge sample, which keeps the kernel's total weight.
func correlateAt[T sample](line []T, i int, k *[7]int32) int32 {
	n := len(line)
	var sum int32
	for t := 0; t < 7; t++ {
		sum += k[t] * int32(line[clampIndex(i+t-3, n)])
	}
	return sum
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func saturate16(v int32) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

func saturate8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func absDiff8(a, b uint8) int16 {
	if a > b {
		return int16(a - b)
	}
	return int16(b - a)
}

func max3(a, b, c uint8) uint8 {
	return max(a, max(b, c))
}

func min3(a, b, c uint8) uint8 {
	return min(a, min(b, c))
}

// equalizeLUT builds the lookup table for a histogram of n samples.
func equalizeLUT(hist *[256]int, n int) [256]uint8 {
	var lut [256]uint8
	if n == 0 {
		return lut
	}
	scale := float32(255) / float32(n)
	sum := 0
	for i := 0; i < 256; i++ {
		sum += hist[i]
		lut[i] = saturate8(int(math.RoundToEven(float64(float32(sum) * scale))))
	}
	lut[0] = 0
	return lut
}
