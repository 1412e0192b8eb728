package cv

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// Filter is one implementation strategy for the convolution primitives. The
// package-level functions validate arguments and then dispatch to the active
// Filter, so implementations may assume well-formed inputs.
type Filter interface {
	Name() string
	Sobel7(src, dst *Image, dx bool, ws *Workspace)
	Scharr3DXAbs(src, dst *Image, ws *Workspace)
	Scharr3DYAbs(src, dst *Image, ws *Workspace)
	Sobel3DXDY(src, dst *Image)
	MorphGrad3Row(src, dst *Image)
	MorphGrad3Cross(src, dst *Image)
	LinearDown2(src, dst *Image)
	MinMax(src *Image) (uint8, uint8)
	NormalizeToF32(src, dst *Image)
	EqualizeHist(src, dst *Image)
}

var (
	selectOnce sync.Once
	active     Filter
)

// HasVectorUnits reports whether the CPU has the wide integer vector units the
// VectorFilter loops are shaped for.
func HasVectorUnits() bool {
	switch runtime.GOARCH {
	case "amd64", "386":
		return cpu.X86.HasAVX2 || cpu.X86.HasSSE41
	case "arm64":
		return cpu.ARM64.HasASIMD
	case "arm":
		return cpu.ARM.HasNEON
	}
	return false
}

// Init probes the CPU and selects the filter strategy. It runs the probe at
// most once; later calls return the cached choice. Callers that care about
// start-up latency call Init during session setup, otherwise the first
// primitive call performs it.
func Init() Filter {
	selectOnce.Do(func() {
		if active != nil {
			return
		}
		if HasVectorUnits() {
			active = VectorFilter{}
		} else {
			active = ScalarFilter{}
		}
	})
	return active
}

// Active returns the active filter strategy.
func Active() Filter {
	return Init()
}

// Use replaces the active strategy. It is meant for tools and tests and must
// not race with running primitives.
func Use(f Filter) {
	Init()
	active = f
}

// Sobel7DX computes the horizontal 7-tap Sobel derivative of an 8-bit image
// into a 16-bit signed image of the same size.
func Sobel7DX(src, dst *Image, ws *Workspace) {
	checkSobel7(src, dst)
	Active().Sobel7(src, dst, true, orNew(ws))
}

// Sobel7DY computes the vertical 7-tap Sobel derivative.
func Sobel7DY(src, dst *Image, ws *Workspace) {
	checkSobel7(src, dst)
	Active().Sobel7(src, dst, false, orNew(ws))
}

func checkSobel7(src, dst *Image) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthS16)
	mustSameSize(src, dst)
}

// Scharr3DXAbs computes |d/dx| with the 3x3 Scharr stencil.
func Scharr3DXAbs(src, dst *Image, ws *Workspace) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthS16)
	mustSameSize(src, dst)
	Active().Scharr3DXAbs(src, dst, orNew(ws))
}

// Scharr3DYAbs computes |d/dy| with the 3x3 Scharr stencil.
func Scharr3DYAbs(src, dst *Image, ws *Workspace) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthS16)
	mustSameSize(src, dst)
	Active().Scharr3DYAbs(src, dst, orNew(ws))
}

// Sobel3DXDY computes the mixed second derivative with a 3x3 stencil.
func Sobel3DXDY(src, dst *Image) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthS16)
	mustSameSize(src, dst)
	Active().Sobel3DXDY(src, dst)
}

// MorphGrad3Row computes the 1-D morphological gradient of a single row.
func MorphGrad3Row(src, dst *Image) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthU8)
	mustSameSize(src, dst)
	if _, h := src.Size(); h != 1 {
		panic(fmt.Sprintf("cv: MorphGrad3Row needs a single row, got %d", h))
	}
	Active().MorphGrad3Row(src, dst)
}

// MorphGrad3Cross computes the morphological gradient over a 3x3 cross.
func MorphGrad3Cross(src, dst *Image) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthU8)
	mustSameSize(src, dst)
	Active().MorphGrad3Cross(src, dst)
}

// LinearDown2 halves a single row by averaging pairs with rounding.
func LinearDown2(src, dst *Image) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthU8)
	sw, sh := src.Size()
	dw, dh := dst.Size()
	if sh != 1 || dh != 1 || dw != sw/2 {
		panic(fmt.Sprintf("cv: LinearDown2 %dx%d -> %dx%d", sw, sh, dw, dh))
	}
	Active().LinearDown2(src, dst)
}

// MinMax returns the extreme values of an 8-bit image.
func MinMax(src *Image) (uint8, uint8) {
	mustGray(src, DepthU8)
	return Active().MinMax(src)
}

// NormalizeToF32 maps an 8-bit image affinely onto [0, 1] using its own
// minimum and maximum. A flat image maps to 0.5 everywhere.
func NormalizeToF32(src, dst *Image) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthF32)
	mustSameSize(src, dst)
	Active().NormalizeToF32(src, dst)
}

// EqualizeHist equalizes the histogram of an 8-bit image.
func EqualizeHist(src, dst *Image) {
	mustGray(src, DepthU8)
	mustGray(dst, DepthU8)
	mustSameSize(src, dst)
	Active().EqualizeHist(src, dst)
}
