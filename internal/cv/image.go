// Package cv provides the low-level image buffer and filter primitives used by
// the card scanner: 7-tap Sobel, Scharr, morphological gradient, 2:1
// downsampling, histogram equalization, Canny and a restricted Hough search.
//
// Every primitive respects the active region of interest of its arguments and
// panics when handed an image of the wrong depth, channel count or size.
package cv

import (
	"fmt"
	"image"

	"cardscan/pkg/geometry"
)

// Depth is the element type of an Image.
type Depth int

const (
	DepthU8 Depth = iota + 1
	DepthS16
	DepthF32
)

func (d Depth) String() string {
	switch d {
	case DepthU8:
		return "u8"
	case DepthS16:
		return "s16"
	case DepthF32:
		return "f32"
	default:
		return fmt.Sprintf("Depth(%d)", int(d))
	}
}

// Size returns the element size in bytes.
func (d Depth) Size() int {
	switch d {
	case DepthU8:
		return 1
	case DepthS16:
		return 2
	case DepthF32:
		return 4
	}
	return 0
}

// rowAlign is the element alignment of freshly allocated rows.
const rowAlign = 8

// Image is a 2D pixel buffer with an optional region of interest. Exactly one
// of U8, S16 or F32 backs the pixels, according to Depth. Stride counts
// elements, not bytes.
type Image struct {
	Width    int
	Height   int
	Depth    Depth
	Channels int
	Stride   int

	U8  []uint8
	S16 []int16
	F32 []float32

	roi *geometry.RectInt
}

// NewImage allocates a zeroed image. Rows are padded to a multiple of eight
// elements.
func NewImage(width, height int, depth Depth, channels int) *Image {
	if width < 0 || height < 0 || channels < 1 || channels > 4 {
		panic(fmt.Sprintf("cv: invalid image shape %dx%dx%d", width, height, channels))
	}
	stride := (width*channels + rowAlign - 1) / rowAlign * rowAlign
	img := &Image{Width: width, Height: height, Depth: depth, Channels: channels, Stride: stride}
	n := stride * height
	switch depth {
	case DepthU8:
		img.U8 = make([]uint8, n)
	case DepthS16:
		img.S16 = make([]int16, n)
	case DepthF32:
		img.F32 = make([]float32, n)
	default:
		panic(fmt.Sprintf("cv: unknown depth %v", depth))
	}
	return img
}

// FromGray copies an 8-bit gray image.
func FromGray(g *image.Gray) *Image {
	b := g.Bounds()
	img := NewImage(b.Dx(), b.Dy(), DepthU8, 1)
	for y := 0; y < b.Dy(); y++ {
		copy(img.U8[y*img.Stride:y*img.Stride+b.Dx()], g.Pix[y*g.Stride:y*g.Stride+b.Dx()])
	}
	return img
}

// ToGray copies the active region of a single-channel 8-bit image.
func (img *Image) ToGray() *image.Gray {
	mustDepth(img, DepthU8)
	mustChannels(img, 1)
	w, h := img.Size()
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		copy(g.Pix[y*g.Stride:y*g.Stride+w], img.RowU8(y))
	}
	return g
}

// SetROI restricts subsequent operations to r. The rectangle must lie within
// the image.
func (img *Image) SetROI(r geometry.RectInt) {
	if r.X < 0 || r.Y < 0 || r.Width < 0 || r.Height < 0 ||
		r.X+r.Width > img.Width || r.Y+r.Height > img.Height {
		panic(fmt.Sprintf("cv: roi %+v outside %dx%d image", r, img.Width, img.Height))
	}
	img.roi = &r
}

// ResetROI clears the region of interest.
func (img *Image) ResetROI() {
	img.roi = nil
}

// ROI returns the active region of interest, or the full image.
func (img *Image) ROI() geometry.RectInt {
	if img.roi == nil {
		return geometry.RectInt{Width: img.Width, Height: img.Height}
	}
	return *img.roi
}

// HasROI reports whether a region of interest is set.
func (img *Image) HasROI() bool {
	return img.roi != nil
}

// Size returns the active width and height.
func (img *Image) Size() (int, int) {
	if img.roi == nil {
		return img.Width, img.Height
	}
	return img.roi.Width, img.roi.Height
}

// offset returns the element index of ROI-relative (0, y).
func (img *Image) offset(y int) int {
	if img.roi == nil {
		return y * img.Stride
	}
	return (img.roi.Y+y)*img.Stride + img.roi.X*img.Channels
}

// RowU8 returns row y of the active region.
func (img *Image) RowU8(y int) []uint8 {
	w, _ := img.Size()
	o := img.offset(y)
	return img.U8[o : o+w*img.Channels]
}

// RowS16 returns row y of the active region.
func (img *Image) RowS16(y int) []int16 {
	w, _ := img.Size()
	o := img.offset(y)
	return img.S16[o : o+w*img.Channels]
}

// RowF32 returns row y of the active region.
func (img *Image) RowF32(y int) []float32 {
	w, _ := img.Size()
	o := img.offset(y)
	return img.F32[o : o+w*img.Channels]
}

func (img *Image) AtU8(x, y int) uint8 { return img.U8[img.offset(y)+x*img.Channels] }
func (img *Image) SetU8(x, y int, v uint8) { img.U8[img.offset(y)+x*img.Channels] = v }
func (img *Image) AtS16(x, y int) int16 { return img.S16[img.offset(y)+x*img.Channels] }
func (img *Image) SetS16(x, y int, v int16) { img.S16[img.offset(y)+x*img.Channels] = v }
func (img *Image) AtF32(x, y int) float32 { return img.F32[img.offset(y)+x*img.Channels] }
func (img *Image) SetF32(x, y int, v float32) { img.F32[img.offset(y)+x*img.Channels] = v }

// Clone copies the active region into a new image without a region of
// interest.
func (img *Image) Clone() *Image {
	w, h := img.Size()
	out := NewImage(w, h, img.Depth, img.Channels)
	for y := 0; y < h; y++ {
		o := y * out.Stride
		switch img.Depth {
		case DepthU8:
			copy(out.U8[o:], img.RowU8(y))
		case DepthS16:
			copy(out.S16[o:], img.RowS16(y))
		case DepthF32:
			copy(out.F32[o:], img.RowF32(y))
		}
	}
	return out
}

// Fill sets every element of the active region of an 8-bit image.
func (img *Image) Fill(v uint8) {
	mustDepth(img, DepthU8)
	_, h := img.Size()
	for y := 0; y < h; y++ {
		row := img.RowU8(y)
		for i := range row {
			row[i] = v
		}
	}
}

func mustDepth(img *Image, d Depth) {
	if img.Depth != d {
		panic(fmt.Sprintf("cv: expected %v image, got %v", d, img.Depth))
	}
}

func mustChannels(img *Image, n int) {
	if img.Channels != n {
		panic(fmt.Sprintf("cv: expected %d channel image, got %d", n, img.Channels))
	}
}

func mustSameSize(a, b *Image) {
	aw, ah := a.Size()
	bw, bh := b.Size()
	if aw != bw || ah != bh {
		panic(fmt.Sprintf("cv: size mismatch %dx%d vs %dx%d", aw, ah, bw, bh))
	}
}

func mustGray(img *Image, d Depth) {
	mustDepth(img, d)
	mustChannels(img, 1)
}
