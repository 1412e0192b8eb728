// Package frames loads camera frames from disk into the scanner's luma and
// chroma planes, and writes debug images.
package frames

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cardscan/internal/cv"
	"cardscan/internal/detect"

	"github.com/spakin/netpbm"
	_ "golang.org/x/image/tiff"
)

// Frame is one decoded camera frame. Cb and Cr are half the size of Y, and
// nil for grayscale sources.
type Frame struct {
	Path string
	Y    *cv.Image
	Cb   *cv.Image
	Cr   *cv.Image
}

// Planes returns the frame's planes for edge detection.
func (f *Frame) Planes() detect.Planes {
	return detect.Planes{Y: f.Y, Cb: f.Cb, Cr: f.Cr}
}

// Size returns the luma size.
func (f *Frame) Size() (int, int) { return f.Y.Size() }

// Load decodes a PNG, JPEG, TIFF or netpbm file.
func Load(path string) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	f := FromImage(img)
	f.Path = path
	return f, nil
}

// FromImage splits an image into planes. JPEG 4:2:0 chroma is used as is;
// other images are converted per pixel and their chroma averaged over 2x2
// blocks, and images with only grey pixels get no chroma planes.
func FromImage(img image.Image) *Frame {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	switch src := img.(type) {
	case *image.Gray:
		return &Frame{Y: cv.FromGray(src)}
	case *image.YCbCr:
		if src.SubsampleRatio == image.YCbCrSubsampleRatio420 {
			return fromYCbCr420(src)
		}
	}
	f := &Frame{
		Y:  cv.NewImage(w, h, cv.DepthU8, 1),
		Cb: cv.NewImage(w/2, h/2, cv.DepthU8, 1),
		Cr: cv.NewImage(w/2, h/2, cv.DepthU8, 1),
	}
	gray := true
	cbSum := make([]int, w/2)
	crSum := make([]int, w/2)
	for y := 0; y < h; y++ {
		row := f.Y.RowU8(y)
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			gray = gray && r == g && g == bl
			yy, cb, cr := color.RGBToYCbCr(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			row[x] = yy
			if x/2 < w/2 {
				cbSum[x/2] += int(cb)
				crSum[x/2] += int(cr)
			}
		}
		if y%2 == 1 && y/2 < h/2 {
			cbRow, crRow := f.Cb.RowU8(y/2), f.Cr.RowU8(y/2)
			for i := range cbSum {
				cbRow[i] = uint8((cbSum[i] + 2) / 4)
				crRow[i] = uint8((crSum[i] + 2) / 4)
				cbSum[i], crSum[i] = 0, 0
			}
		}
	}
	// Grayscale sources such as PGM have no chroma to search.
	if gray {
		f.Cb, f.Cr = nil, nil
	}
	return f
}

func fromYCbCr420(src *image.YCbCr) *Frame {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	f := &Frame{
		Y:  cv.NewImage(w, h, cv.DepthU8, 1),
		Cb: cv.NewImage(w/2, h/2, cv.DepthU8, 1),
		Cr: cv.NewImage(w/2, h/2, cv.DepthU8, 1),
	}
	for y := 0; y < h; y++ {
		off := src.YOffset(b.Min.X, b.Min.Y+y)
		copy(f.Y.RowU8(y), src.Y[off:off+w])
	}
	for y := 0; y < h/2; y++ {
		off := src.COffset(b.Min.X, b.Min.Y+2*y)
		copy(f.Cb.RowU8(y), src.Cb[off:off+w/2])
		copy(f.Cr.RowU8(y), src.Cr[off:off+w/2])
	}
	return f
}

// SupportedFormats returns the frame file extensions Load accepts.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".pgm", ".ppm", ".pnm"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// List returns the frame files in dir in name order.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedFormat(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadDir loads every frame in dir in name order.
func LoadDir(dir string) ([]*Frame, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}
	out := make([]*Frame, 0, len(paths))
	for _, p := range paths {
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// SavePNG writes img to path.
func SavePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}

// SavePGM writes a single-channel 8-bit image as a binary PGM.
func SavePGM(path string, img *cv.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	opts := &netpbm.EncodeOptions{Format: netpbm.PGM, MaxValue: 255}
	if err := netpbm.Encode(file, img.ToGray(), opts); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return file.Close()
}
