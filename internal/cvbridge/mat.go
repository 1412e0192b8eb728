// Package cvbridge converts between cv images and gocv matrices.
package cvbridge

import (
	"fmt"

	"cardscan/internal/cv"

	"gocv.io/x/gocv"
)

func matType(channels int) (gocv.MatType, error) {
	switch channels {
	case 1:
		return gocv.MatTypeCV8UC1, nil
	case 2:
		return gocv.MatTypeCV8UC2, nil
	case 3:
		return gocv.MatTypeCV8UC3, nil
	case 4:
		return gocv.MatTypeCV8UC4, nil
	}
	return 0, fmt.Errorf("unsupported channel count %d", channels)
}

// ToMat copies the active region of an 8-bit image into a new Mat. The
// caller owns the Mat and must Close it.
func ToMat(img *cv.Image) (gocv.Mat, error) {
	if img.Depth != cv.DepthU8 {
		return gocv.NewMat(), fmt.Errorf("unsupported depth %v", img.Depth)
	}
	mt, err := matType(img.Channels)
	if err != nil {
		return gocv.NewMat(), err
	}
	w, h := img.Size()
	rowLen := w * img.Channels
	data := make([]byte, rowLen*h)
	for y := 0; y < h; y++ {
		copy(data[y*rowLen:], img.RowU8(y))
	}
	return gocv.NewMatFromBytes(h, w, mt, data)
}

// CopyFromMat copies an 8-bit Mat into the active region of dst, which must
// have the same size and channel count.
func CopyFromMat(m gocv.Mat, dst *cv.Image) error {
	w, h := dst.Size()
	if m.Cols() != w || m.Rows() != h || m.Channels() != dst.Channels {
		return fmt.Errorf("mat %dx%dx%d does not match image %dx%dx%d",
			m.Cols(), m.Rows(), m.Channels(), w, h, dst.Channels)
	}
	data := m.ToBytes()
	rowLen := w * dst.Channels
	for y := 0; y < h; y++ {
		copy(dst.RowU8(y), data[y*rowLen:(y+1)*rowLen])
	}
	return nil
}

// FromMat copies an 8-bit Mat into a new image.
func FromMat(m gocv.Mat) (*cv.Image, error) {
	if m.Empty() {
		return nil, fmt.Errorf("empty mat")
	}
	img := cv.NewImage(m.Cols(), m.Rows(), cv.DepthU8, m.Channels())
	if err := CopyFromMat(m, img); err != nil {
		return nil, err
	}
	return img, nil
}
