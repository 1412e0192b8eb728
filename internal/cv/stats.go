package cv

import (
	"math"

	"cardscan/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// Card and landscape preview sizes that the scoring region is defined against.
var (
	scoringCard   = geometry.NewSize(428, 270)
	scoringScreen = geometry.NewSize(640, 480)
)

// StddevOfAbs returns the population standard deviation of |v| over a
// 16-bit image.
func StddevOfAbs(img *Image) float64 {
	mustGray(img, DepthS16)
	w, h := img.Size()
	if w*h == 0 {
		return 0
	}
	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for _, v := range img.RowS16(y) {
			a := math.Abs(float64(v))
			sum += a
			sumSq += a * a
		}
	}
	n := float64(w * h)
	mean := sum / n
	return math.Sqrt(math.Max(0, sumSq/n-mean*mean))
}

// Mean returns the mean of an 8-bit image.
func Mean(img *Image) float64 {
	mustGray(img, DepthU8)
	_, h := img.Size()
	means := make([]float64, h)
	for y := 0; y < h; y++ {
		var s int
		row := img.RowU8(y)
		for _, v := range row {
			s += int(v)
		}
		if len(row) > 0 {
			means[y] = float64(s) / float64(len(row))
		}
	}
	if h == 0 {
		return 0
	}
	return stat.Mean(means, nil)
}

// scoringROI returns the centred region used for focus and brightness: the
// card's footprint on a preview screen, shrunk to a third unless fullImage.
func scoringROI(img *Image, fullImage bool) geometry.RectInt {
	card := scoringCard
	if !fullImage {
		card = geometry.NewSize(card.Width/3, card.Height/3)
	}
	w, h := img.Size()
	return geometry.CardRectForScreen(card, scoringScreen, geometry.NewSize(w, h))
}

// withROI runs fn with the image's region of interest temporarily set to r,
// expressed in coordinates of the current region.
func withROI(img *Image, r geometry.RectInt, fn func()) {
	prev := img.roi
	outer := img.ROI()
	r.X += outer.X
	r.Y += outer.Y
	img.SetROI(r)
	defer func() { img.roi = prev }()
	fn()
}

// FocusScore measures sharpness as the spread of the mixed second derivative
// over the centre of the frame. Blurry frames score low.
func FocusScore(img *Image, fullImage bool) float64 {
	mustGray(img, DepthU8)
	var score float64
	withROI(img, scoringROI(img, fullImage), func() {
		w, h := img.Size()
		d := NewImage(w, h, DepthS16, 1)
		Sobel3DXDY(img, d)
		score = StddevOfAbs(d)
	})
	return score
}

// BrightnessScore is the mean luma over the same region as FocusScore.
func BrightnessScore(img *Image, fullImage bool) float64 {
	mustGray(img, DepthU8)
	var score float64
	withROI(img, scoringROI(img, fullImage), func() {
		score = Mean(img)
	})
	return score
}
