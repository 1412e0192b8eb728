// Package ocr reads embossed and printed card numbers with Tesseract, as an
// alternate reader for card designs the digit classifiers do not know.
package ocr

import (
	"fmt"
	"image"
	"strings"

	"cardscan/pkg/geometry"

	"github.com/otiai10/gosseract/v2"
	"gocv.io/x/gocv"
)

// DigitChars restricts recognition to card number characters.
const DigitChars = "0123456789"

// minGroupHeight is the height small digit groups are upscaled to.
const minGroupHeight = 60

// Engine reads card numbers using Tesseract.
type Engine struct {
	client *gosseract.Client
}

// settings is the part of the Tesseract client configured before reading.
type settings interface {
	SetLanguage(langs ...string) error
	SetVariable(key gosseract.SettableVariable, value string) error
	SetWhitelist(whitelist string) error
	SetPageSegMode(mode gosseract.PageSegMode) error
}

// NewEngine creates an engine for the given trained data language; an empty
// language selects "eng".
func NewEngine(language string) (*Engine, error) {
	client := gosseract.NewClient()
	if err := configure(client, language); err != nil {
		client.Close()
		return nil, err
	}
	return &Engine{client: client}, nil
}

func configure(c settings, language string) error {
	if language == "" {
		language = "eng"
	}
	if err := c.SetLanguage(language); err != nil {
		return fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Card numbers are not words.
	for _, dawg := range []gosseract.SettableVariable{"load_system_dawg", "load_freq_dawg"} {
		if err := c.SetVariable(dawg, "false"); err != nil {
			return fmt.Errorf("failed to set %s: %w", dawg, err)
		}
	}

	if err := c.SetWhitelist(DigitChars); err != nil {
		return fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return fmt.Errorf("failed to set PSM: %w", err)
	}
	return nil
}

// Close releases OCR resources.
func (e *Engine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// RecognizeRegion reads the digits in a region of a grayscale or BGR image.
// The region is clipped to the image.
func (e *Engine) RecognizeRegion(img gocv.Mat, bounds geometry.RectInt) (string, error) {
	if img.Empty() {
		return "", fmt.Errorf("empty image")
	}
	r, ok := bounds.Clip(img.Cols(), img.Rows())
	if !ok {
		return "", fmt.Errorf("region %v outside %dx%d image", bounds, img.Cols(), img.Rows())
	}

	region := img.Region(r)
	defer region.Close()

	processed := preprocess(region)
	defer processed.Close()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, processed)
	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	defer buf.Close()

	if err := e.client.SetImageFromBytes(buf.GetBytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.Join(strings.Fields(text), ""), nil
}

// ReadLayout reads the four digit groups of one layout and returns their
// concatenation.
func (e *Engine) ReadLayout(card, rotated gocv.Mat, l Layout) (string, error) {
	src := card
	if l.Rotated {
		src = rotated
	}
	var sb strings.Builder
	for _, g := range l.Groups {
		if _, ok := g.Clip(src.Cols(), src.Rows()); !ok {
			continue
		}
		text, err := e.RecognizeRegion(src, g)
		if err != nil {
			return "", fmt.Errorf("layout %s: %w", l.Name, err)
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// ReadCardNumber tries every known layout on the rectified card and returns
// the first reading with the requested number of digits that passes the Luhn
// check. ok is false when no layout produced one.
func (e *Engine) ReadCardNumber(card gocv.Mat, digits int) (number string, ok bool, err error) {
	if card.Empty() {
		return "", false, fmt.Errorf("empty image")
	}
	rotated := rotateClockwise(card)
	defer rotated.Close()

	for _, l := range Layouts {
		text, err := e.ReadLayout(card, rotated, l)
		if err != nil {
			return "", false, err
		}
		if number, ok := acceptNumber(text, digits); ok {
			return number, true, nil
		}
	}
	return "", false, nil
}

// rotateClockwise transposes and mirrors the card, turning a portrait layout
// upright.
func rotateClockwise(card gocv.Mat) gocv.Mat {
	t := gocv.NewMat()
	gocv.Transpose(card, &t)
	out := gocv.NewMat()
	gocv.Flip(t, &out, 1)
	t.Close()
	return out
}

// preprocess produces a dark-on-light binary image of a digit group, large
// enough for Tesseract.
func preprocess(region gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if region.Channels() == 1 {
		region.CopyTo(&gray)
	} else {
		gocv.CvtColor(region, &gray, gocv.ColorBGRToGray)
	}

	if h := gray.Rows(); h > 0 && h < minGroupHeight {
		scale := float64(minGroupHeight) / float64(h)
		scaled := gocv.NewMat()
		gocv.Resize(gray, &scaled, image.Point{}, scale, scale, gocv.InterpolationCubic)
		gray.Close()
		gray = scaled
	}

	clahe := gocv.NewCLAHEWithParams(2.0, image.Point{X: 8, Y: 8})
	defer clahe.Close()
	enhanced := gocv.NewMat()
	clahe.Apply(gray, &enhanced)
	gray.Close()

	binary := gocv.NewMat()
	gocv.Threshold(enhanced, &binary, 0, 255, gocv.ThresholdBinary|gocv.ThresholdOtsu)
	enhanced.Close()

	// Embossed digits are often lighter than the card face.
	if !mostlyLight(gocv.CountNonZero(binary), binary.Rows()*binary.Cols()) {
		gocv.BitwiseNot(binary, &binary)
	}
	return binary
}
