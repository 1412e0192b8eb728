package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cardscan/internal/analytics"
	"cardscan/internal/cv"
	"cardscan/internal/cvbridge"
	"cardscan/internal/detect"
	"cardscan/internal/frames"
	"cardscan/internal/model"
	"cardscan/internal/ocr"
	"cardscan/internal/pipeline"
	"cardscan/internal/redact"
	"cardscan/internal/scan"
	"cardscan/internal/warp"
	"cardscan/internal/warp/cvwarp"
	"cardscan/pkg/colorutil"
)

// errNoNumber is returned when every frame was scanned without a reading.
var errNoNumber = errors.New("no card number read")

type options struct {
	FrameDir    string
	Paths       []string
	Orientation string
	ModelPath   string
	Warp        string
	Filter      string
	Combine     string
	MinFocus    float64
	NoFlip      bool
	DBPath      string
	OCR         bool
	OCRLang     string
	DebugDir    string
	Unblurred   int
}

// setup turns the options into a pipeline configuration and model set.
func setup(opts options) (pipeline.Config, model.Set, error) {
	cfg := pipeline.DefaultConfig()

	o, ok := detect.ParseOrientation(opts.Orientation)
	if !ok {
		return cfg, model.Set{}, fmt.Errorf("unknown orientation %q", opts.Orientation)
	}
	cfg.Orientation = o
	cfg.MinFocus = opts.MinFocus
	cfg.RetryFlipped = !opts.NoFlip

	switch opts.Warp {
	case "", "cpu":
		cfg.Warper = warp.CPUWarper{}
	case "opencv":
		cfg.Warper = cvwarp.Warper{}
	default:
		return cfg, model.Set{}, fmt.Errorf("unknown warp backend %q", opts.Warp)
	}

	switch opts.Filter {
	case "", "auto":
		cv.Init()
	case "scalar":
		cv.Use(cv.ScalarFilter{})
	case "vector":
		cv.Use(cv.VectorFilter{})
	default:
		return cfg, model.Set{}, fmt.Errorf("unknown filter strategy %q", opts.Filter)
	}

	switch opts.Combine {
	case "", "votes":
		cfg.Combine = scan.CombineVotes
	case "mean":
		cfg.Combine = scan.CombineMean
	default:
		return cfg, model.Set{}, fmt.Errorf("unknown combiner %q", opts.Combine)
	}

	models := model.DefaultSet()
	if opts.ModelPath != "" {
		b, err := model.LoadBundle(opts.ModelPath)
		if err != nil {
			return cfg, model.Set{}, err
		}
		models = b.Set()
	}
	return cfg, models, nil
}

// framePaths returns the frames to scan in order.
func framePaths(opts options) ([]string, error) {
	paths := append([]string(nil), opts.Paths...)
	if opts.FrameDir != "" {
		listed, err := frames.List(opts.FrameDir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, listed...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no frames given")
	}
	return paths, nil
}

func run(opts options, out io.Writer) error {
	cfg, models, err := setup(opts)
	if err != nil {
		return err
	}
	paths, err := framePaths(opts)
	if err != nil {
		return err
	}
	if opts.DebugDir != "" {
		if err := os.MkdirAll(opts.DebugDir, 0o755); err != nil {
			return fmt.Errorf("failed to create debug directory: %w", err)
		}
	}

	var (
		store   *analytics.Store
		session analytics.Session
	)
	if opts.DBPath != "" {
		store, err = analytics.Open(opts.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		session, err = store.StartSession(cfg.Orientation)
		if err != nil {
			return err
		}
		slog.Info("Recording session", "id", session.ID)
	}

	p := pipeline.New(models, cfg)
	var lastCard *cv.Image
	for _, path := range paths {
		f, err := frames.Load(path)
		if err != nil {
			return err
		}
		st, err := p.Process(f)
		if err != nil {
			return err
		}
		slog.Debug("Frame scanned", "path", path, "focus", st.Focus, "progress", st.Progress, "usable", st.Result.Usable)

		if st.Card != nil {
			lastCard = st.Card
		}
		if store != nil && st.Analytics != nil {
			if err := store.RecordFrame(session.ID, *st.Analytics); err != nil {
				return err
			}
		}
		if opts.DebugDir != "" {
			if err := writeDebug(opts.DebugDir, f, st, opts.Unblurred); err != nil {
				return err
			}
		}
		if p.Result().Complete {
			slog.Debug("Number confirmed", "path", path)
			break
		}
	}

	result := p.Result()
	if store != nil {
		if err := store.FinishSession(session.ID, result); err != nil {
			return err
		}
	}

	if result.Complete {
		fmt.Fprintf(out, "%s %s\n", result.CardType, result)
		return nil
	}

	if opts.OCR && lastCard != nil {
		number, ok, err := readWithOCR(lastCard, opts.OCRLang)
		if err != nil {
			return err
		}
		if ok {
			line, err := describeOCR(number)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, line)
			return nil
		}
	}

	fmt.Fprintln(out, errNoNumber)
	return errNoNumber
}

// describeOCR formats an OCR reading as "<type> <grouped number> (ocr)".
func describeOCR(number string) (string, error) {
	digits, err := scan.ParseDigits(number)
	if err != nil {
		return "", fmt.Errorf("failed to parse OCR reading: %w", err)
	}
	info := scan.CardInfoForPrefixAndLength(digits, len(digits), false)
	return fmt.Sprintf("%s %s (ocr)", info.Type, scan.FormatDigits(digits)), nil
}

// readWithOCR tries sixteen and then fifteen digit numbers on the card.
func readWithOCR(card *cv.Image, language string) (string, bool, error) {
	engine, err := ocr.NewEngine(language)
	if err != nil {
		return "", false, err
	}
	defer engine.Close()

	m, err := cvbridge.ToMat(card)
	if err != nil {
		return "", false, err
	}
	defer m.Close()

	for _, digits := range []int{16, 15} {
		number, ok, err := engine.ReadCardNumber(m, digits)
		if err != nil || ok {
			return number, ok, err
		}
	}
	return "", false, nil
}

// writeDebug saves the frame overlay, the rectified card, and for usable
// frames the redacted card with its segmentation drawn on.
func writeDebug(dir string, f *frames.Frame, st pipeline.Step, unblurred int) error {
	base := strings.TrimSuffix(filepath.Base(f.Path), filepath.Ext(f.Path))

	overlay, err := frames.Overlay(f, st.Boxes, st.Edges)
	if err != nil {
		return err
	}
	if err := frames.SavePNG(filepath.Join(dir, base+"-overlay.png"), overlay); err != nil {
		return err
	}
	if st.Card == nil {
		return nil
	}
	if err := frames.SavePGM(filepath.Join(dir, base+"-card.pgm"), st.Card); err != nil {
		return err
	}
	if !st.Result.Usable {
		return nil
	}

	card := st.Card.Clone()
	if err := redact.BlurImage(card, st.Result.VSeg, st.Result.HSeg, unblurred); err != nil {
		return err
	}
	rgba, err := colorutil.MergeYCbCr(card, nil, nil)
	if err != nil {
		return err
	}
	frames.DrawSegmentation(rgba, st.Result.VSeg, st.Result.HSeg)
	return frames.SavePNG(filepath.Join(dir, base+"-digits.png"), rgba)
}
