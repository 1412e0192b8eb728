// Package pipeline runs the per-frame scan: focus check, edge detection,
// rectification and the digit scanner. It is shared by the command line
// driver and the viewer.
package pipeline

import (
	"fmt"
	"log/slog"

	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/frames"
	"cardscan/internal/model"
	"cardscan/internal/scan"
	"cardscan/internal/warp"
	"cardscan/pkg/geometry"
)

// DefaultMinFocus is the focus score below which frames are skipped.
const DefaultMinFocus = 6

// minCardArea is the smallest share of the frame the detected card may
// cover.
const minCardArea = 0.2

// Config selects how frames are processed.
type Config struct {
	Orientation detect.Orientation
	Insets      detect.Insets
	Warper      warp.Warper
	MinFocus    float64
	// RetryFlipped rescans upside-down cards turned half a revolution.
	RetryFlipped bool
	// Combine merges digit classifier scores; nil keeps the scanner default.
	Combine scan.Combiner
}

// DefaultConfig returns the settings used for landscape-left capture.
func DefaultConfig() Config {
	return Config{
		Orientation:  detect.LandscapeLeft,
		Insets:       detect.DefaultInsets(),
		Warper:       warp.CPUWarper{},
		MinFocus:     DefaultMinFocus,
		RetryFlipped: true,
	}
}

// Step is the outcome of one frame.
type Step struct {
	Focus      float64
	Brightness float64
	Boxes      detect.Boxes
	Edges      detect.Edges
	// Card is the rectified luma plane, nil when the card was not found.
	Card     *cv.Image
	Result   scan.FrameResult
	Progress scan.ScanProgress
	// Analytics is set when the scanner recorded the frame.
	Analytics *scan.FrameAnalytics
}

// Pipeline scans one card from a sequence of frames. It is not safe for
// concurrent use.
type Pipeline struct {
	cfg     Config
	scanner *scan.Scanner
}

// New returns a pipeline scanning with models.
func New(models model.Set, cfg Config, opts ...scan.Option) *Pipeline {
	if cfg.Warper == nil {
		cfg.Warper = warp.CPUWarper{}
	}
	if cfg.Combine != nil {
		opts = append([]scan.Option{scan.WithCombiner(cfg.Combine)}, opts...)
	}
	return &Pipeline{cfg: cfg, scanner: scan.NewScanner(models, opts...)}
}

// Config returns the pipeline settings.
func (p *Pipeline) Config() Config { return p.cfg }

// Scanner returns the digit scanner.
func (p *Pipeline) Scanner() *scan.Scanner { return p.scanner }

// Reset starts a new card.
func (p *Pipeline) Reset() { p.scanner.Reset() }

// Process runs one frame through the pipeline.
func (p *Pipeline) Process(f *frames.Frame) (Step, error) {
	var st Step
	w, h := f.Size()
	st.Boxes = detect.DetectionBoxes(geometry.NewSize(w, h), p.cfg.Orientation, p.cfg.Insets)
	st.Focus = cv.FocusScore(f.Y, false)
	st.Brightness = cv.BrightnessScore(f.Y, false)
	if st.Focus < p.cfg.MinFocus {
		slog.Debug("frame out of focus", "path", f.Path, "focus", st.Focus)
		return st, nil
	}
	st.Progress = scan.ProgressFocus

	ws := p.scanner.Workspace()
	edges, found := detect.DetectEdges(f.Planes(), p.cfg.Orientation, p.cfg.Insets, ws.CV())
	st.Edges = edges
	if !found {
		slog.Debug("card edges not found", "path", f.Path, "edges", edges.Count())
		return st, nil
	}
	if !plausibleCard(edges.Corners, w, h) {
		slog.Debug("implausible card outline", "path", f.Path, "corners", edges.Corners)
		return st, nil
	}

	card, err := warp.TransformCard(f.Y, edges.Corners, p.cfg.Orientation, p.cfg.Warper)
	if err != nil {
		return st, err
	}
	st.Card = card

	meta := scan.FrameMeta{FocusScore: float32(st.Focus), BrightnessScore: float32(st.Brightness)}
	before := p.scanner.Analytics().NumFrames()
	st.Result = p.scanner.AddFrame(card, meta)

	if st.Result.UpsideDown && p.cfg.RetryFlipped {
		flipped, err := warp.TransformCard(f.Y, edges.Corners, p.cfg.Orientation.Opposite(), p.cfg.Warper)
		if err != nil {
			return st, fmt.Errorf("failed to flip card: %w", err)
		}
		st.Card = flipped
		meta.Flipped = true
		st.Result = p.scanner.AddFrame(flipped, meta)
	}
	st.Progress = max(st.Progress, st.Result.Progress)

	if a := p.scanner.Analytics(); a.NumFrames() > before {
		recorded := a.Frames()
		last := recorded[len(recorded)-1]
		st.Analytics = &last
	}
	return st, nil
}

// plausibleCard rejects corner sets that fold over or cover too little of
// the frame.
func plausibleCard(c geometry.Corners, w, h int) bool {
	return c.IsConvex() && c.Area() >= minCardArea*float64(w*h)
}

// Result returns the scanner's current reading.
func (p *Pipeline) Result() scan.Result { return p.scanner.Result() }
