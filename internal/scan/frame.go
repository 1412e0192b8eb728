package scan

import (
	"log/slog"

	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/model"
	"cardscan/pkg/geometry"
)

// ScanProgress records how far through the pipeline a frame got.
type ScanProgress int

const (
	ProgressNone ScanProgress = iota
	ProgressFocus
	ProgressEdges
	ProgressVSeg
	ProgressHSeg
	ProgressScore
	ProgressStability
)

func (p ScanProgress) String() string {
	switch p {
	case ProgressFocus:
		return "focus"
	case ProgressEdges:
		return "edges"
	case ProgressVSeg:
		return "vseg"
	case ProgressHSeg:
		return "hseg"
	case ProgressScore:
		return "score"
	case ProgressStability:
		return "stability"
	default:
		return "none"
	}
}

const (
	// MinVSegScore is the summed strip score a frame needs to be read.
	MinVSegScore = 15
	// MaxNumberScoreDelta bounds how far the digit scores may fall short of
	// one per digit.
	MaxNumberScoreDelta = 3
	// flipCutoff is the highest strip offset taken as an upside-down card.
	flipCutoff = (detect.CardHeight - model.DigitHeight) / 2
)

// FrameMeta carries the capture-side measurements of a frame.
type FrameMeta struct {
	FocusScore      float32
	BrightnessScore float32
	Flipped         bool
}

// FrameResult summarizes one rectified frame. Only Usable frames contribute
// to the scan.
type FrameResult struct {
	FrameMeta
	VSeg       VSeg
	HSeg       HSeg
	Scores     NumberScores
	Usable     bool
	UpsideDown bool
	Progress   ScanProgress
}

// ScanFrame runs segmentation and digit categorization on a rectified
// CardWidth x CardHeight luma image with no region of interest.
func ScanFrame(card *cv.Image, meta FrameMeta, models model.Set, combine Combiner, ws *Workspace) FrameResult {
	mustCard(card)
	ws = orNew(ws)

	r := FrameResult{FrameMeta: meta, Progress: ProgressEdges}
	r.VSeg = BestVSeg(card, models.Strip, ws)
	if r.VSeg.YOffset < flipCutoff {
		r.UpsideDown = true
		return r
	}

	if r.VSeg.Score <= MinVSegScore {
		slog.Debug("vseg unusable", "score", r.VSeg.Score, "y", r.VSeg.YOffset)
		return r
	}
	r.Progress = ProgressVSeg

	card.SetROI(geometry.NewRectInt(0, r.VSeg.YOffset, detect.CardWidth, model.DigitHeight))
	r.HSeg = BestHSeg(card, r.VSeg, ws)
	card.ResetROI()

	r.Scores = Categorize(card, r.VSeg, r.HSeg, models.Digits, combine, ws)
	numberScore := float32(r.HSeg.NOffsets) - r.Scores.Sum()
	if numberScore >= MaxNumberScoreDelta {
		slog.Debug("number score unusable", "score", numberScore, "digits", r.HSeg.NOffsets)
		return r
	}
	r.Usable = true
	r.Progress = ProgressHSeg
	return r
}
