package scan

import (
	"cardscan/internal/cv"
	"cardscan/internal/detect"
	"cardscan/internal/model"
)

// Workspace holds the scratch buffers of one scanning session: the filter
// workspace, feature extraction images, per-row strip scores and the number
// strip gradient. It must not be shared between goroutines.
type Workspace struct {
	cv       *cv.Workspace
	features *model.Features

	visa [detect.CardHeight]float32
	amex [detect.CardHeight]float32

	grad    *cv.Image
	profile []float64
	pattern []float64
	results [][10]float32
}

// NewWorkspace allocates a workspace.
func NewWorkspace() *Workspace {
	return &Workspace{
		cv:       cv.NewWorkspace(),
		features: model.NewFeatures(),
		grad:     cv.NewImage(detect.CardWidth, model.DigitHeight, cv.DepthU8, 1),
		profile:  make([]float64, detect.CardWidth),
		pattern:  make([]float64, detect.CardWidth),
	}
}

// CV returns the filter workspace, for callers running detection in the
// same session.
func (ws *Workspace) CV() *cv.Workspace { return ws.cv }

func orNew(ws *Workspace) *Workspace {
	if ws == nil {
		return NewWorkspace()
	}
	return ws
}
