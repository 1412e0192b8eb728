// Package canvas shows a scanned frame next to the rectified card.
package canvas

import (
	"image"

	"cardscan/internal/frames"
	"cardscan/internal/pipeline"
	"cardscan/internal/redact"
	"cardscan/pkg/colorutil"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

// Preview limits for the frame image.
const (
	maxFrameWidth  = 960
	maxFrameHeight = 720
)

// Render draws the frame with its search boxes and edges, and the rectified
// card with its digit cells. Digits past the last unblurred are redacted on
// the card image. card is nil when the step has no card.
func Render(f *frames.Frame, st pipeline.Step, unblurred int) (frame, card *image.RGBA, err error) {
	overlay, err := frames.Overlay(f, st.Boxes, st.Edges)
	if err != nil {
		return nil, nil, err
	}
	frame = frames.Preview(overlay, maxFrameWidth, maxFrameHeight)
	if st.Card == nil {
		return frame, nil, nil
	}

	c := st.Card.Clone()
	if st.Result.Usable {
		if err := redact.BlurImage(c, st.Result.VSeg, st.Result.HSeg, unblurred); err != nil {
			return nil, nil, err
		}
	}
	card, err = colorutil.MergeYCbCr(c, nil, nil)
	if err != nil {
		return nil, nil, err
	}
	if st.Result.Usable {
		frames.DrawSegmentation(card, st.Result.VSeg, st.Result.HSeg)
	}
	return frame, card, nil
}

// FrameView holds the frame and card images.
type FrameView struct {
	frame     *fynecanvas.Image
	card      *fynecanvas.Image
	container *fyne.Container
}

// NewFrameView creates an empty view.
func NewFrameView() *FrameView {
	v := &FrameView{
		frame: fynecanvas.NewImageFromImage(nil),
		card:  fynecanvas.NewImageFromImage(nil),
	}
	v.frame.FillMode = fynecanvas.ImageFillContain
	v.card.FillMode = fynecanvas.ImageFillContain
	v.frame.SetMinSize(fyne.NewSize(480, 360))
	v.card.SetMinSize(fyne.NewSize(428, 270))
	v.container = container.NewGridWithColumns(2, v.frame, v.card)
	return v
}

// Container returns the view's canvas object.
func (v *FrameView) Container() fyne.CanvasObject { return v.container }

// Show renders a step.
func (v *FrameView) Show(f *frames.Frame, st pipeline.Step, unblurred int) error {
	frame, card, err := Render(f, st, unblurred)
	if err != nil {
		return err
	}
	v.frame.Image = frame
	v.frame.Refresh()
	if card != nil {
		v.card.Image = card
	} else {
		v.card.Image = nil
	}
	v.card.Refresh()
	return nil
}

// Clear empties both images.
func (v *FrameView) Clear() {
	v.frame.Image = nil
	v.card.Image = nil
	v.frame.Refresh()
	v.card.Refresh()
}
