// Package panels provides UI panels for the viewer.
package panels

import (
	"fmt"
	"sort"
	"strings"

	"cardscan/internal/app"
	"cardscan/internal/pipeline"
	"cardscan/internal/scan"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// Summary is the text shown for one step.
type Summary struct {
	Progress string
	Focus    string
	Edges    string
	Strip    string
	Digits   string
	State    string
	Number   string
}

// Summarize describes a step and the scanner's reading after it.
func Summarize(st pipeline.Step, r scan.Result, s scan.State) Summary {
	sum := Summary{
		Progress: st.Progress.String(),
		Focus:    fmt.Sprintf("%.1f (brightness %.0f)", st.Focus, st.Brightness),
		Edges:    fmt.Sprintf("%d of 4", st.Edges.Count()),
		Strip:    "-",
		Digits:   "-",
		State:    s.String(),
		Number:   "-",
	}
	if st.Card != nil {
		v := st.Result.VSeg
		sum.Strip = fmt.Sprintf("%s at row %d, score %.1f", v.Pattern, v.YOffset, v.Score)
		if st.Result.UpsideDown {
			sum.Strip += ", upside down"
		}
		if st.Result.Flipped {
			sum.Strip += ", turned"
		}
	}
	if st.Result.Usable {
		sum.Digits = fmt.Sprintf("%d cells, %.2f confident", st.Result.HSeg.NOffsets, st.Result.Scores.Sum())
	}
	if r.Complete {
		sum.Number = fmt.Sprintf("%s %s", r.CardType, r)
	}
	return sum
}

// FormatAnalytics renders one analytics record as sorted key=value pairs.
func FormatAnalytics(f scan.FrameAnalytics) string {
	keys := make([]string, 0, len(f.Values))
	for k := range f.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+f.Values[k])
	}
	return fmt.Sprintf("#%d %s", f.Index, strings.Join(parts, " "))
}

// ScanPanel shows the latest step and the analytics history.
type ScanPanel struct {
	state     *app.State
	container *container.AppTabs

	progress *widget.Label
	focus    *widget.Label
	edges    *widget.Label
	strip    *widget.Label
	digits   *widget.Label
	scanner  *widget.Label
	number   *widget.Label

	history []string
	list    *widget.List
}

// NewScanPanel creates the panel.
func NewScanPanel(state *app.State) *ScanPanel {
	p := &ScanPanel{
		state:    state,
		progress: widget.NewLabel("-"),
		focus:    widget.NewLabel("-"),
		edges:    widget.NewLabel("-"),
		strip:    widget.NewLabel("-"),
		digits:   widget.NewLabel("-"),
		scanner:  widget.NewLabel("-"),
		number:   widget.NewLabelWithStyle("-", fyne.TextAlignLeading, fyne.TextStyle{Monospace: true, Bold: true}),
	}
	p.strip.Wrapping = fyne.TextWrapWord

	form := widget.NewForm(
		widget.NewFormItem("Progress", p.progress),
		widget.NewFormItem("Focus", p.focus),
		widget.NewFormItem("Edges", p.edges),
		widget.NewFormItem("Strip", p.strip),
		widget.NewFormItem("Digits", p.digits),
		widget.NewFormItem("Scanner", p.scanner),
		widget.NewFormItem("Number", p.number),
	)

	p.list = widget.NewList(
		func() int { return len(p.history) },
		func() fyne.CanvasObject {
			l := widget.NewLabel("")
			l.TextStyle = fyne.TextStyle{Monospace: true}
			return l
		},
		func(id widget.ListItemID, o fyne.CanvasObject) {
			if id < len(p.history) {
				o.(*widget.Label).SetText(p.history[id])
			}
		},
	)

	p.container = container.NewAppTabs(
		container.NewTabItem("Frame", container.NewVScroll(form)),
		container.NewTabItem("History", p.list),
	)
	return p
}

// Container returns the panel container.
func (p *ScanPanel) Container() fyne.CanvasObject {
	return p.container
}

// Update shows a step.
func (p *ScanPanel) Update(st pipeline.Step) {
	sum := Summarize(st, p.state.Result(), p.state.ScannerState())
	p.progress.SetText(sum.Progress)
	p.focus.SetText(sum.Focus)
	p.edges.SetText(sum.Edges)
	p.strip.SetText(sum.Strip)
	p.digits.SetText(sum.Digits)
	p.scanner.SetText(sum.State)
	p.number.SetText(sum.Number)
	imp := app.StateImportance(p.state.ScannerState())
	p.scanner.Importance = imp
	p.number.Importance = imp
	p.scanner.Refresh()
	p.number.Refresh()

	frames := p.state.Analytics()
	p.history = p.history[:0]
	for i := len(frames) - 1; i >= 0; i-- {
		p.history = append(p.history, FormatAnalytics(frames[i]))
	}
	p.list.Refresh()
}

// Clear resets every field.
func (p *ScanPanel) Clear() {
	for _, l := range []*widget.Label{p.progress, p.focus, p.edges, p.strip, p.digits, p.scanner, p.number} {
		l.Importance = widget.MediumImportance
		l.SetText("-")
	}
	p.history = nil
	p.list.Refresh()
}
