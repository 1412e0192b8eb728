package scan

import (
	"strconv"
)

// AnalyticsFrames is the number of recent frames the analytics ring keeps.
const AnalyticsFrames = 20

// FrameAnalytics is the recorded summary of one scanned frame.
type FrameAnalytics struct {
	Index  uint32            `cbor:"i"`
	Values map[string]string `cbor:"v"`
}

// Analytics keeps summaries of the most recent frames of a session.
type Analytics struct {
	numFrames uint32
	ring      [AnalyticsFrames]FrameAnalytics
}

// Reset forgets every recorded frame.
func (a *Analytics) Reset() {
	*a = Analytics{}
}

// NumFrames returns the number of frames recorded since the last reset.
func (a *Analytics) NumFrames() uint32 { return a.numFrames }

// Record stores the summary of r, evicting the oldest frame once the ring is
// full.
func (a *Analytics) Record(r FrameResult) FrameAnalytics {
	f := FrameAnalytics{Index: a.numFrames, Values: frameValues(r)}
	a.ring[a.numFrames%AnalyticsFrames] = f
	a.numFrames++
	return f
}

// Frames returns the retained frames, oldest first.
func (a *Analytics) Frames() []FrameAnalytics {
	n := min(a.numFrames, AnalyticsFrames)
	out := make([]FrameAnalytics, 0, n)
	for i := a.numFrames - n; i < a.numFrames; i++ {
		out = append(out, a.ring[i%AnalyticsFrames])
	}
	return out
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 2, 32)
}

func frameValues(r FrameResult) map[string]string {
	return map[string]string{
		"focus":       formatFloat(r.FocusScore),
		"brightness":  formatFloat(r.BrightnessScore),
		"flipped":     strconv.FormatBool(r.Flipped),
		"vseg_score":  formatFloat(r.VSeg.Score),
		"vseg_offset": strconv.Itoa(r.VSeg.YOffset),
		"pattern":     r.VSeg.Pattern.String(),
		"hseg_score":  formatFloat(r.HSeg.Score),
		"hseg_width":  formatFloat(r.HSeg.NumberWidth),
		"upside_down": strconv.FormatBool(r.UpsideDown),
		"usable":      strconv.FormatBool(r.Usable),
		"progress":    r.Progress.String(),
	}
}
