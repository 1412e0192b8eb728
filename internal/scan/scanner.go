// Package scan reads the card number from rectified card images: it finds
// the number strip, places the digits, classifies them, and accumulates the
// per-frame readings until a stable, valid number emerges.
package scan

import (
	"log/slog"

	"cardscan/internal/cv"
	"cardscan/internal/model"
)

const (
	// DefaultDecay weights the running digit scores against each new frame.
	DefaultDecay = 0.8
	// DefaultMinStability is the share of its row that every digit's best
	// score must hold.
	DefaultMinStability = 0.7
	// minFrameLead is how many more frames the winning digit count needs.
	minFrameLead = 3
)

// State is the scanner's progress towards a result.
type State int

const (
	// NoScore means no usable frame has been recorded.
	NoScore State = iota
	// Accumulating means frames have been recorded but the digit count or
	// the digit readings are not settled.
	Accumulating
	// Stable means the readings are settled but do not form a valid number.
	Stable
	// Confirmed means Result is complete.
	Confirmed
)

func (s State) String() string {
	switch s {
	case Accumulating:
		return "accumulating"
	case Stable:
		return "stable"
	case Confirmed:
		return "confirmed"
	default:
		return "no-score"
	}
}

// Result is the scanner's reading. Digits and CardType are meaningful only
// when Complete.
type Result struct {
	Complete    bool
	Digits      []uint8
	NNumbers    int
	ExpiryMonth int
	ExpiryYear  int
	CardType    CardType
}

// String formats the digits for display.
func (r Result) String() string { return FormatDigits(r.Digits) }

type bucket struct {
	count  int
	scores NumberScores
}

// Scanner accumulates frame readings for one card. It is not safe for
// concurrent use.
type Scanner struct {
	models       model.Set
	combine      Combiner
	decay        float32
	minStability float32
	ws           *Workspace

	amex bucket // fifteen digits
	visa bucket // sixteen digits

	analytics  Analytics
	lastUsable *FrameResult
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithDecay sets the weight kept by the running scores on each frame.
func WithDecay(d float32) Option {
	return func(s *Scanner) { s.decay = d }
}

// WithMinStability sets the per-digit stability threshold.
func WithMinStability(m float32) Option {
	return func(s *Scanner) { s.minStability = m }
}

// WithWorkspace shares a workspace, for example with edge detection.
func WithWorkspace(ws *Workspace) Option {
	return func(s *Scanner) { s.ws = ws }
}

// WithCombiner selects how digit classifiers are merged.
func WithCombiner(c Combiner) Option {
	return func(s *Scanner) { s.combine = c }
}

// NewScanner returns a scanner using models.
func NewScanner(models model.Set, opts ...Option) *Scanner {
	s := &Scanner{
		models:       models,
		combine:      CombineVotes,
		decay:        DefaultDecay,
		minStability: DefaultMinStability,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ws == nil {
		s.ws = NewWorkspace()
	}
	return s
}

// Workspace returns the scanner's workspace.
func (s *Scanner) Workspace() *Workspace { return s.ws }

// Reset discards all accumulated readings and analytics.
func (s *Scanner) Reset() {
	s.amex = bucket{}
	s.visa = bucket{}
	s.analytics.Reset()
	s.lastUsable = nil
}

// AddFrame scans a rectified card and records the result.
func (s *Scanner) AddFrame(card *cv.Image, meta FrameMeta) FrameResult {
	r := ScanFrame(card, meta, s.models, s.combine, s.ws)
	s.RecordFrame(r)
	return r
}

// RecordFrame folds a frame result into the running scores. Upside-down
// frames are ignored entirely; other frames are recorded in the analytics
// and, when usable, added to the bucket for their digit count.
func (s *Scanner) RecordFrame(r FrameResult) {
	if r.UpsideDown {
		return
	}
	s.analytics.Record(r)
	if !r.Usable {
		return
	}

	var b *bucket
	switch r.HSeg.NOffsets {
	case 15:
		b = &s.amex
	case 16:
		b = &s.visa
	default:
		slog.Debug("ignoring frame with unexpected digit count", "digits", r.HSeg.NOffsets)
		return
	}
	b.scores.Scale(s.decay)
	b.scores.AddScaled(&r.Scores, 1-s.decay)
	b.count++

	last := r
	s.lastUsable = &last
}

// MostRecentUsable returns the segmentation of the last usable frame.
func (s *Scanner) MostRecentUsable() (VSeg, HSeg, bool) {
	if s.lastUsable == nil {
		return VSeg{}, HSeg{}, false
	}
	return s.lastUsable.VSeg, s.lastUsable.HSeg, true
}

// Analytics returns the session's frame analytics.
func (s *Scanner) Analytics() *Analytics { return &s.analytics }

// Counts returns the number of usable fifteen- and sixteen-digit frames.
func (s *Scanner) Counts() (fifteen, sixteen int) {
	return s.amex.count, s.visa.count
}

// Result evaluates the accumulated readings. The number is complete when one
// digit count leads by at least three frames and has at least twice the
// other's frames, every digit holds at least the minimum stability, and the
// digits form a known card type that passes the Luhn check.
func (s *Scanner) Result() Result {
	r, _ := s.evaluate()
	return r
}

// State reports how far the scanner is from a result.
func (s *Scanner) State() State {
	_, st := s.evaluate()
	return st
}

func (s *Scanner) evaluate() (Result, State) {
	var r Result
	hi, lo := max(s.amex.count, s.visa.count), min(s.amex.count, s.visa.count)
	if hi == 0 {
		return r, NoScore
	}
	if hi-lo < minFrameLead || lo*2 > hi {
		return r, Accumulating
	}

	scores := &s.visa.scores
	r.NNumbers = 16
	if s.amex.count > s.visa.count {
		scores = &s.amex.scores
		r.NNumbers = 15
	}

	digits := make([]uint8, r.NNumbers)
	for i := range digits {
		d, peak, sum := scores.RowArgMax(i)
		digits[i] = uint8(d)
		if sum == 0 || peak/sum < s.minStability {
			return r, Accumulating
		}
	}
	r.Digits = digits

	r.CardType = CardInfoForPrefixAndLength(digits, len(digits), false).Type
	if r.CardType == Unrecognized || r.CardType == Ambiguous || !PassesLuhn(digits) {
		return r, Stable
	}
	r.Complete = true
	return r, Confirmed
}
