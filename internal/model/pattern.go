package model

// Pattern identifies a card-number grouping.
type Pattern uint8

const (
	PatternUnknown Pattern = iota
	// PatternVisa is sixteen digits in four groups of four.
	PatternVisa
	// PatternAmex is fifteen digits grouped 4-6-5.
	PatternAmex
)

func (p Pattern) String() string {
	switch p {
	case PatternVisa:
		return "visa"
	case PatternAmex:
		return "amex"
	default:
		return "unknown"
	}
}

var slotLayouts = [3][]bool{
	PatternUnknown: nil,
	PatternVisa:    slots("1111011110111101111"),
	PatternAmex:    slots("11110111111011111"),
}

func slots(s string) []bool {
	out := make([]bool, len(s))
	for i := range s {
		out[i] = s[i] == '1'
	}
	return out
}

// Slots returns the slot layout of the pattern: one entry per digit-wide
// slot, true where a digit sits and false for a group gap. The returned slice
// must not be modified.
func (p Pattern) Slots() []bool {
	if int(p) >= len(slotLayouts) {
		return nil
	}
	return slotLayouts[p]
}

// Digits returns the number of digits in the pattern.
func (p Pattern) Digits() int {
	n := 0
	for _, s := range p.Slots() {
		if s {
			n++
		}
	}
	return n
}
