package scan

import (
	"fmt"
	"strings"
)

// CardType is the issuing network inferred from a number's prefix and
// length.
type CardType uint8

const (
	Unrecognized CardType = iota
	Ambiguous
	Amex
	JCB
	Visa
	Mastercard
	Discover
	Maestro
)

func (t CardType) String() string {
	switch t {
	case Ambiguous:
		return "ambiguous"
	case Amex:
		return "amex"
	case JCB:
		return "jcb"
	case Visa:
		return "visa"
	case Mastercard:
		return "mastercard"
	case Discover:
		return "discover"
	case Maestro:
		return "maestro"
	default:
		return "unrecognized"
	}
}

// CardInfo is one prefix rule: numbers of Length digits whose first
// PrefixLength digits lie in [MinPrefix, MaxPrefix] belong to Type.
type CardInfo struct {
	Type         CardType
	Length       int
	PrefixLength int
	MinPrefix    int
	MaxPrefix    int
}

// Maestro UK issuing rules conflict between sources; these ranges are
// deliberately loose.
var cardRules = []CardInfo{
	{Mastercard, 16, 4, 2221, 2720},
	{Discover, 14, 3, 300, 305}, // Diners Club
	{Discover, 14, 3, 309, 309}, // Diners Club
	{Amex, 15, 2, 34, 34},
	{JCB, 16, 4, 3528, 3589},
	{Discover, 14, 2, 36, 36}, // Diners Club
	{Discover, 14, 2, 38, 39}, // Diners Club
	{Amex, 15, 2, 37, 37},
	{Visa, 16, 1, 4, 4},
	{Maestro, 16, 2, 50, 50},
	{Mastercard, 16, 2, 51, 55},
	{Maestro, 16, 2, 56, 59},
	{Discover, 16, 4, 6011, 6011},
	{Maestro, 16, 2, 61, 61},
	{Discover, 16, 2, 62, 62}, // China UnionPay
	{Maestro, 16, 2, 63, 63},
	{Discover, 16, 3, 644, 649},
	{Discover, 16, 2, 65, 65},
	{Maestro, 16, 2, 66, 69},
	{Discover, 16, 2, 88, 88}, // China UnionPay
}

var (
	unrecognizedInfo = CardInfo{Type: Unrecognized, Length: -1, PrefixLength: 1, MinPrefix: 9, MaxPrefix: 9}
	ambiguousInfo    = CardInfo{Type: Ambiguous, Length: -1, PrefixLength: 1, MinPrefix: 9, MaxPrefix: 9}
)

// CardInfoForPrefixAndLength looks up the rule for the first length digits.
// With allowIncomplete the digits may be the start of a longer number, and
// rules are compared against as much of their prefix as is available. More
// than one matching rule yields Ambiguous; none yields Unrecognized.
func CardInfoForPrefixAndLength(digits []uint8, length int, allowIncomplete bool) CardInfo {
	length = min(length, len(digits))
	if length <= 0 {
		return unrecognizedInfo
	}

	matched := unrecognizedInfo
	matches := 0
	for _, rule := range cardRules {
		if allowIncomplete {
			if length > rule.Length {
				continue
			}
		} else if length != rule.Length {
			continue
		}

		prefixLength := rule.PrefixLength
		factor := 1
		for prefixLength > length {
			factor *= 10
			prefixLength--
		}
		prefix := 0
		for _, d := range digits[:prefixLength] {
			prefix = prefix*10 + int(d)
		}
		if prefix >= rule.MinPrefix/factor && prefix <= rule.MaxPrefix/factor {
			matches++
			matched = rule
		}
	}

	switch matches {
	case 0:
		return unrecognizedInfo
	case 1:
		return matched
	default:
		return ambiguousInfo
	}
}

// PassesLuhn reports whether the digits satisfy the mod-10 checksum.
func PassesLuhn(digits []uint8) bool {
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i])
		if (len(digits)-1-i)%2 == 1 {
			d *= 2
		}
		sum += d%10 + d/10
	}
	return sum%10 == 0
}

// ParseDigits converts a card number to digits, ignoring spaces and dashes.
func ParseDigits(s string) ([]uint8, error) {
	out := make([]uint8, 0, len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			out = append(out, uint8(r-'0'))
		case r == ' ' || r == '-':
		default:
			return nil, fmt.Errorf("invalid character %q in card number", r)
		}
	}
	return out, nil
}

// FormatDigits renders digits grouped the way the pattern prints them:
// 4-6-5 for fifteen digits, otherwise groups of four.
func FormatDigits(digits []uint8) string {
	groups := []int{4, 4, 4, 4}
	if len(digits) == 15 {
		groups = []int{4, 6, 5}
	}
	var b strings.Builder
	i := 0
	for _, g := range groups {
		if i >= len(digits) {
			break
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		for j := 0; j < g && i < len(digits); j++ {
			b.WriteByte('0' + digits[i])
			i++
		}
	}
	for ; i < len(digits); i++ {
		b.WriteByte('0' + digits[i])
	}
	return b.String()
}
