package ocr

import (
	"strings"

	"cardscan/internal/scan"
	"cardscan/pkg/geometry"
)

// Layout locates the four digit groups of one card design on the rectified
// card. Rotated layouts are read on the card turned a quarter clockwise.
type Layout struct {
	Name    string
	Rotated bool
	Groups  [4]geometry.RectInt
}

func groups(x0, y0, x1, y1, x2, y2, x3, y3, w, h int) [4]geometry.RectInt {
	return [4]geometry.RectInt{
		geometry.NewRectInt(x0, y0, w, h),
		geometry.NewRectInt(x1, y1, w, h),
		geometry.NewRectInt(x2, y2, w, h),
		geometry.NewRectInt(x3, y3, w, h),
	}
}

// Layouts are tried in order.
var Layouts = []Layout{
	{Name: "portrait-wide", Rotated: true, Groups: groups(45, 155, 115, 155, 195, 155, 275, 155, 75, 25)},
	{Name: "bottom-small", Groups: groups(15, 256, 60, 256, 105, 256, 150, 256, 45, 20)},
	{Name: "stacked", Groups: groups(20, 78, 20, 116, 20, 153, 20, 192, 70, 23)},
	{Name: "split-rows", Groups: groups(18, 108, 74, 108, 134, 174, 194, 174, 56, 20)},
	{Name: "flat-print", Groups: groups(16, 197, 70, 197, 122, 197, 175, 197, 50, 20)},
	{Name: "wide-groups", Groups: groups(12, 174, 75, 174, 145, 174, 210, 174, 65, 24)},
	{Name: "laser-row", Groups: groups(16, 200, 62, 200, 112, 200, 160, 200, 50, 20)},
}

// acceptNumber strips whitespace from text and reports whether the rest is a
// number of the given length passing the Luhn check.
func acceptNumber(text string, digits int) (string, bool) {
	number := strings.Join(strings.Fields(text), "")
	if len(number) != digits {
		return "", false
	}
	d, err := scan.ParseDigits(number)
	if err != nil || len(d) != digits || !scan.PassesLuhn(d) {
		return "", false
	}
	return number, true
}

// mostlyLight reports whether more than half of the pixels are set.
func mostlyLight(set, total int) bool {
	return total > 0 && set*2 > total
}
