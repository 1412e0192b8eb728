package app

import (
	"image/color"

	"cardscan/internal/scan"
	"cardscan/pkg/colorutil"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// CardscanTheme is a dark theme whose accents are the debug overlay colours,
// so the panels read the same way as the frames: cyan search boxes, green
// digit cells, yellow edge lines.
type CardscanTheme struct{}

var _ fyne.Theme = (*CardscanTheme)(nil)

func (t *CardscanTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return colorutil.Cyan
	case theme.ColorNameSuccess:
		return colorutil.Green
	case theme.ColorNameWarning:
		return colorutil.Yellow
	case theme.ColorNameSelection:
		return color.NRGBA{R: colorutil.Yellow.R, G: colorutil.Yellow.G, B: colorutil.Yellow.B, A: 0x60}
	default:
		// Frames are judged against a dark surround.
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *CardscanTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *CardscanTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *CardscanTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 13
	case theme.SizeNameHeadingText:
		return 22
	default:
		return theme.DefaultTheme().Size(name)
	}
}

// StateImportance colours a scanner state: confirmed in success green, a
// settled but invalid reading as a warning, accumulation in the primary
// colour.
func StateImportance(s scan.State) widget.Importance {
	switch s {
	case scan.Confirmed:
		return widget.SuccessImportance
	case scan.Stable:
		return widget.WarningImportance
	case scan.Accumulating:
		return widget.HighImportance
	}
	return widget.LowImportance
}
