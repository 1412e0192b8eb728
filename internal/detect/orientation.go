// Package detect finds the four edges of a card in a camera frame.
package detect

// Orientation is the device orientation a frame was captured in. The values
// match the platform's interface orientation constants.
type Orientation uint8

const (
	Portrait           Orientation = 1
	PortraitUpsideDown Orientation = 2
	LandscapeRight     Orientation = 3
	LandscapeLeft      Orientation = 4
)

func (o Orientation) String() string {
	switch o {
	case Portrait:
		return "portrait"
	case PortraitUpsideDown:
		return "portrait-upside-down"
	case LandscapeRight:
		return "landscape-right"
	case LandscapeLeft:
		return "landscape-left"
	default:
		return "unknown"
	}
}

// ParseOrientation accepts the names produced by String.
func ParseOrientation(s string) (Orientation, bool) {
	for _, o := range []Orientation{Portrait, PortraitUpsideDown, LandscapeRight, LandscapeLeft} {
		if o.String() == s {
			return o, true
		}
	}
	return 0, false
}

// Opposite returns the orientation rotated by 180 degrees. Unknown values
// map to Portrait.
func (o Orientation) Opposite() Orientation {
	switch o {
	case Portrait:
		return PortraitUpsideDown
	case PortraitUpsideDown:
		return Portrait
	case LandscapeRight:
		return LandscapeLeft
	case LandscapeLeft:
		return LandscapeRight
	default:
		return Portrait
	}
}

func (o Orientation) IsPortrait() bool {
	return o == Portrait || o == PortraitUpsideDown
}

func (o Orientation) valid() bool {
	return o >= Portrait && o <= LandscapeLeft
}
