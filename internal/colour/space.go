package colour

import (
	"fmt"
	"strings"
)

// Kind identifies one of the built-in colour spaces. It is the tag used when a
// space has to cross a process boundary.
type Kind uint8

const (
	// KindRGB works directly on 8-bit sRGB values.
	KindRGB Kind = iota
	// KindOKLab works in Björn Ottosson's OKLab space.
	KindOKLab
	// KindLab works in CIELAB with a D50 reference white.
	KindLab
)

// String returns the serialisation tag of the space.
func (k Kind) String() string {
	switch k {
	case KindRGB:
		return "rgb"
	case KindOKLab:
		return "oklab"
	case KindLab:
		return "lab"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Space returns the implementation for the kind.
// Panics on an unknown kind, which can only come from a programming error.
func (k Kind) Space() Space {
	if int(k) >= len(spaces) {
		panic(fmt.Sprintf("colour: unknown space kind %d", k))
	}
	return spaces[k]
}

// Valid reports whether k names a built-in space.
func (k Kind) Valid() bool {
	return int(k) < len(spaces)
}

// Space is a colour space able to encode sRGB into packed values and measure
// perceptual differences between them. The set of spaces is closed: only the
// implementations in this package satisfy it.
type Space interface {
	// Kind returns the tag of the space.
	Kind() Kind
	// ToNative converts the 8-bit RGB triple at pix[offset:offset+3].
	ToNative(pix []byte, offset int) Color
	// FromRGB converts an sRGB colour.
	FromRGB(c RGB) Color
	// ToRGB is the inverse of FromRGB, clamped to the sRGB gamut.
	ToRGB(c Color) RGB
	// Distance returns the perceptual difference between two colours.
	Distance(a, b Color) float64
	// Epsilon is the distance under which two colours look the same.
	Epsilon() float64
	// Lightness returns a value in [0, 100].
	Lightness(c Color) float64
	// Chroma returns a value in [0, 100].
	Chroma(c Color) float64
	// Hue returns the hue angle, or Achromatic.
	Hue(c Color) Hue
	// Contrast returns the unsigned APCA contrast in [0, 100] of the
	// foreground drawn over the background.
	Contrast(background, foreground Color) float64
	// IncreaseContrast moves c towards another colour until its contrast
	// against a fixed colour reaches desired, or towards is reached.
	IncreaseContrast(c, against, towards Color, desired float64, asForeground bool) Color

	// coords decodes a colour to continuous axes, encode does the reverse.
	coords(c Color) [3]float64
	encode(v [3]float64) Color
}

var spaces = [...]Space{
	KindRGB:   rgbSpace{},
	KindOKLab: okLabSpace{},
	KindLab:   labSpace{},
}

// RGBSpace returns the sRGB space.
func RGBSpace() Space { return spaces[KindRGB] }

// OKLab returns the OKLab space.
func OKLab() Space { return spaces[KindOKLab] }

// Lab returns the CIELAB (D50) space.
func Lab() Space { return spaces[KindLab] }

// Kinds returns every built-in space kind.
func Kinds() []Kind {
	return []Kind{KindRGB, KindOKLab, KindLab}
}

// ParseKind parses a space tag such as "oklab".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rgb", "srgb":
		return KindRGB, nil
	case "oklab":
		return KindOKLab, nil
	case "lab", "cielab":
		return KindLab, nil
	default:
		return 0, fmt.Errorf("unknown colour space %q (valid: rgb, oklab, lab)", s)
	}
}

// Parse returns the space named by s.
func Parse(s string) (Space, error) {
	k, err := ParseKind(s)
	if err != nil {
		return nil, err
	}
	return k.Space(), nil
}

// Black returns pure black encoded in the space.
func Black(s Space) Color {
	return s.FromRGB(RGB{})
}

// White returns pure white encoded in the space.
func White(s Space) Color {
	return s.FromRGB(RGB{R: 255, G: 255, B: 255})
}

func clampByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
