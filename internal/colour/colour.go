// Package colour provides the perceptual colour spaces used by palette
// extraction: packed colour values, conversions, distance, lightness, chroma
// and APCA contrast.
package colour

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a packed three channel value. Bits 16-23 hold channel 0, bits 8-15
// channel 1 and bits 0-7 channel 2. What the channels mean depends on the Space
// that produced the value, so colours from different spaces must never be
// compared directly.
type Color uint32

// Pack builds a Color from its three channels.
func Pack(c0, c1, c2 uint8) Color {
	return Color(uint32(c0)<<16 | uint32(c1)<<8 | uint32(c2))
}

// Channels unpacks the three channels of a Color.
func (c Color) Channels() (c0, c1, c2 uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// RGB represents a colour in 8-bit sRGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// Packed returns the colour packed as 0xRRGGBB.
func (rgb RGB) Packed() Color {
	return Pack(rgb.R, rgb.G, rgb.B)
}

// RGBFromPacked unpacks a 0xRRGGBB value.
func RGBFromPacked(c Color) RGB {
	r, g, b := c.Channels()
	return RGB{R: r, G: g, B: b}
}

// ParseHex parses "#rrggbb" or "rrggbb" (and the three digit short forms).
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return RGBFromPacked(Color(v)), nil
}

// unit returns the channels scaled to [0, 1].
func (rgb RGB) unit() (r, g, b float64) {
	return float64(rgb.R) / 255.0, float64(rgb.G) / 255.0, float64(rgb.B) / 255.0
}

// Hue is an optional hue angle in degrees. Achromatic colours have no hue.
type Hue struct {
	degrees   float64
	chromatic bool
}

// Achromatic is the hue of a colour with no measurable chroma.
var Achromatic = Hue{}

// HueDegrees returns a chromatic hue normalised to [0, 360).
func HueDegrees(deg float64) Hue {
	for deg < 0 {
		deg += 360
	}
	for deg >= 360 {
		deg -= 360
	}
	return Hue{degrees: deg, chromatic: true}
}

// Get returns the angle and whether the colour is chromatic.
func (h Hue) Get() (float64, bool) {
	return h.degrees, h.chromatic
}

// Degrees returns the angle, treating achromatic colours as hue 0.
func (h Hue) Degrees() float64 {
	if !h.chromatic {
		return 0
	}
	return h.degrees
}

// IsAchromatic reports whether the hue is undefined.
func (h Hue) IsAchromatic() bool {
	return !h.chromatic
}

func (h Hue) String() string {
	if !h.chromatic {
		return "achromatic"
	}
	return strconv.FormatFloat(h.degrees, 'f', 1, 64)
}
