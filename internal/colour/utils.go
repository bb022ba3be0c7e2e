package colour

import (
	"math"
)

// rgbToHSL converts RGB to HSL colour space.
// Returns hue (0-360), saturation (0-1), lightness (0-1) and the HSL chroma
// (max - min, 0-1). Hue is meaningless when chroma is 0.
func rgbToHSL(rgb RGB) (h, s, l, c float64) {
	r, g, b := rgb.unit()

	maxVal := math.Max(r, math.Max(g, b))
	minVal := math.Min(r, math.Min(g, b))
	c = maxVal - minVal

	// Lightness.
	l = (maxVal + minVal) / 2.0

	// Saturation.
	if c == 0 {
		return 0, 0, l, 0
	}

	if l < 0.5 {
		s = c / (maxVal + minVal)
	} else {
		s = c / (2.0 - maxVal - minVal)
	}

	// Hue.
	switch maxVal {
	case r:
		h = (g - b) / c
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/c + 2
	case b:
		h = (r-g)/c + 4
	}

	h *= 60
	return h, s, l, c
}

// hypotHue returns the hue of an opponent-axis pair, or Achromatic when both
// axes are below threshold.
func hypotHue(a, b, threshold float64) Hue {
	if math.Abs(a) < threshold && math.Abs(b) < threshold {
		return Achromatic
	}
	return HueDegrees(math.Atan2(b, a) * 180 / math.Pi)
}

func sq(v float64) float64 {
	return v * v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
