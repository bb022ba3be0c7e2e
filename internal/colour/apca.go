package colour

import "math"

// APCA 0.0.98G constants.
const (
	apcaNormBG  = 0.56
	apcaNormTXT = 0.57
	apcaRevTXT  = 0.62
	apcaRevBG   = 0.65

	apcaBlkThrs   = 0.022
	apcaBlkClmp   = 1.414
	apcaLoClip    = 0.1
	apcaDeltaYMin = 0.0005

	apcaScale  = 1.14
	apcaOffset = 0.027

	// The raw output spans [-108, 106] for the sRGB gamut.
	apcaMaxNegative = 1.08
	apcaMaxPositive = 1.06
)

// APCA returns the perceptual contrast of foreground text drawn on the
// background, rescaled so the sRGB gamut maps onto [0, 100]. Dark-on-light and
// light-on-dark use different exponents, so swapping the arguments changes the
// result slightly.
func APCA(background, foreground RGB) float64 {
	ybg := apcaClampBlack(screenLuminance(background))
	ytxt := apcaClampBlack(screenLuminance(foreground))

	// Noise gate.
	if math.Abs(ybg-ytxt) < apcaDeltaYMin {
		return 0
	}

	var c float64
	if ybg > ytxt {
		// Dark text on a light background.
		c = (math.Pow(ybg, apcaNormBG) - math.Pow(ytxt, apcaNormTXT)) * apcaScale
	} else {
		// Light text on a dark background.
		c = (math.Pow(ybg, apcaRevBG) - math.Pow(ytxt, apcaRevTXT)) * apcaScale
	}

	switch {
	case math.Abs(c) < apcaLoClip:
		return 0
	case c > 0:
		return math.Min(100, (c-apcaOffset)*100/apcaMaxPositive)
	default:
		return math.Min(100, -(c+apcaOffset)*100/apcaMaxNegative)
	}
}

// screenLuminance uses the simple 2.4 gamma APCA expects, not the piecewise
// sRGB transfer function.
func screenLuminance(c RGB) float64 {
	r, g, b := c.unit()
	return math.Pow(r, 2.4)*0.2126729 + math.Pow(g, 2.4)*0.7151522 + math.Pow(b, 2.4)*0.0721750
}

// apcaClampBlack soft-clamps very dark values to account for flare.
func apcaClampBlack(y float64) float64 {
	if y >= apcaBlkThrs {
		return y
	}
	return y + math.Pow(apcaBlkThrs-y, apcaBlkClmp)
}
