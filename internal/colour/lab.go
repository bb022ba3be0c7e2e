package colour

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// labMaxChroma is the largest CIELAB(D50) chroma reachable from sRGB.
	labMaxChroma = 131.2
	// labAchromatic is the a*/b* magnitude under which hue is undefined.
	labAchromatic = 0.02
)

// Bradford chromatic adaptation between the sRGB (D65) and CIELAB (D50) whites.
var (
	bradfordD65ToD50 = [3][3]float64{
		{1.0479298208405488, 0.022946793341019088, -0.05019222954313557},
		{0.029627815688159344, 0.990434484573249, -0.01707382502938514},
		{-0.009243058152591178, 0.015055144896577895, 0.7518742899580008},
	}
	bradfordD50ToD65 = [3][3]float64{
		{0.9554734527042182, -0.023098536874261423, 0.0632593086610217},
		{-0.028369706963208136, 1.0099954580058226, 0.021041398966943008},
		{0.012314001688319899, -0.020507696433477912, 1.3303659366080753},
	}
)

func adapt(m [3][3]float64, x, y, z float64) (float64, float64, float64) {
	return m[0][0]*x + m[0][1]*y + m[0][2]*z,
		m[1][0]*x + m[1][1]*y + m[1][2]*z,
		m[2][0]*x + m[2][1]*y + m[2][2]*z
}

// labSpace encodes L* in [0, 100] as L*2.55 and a*/b* as integers offset by
// 128. Distances use CIEDE2000.
type labSpace struct{}

func (labSpace) Kind() Kind { return KindLab }

func (s labSpace) ToNative(pix []byte, offset int) Color {
	return s.FromRGB(RGB{R: pix[offset], G: pix[offset+1], B: pix[offset+2]})
}

func (s labSpace) FromRGB(c RGB) Color {
	r, g, b := c.unit()
	x, y, z := colorful.LinearRgbToXyz(colorful.Color{R: r, G: g, B: b}.LinearRgb())
	x, y, z = adapt(bradfordD65ToD50, x, y, z)
	l, a, bb := colorful.XyzToLabWhiteRef(x, y, z, colorful.D50)
	// go-colorful works in hundredths.
	return s.encode([3]float64{l * 100, a * 100, bb * 100})
}

func (s labSpace) ToRGB(c Color) RGB {
	v := s.coords(c)
	x, y, z := colorful.LabToXyzWhiteRef(v[0]/100, v[1]/100, v[2]/100, colorful.D50)
	x, y, z = adapt(bradfordD50ToD65, x, y, z)
	r, g, b := colorful.LinearRgb(colorful.XyzToLinearRgb(x, y, z)).Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

func (s labSpace) Distance(a, b Color) float64 {
	return ciede2000(s.coords(a), s.coords(b))
}

func (labSpace) Epsilon() float64 { return 7 }

func (s labSpace) Lightness(c Color) float64 {
	return clamp(s.coords(c)[0], 0, 100)
}

func (s labSpace) Chroma(c Color) float64 {
	v := s.coords(c)
	return clamp(math.Hypot(v[1], v[2])/labMaxChroma*100, 0, 100)
}

func (s labSpace) Hue(c Color) Hue {
	v := s.coords(c)
	return hypotHue(v[1], v[2], labAchromatic)
}

func (s labSpace) Contrast(background, foreground Color) float64 {
	return APCA(s.ToRGB(background), s.ToRGB(foreground))
}

func (s labSpace) IncreaseContrast(c, against, towards Color, desired float64, asForeground bool) Color {
	return increaseContrast(s, c, against, towards, desired, asForeground)
}

func (labSpace) coords(c Color) [3]float64 {
	l, a, b := c.Channels()
	return [3]float64{float64(l) / 2.55, float64(a) - 128, float64(b) - 128}
}

func (labSpace) encode(v [3]float64) Color {
	return Pack(clampByte(v[0]*2.55), clampByte(v[1]+128), clampByte(v[2]+128))
}

const pow25to7 = 6103515625.0

func pow7(x float64) float64 {
	x2 := x * x
	return x2 * x2 * x2 * x
}

// ciede2000 returns the CIE ΔE 2000 difference of two L*a*b* triples with
// kL = kC = kH = 1.
func ciede2000(c1, c2 [3]float64) float64 {
	l1, a1, b1 := c1[0], c1[1], c1[2]
	l2, a2, b2 := c2[0], c2[1], c2[2]

	cbar := (math.Hypot(a1, b1) + math.Hypot(a2, b2)) / 2
	c7 := pow7(cbar)
	g := 0.5 * (1 - math.Sqrt(c7/(c7+pow25to7)))

	// Scale the a axes by the asymmetry factor.
	ap1 := (1 + g) * a1
	ap2 := (1 + g) * a2
	cp1 := math.Hypot(ap1, b1)
	cp2 := math.Hypot(ap2, b2)

	hp1 := hueAngle(ap1, b1)
	hp2 := hueAngle(ap2, b2)

	dL := l2 - l1
	dC := cp2 - cp1

	var dh float64
	cpProduct := cp1 * cp2
	if cpProduct != 0 {
		dh = hp2 - hp1
		if dh > 180 {
			dh -= 360
		} else if dh < -180 {
			dh += 360
		}
	}
	dH := 2 * math.Sqrt(cpProduct) * math.Sin(dh*math.Pi/360)

	lmean := (l1 + l2) / 2
	cmean := (cp1 + cp2) / 2
	hmean := hp1 + hp2
	if cpProduct != 0 {
		if math.Abs(hp1-hp2) <= 180 {
			hmean /= 2
		} else if hmean < 360 {
			hmean = (hmean + 360) / 2
		} else {
			hmean = (hmean - 360) / 2
		}
	}

	d2r := math.Pi / 180
	t := 1 - 0.17*math.Cos((hmean-30)*d2r) +
		0.24*math.Cos(2*hmean*d2r) +
		0.32*math.Cos((3*hmean+6)*d2r) -
		0.20*math.Cos((4*hmean-63)*d2r)

	lsq := sq(lmean - 50)
	sl := 1 + 0.015*lsq/math.Sqrt(20+lsq)
	sc := 1 + 0.045*cmean
	sh := 1 + 0.015*cmean*t

	cmean7 := pow7(cmean)
	dTheta := 30 * math.Exp(-sq((hmean-275)/25))
	rc := 2 * math.Sqrt(cmean7/(cmean7+pow25to7))
	rt := -math.Sin(2*dTheta*d2r) * rc

	tl := dL / sl
	tc := dC / sc
	th := dH / sh
	return math.Sqrt(math.Max(0, tl*tl+tc*tc+th*th+rt*tc*th))
}

// hueAngle returns atan2(b, a) in degrees within [0, 360), zero for neutrals.
func hueAngle(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	h := math.Atan2(b, a) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return h
}
