package colour

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// okLabABScale maps the OKLab a/b axes onto a byte centred on 128. The sRGB
	// gamut spans roughly [-0.32, 0.28] on both axes.
	okLabABScale = 400.0
	// okLabMaxChroma is the largest OKLab chroma reachable from sRGB (pure blue).
	okLabMaxChroma = 0.3225
	// okLabAchromatic is the a/b magnitude under which hue is undefined.
	okLabAchromatic = 0.0002
)

// okLabSpace encodes L in [0, 1] as L*255 and a/b as a*400+128.
// Distances follow deltaEOK2: the a/b axes count twice, result scaled by 100.
type okLabSpace struct{}

func (okLabSpace) Kind() Kind { return KindOKLab }

func (s okLabSpace) ToNative(pix []byte, offset int) Color {
	return s.FromRGB(RGB{R: pix[offset], G: pix[offset+1], B: pix[offset+2]})
}

func (s okLabSpace) FromRGB(c RGB) Color {
	r, g, b := c.unit()
	l, a, bb := colorful.Color{R: r, G: g, B: b}.OkLab()
	return s.encode([3]float64{l, a, bb})
}

func (s okLabSpace) ToRGB(c Color) RGB {
	v := s.coords(c)
	r, g, b := colorful.OkLab(v[0], v[1], v[2]).Clamped().RGB255()
	return RGB{R: r, G: g, B: b}
}

func (s okLabSpace) Distance(a, b Color) float64 {
	va, vb := s.coords(a), s.coords(b)
	dl := va[0] - vb[0]
	da := 2 * (va[1] - vb[1])
	db := 2 * (va[2] - vb[2])
	return 100 * math.Sqrt(dl*dl+da*da+db*db)
}

func (okLabSpace) Epsilon() float64 { return 9 }

func (s okLabSpace) Lightness(c Color) float64 {
	return clamp(s.coords(c)[0]*100, 0, 100)
}

func (s okLabSpace) Chroma(c Color) float64 {
	v := s.coords(c)
	return clamp(math.Hypot(v[1], v[2])/okLabMaxChroma*100, 0, 100)
}

func (s okLabSpace) Hue(c Color) Hue {
	v := s.coords(c)
	return hypotHue(v[1], v[2], okLabAchromatic)
}

func (s okLabSpace) Contrast(background, foreground Color) float64 {
	return APCA(s.ToRGB(background), s.ToRGB(foreground))
}

func (s okLabSpace) IncreaseContrast(c, against, towards Color, desired float64, asForeground bool) Color {
	return increaseContrast(s, c, against, towards, desired, asForeground)
}

func (okLabSpace) coords(c Color) [3]float64 {
	l, a, b := c.Channels()
	return [3]float64{
		float64(l) / 255,
		(float64(a) - 128) / okLabABScale,
		(float64(b) - 128) / okLabABScale,
	}
}

func (okLabSpace) encode(v [3]float64) Color {
	return Pack(
		clampByte(v[0]*255),
		clampByte(v[1]*okLabABScale+128),
		clampByte(v[2]*okLabABScale+128),
	)
}
