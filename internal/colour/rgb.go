package colour

import "math"

// rgbSpace packs sRGB unchanged and measures Euclidean distance between the
// 8-bit channels.
type rgbSpace struct{}

func (rgbSpace) Kind() Kind { return KindRGB }

func (rgbSpace) ToNative(pix []byte, offset int) Color {
	return Pack(pix[offset], pix[offset+1], pix[offset+2])
}

func (rgbSpace) FromRGB(c RGB) Color { return c.Packed() }

func (rgbSpace) ToRGB(c Color) RGB { return RGBFromPacked(c) }

func (rgbSpace) Distance(a, b Color) float64 {
	ar, ag, ab := a.Channels()
	br, bg, bb := b.Channels()
	dr := float64(ar) - float64(br)
	dg := float64(ag) - float64(bg)
	db := float64(ab) - float64(bb)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func (rgbSpace) Epsilon() float64 { return 1 }

func (rgbSpace) Lightness(c Color) float64 {
	_, _, l, _ := rgbToHSL(RGBFromPacked(c))
	return l * 100
}

func (rgbSpace) Chroma(c Color) float64 {
	_, _, _, ch := rgbToHSL(RGBFromPacked(c))
	return ch * 100
}

func (rgbSpace) Hue(c Color) Hue {
	h, _, _, ch := rgbToHSL(RGBFromPacked(c))
	if ch == 0 {
		return Achromatic
	}
	return HueDegrees(h)
}

func (s rgbSpace) Contrast(background, foreground Color) float64 {
	return APCA(RGBFromPacked(background), RGBFromPacked(foreground))
}

func (s rgbSpace) IncreaseContrast(c, against, towards Color, desired float64, asForeground bool) Color {
	return increaseContrast(s, c, against, towards, desired, asForeground)
}

func (rgbSpace) coords(c Color) [3]float64 {
	r, g, b := c.Channels()
	return [3]float64{float64(r), float64(g), float64(b)}
}

func (rgbSpace) encode(v [3]float64) Color {
	return Pack(clampByte(v[0]), clampByte(v[1]), clampByte(v[2]))
}
