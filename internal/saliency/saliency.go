// Package saliency computes an Itti-Koch style saliency map: how much each
// pixel stands out from its surroundings across several scales.
package saliency

import (
	"math"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/raster"
)

// Max is the value of the most salient pixel of a non-constant image.
const Max = 255

// Levels returns the number of pyramid levels used for an image:
// floor(log2(min(width, height))).
func Levels(width, height int) int {
	m := min(width, height)
	if m < 1 {
		return 0
	}
	return int(math.Floor(math.Log2(float64(m))))
}

// level is one box-downsampled layer of the intensity pyramid.
type level struct {
	width, height int
	values        []float64
}

func (l level) at(x, y int) float64 {
	return l.values[min(y, l.height-1)*l.width+min(x, l.width-1)]
}

// Compute returns one value in [0, Max] per pixel. The intensity of a pixel
// is its perceptual distance from black in the given space. A flat image
// yields all zeros.
func Compute(space colour.Space, img raster.Image) []byte {
	out := make([]byte, img.PixelCount())
	if len(out) == 0 {
		return out
	}

	// Base intensity map.
	black := colour.Black(space)
	base := level{width: img.Width, height: img.Height, values: make([]float64, len(out))}
	for i := range base.values {
		base.values[i] = space.Distance(space.ToNative(img.Pix, i*img.Channels), black)
	}

	n := Levels(img.Width, img.Height)
	if n == 0 {
		return out
	}

	pyramid := make([]level, n+1)
	pyramid[0] = base
	for l := 1; l <= n; l++ {
		pyramid[l] = downsample(pyramid[l-1])
	}

	// Mean centre-surround difference across levels.
	raw := make([]float64, len(out))
	peak := 0.0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := y*img.Width + x
			sum := 0.0
			for l := 1; l <= n; l++ {
				sum += math.Abs(base.values[i] - pyramid[l].at(x>>l, y>>l))
			}
			raw[i] = sum / float64(n)
			peak = math.Max(peak, raw[i])
		}
	}
	if peak == 0 {
		return out
	}

	for i, v := range raw {
		out[i] = uint8(math.Round(easeInOutCubic(v/peak) * Max))
	}
	return out
}

// downsample halves a level with a 2x2 box filter, clamping reads at the
// edges.
func downsample(src level) level {
	dst := level{width: max(1, src.width/2), height: max(1, src.height/2)}
	dst.values = make([]float64, dst.width*dst.height)
	for y := 0; y < dst.height; y++ {
		for x := 0; x < dst.width; x++ {
			sum := src.at(2*x, 2*y) + src.at(2*x+1, 2*y) + src.at(2*x, 2*y+1) + src.at(2*x+1, 2*y+1)
			dst.values[y*dst.width+x] = sum / 4
		}
	}
	return dst
}

// easeInOutCubic boosts the separation of mid-range values.
func easeInOutCubic(x float64) float64 {
	if x < 0.5 {
		return 4 * x * x * x
	}
	return 1 - math.Pow(-2*x+2, 3)/2
}
