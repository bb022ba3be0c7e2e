package saliency

import (
	"math"
	"testing"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/raster"
)

func filled(width, height int, c colour.RGB) raster.Image {
	pix := make([]byte, 0, width*height*3)
	for i := 0; i < width*height; i++ {
		pix = append(pix, c.R, c.G, c.B)
	}
	return raster.Image{Pix: pix, Width: width, Height: height, Channels: 3}
}

func set(img raster.Image, x, y int, c colour.RGB) {
	i := img.Offset(x, y)
	img.Pix[i], img.Pix[i+1], img.Pix[i+2] = c.R, c.G, c.B
}

func TestLevels(t *testing.T) {
	tests := []struct {
		w, h, want int
	}{
		{0, 10, 0},
		{1, 100, 0},
		{2, 2, 1},
		{300, 300, 8},
		{64, 1000, 6},
		{65, 70, 6},
	}
	for _, tt := range tests {
		if got := Levels(tt.w, tt.h); got != tt.want {
			t.Errorf("Levels(%d, %d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestComputeFlatImage(t *testing.T) {
	for _, kind := range colour.Kinds() {
		got := Compute(kind.Space(), filled(16, 12, colour.RGB{R: 90, G: 140, B: 30}))
		if len(got) != 16*12 {
			t.Fatalf("Expected %d values, got %d", 16*12, len(got))
		}
		for i, v := range got {
			if v != 0 {
				t.Fatalf("%s: flat image saliency[%d] = %d, want 0", kind, i, v)
			}
		}
	}
}

func TestComputeNormalisesToMax(t *testing.T) {
	for _, kind := range colour.Kinds() {
		img := filled(32, 32, colour.RGB{R: 10, G: 10, B: 10})
		set(img, 20, 7, colour.RGB{R: 250, G: 250, B: 250})

		got := Compute(kind.Space(), img)
		peak := byte(0)
		peakAt := -1
		for i, v := range got {
			if v > peak {
				peak, peakAt = v, i
			}
		}
		if peak != Max {
			t.Errorf("%s: max saliency = %d, want %d", kind, peak, Max)
		}
		if peakAt != 7*32+20 {
			t.Errorf("%s: peak at %d, want the bright pixel", kind, peakAt)
		}
	}
}

func TestComputeHighlightsFeature(t *testing.T) {
	space := colour.OKLab()
	img := filled(64, 64, colour.RGB{R: 200, G: 190, B: 180})
	for y := 28; y < 36; y++ {
		for x := 28; x < 36; x++ {
			set(img, x, y, colour.RGB{R: 20, G: 20, B: 120})
		}
	}

	got := Compute(space, img)
	centre := got[32*64+32]
	corner := got[2*64+2]
	if centre <= corner {
		t.Errorf("Expected feature (%d) to be more salient than background (%d)", centre, corner)
	}
}

func TestComputeThinImage(t *testing.T) {
	img := filled(1, 5, colour.RGB{})
	set(img, 0, 2, colour.RGB{R: 255})
	got := Compute(colour.RGBSpace(), img)
	for _, v := range got {
		if v != 0 {
			t.Fatalf("Expected zeros without pyramid levels, got %v", got)
		}
	}
}

func TestComputeRGBA(t *testing.T) {
	rgb := filled(8, 8, colour.RGB{R: 40})
	set(rgb, 3, 3, colour.RGB{G: 200})

	rgba := raster.Image{Width: 8, Height: 8, Channels: 4}
	for i := 0; i < 64; i++ {
		rgba.Pix = append(rgba.Pix, rgb.Pix[i*3], rgb.Pix[i*3+1], rgb.Pix[i*3+2], 17)
	}

	a := Compute(colour.Lab(), rgb)
	b := Compute(colour.Lab(), rgba)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("alpha changed saliency at %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestEaseInOutCubic(t *testing.T) {
	tests := []struct{ x, want float64 }{
		{0, 0}, {0.25, 0.0625}, {0.5, 0.5}, {0.75, 0.9375}, {1, 1},
	}
	for _, tt := range tests {
		if got := easeInOutCubic(tt.x); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("easeInOutCubic(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}
