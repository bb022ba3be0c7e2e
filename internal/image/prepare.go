package image

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/jmylchreest/coverhue/internal/raster"
)

// DefaultSize is the side length images are scaled to before extraction.
const DefaultSize = 300

// Fit selects how an image is brought to the working size.
type Fit string

const (
	// FitCover crops the centre to a square, then scales it.
	FitCover Fit = "cover"
	// FitStretch scales to a square without cropping.
	FitStretch Fit = "stretch"
	// FitNone keeps the original pixels.
	FitNone Fit = "none"
)

// ParseFit parses a fit name.
func ParseFit(s string) (Fit, error) {
	switch f := Fit(strings.ToLower(strings.TrimSpace(s))); f {
	case FitCover, FitStretch, FitNone:
		return f, nil
	default:
		return "", fmt.Errorf("unknown fit %q (use cover, stretch or none)", s)
	}
}

// PrepareOptions configures Prepare.
type PrepareOptions struct {
	Fit  Fit
	Size int
}

// DefaultPrepareOptions returns a 300x300 centre crop.
func DefaultPrepareOptions() PrepareOptions {
	return PrepareOptions{Fit: FitCover, Size: DefaultSize}
}

// Prepare scales img to the working size with nearest-neighbour sampling, so
// no blended colours are introduced.
func Prepare(img image.Image, opts PrepareOptions) (image.Image, error) {
	if opts.Fit == FitNone {
		return img, nil
	}
	if opts.Size < 1 {
		return nil, fmt.Errorf("size must be at least 1, got %d", opts.Size)
	}

	switch opts.Fit {
	case FitCover, "":
		return imaging.Fill(img, opts.Size, opts.Size, imaging.Center, imaging.NearestNeighbor), nil
	case FitStretch:
		dst := image.NewNRGBA(image.Rect(0, 0, opts.Size, opts.Size))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		return dst, nil
	default:
		return nil, fmt.Errorf("unknown fit %q", opts.Fit)
	}
}

// ToRaster copies img into a 4-channel raster.Image.
func ToRaster(img image.Image) (raster.Image, error) {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := b.Dx(), b.Dy()
	rowBytes := w * 4
	pix := make([]byte, 0, rowBytes*h)
	for y := 0; y < h; y++ {
		start := y * nrgba.Stride
		pix = append(pix, nrgba.Pix[start:start+rowBytes]...)
	}
	return raster.New(pix, w, h, 4)
}
