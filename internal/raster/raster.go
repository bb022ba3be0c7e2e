// Package raster holds the raw interleaved pixel buffers palette extraction
// works on, with their validation and border trimming.
package raster

import (
	"errors"
	"fmt"
	"math"
)

// MaxPixels is the largest pixel count an image may have. Histogram entries
// are packed as 32-bit colour/count pairs, so a count must fit in a uint32.
const MaxPixels = math.MaxUint32

// Validation errors. Callers match them with errors.Is.
var (
	ErrUnsupportedChannels = errors.New("unsupported channel count")
	ErrImageTooLarge       = errors.New("image too large")
	ErrBufferSize          = errors.New("pixel buffer size mismatch")
)

// Image is an interleaved 8-bit RGB or RGBA pixel buffer. The buffer is never
// modified once handed to the extraction pipeline, so it may be shared
// between goroutines.
type Image struct {
	Pix      []byte
	Width    int
	Height   int
	Channels int
}

// New wraps a pixel buffer and validates it.
func New(pix []byte, width, height, channels int) (Image, error) {
	img := Image{Pix: pix, Width: width, Height: height, Channels: channels}
	if err := img.Validate(); err != nil {
		return Image{}, err
	}
	return img, nil
}

// Validate checks the channel count, dimensions and buffer length.
func (img Image) Validate() error {
	if img.Channels != 3 && img.Channels != 4 {
		return fmt.Errorf("%w: %d (must be 3 or 4)", ErrUnsupportedChannels, img.Channels)
	}
	if img.Width < 0 || img.Height < 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrBufferSize, img.Width, img.Height)
	}
	if uint64(img.Width)*uint64(img.Height) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, img.Width, img.Height, uint64(MaxPixels))
	}
	if want := img.Width * img.Height * img.Channels; len(img.Pix) != want {
		return fmt.Errorf("%w: got %d bytes, want %d for %dx%dx%d",
			ErrBufferSize, len(img.Pix), want, img.Width, img.Height, img.Channels)
	}
	return nil
}

// PixelCount returns width * height.
func (img Image) PixelCount() int {
	return img.Width * img.Height
}

// Offset returns the buffer offset of pixel (x, y).
func (img Image) Offset(x, y int) int {
	return (y*img.Width + x) * img.Channels
}

// Trim removes percent of the image on every side. Bounds are rounded to the
// nearest integer: round(dim*percent/100) for the low edge and
// round(dim*(1-percent/100)) for the high edge. A zero percent returns the
// image unchanged and shares its buffer.
func (img Image) Trim(percent float64) Image {
	if percent <= 0 {
		return img
	}

	xMin := roundHalfUp(float64(img.Width) * percent / 100)
	xMax := roundHalfUp(float64(img.Width) * (1 - percent/100))
	yMin := roundHalfUp(float64(img.Height) * percent / 100)
	yMax := roundHalfUp(float64(img.Height) * (1 - percent/100))
	if xMax < xMin {
		xMax = xMin
	}
	if yMax < yMin {
		yMax = yMin
	}

	width, height := xMax-xMin, yMax-yMin
	rowBytes := width * img.Channels
	pix := make([]byte, 0, rowBytes*height)
	for y := yMin; y < yMax; y++ {
		start := img.Offset(xMin, y)
		pix = append(pix, img.Pix[start:start+rowBytes]...)
	}

	return Image{Pix: pix, Width: width, Height: height, Channels: img.Channels}
}

// roundHalfUp rounds to the nearest integer, halves up. Bounds are never
// negative so math.Round gives the same result.
func roundHalfUp(v float64) int {
	return int(math.Round(v))
}
