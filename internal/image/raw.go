package image

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/coverhue/internal/raster"
)

// LoadRaw reads an interleaved 8-bit pixel dump. Files ending in .xz are
// decompressed on the fly.
func LoadRaw(path string, width, height, channels int) (raster.Image, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified pixel dump, intended to be read
	if err != nil {
		return raster.Image{}, fmt.Errorf("failed to open raw image: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		xzr, err := xz.NewReader(f)
		if err != nil {
			return raster.Image{}, fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	}

	return ReadRaw(r, width, height, channels)
}

// ReadRaw reads exactly width*height*channels bytes from r.
func ReadRaw(r io.Reader, width, height, channels int) (raster.Image, error) {
	if width < 0 || height < 0 || channels < 0 {
		return raster.Image{}, fmt.Errorf("%w: invalid dimensions %dx%dx%d", raster.ErrBufferSize, width, height, channels)
	}
	size := uint64(width) * uint64(height) * uint64(channels)
	if uint64(width)*uint64(height) > raster.MaxPixels {
		return raster.Image{}, fmt.Errorf("%w: %dx%d", raster.ErrImageTooLarge, width, height)
	}

	pix := make([]byte, size)
	if _, err := io.ReadFull(r, pix); err != nil {
		return raster.Image{}, fmt.Errorf("%w: %w", raster.ErrBufferSize, err)
	}
	// Trailing bytes mean the dimensions are wrong.
	var extra [1]byte
	if n, _ := r.Read(extra[:]); n > 0 {
		return raster.Image{}, fmt.Errorf("%w: more than %d bytes of pixel data", raster.ErrBufferSize, size)
	}
	return raster.New(pix, width, height, channels)
}
