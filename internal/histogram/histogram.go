// Package histogram counts the colours of a raster image in a colour space's
// native encoding.
package histogram

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/raster"
)

// Entry is one colour and the number of pixels carrying it.
type Entry struct {
	Color colour.Color
	Count uint32
}

// Histogram maps native colours to pixel counts. It is built once and then
// only read.
type Histogram struct {
	counts map[colour.Color]uint32
	total  uint64
}

// Build counts every pixel of the image. An alpha channel is ignored.
func Build(img raster.Image, space colour.Space) *Histogram {
	return BuildMasked(img, space, nil)
}

// BuildMasked counts the pixels for which keep returns true. A nil keep
// counts every pixel.
func BuildMasked(img raster.Image, space colour.Space, keep func(x, y int) bool) *Histogram {
	h := &Histogram{counts: make(map[colour.Color]uint32)}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if keep != nil && !keep(x, y) {
				continue
			}
			h.counts[space.ToNative(img.Pix, img.Offset(x, y))]++
			h.total++
		}
	}
	return h
}

// BuildWeighted counts every pixel once plus weight times its value in
// weights (one entry per pixel). Counts are then rescaled so they sum to
// roughly the plain pixel count again: round(count / (pixels+added) * pixels).
// Colours whose rescaled count rounds to zero are dropped.
func BuildWeighted(img raster.Image, space colour.Space, weights []byte, weight float64) (*Histogram, error) {
	pixels := img.PixelCount()
	if len(weights) != pixels {
		return nil, fmt.Errorf("weight buffer has %d entries for %d pixels", len(weights), pixels)
	}
	if weight == 0 {
		return Build(img, space), nil
	}

	raw := make(map[colour.Color]float64)
	added := 0.0
	for i := 0; i < pixels; i++ {
		extra := float64(weights[i]) * weight
		added += extra
		raw[space.ToNative(img.Pix, i*img.Channels)] += 1 + extra
	}

	h := &Histogram{counts: make(map[colour.Color]uint32, len(raw))}
	scale := float64(pixels) / (float64(pixels) + added)
	for c, v := range raw {
		n := math.Round(v * scale)
		if n <= 0 {
			continue
		}
		h.counts[c] = uint32(n)
		h.total += uint64(n)
	}
	return h, nil
}

// FromEntries builds a histogram from explicit entries, summing duplicates.
func FromEntries(entries []Entry) *Histogram {
	h := &Histogram{counts: make(map[colour.Color]uint32, len(entries))}
	for _, e := range entries {
		h.counts[e.Color] += e.Count
		h.total += uint64(e.Count)
	}
	return h
}

// Len returns the number of unique colours.
func (h *Histogram) Len() int {
	return len(h.counts)
}

// Total returns the sum of all counts.
func (h *Histogram) Total() uint64 {
	return h.total
}

// Count returns the count of a colour and whether it occurs at all.
func (h *Histogram) Count(c colour.Color) (uint32, bool) {
	n, ok := h.counts[c]
	return n, ok
}

// Sorted returns the entries by descending count. Equal counts are ordered by
// ascending colour so the result is deterministic.
func (h *Histogram) Sorted() []Entry {
	entries := make([]Entry, 0, len(h.counts))
	for c, n := range h.counts {
		entries = append(entries, Entry{Color: c, Count: n})
	}
	SortEntries(entries)
	return entries
}

// SortEntries sorts entries by descending count, then ascending colour.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Color, b.Color)
	})
}

// Total sums the counts of a slice of entries.
func Total(entries []Entry) uint64 {
	var total uint64
	for _, e := range entries {
		total += uint64(e.Count)
	}
	return total
}
