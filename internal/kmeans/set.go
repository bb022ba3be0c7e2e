package kmeans

import (
	"cmp"
	"slices"

	"github.com/jmylchreest/coverhue/internal/colour"
)

// Centroid is a representative colour and the number of pixels it stands for.
type Centroid struct {
	Color colour.Color
	Count uint64
}

// Set is an ordered collection of centroids with unique colours. Order is
// kept stable so that every pass over a set is deterministic.
type Set []Centroid

// Add returns the set with n pixels added to c, appending c if it is new.
// Like append, the result may share storage with the receiver.
func (s Set) Add(c colour.Color, n uint64) Set {
	if i := s.Index(c); i >= 0 {
		s[i].Count += n
		return s
	}
	return append(s, Centroid{Color: c, Count: n})
}

// Index returns the position of c, or -1.
func (s Set) Index(c colour.Color) int {
	return slices.IndexFunc(s, func(e Centroid) bool { return e.Color == c })
}

// Count returns the count of c, or 0 when absent.
func (s Set) Count(c colour.Color) uint64 {
	if i := s.Index(c); i >= 0 {
		return s[i].Count
	}
	return 0
}

// Contains reports whether c is in the set.
func (s Set) Contains(c colour.Color) bool {
	return s.Index(c) >= 0
}

// Len returns the number of centroids.
func (s Set) Len() int {
	return len(s)
}

// Total sums the counts of every centroid.
func (s Set) Total() uint64 {
	var total uint64
	for _, e := range s {
		total += e.Count
	}
	return total
}

// Colors returns the centroid colours in set order.
func (s Set) Colors() []colour.Color {
	colors := make([]colour.Color, len(s))
	for i, e := range s {
		colors[i] = e.Color
	}
	return colors
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	return slices.Clone(s)
}

// SortedByCount returns a copy ordered by descending count, then ascending
// colour.
func (s Set) SortedByCount() Set {
	out := s.Clone()
	slices.SortFunc(out, func(a, b Centroid) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Color, b.Color)
	})
	return out
}

// Nearest returns the colour in the set closest to c. The first of several
// equally close colours wins. ok is false for an empty set.
func (s Set) Nearest(space colour.Space, c colour.Color) (nearest colour.Color, ok bool) {
	best := -1
	var bestDistance float64
	for i, e := range s {
		d := space.Distance(c, e.Color)
		if best < 0 || d < bestDistance {
			best, bestDistance = i, d
		}
	}
	if best < 0 {
		return 0, false
	}
	return s[best].Color, true
}
