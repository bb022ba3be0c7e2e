package palette

import (
	"cmp"
	"math"
	"slices"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/kmeans"
	"github.com/jmylchreest/coverhue/internal/raster"
)

const (
	// OuterRadius is the share of half the longest side beyond which pixels
	// count towards the outer colour.
	OuterRadius = 0.95
	// MinRoleShare is the share of all pixels a centroid needs to be picked
	// as accent or third.
	MinRoleShare = 0.01
	// MinAccentContrast is the contrast against outer an accent needs.
	MinAccentContrast = 9
)

// Outer returns the centroid most of the image's edge pixels map to: pixels
// outside a circle of radius OuterRadius * max(width, height) / 2 around the
// centre. Without any such pixel the most common centroid is used.
func Outer(space colour.Space, img raster.Image, centroids kmeans.Set) colour.Color {
	radius := float64(max(img.Width, img.Height)) / 2 * OuterRadius
	cx, cy := float64(img.Width)/2, float64(img.Height)/2
	edge := histogram.BuildMasked(img, space, func(x, y int) bool {
		return math.Hypot(float64(x)-cx, float64(y)-cy) > radius
	})

	if edge.Len() == 0 {
		sorted := centroids.SortedByCount()
		if len(sorted) == 0 {
			return 0
		}
		return sorted[0].Color
	}
	return mostMapped(space, centroids, edge.Sorted())
}

// mostMapped maps each entry to its nearest centroid and returns the
// centroid that collects the most pixels.
func mostMapped(space colour.Space, centroids kmeans.Set, entries []histogram.Entry) colour.Color {
	tally := tallyNearest(space, centroids, entries)
	best := -1
	for i := range centroids {
		if best < 0 || tally[i] > tally[best] {
			best = i
		}
	}
	if best < 0 {
		return 0
	}
	return centroids[best].Color
}

// tallyNearest sums, per centroid index, the counts of the entries nearest
// to it.
func tallyNearest(space colour.Space, centroids kmeans.Set, entries []histogram.Entry) []uint64 {
	tally := make([]uint64, len(centroids))
	for _, e := range entries {
		nearest, ok := centroids.Nearest(space, e.Color)
		if !ok {
			break
		}
		tally[centroids.Index(nearest)] += uint64(e.Count)
	}
	return tally
}

// InnerSource records which rule chose the inner colour.
type InnerSource int

const (
	// InnerSalient: the most over-represented salient centroid with enough
	// contrast.
	InnerSalient InnerSource = iota
	// InnerContrast: no salient candidate qualified; the centroid with the
	// highest contrast against outer.
	InnerContrast
	// InnerSynthetic: no centroid had enough contrast; black or white was
	// added.
	InnerSynthetic
)

func (s InnerSource) String() string {
	switch s {
	case InnerSalient:
		return "saliency"
	case InnerContrast:
		return "contrast"
	case InnerSynthetic:
		return "synthetic"
	default:
		return "unknown"
	}
}

// InnerResult is the outcome of Inner.
type InnerResult struct {
	Color colour.Color
	// Centroids is the input set, plus a synthesised colour when one was
	// needed.
	Centroids kmeans.Set
	Source    InnerSource
}

// Inner picks the foreground colour. salient is a saliency-weighted
// histogram of the image; total is the plain pixel count behind centroids.
//
// Each centroid gets delta = ((salientShare - overallShare) + 100) / 2,
// where salientShare is its share of the salient histogram once every
// salient colour is mapped to its nearest centroid. Candidates are tried by
// descending delta and the first with contrast(outer, c) >= minContrast
// wins. Failing that, the centroid with the highest contrast against outer
// is used if it reaches minContrast. Failing that, black or white, whichever
// contrasts more, is added with a count of one taken from outer.
func Inner(space colour.Space, centroids kmeans.Set, salient *histogram.Histogram, total uint64, outer colour.Color, minContrast float64) InnerResult {
	type candidate struct {
		color colour.Color
		delta float64
	}

	tally := tallyNearest(space, centroids, salient.Sorted())
	salientTotal := float64(salient.Total())
	var candidates []candidate
	for i, c := range centroids {
		if tally[i] == 0 || salientTotal == 0 || total == 0 {
			continue
		}
		salientShare := float64(tally[i]) / salientTotal
		overallShare := float64(c.Count) / float64(total)
		delta := ((salientShare - overallShare) + 100) / 2
		if delta > 0 {
			candidates = append(candidates, candidate{color: c.Color, delta: delta})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return cmp.Compare(b.delta, a.delta)
	})

	for _, c := range candidates {
		if space.Contrast(outer, c.color) >= minContrast {
			return InnerResult{Color: c.color, Centroids: centroids.Clone(), Source: InnerSalient}
		}
	}

	bestContrast := 0.0
	var best colour.Color
	for _, c := range centroids {
		if c.Color == outer {
			continue
		}
		if contrast := space.Contrast(outer, c.Color); contrast > bestContrast {
			bestContrast, best = contrast, c.Color
		}
	}
	if bestContrast > 0 && bestContrast >= minContrast {
		return InnerResult{Color: best, Centroids: centroids.Clone(), Source: InnerContrast}
	}

	synthetic := colour.MostContrasting(space, outer)
	out := centroids.Clone()
	if !out.Contains(synthetic) {
		out = append(out, kmeans.Centroid{Color: synthetic, Count: 1})
		if i := out.Index(outer); i >= 0 && out[i].Count > 0 {
			out[i].Count--
		}
	}
	return InnerResult{Color: synthetic, Centroids: out, Source: InnerSynthetic}
}

// Partition splits the centroids by whether their lightness is closer to
// outer's (outerColors) or not (innerColors). Set order is kept.
func Partition(space colour.Space, centroids kmeans.Set, inner, outer colour.Color) (innerColors, outerColors kmeans.Set) {
	innerL, outerL := space.Lightness(inner), space.Lightness(outer)
	for _, c := range centroids {
		l := space.Lightness(c.Color)
		if math.Abs(l-innerL) > math.Abs(l-outerL) {
			outerColors = append(outerColors, c)
		} else {
			innerColors = append(innerColors, c)
		}
	}
	return innerColors, outerColors
}

// Accent picks, among innerColors other than outer and inner, a colour
// holding at least MinRoleShare of the pixels and MinAccentContrast against
// outer, maximising chroma * distance to inner * prevalence in percent.
// Without a candidate the accent is inner.
func Accent(space colour.Space, innerColors kmeans.Set, total uint64, outer, inner colour.Color) colour.Color {
	best, bestScore := inner, 0.0
	for _, c := range innerColors {
		if c.Color == outer || c.Color == inner {
			continue
		}
		share := float64(c.Count) / float64(total)
		if share < MinRoleShare || space.Contrast(outer, c.Color) < MinAccentContrast {
			continue
		}
		score := space.Chroma(c.Color) * space.Distance(c.Color, inner) * share * 100
		if score > bestScore {
			best, bestScore = c.Color, score
		}
	}
	return best
}

// Third picks, among outerColors other than outer and inner, a colour
// holding at least MinRoleShare of the pixels, maximising its lower contrast
// against inner and accent times prevalence in percent. Without a candidate
// the third colour is outer.
func Third(space colour.Space, outerColors kmeans.Set, total uint64, outer, inner, accent colour.Color) colour.Color {
	best, bestScore := outer, 0.0
	for _, c := range outerColors {
		if c.Color == outer || c.Color == inner {
			continue
		}
		share := float64(c.Count) / float64(total)
		if share < MinRoleShare {
			continue
		}
		contrast := min(space.Contrast(c.Color, inner), space.Contrast(c.Color, accent))
		score := contrast * share * 100
		if score > bestScore {
			best, bestScore = c.Color, score
		}
	}
	return best
}
