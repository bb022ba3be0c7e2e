package palette

import (
	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/kmeans"
)

// Clamp moves every centroid that is not a real, common enough source colour
// onto one. A centroid is kept when it occurs in the histogram with a share
// of at least minShare. Otherwise its pixels go to the nearest histogram
// colour at or above minShare, or, when no colour reaches minShare, to the
// nearest one below it. Pixels moved onto an existing centroid are summed.
func Clamp(space colour.Space, centroids kmeans.Set, hist *histogram.Histogram, minShare float64) kmeans.Set {
	total := float64(hist.Total())
	if total == 0 {
		return centroids.Clone()
	}
	entries := hist.Sorted()
	common := func(n uint32) bool { return float64(n)/total >= minShare }

	out := make(kmeans.Set, 0, len(centroids))
	for _, c := range centroids {
		if n, ok := hist.Count(c.Color); ok && common(n) {
			out = out.Add(c.Color, c.Count)
			continue
		}

		target, found := nearestEntry(space, c.Color, entries, common)
		if !found {
			target, _ = nearestEntry(space, c.Color, entries, func(n uint32) bool { return !common(n) })
		}
		out = out.Add(target, c.Count)
	}
	return out
}

// nearestEntry returns the closest histogram colour accepted by keep. The
// first of several equally close colours wins.
func nearestEntry(space colour.Space, c colour.Color, entries []histogram.Entry, keep func(uint32) bool) (colour.Color, bool) {
	var (
		best     colour.Color
		bestDist float64
		found    bool
	)
	for _, e := range entries {
		if !keep(e.Count) {
			continue
		}
		d := space.Distance(c, e.Color)
		if !found || d < bestDist {
			best, bestDist, found = e.Color, d, true
		}
	}
	return best, found
}

// Merge joins centroids that are closer than the space's epsilon. Closeness
// is transitive: chains of near colours form one group. Each group becomes
// its most common member carrying the sum of the group's counts, at the
// position of the group's first member.
func Merge(space colour.Space, centroids kmeans.Set) kmeans.Set {
	parent := make([]int, len(centroids))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	eps := space.Epsilon()
	for i := range centroids {
		for j := i + 1; j < len(centroids); j++ {
			if space.Distance(centroids[i].Color, centroids[j].Color) < eps {
				a, b := find(i), find(j)
				if a != b {
					parent[max(a, b)] = min(a, b)
				}
			}
		}
	}

	// Roots are always the lowest index of their group.
	best := make(map[int]int)
	sums := make(map[int]uint64)
	for i, c := range centroids {
		root := find(i)
		sums[root] += c.Count
		if b, ok := best[root]; !ok || c.Count > centroids[b].Count {
			best[root] = i
		}
	}

	out := make(kmeans.Set, 0, len(best))
	for i := range centroids {
		if find(i) != i {
			continue
		}
		out = append(out, kmeans.Centroid{Color: centroids[best[i]].Color, Count: sums[i]})
	}
	return out
}
