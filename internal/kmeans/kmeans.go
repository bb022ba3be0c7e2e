// Package kmeans clusters a colour histogram with Lloyd's algorithm using a
// colour space's perceptual distance.
package kmeans

import (
	"errors"
	"fmt"
	"math"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
)

// MaxIterations caps assignment/update rounds. Lloyd's algorithm can cycle,
// so hitting the cap is not an error.
const MaxIterations = 100

// Precondition errors.
var (
	ErrInvalidK        = errors.New("k must be at least 1")
	ErrEmptyHistogram  = errors.New("histogram is empty")
	ErrZeroPixelWeight = errors.New("histogram has no pixels")
)

// Result is the outcome of one clustering run.
type Result struct {
	// Centroids holds one representative source colour per cluster.
	Centroids Set
	// K is the number of clusters actually used. It may be lower than the
	// requested k when the histogram lacks enough distinct colours.
	K int
	// WCSS is the count-weighted mean squared distance of every colour to its
	// cluster mean. It is only meaningful relative to other runs.
	WCSS float64
}

// Run clusters the entries into at most k groups. Entries must be sorted by
// descending count (see histogram.SortEntries); seeding walks them in that
// order and is fully deterministic.
func Run(logger hclog.Logger, space colour.Space, entries []histogram.Entry, k int) (*Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyHistogram
	}
	if histogram.Total(entries) == 0 {
		return nil, ErrZeroPixelWeight
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	centroids := seed(space, entries, k)
	if len(centroids) < k {
		logger.Debug("reduced cluster count", "requested", k, "distinct", len(centroids))
	}
	k = len(centroids)

	assignments := make([]int, len(entries))
	for i := range assignments {
		assignments[i] = -1
	}

	iterations := 0
	for iterations < MaxIterations {
		iterations++

		// Assign each colour to its nearest centroid.
		changed := false
		for i, e := range entries {
			nearest := nearestIndex(space, e.Color, centroids)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}

		centroids = recalculate(space, entries, assignments, centroids)
	}

	// Weighted error against the cluster means, before substitution.
	var wcss, total float64
	for i, e := range entries {
		d := space.Distance(e.Color, centroids[assignments[i]])
		wcss += d * d * float64(e.Count)
		total += float64(e.Count)
	}
	wcss /= total

	set := substitute(space, entries, assignments, centroids)
	logger.Trace("kmeans finished", "k", k, "clusters", set.Len(), "iterations", iterations, "wcss", wcss)

	return &Result{Centroids: set, K: k, WCSS: wcss}, nil
}

// seed picks up to k colours in entry order, accepting a colour only when it
// is further than epsilon from every seed accepted so far.
func seed(space colour.Space, entries []histogram.Entry, k int) []colour.Color {
	eps := space.Epsilon()
	seeds := make([]colour.Color, 0, k)
	for _, e := range entries {
		distinct := true
		for _, s := range seeds {
			if space.Distance(e.Color, s) <= eps {
				distinct = false
				break
			}
		}
		if distinct {
			seeds = append(seeds, e.Color)
			if len(seeds) == k {
				break
			}
		}
	}
	return seeds
}

// nearestIndex returns the index of the closest centroid. Ties go to the
// lowest index.
func nearestIndex(space colour.Space, c colour.Color, centroids []colour.Color) int {
	nearest := 0
	minDistance := math.Inf(1)
	for j, centroid := range centroids {
		if d := space.Distance(c, centroid); d < minDistance {
			minDistance = d
			nearest = j
		}
	}
	return nearest
}

// recalculate computes the count-weighted per-channel mean of every cluster,
// rounded to the nearest integer. A cluster left without members keeps its
// previous centroid.
func recalculate(space colour.Space, entries []histogram.Entry, assignments []int, previous []colour.Color) []colour.Color {
	type sums struct {
		c0, c1, c2, count float64
	}
	acc := make([]sums, len(previous))
	for i, e := range entries {
		c0, c1, c2 := e.Color.Channels()
		n := float64(e.Count)
		s := &acc[assignments[i]]
		s.c0 += float64(c0) * n
		s.c1 += float64(c1) * n
		s.c2 += float64(c2) * n
		s.count += n
	}

	next := make([]colour.Color, len(previous))
	for j, s := range acc {
		if s.count == 0 {
			next[j] = previous[j]
			continue
		}
		next[j] = colour.Pack(
			uint8(math.Round(s.c0/s.count)),
			uint8(math.Round(s.c1/s.count)),
			uint8(math.Round(s.c2/s.count)),
		)
	}
	return next
}

// substitute replaces every cluster mean with the member colour nearest to
// it, so every emitted centroid actually occurs in the source. Clusters
// without members are omitted.
func substitute(space colour.Space, entries []histogram.Entry, assignments []int, means []colour.Color) Set {
	best := make([]int, len(means))
	bestDistance := make([]float64, len(means))
	counts := make([]uint64, len(means))
	for j := range best {
		best[j] = -1
		bestDistance[j] = math.Inf(1)
	}

	for i, e := range entries {
		j := assignments[i]
		counts[j] += uint64(e.Count)
		if d := space.Distance(e.Color, means[j]); d < bestDistance[j] {
			bestDistance[j] = d
			best[j] = i
		}
	}

	set := make(Set, 0, len(means))
	for j, i := range best {
		if i < 0 {
			continue
		}
		set = set.Add(entries[i].Color, counts[j])
	}
	return set
}
