package strategy

import (
	"fmt"
	"math"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/kmeans"
)

// Gap picks k with the gap statistic: the k in [MinK, MaxK] for which the
// image clusters best relative to a uniformly distributed reference.
type Gap struct {
	MinK int
	MaxK int
}

// DefaultGap searches k in [1, 10].
func DefaultGap() Gap {
	return Gap{MinK: 1, MaxK: 10}
}

// Validate checks the search range.
func (g Gap) Validate() error {
	if g.MinK < 1 {
		return fmt.Errorf("gap min k must be at least 1, got %d", g.MinK)
	}
	if g.MaxK < g.MinK {
		return fmt.Errorf("gap max k %d is below min k %d", g.MaxK, g.MinK)
	}
	return nil
}

func (g Gap) String() string {
	return fmt.Sprintf("gap:%d-%d", g.MinK, g.MaxK)
}

func (g Gap) Centroids(in Input) (kmeans.Set, error) {
	ks := make([]int, 0, g.MaxK-g.MinK+1)
	for k := g.MinK; k <= g.MaxK; k++ {
		ks = append(ks, k)
	}

	size := in.TotalPixels
	if size < 1 {
		size = int(histogram.Total(in.Entries))
	}
	reference := Reference(in.Space.Space(), size)

	// Real and reference runs share one fan-out.
	runs := make([]run, 0, 2*len(ks))
	for _, k := range ks {
		runs = append(runs, run{entries: in.Entries, k: k})
	}
	for _, k := range ks {
		runs = append(runs, run{entries: reference, k: k})
	}
	results, err := in.clusterAll(runs)
	if err != nil {
		return nil, err
	}
	actual, ref := results[:len(ks)], results[len(ks):]

	gaps := make([]float64, len(ks))
	best := -1
	for i := range ks {
		gaps[i] = math.Log(ref[i].WCSS) - math.Log(actual[i].WCSS)
		if math.IsNaN(gaps[i]) {
			continue
		}
		if best < 0 || gaps[i] > gaps[best] {
			best = i
		}
	}
	if best < 0 {
		best = 0
	}

	in.logger().Debug("gap statistic", "name", in.Name, "gaps", gaps, "k", ks[best])
	return actual[best].Centroids, nil
}

// Reference returns a histogram of size colours spread evenly over the
// 24-bit RGB cube, one pixel each, converted into the space. Colours that
// collide after conversion are merged.
func Reference(space colour.Space, size int) []histogram.Entry {
	if size < 1 {
		return nil
	}
	step := float64(0xffffff) / float64(size)
	entries := make([]histogram.Entry, size)
	for i := range entries {
		packed := colour.Color(math.Round(float64(i) * step))
		entries[i] = histogram.Entry{Color: space.FromRGB(colour.RGBFromPacked(packed)), Count: 1}
	}
	return histogram.FromEntries(entries).Sorted()
}
