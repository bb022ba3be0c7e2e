package strategy

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/jmylchreest/coverhue/internal/kmeans"
)

// Elbow picks k with the elbow method. WCSS is sampled at a few small k
// (Start, where it still falls steeply) and a few large k (End, where it
// has flattened out). A robust line is fitted through each group and k is
// taken where the two lines intersect.
type Elbow struct {
	Start []int
	End   []int
}

// DefaultElbow samples k in {1,2,3,4} and {50,100}.
func DefaultElbow() Elbow {
	return Elbow{Start: []int{1, 2, 3, 4}, End: []int{50, 100}}
}

// Validate checks the sample points.
func (e Elbow) Validate() error {
	if len(e.Start) == 0 {
		return fmt.Errorf("elbow needs at least one start k")
	}
	for _, k := range append(slices.Clone(e.Start), e.End...) {
		if k < 1 {
			return fmt.Errorf("elbow k must be at least 1, got %d", k)
		}
	}
	return nil
}

func (e Elbow) String() string {
	return fmt.Sprintf("elbow:%s;%s", formatInts(e.Start), formatInts(e.End))
}

func (e Elbow) Centroids(in Input) (kmeans.Set, error) {
	log := in.logger().With("name", in.Name, "strategy", "elbow")
	n := len(in.Entries)
	if n == 1 {
		return e.single(in, 1)
	}

	// Sample points at or above the number of unique colours add nothing.
	start, end := below(e.Start, n), below(e.End, n)
	if len(start) == 0 {
		log.Debug("no start sample below unique colour count", "unique", n)
		return e.single(in, n)
	}

	results, err := in.cluster(in.Entries, append(slices.Clone(start), end...))
	if err != nil {
		return nil, err
	}
	startRuns, endRuns := results[:len(start)], results[len(start):]

	startWCSS := wcss(startRuns)
	endKs, endWCSS := slices.Clone(end), wcss(endRuns)

	// One cluster per unique colour has zero error.
	if wantsExactPoint(end, n) {
		endKs = append(endKs, n)
		endWCSS = append(endWCSS, 0)
	}

	startSlope := robustSlope(start, startWCSS)
	endSlope := robustSlope(endKs, endWCSS)

	// wcss = slope*k + (point - slope*k0) for each line, solved for k.
	intersection := (endWCSS[0] - endSlope*float64(endKs[0]) - startWCSS[0] + startSlope*float64(start[0])) /
		(startSlope - endSlope)
	k := optimalK(intersection, n, start)

	log.Debug("elbow fit",
		"start_slope", startSlope, "start_wcss", startWCSS,
		"end_slope", endSlope, "end_wcss", endWCSS,
		"intersection", intersection, "k", k)

	if i := slices.Index(start, k); i >= 0 {
		return startRuns[i].Centroids, nil
	}
	if i := slices.Index(end, k); i >= 0 {
		return endRuns[i].Centroids, nil
	}
	return e.single(in, k)
}

// wantsExactPoint reports whether the zero-error point (n, 0) joins the end
// samples, which it does once n is more than twice the largest end k.
func wantsExactPoint(end []int, n int) bool {
	largest := 0
	if len(end) > 0 {
		largest = slices.Max(end)
	}
	return n > 2*largest
}

func (e Elbow) single(in Input, k int) (kmeans.Set, error) {
	results, err := in.cluster(in.Entries, []int{k})
	if err != nil {
		return nil, err
	}
	return results[0].Centroids, nil
}

// optimalK rounds the intersection and bounds it to [1, n]. Parallel lines
// have no intersection; the largest start sample is used instead.
func optimalK(intersection float64, n int, start []int) int {
	if math.IsNaN(intersection) || math.IsInf(intersection, 0) {
		return min(slices.Max(start), n)
	}
	k := math.Round(intersection)
	if k < 1 {
		return 1
	}
	if k > float64(n) {
		return n
	}
	return int(k)
}

func below(ks []int, n int) []int {
	out := make([]int, 0, len(ks))
	for _, k := range ks {
		if k < n {
			out = append(out, k)
		}
	}
	return out
}

func wcss(results []*kmeans.Result) []float64 {
	out := make([]float64, len(results))
	for i, r := range results {
		out[i] = r.WCSS
	}
	return out
}

// robustSlope fits an ordinary least squares line through the (k, wcss)
// points that are not outliers on either axis.
func robustSlope(ks []int, values []float64) float64 {
	if len(ks) < 2 {
		return 0
	}

	xs := make([]float64, len(ks))
	for i, k := range ks {
		xs[i] = float64(k)
	}
	xLo, xHi := iqrBounds(xs)
	yLo, yHi := iqrBounds(values)

	var n, sumX, sumY, sumXY, sumX2 float64
	for i := range xs {
		x, y := xs[i], values[i]
		if x < xLo || x > xHi || y < yLo || y > yHi {
			continue
		}
		n++
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denominator := n*sumX2 - sumX*sumX
	if n < 2 || denominator == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denominator
}

// iqrBounds returns the fences 1.5 interquartile ranges beyond the first and
// third quartiles.
func iqrBounds(values []float64) (lo, hi float64) {
	sorted := slices.Clone(values)
	sort.Float64s(sorted)
	q1 := sorted[len(sorted)/4]
	q3 := sorted[len(sorted)*3/4]
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}
