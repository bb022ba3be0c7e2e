// Package palette turns raw k-means centroids into a themed palette: outer
// (background), inner (foreground), accent and third colours. Every stage
// takes a centroid set and returns a new one; inputs are never modified.
package palette

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/kmeans"
	"github.com/jmylchreest/coverhue/internal/raster"
)

// Config holds the selection thresholds.
type Config struct {
	// Clamp enables clamping centroids to source colours.
	Clamp bool
	// MinShare is the share of pixels in [0, 1] a source colour needs to be
	// a clamp target.
	MinShare float64
	// MinForegroundContrast is the APCA contrast inner needs against outer.
	MinForegroundContrast float64
	// SaliencyWeight scales the extra weight of salient pixels when choosing
	// inner.
	SaliencyWeight float64
}

// Input is everything Select reads. None of it is modified.
type Input struct {
	Name  string
	Space colour.Space
	Image raster.Image
	// Histogram is the plain histogram of Image the centroids came from.
	Histogram *histogram.Histogram
	// Saliency holds one value per pixel of Image.
	Saliency  []byte
	Centroids kmeans.Set
	Logger    hclog.Logger
}

// Result is a palette in the working space's native encoding.
type Result struct {
	Centroids   kmeans.Set
	Outer       colour.Color
	Inner       colour.Color
	Accent      colour.Color
	Third       colour.Color
	InnerColors kmeans.Set
	OuterColors kmeans.Set
	InnerSource InnerSource
}

// Select runs clamp, merge and role selection.
func Select(in Input, cfg Config) (*Result, error) {
	logger := in.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.With("name", in.Name)

	if in.Centroids.Len() == 0 {
		return nil, fmt.Errorf("no centroids to select from")
	}
	total := in.Histogram.Total()
	space := in.Space

	centroids := in.Centroids
	if cfg.Clamp {
		centroids = Clamp(space, centroids, in.Histogram, cfg.MinShare)
	}
	centroids = Merge(space, centroids)
	logger.Debug("centroids settled", "count", centroids.Len())

	outer := Outer(space, in.Image, centroids)

	salient, err := histogram.BuildWeighted(in.Image, space, in.Saliency, cfg.SaliencyWeight)
	if err != nil {
		return nil, fmt.Errorf("failed to weight histogram: %w", err)
	}
	inner := Inner(space, centroids, salient, total, outer, cfg.MinForegroundContrast)
	centroids = inner.Centroids
	logger.Debug("inner colour chosen", "source", inner.Source.String())

	innerColors, outerColors := Partition(space, centroids, inner.Color, outer)
	accent := Accent(space, innerColors, total, outer, inner.Color)
	third := Third(space, outerColors, total, outer, inner.Color, accent)

	return &Result{
		Centroids:   centroids,
		Outer:       outer,
		Inner:       inner.Color,
		Accent:      accent,
		Third:       third,
		InnerColors: innerColors,
		OuterColors: outerColors,
		InnerSource: inner.Source,
	}, nil
}
