// Package extract runs the complete palette extraction for one image: trim,
// histogram, saliency and clustering in parallel, then role selection.
package extract

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/palette"
	"github.com/jmylchreest/coverhue/internal/raster"
	"github.com/jmylchreest/coverhue/internal/strategy"
	"github.com/jmylchreest/coverhue/internal/task"
)

var (
	// ErrInvalidOptions is returned when Options fail validation.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInvalidImage is returned for malformed or oversized images.
	ErrInvalidImage = errors.New("invalid image")
	// ErrEmptyImage is returned when no pixel is left after trimming.
	ErrEmptyImage = errors.New("image has no pixels")
)

// Extract computes the palette of img.
func Extract(img raster.Image, opts Options) (*Palette, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.With("name", opts.Name)
	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = task.NewInline(logger)
	}
	space := opts.Space.Space()

	trimmed := img.Trim(opts.TrimPercent)
	hist := histogram.Build(trimmed, space)
	if hist.Len() == 0 {
		return nil, ErrEmptyImage
	}
	logger.Debug("histogram built", "space", opts.Space.String(),
		"width", trimmed.Width, "height", trimmed.Height, "colours", hist.Len())

	// Saliency runs alongside clustering; both are waited for before
	// returning so no task outlives the call.
	salient := dispatcher.Run(task.Saliency(opts.Name, opts.Space, trimmed))
	centroids, clusterErr := opts.Strategy.Centroids(strategy.Input{
		Name:        opts.Name,
		Space:       opts.Space,
		Entries:     hist.Sorted(),
		TotalPixels: trimmed.PixelCount(),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	salientResp, salientErr := salient.Wait()
	if clusterErr != nil {
		return nil, fmt.Errorf("failed to cluster colours: %w", clusterErr)
	}
	if salientErr != nil {
		return nil, fmt.Errorf("failed to compute saliency: %w", salientErr)
	}
	logger.Debug("clustered", "strategy", opts.Strategy.String(), "k", centroids.Len())

	result, err := palette.Select(palette.Input{
		Name:      opts.Name,
		Space:     space,
		Image:     trimmed,
		Histogram: hist,
		Saliency:  salientResp.Saliency,
		Centroids: centroids,
		Logger:    logger,
	}, palette.Config{
		Clamp:                 opts.Clamp,
		MinShare:              opts.ClampPercent / 100,
		MinForegroundContrast: opts.MinForegroundContrast,
		SaliencyWeight:        opts.SaliencyWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to select palette: %w", err)
	}

	return &Palette{
		Space:       opts.Space,
		Outer:       space.ToRGB(result.Outer),
		Inner:       space.ToRGB(result.Inner),
		Accent:      space.ToRGB(result.Accent),
		Third:       space.ToRGB(result.Third),
		Centroids:   swatches(space, result.Centroids),
		InnerColors: swatches(space, result.InnerColors),
		OuterColors: swatches(space, result.OuterColors),
	}, nil
}
