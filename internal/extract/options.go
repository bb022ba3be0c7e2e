package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/strategy"
	"github.com/jmylchreest/coverhue/internal/task"
)

// Options configures Extract.
type Options struct {
	// Space is the working colour space.
	Space colour.Kind
	// Strategy chooses the number of clusters.
	Strategy strategy.Strategy
	// Clamp restricts centroids to colours that occur in the image.
	Clamp bool
	// ClampPercent is the share of pixels, in percent, a source colour needs
	// to be a clamp target.
	ClampPercent float64
	// TrimPercent is removed from every side before extraction.
	TrimPercent float64
	// MinForegroundContrast is the APCA contrast inner needs against outer.
	MinForegroundContrast float64
	// SaliencyWeight is how much salient pixels count when choosing inner.
	SaliencyWeight float64

	// Dispatcher runs clustering and saliency tasks. Nil runs them inline.
	Dispatcher task.Dispatcher
	// Name labels log lines of this extraction.
	Name   string
	Logger hclog.Logger
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{
		Space:                 colour.KindOKLab,
		Strategy:              strategy.Default(),
		Clamp:                 true,
		ClampPercent:          0.5,
		TrimPercent:           2.5,
		MinForegroundContrast: 20,
		SaliencyWeight:        2,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if !o.Space.Valid() {
		return fmt.Errorf("invalid colour space: %s", o.Space)
	}
	if o.Strategy == nil {
		return fmt.Errorf("no cluster count strategy")
	}
	if v, ok := o.Strategy.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if o.ClampPercent < 0 || o.ClampPercent > 100 {
		return fmt.Errorf("clamp percent must be within [0, 100], got %v", o.ClampPercent)
	}
	if o.TrimPercent < 0 || o.TrimPercent >= 50 {
		return fmt.Errorf("trim percent must be within [0, 50), got %v", o.TrimPercent)
	}
	if o.MinForegroundContrast < 0 || o.MinForegroundContrast > 100 {
		return fmt.Errorf("minimum foreground contrast must be within [0, 100], got %v", o.MinForegroundContrast)
	}
	if o.SaliencyWeight < 0 {
		return fmt.Errorf("saliency weight must not be negative, got %v", o.SaliencyWeight)
	}
	return nil
}

// Key returns a canonical description of every option that affects the
// result. Two option sets with the same key produce the same palette.
func (o Options) Key() string {
	strat := "<nil>"
	if o.Strategy != nil {
		strat = o.Strategy.String()
	}
	return strings.Join([]string{
		"space=" + o.Space.String(),
		"strategy=" + strat,
		"clamp=" + FormatClamp(o.Clamp, o.ClampPercent),
		"trim=" + strconv.FormatFloat(o.TrimPercent, 'g', -1, 64),
		"contrast=" + strconv.FormatFloat(o.MinForegroundContrast, 'g', -1, 64),
		"saliency=" + strconv.FormatFloat(o.SaliencyWeight, 'g', -1, 64),
	}, ";")
}

// ParseClamp parses "off", "on" (no floor) or a percent floor such as "0.5".
func ParseClamp(s string) (enabled bool, percent float64, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "false", "no":
		return false, 0, nil
	case "on", "true", "yes":
		return true, 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
	if err != nil {
		return false, 0, fmt.Errorf("invalid clamp %q (use off, on or a percent)", s)
	}
	if v < 0 || v > 100 {
		return false, 0, fmt.Errorf("clamp percent must be within [0, 100], got %v", v)
	}
	return true, v, nil
}

// FormatClamp is the inverse of ParseClamp.
func FormatClamp(enabled bool, percent float64) string {
	if !enabled {
		return "off"
	}
	return strconv.FormatFloat(percent, 'g', -1, 64)
}

// OptionNames lists the option names Set accepts, in a stable order.
func OptionNames() []string {
	return []string{"space", "strategy", "clamp", "trim", "contrast", "saliency"}
}

// Set parses value into the option called name. It is how string sources
// such as flags, environment variables and query parameters reach Options.
func (o *Options) Set(name, value string) error {
	switch name {
	case "space":
		kind, err := colour.ParseKind(value)
		if err != nil {
			return err
		}
		o.Space = kind
	case "strategy":
		s, err := strategy.Parse(value)
		if err != nil {
			return err
		}
		o.Strategy = s
	case "clamp":
		enabled, percent, err := ParseClamp(value)
		if err != nil {
			return err
		}
		o.Clamp, o.ClampPercent = enabled, percent
	case "trim", "contrast", "saliency":
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, value, err)
		}
		switch name {
		case "trim":
			o.TrimPercent = v
		case "contrast":
			o.MinForegroundContrast = v
		default:
			o.SaliencyWeight = v
		}
	default:
		return fmt.Errorf("unknown option %q", name)
	}
	return nil
}
