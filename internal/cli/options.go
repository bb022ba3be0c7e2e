package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/coverhue/internal/extract"
	"github.com/jmylchreest/coverhue/internal/image"
	"github.com/jmylchreest/coverhue/internal/store"
	"github.com/jmylchreest/coverhue/internal/task"
)

// EnvPrefix prefixes the environment variables that supply flag defaults,
// e.g. COVERHUE_SPACE for --space.
const EnvPrefix = "COVERHUE_"

// envFlags are the flags that may also be set from the environment.
var envFlags = []string{"space", "strategy", "clamp", "trim", "contrast", "saliency", "dispatcher", "fit", "size", "cache"}

// optionFlags holds the extraction flags shared by extract and serve.
type optionFlags struct {
	space      string
	strategy   string
	clamp      string
	trim       float64
	contrast   float64
	saliency   float64
	dispatcher string
	fit        string
	size       int
	cache      string
}

func (f *optionFlags) register(cmd *cobra.Command, mode task.Mode, cache string) {
	d := extract.DefaultOptions()
	flags := cmd.Flags()
	flags.StringVar(&f.space, "space", d.Space.String(), "working colour space (rgb, oklab, lab)")
	flags.StringVar(&f.strategy, "strategy", d.Strategy.String(), "cluster count strategy (constant[:k], elbow[:s1,s2;e1,e2], gap[:min-max])")
	flags.StringVar(&f.clamp, "clamp", extract.FormatClamp(d.Clamp, d.ClampPercent), "clamp centroids to source colours (off, on, or a percent floor)")
	flags.Float64Var(&f.trim, "trim", d.TrimPercent, "percent trimmed from every side")
	flags.Float64Var(&f.contrast, "contrast", d.MinForegroundContrast, "minimum APCA contrast of inner against outer")
	flags.Float64Var(&f.saliency, "saliency", d.SaliencyWeight, "extra weight of salient pixels when choosing inner")
	flags.StringVar(&f.dispatcher, "dispatcher", string(mode), "how clustering tasks run (inline, dedicated, shared, process)")
	flags.StringVar(&f.fit, "fit", string(image.FitCover), "how images are scaled before extraction (cover, stretch, none)")
	flags.IntVar(&f.size, "size", image.DefaultSize, "side length images are scaled to")
	flags.StringVar(&f.cache, "cache", cache, "palette cache: off, memory, auto (user cache dir) or a database path")
}

// applyEnv fills every flag not given on the command line from its
// environment variable.
func applyEnv(cmd *cobra.Command) error {
	var errs []error
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if flag.Changed || !slices.Contains(envFlags, flag.Name) {
			return
		}
		name := EnvPrefix + strings.ToUpper(flag.Name)
		value, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		if err := flag.Value.Set(value); err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", name, err))
			return
		}
		flag.Changed = true
	})
	return errors.Join(errs...)
}

// options builds validated extraction options. The dispatcher is created
// here too.
func (f *optionFlags) options(logger hclog.Logger) (extract.Options, error) {
	opts := extract.DefaultOptions()
	for name, value := range map[string]string{
		"space":    f.space,
		"strategy": f.strategy,
		"clamp":    f.clamp,
	} {
		if err := opts.Set(name, value); err != nil {
			return extract.Options{}, err
		}
	}
	opts.TrimPercent = f.trim
	opts.MinForegroundContrast = f.contrast
	opts.SaliencyWeight = f.saliency
	opts.Logger = logger
	if err := opts.Validate(); err != nil {
		return extract.Options{}, err
	}

	mode, err := task.ParseMode(f.dispatcher)
	if err != nil {
		return extract.Options{}, err
	}
	opts.Dispatcher, err = task.New(task.Config{Mode: mode, Logger: logger.Named("task")})
	if err != nil {
		return extract.Options{}, err
	}
	return opts, nil
}

func (f *optionFlags) prepare() (image.PrepareOptions, error) {
	fit, err := image.ParseFit(f.fit)
	if err != nil {
		return image.PrepareOptions{}, err
	}
	return image.PrepareOptions{Fit: fit, Size: f.size}, nil
}

// openStore opens the palette cache named by --cache. It returns nil when
// caching is off.
func (f *optionFlags) openStore(logger hclog.Logger) (*store.Store, error) {
	switch strings.ToLower(strings.TrimSpace(f.cache)) {
	case "", "off", "none":
		return nil, nil
	case "memory":
		return store.Open("", logger)
	case "auto":
		path, err := store.DefaultPath()
		if err != nil {
			return nil, err
		}
		return store.Open(path, logger)
	default:
		return store.Open(f.cache, logger)
	}
}
