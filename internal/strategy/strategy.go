// Package strategy decides how many clusters to ask of the k-means engine.
// Every strategy fans its clustering runs out through a task.Dispatcher and
// waits for all of them before deciding.
package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/kmeans"
	"github.com/jmylchreest/coverhue/internal/task"
)

// Input is the data shared by every clustering run of one extraction.
type Input struct {
	// Name identifies the extraction in logs.
	Name  string
	Space colour.Kind
	// Entries is the histogram sorted by descending count.
	Entries []histogram.Entry
	// TotalPixels is the number of pixels the histogram was built from.
	TotalPixels int
	Dispatcher  task.Dispatcher
	Logger      hclog.Logger
}

func (in Input) logger() hclog.Logger {
	if in.Logger == nil {
		return hclog.NewNullLogger()
	}
	return in.Logger
}

func (in Input) dispatcher() task.Dispatcher {
	if in.Dispatcher == nil {
		return task.NewInline(in.Logger)
	}
	return in.Dispatcher
}

// run is one clustering job.
type run struct {
	entries []histogram.Entry
	k       int
}

// clusterAll dispatches every run at once and waits for all of them. The
// results follow the order of runs.
func (in Input) clusterAll(runs []run) ([]*kmeans.Result, error) {
	reqs := make([]task.Request, len(runs))
	for i, r := range runs {
		reqs[i] = task.KMeans(in.Name, in.Space, r.entries, r.k)
	}
	responses, err := task.WaitAll(task.RunAll(in.dispatcher(), reqs))
	if err != nil {
		return nil, err
	}
	results := make([]*kmeans.Result, len(responses))
	for i, resp := range responses {
		results[i] = resp.KMeans
	}
	return results, nil
}

// cluster runs k-means on entries once per k, in parallel.
func (in Input) cluster(entries []histogram.Entry, ks []int) ([]*kmeans.Result, error) {
	runs := make([]run, len(ks))
	for i, k := range ks {
		runs[i] = run{entries: entries, k: k}
	}
	return in.clusterAll(runs)
}

// Strategy chooses a cluster count and returns the resulting centroids.
type Strategy interface {
	Centroids(in Input) (kmeans.Set, error)
	// String returns the form accepted by Parse.
	String() string
}

// Default returns the strategy used when none is configured.
func Default() Strategy {
	return DefaultElbow()
}

// Parse parses a strategy description:
//
//	constant[:k]
//	elbow[:s1,s2,...;e1,e2,...]
//	gap[:min-max]
func Parse(s string) (Strategy, error) {
	name, args, hasArgs := strings.Cut(strings.TrimSpace(s), ":")
	switch strings.ToLower(name) {
	case "constant":
		c := DefaultConstant()
		if hasArgs {
			k, err := strconv.Atoi(args)
			if err != nil {
				return nil, fmt.Errorf("invalid constant k %q: %w", args, err)
			}
			c.K = k
		}
		return validated(c)
	case "elbow":
		e := DefaultElbow()
		if hasArgs {
			start, end, ok := strings.Cut(args, ";")
			if !ok {
				return nil, fmt.Errorf("elbow arguments must be start;end, got %q", args)
			}
			var err error
			if e.Start, err = parseInts(start); err != nil {
				return nil, fmt.Errorf("invalid elbow start: %w", err)
			}
			if e.End, err = parseInts(end); err != nil {
				return nil, fmt.Errorf("invalid elbow end: %w", err)
			}
		}
		return validated(e)
	case "gap":
		g := DefaultGap()
		if hasArgs {
			lo, hi, ok := strings.Cut(args, "-")
			if !ok {
				return nil, fmt.Errorf("gap arguments must be min-max, got %q", args)
			}
			var err error
			if g.MinK, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil {
				return nil, fmt.Errorf("invalid gap min: %w", err)
			}
			if g.MaxK, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
				return nil, fmt.Errorf("invalid gap max: %w", err)
			}
		}
		return validated(g)
	default:
		return nil, fmt.Errorf("unknown strategy %q (valid: constant, elbow, gap)", s)
	}
}

type validator interface {
	Strategy
	Validate() error
}

func validated(s validator) (Strategy, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func formatInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
