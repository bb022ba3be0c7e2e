// Package task runs the CPU-bound units of palette extraction (one k-means
// run, or one saliency map) through interchangeable dispatchers: inline,
// one goroutine per task, a shared goroutine pool, or a worker process.
package task

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/histogram"
	"github.com/jmylchreest/coverhue/internal/kmeans"
	"github.com/jmylchreest/coverhue/internal/raster"
	"github.com/jmylchreest/coverhue/internal/saliency"
)

// Kind is the type of work a task performs.
type Kind uint8

const (
	// KindKMeans clusters a histogram.
	KindKMeans Kind = iota + 1
	// KindSaliency computes a saliency map.
	KindSaliency
)

func (k Kind) String() string {
	switch k {
	case KindKMeans:
		return "kmeans"
	case KindSaliency:
		return "saliency"
	default:
		return fmt.Sprintf("task(%d)", uint8(k))
	}
}

// ErrTaskFailed matches every error produced by a failed task.
var ErrTaskFailed = errors.New("task failed")

// Error reports the failure of one task.
type Error struct {
	Kind Kind
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("%s task failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s task for %q failed: %v", e.Kind, e.Name, e.Err)
}

// Unwrap exposes both ErrTaskFailed and the underlying cause.
func (e *Error) Unwrap() []error {
	return []error{ErrTaskFailed, e.Err}
}

// Request describes one task. Entries and Image are shared with the caller
// and must not be modified while the task runs.
type Request struct {
	Kind  Kind
	Name  string
	Space colour.Kind

	// KindKMeans: histogram entries sorted by descending count, and k.
	Entries []histogram.Entry
	K       int

	// KindSaliency: the source pixels.
	Image raster.Image
}

// KMeans builds a clustering request.
func KMeans(name string, space colour.Kind, entries []histogram.Entry, k int) Request {
	return Request{Kind: KindKMeans, Name: name, Space: space, Entries: entries, K: k}
}

// Saliency builds a saliency map request.
func Saliency(name string, space colour.Kind, img raster.Image) Request {
	return Request{Kind: KindSaliency, Name: name, Space: space, Image: img}
}

// Response is the result of a task. Exactly one field is set, matching the
// request kind.
type Response struct {
	KMeans   *kmeans.Result
	Saliency []byte
}

// Execute runs a request on the calling goroutine.
func Execute(logger hclog.Logger, req Request) (Response, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if !req.Space.Valid() {
		return Response{}, fmt.Errorf("unknown colour space %d", req.Space)
	}
	space := req.Space.Space()
	logger = logger.With("name", req.Name, "task", req.Kind.String())

	switch req.Kind {
	case KindKMeans:
		res, err := kmeans.Run(logger, space, req.Entries, req.K)
		if err != nil {
			return Response{}, err
		}
		return Response{KMeans: res}, nil
	case KindSaliency:
		return Response{Saliency: saliency.Compute(space, req.Image)}, nil
	default:
		return Response{}, fmt.Errorf("unknown task kind %d", req.Kind)
	}
}

// safeExecute runs Execute, turning a panic into an error, and wraps any
// failure in *Error.
func safeExecute(logger hclog.Logger, req Request) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = Response{}, fail(req, fmt.Errorf("panic: %v", r))
		}
	}()

	resp, err = Execute(logger, req)
	if err != nil {
		return Response{}, fail(req, err)
	}
	return resp, nil
}

// fail wraps err in *Error unless it already is one.
func fail(req Request, err error) error {
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Kind: req.Kind, Name: req.Name, Err: err}
}
