// Package server exposes palette extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/coverhue/internal/colour"
	"github.com/jmylchreest/coverhue/internal/extract"
	coverimage "github.com/jmylchreest/coverhue/internal/image"
	"github.com/jmylchreest/coverhue/internal/raster"
	"github.com/jmylchreest/coverhue/internal/store"
	"github.com/jmylchreest/coverhue/internal/task"
	"github.com/jmylchreest/coverhue/internal/version"
)

const (
	// DefaultAddr is the listen address used when none is configured.
	DefaultAddr = "127.0.0.1:8457"
	// DefaultMaxBodyBytes caps uploaded images.
	DefaultMaxBodyBytes = 32 << 20

	shutdownTimeout = 5 * time.Second
)

// Config configures the server.
type Config struct {
	Addr         string
	MaxBodyBytes int64
	// Defaults are the extraction options requests start from.
	Defaults extract.Options
	// Prepare controls how decoded images are scaled.
	Prepare coverimage.PrepareOptions
	// Store caches palettes. Nil disables caching.
	Store  *store.Store
	Logger hclog.Logger
}

// Server answers palette requests.
type Server struct {
	cfg    Config
	logger hclog.Logger
	router chi.Router
}

// New builds a server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Defaults.Strategy == nil {
		defaults := extract.DefaultOptions()
		defaults.Dispatcher = cfg.Defaults.Dispatcher
		cfg.Defaults = defaults
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("invalid default options: %w", err)
	}
	if cfg.Prepare.Fit == "" {
		cfg.Prepare = coverimage.DefaultPrepareOptions()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	s := &Server{cfg: cfg, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/options", s.handleOptions)
		r.Post("/palette", s.handlePalette)
	})
	s.router = r
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// OptionsResponse describes the defaults and accepted values.
type OptionsResponse struct {
	Defaults map[string]string `json:"defaults"`
	Spaces   []string          `json:"spaces"`
	Fits     []string          `json:"fits"`
	Dispatch string            `json:"dispatcher"`
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	d := s.cfg.Defaults
	mode := task.ModeInline
	if d.Dispatcher != nil {
		mode = d.Dispatcher.Mode()
	}
	spaces := make([]string, 0, len(colour.Kinds()))
	for _, k := range colour.Kinds() {
		spaces = append(spaces, k.String())
	}
	writeJSON(w, http.StatusOK, OptionsResponse{
		Defaults: map[string]string{
			"space":    d.Space.String(),
			"strategy": d.Strategy.String(),
			"clamp":    extract.FormatClamp(d.Clamp, d.ClampPercent),
			"trim":     strconv.FormatFloat(d.TrimPercent, 'g', -1, 64),
			"contrast": strconv.FormatFloat(d.MinForegroundContrast, 'g', -1, 64),
			"saliency": strconv.FormatFloat(d.SaliencyWeight, 'g', -1, 64),
			"fit":      string(s.cfg.Prepare.Fit),
			"size":     strconv.Itoa(s.cfg.Prepare.Size),
		},
		Spaces:   spaces,
		Fits:     []string{string(coverimage.FitCover), string(coverimage.FitStretch), string(coverimage.FitNone)},
		Dispatch: string(mode),
	})
}

// PaletteResponse is the body of a successful palette request.
type PaletteResponse struct {
	extract.PaletteJSON
	Cached bool `json:"cached"`
}

// handlePalette extracts the palette of the request body. The body is an
// encoded image, or raw pixels when the raw query parameter gives their
// shape as WxHxC. Extraction options come from query parameters.
func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := s.cfg.Defaults
	opts.Name = middleware.GetReqID(r.Context())
	opts.Logger = s.logger
	for _, name := range extract.OptionNames() {
		if v := query.Get(name); v != "" {
			if err := opts.Set(name, v); err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
		}
	}
	if err := opts.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	img, err := s.decode(body, query.Get("raw"), query.Get("fit"), query.Get("size"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		p      *extract.Palette
		cached bool
	)
	if s.cfg.Store != nil {
		p, cached, err = s.cfg.Store.Extract(img, opts)
	} else {
		p, err = extract.Extract(img, opts)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, PaletteResponse{PaletteJSON: p.JSON(), Cached: cached})
}

func (s *Server) decode(body []byte, rawShape, fit, size string) (raster.Image, error) {
	if rawShape != "" {
		parts := strings.Split(rawShape, "x")
		if len(parts) != 3 {
			return raster.Image{}, fmt.Errorf("raw shape must be WxHxC, got %q", rawShape)
		}
		var dims [3]int
		for i, part := range parts {
			n, err := strconv.Atoi(part)
			if err != nil {
				return raster.Image{}, fmt.Errorf("raw shape must be WxHxC, got %q", rawShape)
			}
			dims[i] = n
		}
		return raster.New(body, dims[0], dims[1], dims[2])
	}

	prep := s.cfg.Prepare
	if fit != "" {
		f, err := coverimage.ParseFit(fit)
		if err != nil {
			return raster.Image{}, err
		}
		prep.Fit = f
	}
	if size != "" {
		n, err := strconv.Atoi(strings.TrimSpace(size))
		if err != nil {
			return raster.Image{}, fmt.Errorf("invalid size %q: %w", size, err)
		}
		prep.Size = n
	}

	decoded, err := coverimage.Decode(body)
	if err != nil {
		return raster.Image{}, err
	}
	prepared, err := coverimage.Prepare(decoded, prep)
	if err != nil {
		return raster.Image{}, err
	}
	return coverimage.ToRaster(prepared)
}

// statusFor maps extraction errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, extract.ErrInvalidOptions),
		errors.Is(err, extract.ErrInvalidImage),
		errors.Is(err, extract.ErrEmptyImage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
