// Package server exposes the conversion service over HTTP: uploads,
// sync and async conversion, job status polling, downloads, format
// discovery, and health.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/meshforge/internal/config"
	"git.home.luguber.info/inful/meshforge/internal/geometry"
	"git.home.luguber.info/inful/meshforge/internal/jobs"
	"git.home.luguber.info/inful/meshforge/internal/pipeline"
	"git.home.luguber.info/inful/meshforge/internal/reaper"
)

// Server wires the conversion pipeline, job tracker, and reaper behind
// the HTTP API.
type Server struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	tracker  *jobs.Tracker
	reaper   *reaper.Reaper
	kernel   geometry.Kernel // nil means degraded mode

	metricsHandler http.Handler
	httpServer     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler mounts a metrics endpoint handler at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithKernel records the geometry kernel in use; nil enables the
// degraded-mode behavior on the sync path.
func WithKernel(k geometry.Kernel) Option {
	return func(s *Server) { s.kernel = k }
}

// New constructs the HTTP service wiring.
func New(cfg *config.Config, pl *pipeline.Pipeline, tracker *jobs.Tracker, rp *reaper.Reaper, options ...Option) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pl,
		tracker:  tracker,
		reaper:   rp,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Handler returns the routed handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/convert", s.handleConvert)
	mux.HandleFunc("GET /api/v1/status/{id}", s.handleStatus)
	mux.HandleFunc("GET /api/v1/download/{id}", s.handleDownload)
	mux.HandleFunc("GET /api/v1/formats", s.handleFormats)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}
	return mux
}

// Start binds the listen address and serves until Shutdown. The bind
// happens eagerly so an occupied port fails fast instead of surfacing
// from the serve goroutine.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server terminated", slog.String("error", err.Error()))
		}
	}()

	slog.Info("HTTP server listening", slog.String("addr", addr))
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
