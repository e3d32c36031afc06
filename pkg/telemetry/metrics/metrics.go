// Package metrics provides the Prometheus exposition endpoint for the
// Janus decision engine. The engine package owns its own instruments; this
// package owns the registry they are registered with and the HTTP server
// that exposes them.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mercator-hq/janus/pkg/config"
)

// Server owns a metrics registry and optionally exposes it over HTTP.
type Server struct {
	registry *prometheus.Registry
	cfg      config.MetricsConfig
	logger   *slog.Logger
	httpSrv  *http.Server
}

// NewServer creates a metrics server with a fresh registry pre-loaded with
// the standard Go and process collectors.
func NewServer(cfg config.MetricsConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default().With("component", "metrics")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Server{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// Registerer returns the registerer engine instruments register with.
func (s *Server) Registerer() prometheus.Registerer {
	return s.registry
}

// Handler returns the HTTP handler for the exposition endpoint.
func (s *Server) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}

// Start begins serving the exposition endpoint when a listen address is
// configured. It returns immediately; serving errors are logged.
func (s *Server) Start() error {
	if !s.cfg.Enabled || s.cfg.ListenAddress == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, s.Handler())

	s.httpSrv = &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("metrics endpoint listening",
			"address", s.cfg.ListenAddress,
			"path", s.cfg.Path,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics endpoint failed", "error", err)
		}
	}()

	return nil
}

// Shutdown stops the HTTP listener, if any.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down metrics endpoint: %w", err)
	}
	return nil
}
