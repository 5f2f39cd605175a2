// Package web is the External Interfaces transport layer (spec §6): an
// HTTP/JSON surface in front of the Agent Pipeline, grounded on the
// teacher's internal/gateway.Server (config-driven construction, separate
// Start/Stop lifecycle methods, a dedicated listener per concern) adapted
// from gRPC+HTTP to a single chat API plus a side metrics listener.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aqagent/aqagent/internal/agent"
	"github.com/aqagent/aqagent/internal/health"
	"github.com/aqagent/aqagent/internal/sessions"
	"github.com/aqagent/aqagent/internal/tools/policy"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerConfig configures the HTTP surface: addresses, the Agent Pipeline
// it fronts, and the dependencies its handlers need directly (the session
// store, for GET/DELETE /sessions/{id}; the health monitor, for /healthz).
type ServerConfig struct {
	Host        string
	HTTPPort    int
	MetricsPort int

	Pipeline *agent.Pipeline
	Sessions sessions.Store
	Health   *health.Monitor

	// ToolResolver/ToolPolicy gate which tools a turn may execute; attached
	// to every request's context. Nil disables the override (the Executor
	// falls back to its own default policy).
	ToolResolver *policy.Resolver
	ToolPolicy   *policy.Policy

	// APIKeys, when non-empty, are the keys AuthMiddleware accepts.
	APIKeys        []string
	AllowedOrigins []string

	Logger *slog.Logger
}

// Server owns the two listeners: the chat API (authenticated, CORS-aware)
// and a side metrics listener (unauthenticated, not internet-facing in a
// typical deployment), mirroring the teacher's split between its gRPC and
// HTTP addresses in internal/gateway.Server.
type Server struct {
	cfg ServerConfig

	api     *http.Server
	metrics *http.Server
}

// NewServer builds the routed mux for both listeners but does not bind
// any sockets; call Start to do that.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("web: ServerConfig.Pipeline is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("web: ServerConfig.Sessions is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Health == nil {
		cfg.Health = health.NewMonitor()
	}

	h := &handlers{
		pipeline:     cfg.Pipeline,
		sessions:     cfg.Sessions,
		health:       cfg.Health,
		logger:       cfg.Logger,
		toolResolver: cfg.ToolResolver,
		toolPolicy:   cfg.ToolPolicy,
	}

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /chat", h.handleChat)
	apiMux.HandleFunc("POST /chat/stream", h.handleChatStream)
	apiMux.HandleFunc("GET /sessions/{id}", h.handleGetSession)
	apiMux.HandleFunc("DELETE /sessions/{id}", h.handleDeleteSession)
	apiMux.HandleFunc("GET /healthz", h.handleHealthz)

	var apiHandler http.Handler = apiMux
	apiHandler = CORSMiddleware(cfg.AllowedOrigins)(apiHandler)
	apiHandler = AuthMiddleware(cfg.APIKeys, cfg.Logger)(apiHandler)
	apiHandler = LoggingMiddleware(cfg.Logger)(apiHandler)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", promhttp.Handler())
	metricsMux.HandleFunc("GET /healthz", h.handleHealthz)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort)
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.MetricsPort)

	return &Server{
		cfg:     cfg,
		api:     &http.Server{Addr: addr, Handler: apiHandler, ReadHeaderTimeout: 10 * time.Second},
		metrics: &http.Server{Addr: metricsAddr, Handler: metricsMux, ReadHeaderTimeout: 10 * time.Second},
	}, nil
}

// Start binds and serves both listeners, blocking until ctx is cancelled
// or one of them fails. A clean shutdown (via Stop) is not reported as an
// error.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		s.cfg.Logger.Info("chat API listening", "addr", s.api.Addr)
		if err := s.api.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("chat API server: %w", err)
			return
		}
		errCh <- nil
	}()

	go func() {
		s.cfg.Logger.Info("metrics listening", "addr", s.metrics.Addr)
		if err := s.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop gracefully shuts down both listeners within ctx's deadline.
func (s *Server) Stop(ctx context.Context) error {
	var errs []error
	if err := s.api.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("chat API shutdown: %w", err))
	}
	if err := s.metrics.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
	}
	return errors.Join(errs...)
}
