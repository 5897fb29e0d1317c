// Package httpserver wires the latexd HTTP endpoints onto a single listener.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/netutil"

	"git.home.luguber.info/inful/latexd/internal/config"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/logfields"
	"git.home.luguber.info/inful/latexd/internal/server/handlers"
	smw "git.home.luguber.info/inful/latexd/internal/server/middleware"
)

const (
	compilePath = "/compile"
	historyPath = "/api/history"
	healthzPath = "/healthz"
)

// Server manages the compile, health, metrics, and history endpoints.
type Server struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger

	compileHandlers    *handlers.CompileHandlers
	monitoringHandlers *handlers.MonitoringHandlers
	historyHandlers    *handlers.HistoryHandlers

	// middleware chain
	mchain func(http.Handler) http.Handler

	mu       sync.Mutex
	srv      *http.Server
	listener net.Listener
}

// New constructs a new HTTP server wiring instance.
func New(cfg *config.Config, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.StartTime.IsZero() {
		opts.StartTime = time.Now()
	}

	s := &Server{cfg: cfg, opts: opts, logger: opts.Logger}
	s.compileHandlers = handlers.NewCompileHandlers(opts.Compiler, cfg.Server.MaxBodyBytes, opts.Logger)
	s.monitoringHandlers = handlers.NewMonitoringHandlers(opts.StartTime, opts.Logger)
	s.historyHandlers = handlers.NewHistoryHandlers(opts.History, opts.Logger)
	s.mchain = smw.Chain(opts.Logger, ferrors.NewHTTPErrorAdapter(opts.Logger), smw.Options{
		AllowedOrigin: cfg.Server.CORSAllowedOrigin,
	})
	return s
}

// Handler returns the fully wrapped route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(compilePath, s.compileHandlers.HandleCompile)
	mux.HandleFunc(historyPath, s.historyHandlers.HandleHistory)

	healthPath := s.cfg.Monitoring.Health.Path
	mux.HandleFunc(healthPath, s.monitoringHandlers.HandleHealthCheck)
	if healthPath != healthzPath {
		mux.HandleFunc(healthzPath, s.monitoringHandlers.HandleHealthCheck)
	}

	if s.cfg.Monitoring.Metrics.Enabled && s.opts.PrometheusHandler != nil {
		mux.Handle(s.cfg.Monitoring.Metrics.Path, s.opts.PrometheusHandler)
	}
	return s.mchain(mux)
}

// Start binds the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return ferrors.DaemonError("HTTP server already started").Build()
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryDaemon, "failed to bind HTTP listener").
			WithContext("addr", s.cfg.Server.Addr).
			Build()
	}
	if n := s.cfg.Server.MaxConnections; n > 0 {
		ln = netutil.LimitListener(ln, n)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.srv, s.listener = srv, ln

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", logfields.Error(err))
		}
	}()

	s.logger.Info("HTTP server started",
		slog.String("addr", ln.Addr().String()),
		slog.Int("max_connections", s.cfg.Server.MaxConnections))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server, waiting for in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.srv
	s.srv, s.listener = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
