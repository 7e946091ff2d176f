package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/areascore/internal/api/handlers"
	"github.com/wonny/areascore/pkg/config"
	"github.com/wonny/areascore/pkg/logger"
)

// ShutdownTimeout bounds graceful shutdown once the run context ends
const ShutdownTimeout = 30 * time.Second

// Server is an HTTP server bound to a run context
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	name       string
	httpServer *http.Server
	logger     *logger.Logger
}

// NewAPIServer serves the read API on PORT, with /metrics when enabled
func NewAPIServer(cfg *config.Config, scoreHandler *handlers.ScoreHandler, log *logger.Logger) *Server {
	return newServer("api", ":"+cfg.Port, NewRouter(scoreHandler, cfg.MetricsEnabled, log), log)
}

// NewMetricsServer serves only /healthz and /metrics on METRICS_PORT.
// Used by processes without the read API, such as the scheduler.
func NewMetricsServer(cfg *config.Config, log *logger.Logger) *Server {
	return newServer("metrics", ":"+cfg.MetricsPort, NewRouter(nil, true, log), log)
}

func newServer(name, addr string, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		name: name,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: log.WithField("server", name),
	}
}

// Addr returns the configured listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run listens on Addr and serves until ctx ends
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully within
// ShutdownTimeout. A listener failure is returned immediately.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.WithField("addr", ln.Addr().String()).Info("Starting server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server stopped: %w", s.name, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown %s server: %w", s.name, err)
	}
	return nil
}
