// Package server runs the WebDAV gateway as an HTTP listener with a
// managed lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zotdav/zotdav/internal/logger"
	"github.com/zotdav/zotdav/pkg/config"
)

// Server wraps an http.Server serving the WebDAV gateway.
//
// Lifecycle:
//  1. Creation: New() with a handler and server configuration
//  2. Startup: Serve() starts the listener and blocks
//  3. Shutdown: Context cancellation triggers graceful shutdown, bounded
//     by the configured shutdown timeout
//
// Serve() should only be called once per instance. Stop() is safe to call
// multiple times and concurrently with Serve().
type Server struct {
	server *http.Server
	port   int

	// shutdownTimeout bounds graceful shutdown after cancellation
	shutdownTimeout time.Duration

	stopOnce sync.Once
}

// New creates a server for the given handler in a stopped state.
//
// Panics if handler is nil (indicates programmer error).
func New(handler http.Handler, cfg config.ServerConfig) *Server {
	if handler == nil {
		panic("handler cannot be nil")
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		port:            cfg.Port,
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Serve starts the listener and blocks until the context is cancelled or
// the server fails.
//
// Returns:
//   - nil on graceful shutdown after cancellation
//   - error if the listener failed or shutdown exceeded its timeout
func (s *Server) Serve(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Gateway listening on port %d", s.port)

		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received (reason: %v)", ctx.Err())
		return s.Stop()
	case err := <-errChan:
		return fmt.Errorf("gateway server failed: %w", err)
	}
}

// Stop initiates graceful shutdown, waiting up to the configured shutdown
// timeout for in-flight requests to drain. Safe to call multiple times.
func (s *Server) Stop() error {
	var shutdownErr error
	s.stopOnce.Do(func() {
		// Don't reuse the cancelled serve ctx - it would abort shutdown
		// immediately.
		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("gateway shutdown error: %w", err)
		} else {
			logger.Info("Gateway stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	return s.port
}
