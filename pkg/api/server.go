package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/api/auth"
	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// Server is the gridstore HTTP API server.
type Server struct {
	server       *http.Server
	config       APIConfig
	listener     net.Listener
	shutdownOnce sync.Once
}

// NewServer creates a new API server over the given store and bucket.
//
// When the configuration carries a JWT secret the file routes require
// Bearer tokens; otherwise the API runs open, which is only sensible for
// local development.
func NewServer(cfg APIConfig, store docstore.Store, b *bucket.Bucket) (*Server, error) {
	cfg.ApplyDefaults()

	var jwtService *auth.JWTService
	if cfg.HasJWTSecret() {
		svc, err := auth.NewJWTService(auth.JWTConfig{
			Secret:        cfg.GetJWTSecret(),
			Issuer:        cfg.JWT.Issuer,
			TokenDuration: cfg.JWT.TokenDuration,
		})
		if err != nil {
			return nil, fmt.Errorf("create jwt service: %w", err)
		}
		jwtService = svc
	} else {
		logger.Warn("API authentication disabled: no JWT secret configured")
	}

	router := NewRouter(store, b, jwtService)

	return &Server{
		config: cfg,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}, nil
}

// Start begins serving HTTP requests. Blocks until the context is cancelled
// or the server fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.server.Addr, err)
	}
	s.listener = ln

	logger.Info("API server listening",
		"addr", ln.Addr().String(),
		"auth_enabled", s.config.HasJWTSecret())

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errChan:
		return fmt.Errorf("API server error: %w", err)
	}
}

// Stop gracefully shuts down the server, draining in-flight requests.
// Safe to call multiple times.
func (s *Server) Stop() error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Info("shutting down API server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err = s.server.Shutdown(ctx)
	})
	return err
}

// Port returns the port the server is listening on. Useful when the
// configured port is 0 and the kernel picked one.
func (s *Server) Port() int {
	if s.listener == nil {
		return s.config.Port
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}
