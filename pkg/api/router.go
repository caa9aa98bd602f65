// Package api implements the HTTP API server for gridstore.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/gridstore/internal/logger"
	"github.com/marmos91/gridstore/pkg/api/auth"
	"github.com/marmos91/gridstore/pkg/api/handlers"
	"github.com/marmos91/gridstore/pkg/api/middleware"
	"github.com/marmos91/gridstore/pkg/bucket"
	"github.com/marmos91/gridstore/pkg/docstore"
)

// NewRouter creates the API router with all routes and middleware configured.
//
// When jwtService is nil the file routes are unauthenticated; health and
// metrics endpoints are always public.
func NewRouter(store docstore.Store, b *bucket.Bucket, jwtService *auth.JWTService) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	healthHandler := handlers.NewHealthHandler(store, b)
	filesHandler := handlers.NewFilesHandler(b)

	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/files", func(r chi.Router) {
		if jwtService != nil {
			r.Use(middleware.JWTAuth(jwtService))
		}

		r.Get("/", filesHandler.List)
		r.Post("/", filesHandler.Upload)
		r.Get("/{id}", filesHandler.Download)
		r.Get("/{id}/info", filesHandler.Info)

		// Deletion is destructive and admin only when auth is enabled
		if jwtService != nil {
			r.With(middleware.RequireAdmin()).Delete("/{id}", filesHandler.Delete)
		} else {
			r.Delete("/{id}", filesHandler.Delete)
		}
	})

	return r
}

// requestLogger logs each HTTP request with method, path, status and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			logger.KeyBytesWritten, int64(ww.BytesWritten()),
			logger.KeyClientIP, r.RemoteAddr,
			logger.KeyRequestID, chimiddleware.GetReqID(r.Context()),
			logger.KeyDurationMs, time.Since(start).Milliseconds(),
		)
	})
}
