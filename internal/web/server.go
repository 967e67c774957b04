// Package web provides the HTTP server that exposes CSV to JSON conversion.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csv2json/internal/config"
	"github.com/JonMunkholm/csv2json/internal/core"
	mw "github.com/JonMunkholm/csv2json/internal/web/middleware"
)

// Server is the HTTP server for the conversion API.
type Server struct {
	converter *core.Converter
	limiter   *core.Limiter
	cfg       *config.Config
	router    *chi.Mux
	server    *http.Server
}

// NewServer creates a new Server instance.
func NewServer(converter *core.Converter, cfg *config.Config) *Server {
	s := &Server{
		converter: converter,
		limiter:   core.NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWait),
		cfg:       cfg,
		router:    chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/preview", s.handlePreview)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))
		r.Post("/convert", s.handleConvert)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr, "conversion_slots", s.limiter.Capacity())
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running conversions.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if n := s.limiter.Active(); n > 0 {
		slog.Info("waiting for conversions to complete", "active", n)
	}
	return s.limiter.Drain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
