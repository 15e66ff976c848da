// Package core provides the HTTP chassis for the shopnotify service. It
// creates the chi router and enforces cross-cutting concerns -- recovery,
// request correlation, logging, and CORS -- before requests reach
// domain-specific handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopnotify/internal/config"
)

// RouteRegistrar mounts a group of domain routes onto the router. The
// application entry point populates Server.RouteRegistrars before calling
// MountRoutes; this indirection avoids import cycles between core and the
// handler packages.
type RouteRegistrar func(r chi.Router)

// Server encapsulates the router and cross-cutting dependencies, allowing
// for easy injection during testing.
type Server struct {
	Config *config.Config
	Logger *slog.Logger

	// RouteRegistrars are mounted under /v1 by MountRoutes.
	RouteRegistrars []RouteRegistrar
	// TrackingRegistrar mounts the engagement-capture routes under /t.
	// Tracking routes get permissive CORS regardless of configuration: the
	// pixel and redirector are fetched from arbitrary mail clients.
	TrackingRegistrar RouteRegistrar
	// HealthProbes are executed by the /health endpoint.
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer initializes the server chassis. The caller is responsible for
// mounting routes (via MountRoutes) after registering handlers.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config: cfg,
		Logger: logger,
		router: chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler interface for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// MountRoutes registers the global middleware chain and all routes.
//
// Ordering rationale:
//  1. Recoverer      - outermost so every panic is caught.
//  2. RequestID      - correlation ID for tracing, used by everything below.
//  3. RequestLogger  - structured logging with redacted headers.
//  4. CORS           - configured origins for /v1; /t is always permissive.
func (s *Server) MountRoutes() {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.Logger, defaultRedactedHeaders))

	s.router.Group(func(r chi.Router) {
		r.Use(NewCORSMiddleware(s.corsAllowedOrigins()))
		r.Route("/v1", func(r chi.Router) {
			for _, registrar := range s.RouteRegistrars {
				registrar(r)
			}
		})
		r.Get("/health", s.HandleHealth)
	})

	if s.TrackingRegistrar != nil {
		s.router.Group(func(r chi.Router) {
			r.Use(NewCORSMiddleware([]string{"*"}))
			r.Route("/t", s.trackingRouter)
		})
	}
}

func (s *Server) trackingRouter(r chi.Router) {
	s.TrackingRegistrar(r)
}

// corsAllowedOrigins returns the configured CORS origins, defaulting to
// wildcard when unset.
func (s *Server) corsAllowedOrigins() []string {
	if s.Config != nil && len(s.Config.Security.CorsAllowedOrigins) > 0 {
		return s.Config.Security.CorsAllowedOrigins
	}
	return []string{"*"}
}

// Shutdown performs a graceful termination of server-held resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown complete")
	return nil
}
