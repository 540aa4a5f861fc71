// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/folio/internal/platform/constants"
	"github.com/taibuivan/folio/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(router chi.Router)
}

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. Always 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. 200 only when every dependency answers.
	Readiness http.HandlerFunc

	// Images serves the photograph catalogue.
	Images RouteRegistrar

	// Series serves ordered collections and their membership routes.
	Series RouteRegistrar

	// Categories serves the category taxonomy and cached counts.
	Categories RouteRegistrar

	// Admin serves console login and maintenance.
	Admin RouteRegistrar
}

// Options carries the cross-cutting collaborators of the router.
type Options struct {
	// Port is the TCP port the server listens on.
	Port string

	// CORS decides which browser origins may call the API.
	CORS middleware.CORSPolicy

	// Verifier checks bearer tokens. Nil disables the admin console.
	Verifier middleware.TokenVerifier

	// Metrics records per-route request metrics. Optional.
	Metrics *middleware.HTTPMetrics

	// Gatherer backs GET /metrics. Optional.
	Gatherer prometheus.Gatherer

	// RateLimiter throttles every request per client IP. Optional.
	RateLimiter *middleware.RateLimiter
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(log *slog.Logger, options Options, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.PanicRecovery())
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.CORS(options.CORS))
	r.Use(chimw.CleanPath)
	if options.Metrics != nil {
		r.Use(options.Metrics.Handler)
	}

	// # Infrastructure Endpoints
	// Unauthenticated probes for container orchestration and scraping.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	if options.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(options.Gatherer, promhttp.HandlerOpts{}))
	}

	// # Application API
	// Domain-specific route groups mounted under versioned prefix.
	r.Route("/api/v1", func(api chi.Router) {
		if options.RateLimiter != nil {
			api.Use(options.RateLimiter.Handler)
		}
		api.Use(middleware.Authenticate(options.Verifier))

		api.Route("/images", h.Images.RegisterRoutes)
		api.Route("/series", h.Series.RegisterRoutes)
		api.Route("/categories", h.Categories.RegisterRoutes)
		if h.Admin != nil {
			api.Route("/admin", h.Admin.RegisterRoutes)
		}
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + options.Port,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
