// Package server provides the JSON API HTTP server
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/wellpack/engine/internal/infrastructure/config"
	"github.com/wellpack/engine/internal/infrastructure/http/handlers"
	"github.com/wellpack/engine/internal/infrastructure/http/middleware"
	"github.com/wellpack/engine/internal/infrastructure/monitoring"
	"github.com/wellpack/engine/pkg/healthcheck"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Plans     *handlers.PlanHandlers
	Reference *handlers.ReferenceHandlers
	Health    *healthcheck.HealthCheck
	Metrics   *monitoring.MetricsCollector
}

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	router *chi.Mux
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, logger *zap.Logger, h Handlers) *Server {
	s := &Server{
		config: cfg,
		logger: logger.Named("http-server"),
	}

	s.router = s.setupRoutes(h)
	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        otelhttp.NewHandler(s.router, cfg.App.Name),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return s
}

// setupRoutes configures middleware and routes
func (s *Server) setupRoutes(h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())

	if s.config.Server.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.config.Server.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "Location"},
			MaxAge:         300,
		}))
	}

	if s.config.Monitoring.EnableMetrics && h.Metrics != nil {
		r.Use(middleware.Metrics(h.Metrics))
		r.Method(http.MethodGet, s.config.Monitoring.MetricsPath, h.Metrics.Handler())
	}

	// Probes
	if h.Health != nil {
		r.Get(s.config.Monitoring.HealthCheckPath, h.Health.Handler())
		r.Get("/ready", h.Health.ReadinessHandler())
		r.Get("/live", h.Health.LivenessHandler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.config.Server.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(s.config.Server.RequestTimeout))
		}
		r.Use(middleware.JSONOnly())

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", h.Plans.CreatePlan)
			r.Get("/{id}", h.Plans.GetPlan)
		})

		r.Get("/users/{id}/plans", h.Plans.ListUserPlans)

		r.Route("/reference", func(r chi.Router) {
			r.Get("/catalog", h.Reference.Catalog)
			r.Get("/interactions", h.Reference.Interaction)
		})
	})

	return r
}

// Router returns the route tree without the tracing wrapper
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting JSON API server", zap.String("address", s.server.Addr))
	return s.server.ListenAndServe()
}

// Server returns the underlying HTTP server instance
func (s *Server) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down JSON API server...")
	return s.server.Shutdown(ctx)
}
