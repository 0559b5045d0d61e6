// Package api provides the HTTP API for trip planning.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/api/handler"
	"github.com/tripweaver/tripweaver/internal/api/middleware"
	"github.com/tripweaver/tripweaver/internal/auth"
	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/planner"
	"github.com/tripweaver/tripweaver/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string

	// Metrics records OpenTelemetry HTTP metrics (optional).
	Metrics *middleware.Metrics

	// Domain serves the Prometheus planning metrics on /metrics (optional).
	Domain *metrics.Metrics

	Tokens   *auth.JWTService
	Planner  *planner.Service
	Rates    handler.RateSource
	Registry *resilience.Registry
	Checks   map[string]handler.ReadinessCheck

	CORSOrigins []string
	RequireTLS  bool
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tripweaver-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)            // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement behind a load balancer
	r.Use(middleware.ContentTypeJSON)            // JSON content type
	r.Use(middleware.RequireJSON)                // Reject non-JSON bodies

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:        cfg.Version,
		BuildTime:      cfg.BuildTime,
		Registry:       cfg.Registry,
		Checks:         cfg.Checks,
		ActiveSessions: cfg.Planner.Sessions().Len,
	})
	sessionHandler := handler.NewSessionHandler(cfg.Tokens)
	destinationHandler := handler.NewDestinationHandler(cfg.Planner)
	tripHandler := handler.NewTripHandler(cfg.Planner, cfg.Rates, cfg.Logger)
	currencyHandler := handler.NewCurrencyHandler(cfg.Rates, cfg.Logger)

	// Create auth middleware
	authMiddleware := middleware.Auth(cfg.Tokens)

	// Create rate limit middleware for different endpoint categories
	sessionRateLimit := middleware.RateLimitByIP(middleware.SessionRateLimit)          // 10 req/min
	expensiveRateLimit := middleware.RateLimitBySession(middleware.ExpensiveRateLimit) // 10 req/min per session
	validateRateLimit := middleware.RateLimitBySession(middleware.ValidateRateLimit)   // 40 req/min per session
	standardRateLimit := middleware.RateLimitBySession(middleware.StandardRateLimit)   // 100 req/min per session

	if cfg.Domain != nil {
		r.Handle("/metrics", cfg.Domain.Handler())
	}

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// Sessions (public) - strict rate limiting
		r.With(sessionRateLimit).Post("/sessions", sessionHandler.CreateSession)

		// Everything below acts on the caller's session
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.With(validateRateLimit).Post("/destinations:validate", destinationHandler.ValidateDestination)
			r.With(standardRateLimit).Get("/currencies/{base}/rates", currencyHandler.GetRates)

			r.Route("/trip", func(r chi.Router) {
				// Model calls - expensive, strict rate limiting
				r.With(expensiveRateLimit).Post("/", tripHandler.GenerateTrip)
				r.With(expensiveRateLimit).Post("/activities:swap", tripHandler.SwapActivity)

				r.Group(func(r chi.Router) {
					r.Use(standardRateLimit)
					r.Get("/", tripHandler.GetTrip)
					r.Delete("/", tripHandler.ResetTrip)

					r.Get("/saved", tripHandler.GetSavedTrip)
					r.Post("/saved:resume", tripHandler.ResumeSavedTrip)
					r.Delete("/saved", tripHandler.DismissSavedTrip)

					r.Get("/prices", tripHandler.GetPrices)
					r.Get("/export.pdf", tripHandler.ExportPDF)
					r.Get("/export.ics", tripHandler.ExportICS)
					r.Get("/export/email", tripHandler.ExportEmail)
				})
			})
		})
	})

	return r
}
