// Package main provides the entrypoint for the TripWeaver API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/api"
	"github.com/tripweaver/tripweaver/internal/api/handler"
	"github.com/tripweaver/tripweaver/internal/api/middleware"
	"github.com/tripweaver/tripweaver/internal/auth"
	"github.com/tripweaver/tripweaver/internal/bootstrap"
	"github.com/tripweaver/tripweaver/internal/config"
	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/provider/resilience"
	"github.com/tripweaver/tripweaver/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName = "tripweaver-api"

	// evictionInterval is how often idle planning sessions are swept.
	evictionInterval = 5 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := bootstrap.BootLogger(os.Stderr, serviceName)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	// Setup structured logging
	log := bootstrap.Logger(os.Stdout, cfg.App, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("llm_provider", cfg.LLM.Provider).
		Msg("starting TripWeaver API")

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Float64("sample_ratio", cfg.Telemetry.SampleRatio).
			Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics(nil)
	if err != nil {
		return err
	}
	domainMetrics := metrics.New()
	registry := resilience.NewRegistry()

	// Snapshot storage
	storage, err := bootstrap.OpenStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	checks := map[string]handler.ReadinessCheck{}
	if storage.Check != nil {
		checks["snapshot"] = storage.Check
	}

	// Events
	publisher, err := bootstrap.OpenPublisher(ctx, cfg.Events, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	images, err := bootstrap.NewImages(cfg.Images, domainMetrics, log)
	if err != nil {
		return err
	}
	if images == nil {
		log.Warn().Msg("activity images disabled")
	}

	service, err := bootstrap.NewPlanner(cfg, bootstrap.PlannerDeps{
		Store:    storage.Store,
		Images:   images,
		Events:   publisher,
		Metrics:  domainMetrics,
		Registry: registry,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	go service.Sessions().RunEviction(ctx, evictionInterval)

	rates := bootstrap.NewCurrency(cfg.Currency, registry, log)

	signingKey := cfg.Auth.SigningKey
	if signingKey == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SIGNING_KEY is required in production")
		}
		signingKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: signingKey,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		Expiry:     cfg.Auth.Expiry,
	})

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     httpMetrics,
		Domain:      domainMetrics,
		Tokens:      tokens,
		Planner:     service,
		Rates:       rates,
		Registry:    registry,
		Checks:      checks,
		CORSOrigins: cfg.App.CORSOrigins,
		RequireTLS:  cfg.App.RequireTLS,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
