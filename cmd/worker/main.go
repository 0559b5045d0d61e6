// Package main provides the trip event worker. It consumes lifecycle events
// from the configured broker and serves a running digest.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tripweaver/tripweaver/internal/bootstrap"
	"github.com/tripweaver/tripweaver/internal/config"
	"github.com/tripweaver/tripweaver/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	serviceName     = "tripweaver-worker"
	durableName     = "tripweaver-worker"
	summaryInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := bootstrap.BootLogger(os.Stderr, serviceName)
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := bootstrap.Logger(os.Stdout, cfg.App, serviceName, Version)
	log.Info().
		Str("build_time", BuildTime).
		Str("events_backend", cfg.Events.Backend).
		Msg("starting TripWeaver worker")

	// Create context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	digest := worker.NewDigest(worker.DigestConfig{Logger: log})
	go digest.RunSummary(ctx, summaryInterval)

	// Worker also exposes health and digest endpoints for Cloud Run
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      routes(digest),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
			stop()
		}
	}()

	consumeErr := bootstrap.Consume(ctx, cfg.Events, durableName, log, digest.Handle)
	if consumeErr != nil && !errors.Is(consumeErr, context.Canceled) {
		log.Error().Err(consumeErr).Msg("event consumer stopped")
	}

	log.Info().Msg("shutting down worker")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	s := digest.Stats()
	log.Info().
		Int64("events", s.Events).
		Int64("duplicates", s.Duplicates).
		Msg("worker stopped")

	if consumeErr != nil && !errors.Is(consumeErr, context.Canceled) {
		os.Exit(1)
	}
}

func routes(digest *worker.Digest) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "healthy", "version": Version})
	})
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"stats":        digest.Stats(),
			"destinations": digest.TopDestinations(10),
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}
