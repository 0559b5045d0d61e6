// Package bootstrap builds the planner and its collaborators from
// configuration. The API server, the CLI and the worker share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tripweaver/tripweaver/internal/config"
	"github.com/tripweaver/tripweaver/internal/currency"
	"github.com/tripweaver/tripweaver/internal/database"
	"github.com/tripweaver/tripweaver/internal/events"
	"github.com/tripweaver/tripweaver/internal/imagery"
	"github.com/tripweaver/tripweaver/internal/llm"
	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/planner"
	"github.com/tripweaver/tripweaver/internal/provider/resilience"
	"github.com/tripweaver/tripweaver/internal/snapshot"
)

// ErrNoBroker is returned when a consumer is requested for a backend that
// cannot be consumed from.
var ErrNoBroker = errors.New("events backend has no consumer")

// Logger builds the JSON logger used by the server processes.
func Logger(w io.Writer, cfg config.AppConfig, service, version string) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Str("env", cfg.Env).
		Logger()
}

// BootLogger is the logger used before configuration is loaded.
func BootLogger(w io.Writer, service string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("service", service).Logger()
}

// Storage is an opened snapshot backend.
type Storage struct {
	Store snapshot.Store

	// Check tests the backend for readiness. Nil for in-process stores.
	Check func(ctx context.Context) error

	closers []func()
}

// Close releases backend connections.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStorage opens the configured snapshot backend and applies the quota.
func OpenStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Storage, error) {
	s := &Storage{}
	var store snapshot.Store

	switch cfg.Snapshot.Backend {
	case config.SnapshotMemory:
		store = snapshot.NewMemoryStore()

	case config.SnapshotFile:
		fs, err := snapshot.NewFileStore(cfg.Snapshot.Dir)
		if err != nil {
			return nil, err
		}
		store = fs

	case config.SnapshotRedis:
		client, err := snapshot.NewRedisClient(cfg.Snapshot.RedisURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close redis client")
			}
		})
		s.Check = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		store = snapshot.NewRedisStore(client, cfg.Snapshot.TTL)

	case config.SnapshotPostgres:
		pool, err := database.Connect(ctx, database.Config{
			URL:             cfg.Database.URL,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		pg := snapshot.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.Check = database.Check(pool)
		store = pg

	default:
		return nil, fmt.Errorf("unknown snapshot backend %q", cfg.Snapshot.Backend)
	}

	if cfg.Snapshot.QuotaBytes > 0 {
		store = snapshot.NewQuotaStore(store, cfg.Snapshot.QuotaBytes)
	}
	s.Store = store

	logger.Info().
		Str("backend", cfg.Snapshot.Backend).
		Int("quota_bytes", cfg.Snapshot.QuotaBytes).
		Msg("snapshot store ready")
	return s, nil
}

// OpenPublisher connects the configured event sink.
func OpenPublisher(ctx context.Context, cfg config.EventsConfig, logger zerolog.Logger) (events.Publisher, error) {
	switch cfg.Backend {
	case config.EventsNone:
		return events.NoopPublisher{}, nil
	case config.EventsLog:
		return events.LogPublisher{Logger: logger}, nil
	case config.EventsNATS:
		return events.ConnectNATS(ctx, events.NATSConfig{URL: cfg.NATSURL, Token: cfg.NATSToken, Logger: logger})
	case config.EventsPubSub:
		return events.NewPubSubPublisher(ctx, pubSubConfig(cfg, logger))
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

// Consume delivers events from the configured broker to handler until ctx
// is cancelled.
func Consume(ctx context.Context, cfg config.EventsConfig, durable string, logger zerolog.Logger, handler events.Handler) error {
	switch cfg.Backend {
	case config.EventsNATS:
		nc, err := events.ConnectNATS(ctx, events.NATSConfig{URL: cfg.NATSURL, Token: cfg.NATSToken, Logger: logger})
		if err != nil {
			return err
		}
		defer func() {
			if err := nc.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to drain NATS connection")
			}
		}()
		return nc.Consume(ctx, durable, handler)

	case config.EventsPubSub:
		consumer, err := events.NewPubSubConsumer(ctx, pubSubConfig(cfg, logger), handler)
		if err != nil {
			return err
		}
		defer func() {
			if err := consumer.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close pubsub client")
			}
		}()
		return consumer.Start(ctx)

	default:
		return fmt.Errorf("%w: %q", ErrNoBroker, cfg.Backend)
	}
}

func pubSubConfig(cfg config.EventsConfig, logger zerolog.Logger) events.PubSubConfig {
	return events.PubSubConfig{
		ProjectID:        cfg.PubSubProject,
		Topic:            cfg.PubSubTopic,
		SubscriptionName: cfg.PubSubSubscription,
		Logger:           logger,
	}
}

// NewCurrency builds the price-reference service. The HTTP provider falls
// back to the static table when it fails.
func NewCurrency(cfg config.CurrencyConfig, registry *resilience.Registry, logger zerolog.Logger) *currency.Service {
	svcCfg := currency.ServiceConfig{
		Provider: currency.MockProvider{},
		Logger:   logger,
		CacheTTL: cfg.CacheTTL,
	}
	if cfg.Provider == config.CurrencyHTTP {
		client := resilience.NewClient(resilience.DefaultClientConfig(currency.HTTPProviderName))
		if registry != nil {
			registry.Register(currency.HTTPProviderName, client)
		}
		svcCfg.Provider = currency.NewHTTPProvider(currency.HTTPProviderConfig{
			BaseURL:    cfg.BaseURL,
			HTTPClient: client,
			Logger:     logger,
		})
		svcCfg.Fallback = currency.MockProvider{}
	}
	return currency.NewService(svcCfg)
}

// NewImages builds the image fan-out coordinator, or nil when images are
// disabled.
func NewImages(cfg config.ImagesConfig, m *metrics.Metrics, logger zerolog.Logger) (*imagery.Coordinator, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	gen, err := llm.NewOpenAIImageGenerator(llm.ImageOptions{
		Options: llm.Options{APIKey: cfg.APIKey, BaseURL: cfg.BaseURL},
		Model:   cfg.Model,
		Size:    cfg.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("creating image generator: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return imagery.NewCoordinator(imagery.CoordinatorConfig{
		Generator:    gen,
		Logger:       logger,
		Metrics:      m,
		Limiter:      limiter,
		Timeout:      cfg.Timeout,
		MaxDimension: cfg.MaxDimension,
	}), nil
}

// Retry returns the model retry policy for the configured retry count.
func Retry(cfg config.LLMConfig) resilience.RetryPolicy {
	policy := resilience.DefaultRetryPolicy()
	if cfg.MaxRetries >= 0 {
		policy.MaxRetries = uint64(cfg.MaxRetries)
	}
	policy.Retryable = planner.Transient
	return policy
}

// ModelBreaker guards the model. Cancelled calls do not count against it.
func ModelBreaker(logger zerolog.Logger) *gobreaker.CircuitBreaker[*llm.CompletionResponse] {
	cbCfg := resilience.DefaultCircuitBreakerConfig(planner.ModelProvider)
	cbCfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, context.Canceled)
	}
	cbCfg.OnStateChange = resilience.LogStateChanges(logger)
	return resilience.NewCircuitBreaker[*llm.CompletionResponse](cbCfg)
}

// PlannerDeps are the already-opened collaborators of the planner.
type PlannerDeps struct {
	Store    snapshot.Store
	Images   *imagery.Coordinator
	Events   events.Publisher
	Metrics  *metrics.Metrics
	Registry *resilience.Registry
	Logger   zerolog.Logger
}

// NewPlanner builds the planner service.
func NewPlanner(cfg *config.Config, deps PlannerDeps) (*planner.Service, error) {
	model, err := llm.NewClient(llm.Provider(cfg.LLM.Provider), llm.Options{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	sessions := planner.NewSessions(planner.SessionsConfig{
		Store:   deps.Store,
		Logger:  deps.Logger,
		Metrics: deps.Metrics,
		IdleTTL: cfg.Snapshot.SessionIdleTTL,
	})

	return planner.NewService(planner.ServiceConfig{
		Model:       model,
		ModelName:   cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Retry:       Retry(cfg.LLM),
		Breaker:     ModelBreaker(deps.Logger),
		CallTimeout: cfg.LLM.CallTimeout,
		Images:      deps.Images,
		Sessions:    sessions,
		Events:      deps.Events,
		Metrics:     deps.Metrics,
		Registry:    deps.Registry,
		Logger:      deps.Logger,
	}), nil
}
