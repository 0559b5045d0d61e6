package bootstrap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/bootstrap"
	"github.com/tripweaver/tripweaver/internal/config"
	"github.com/tripweaver/tripweaver/internal/events"
	"github.com/tripweaver/tripweaver/internal/llm"
	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/planner"
	"github.com/tripweaver/tripweaver/internal/provider/resilience"
	"github.com/tripweaver/tripweaver/internal/snapshot"
)

func baseConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:      config.AppConfig{Env: "test", LogLevel: "debug"},
		LLM:      config.LLMConfig{Provider: "openai", APIKey: "sk-test", MaxRetries: 1},
		Snapshot: config.SnapshotConfig{Backend: config.SnapshotMemory, QuotaBytes: 64},
		Currency: config.CurrencyConfig{Provider: config.CurrencyMock},
		Events:   config.EventsConfig{Backend: config.EventsNone},
	}
}

func TestLogger_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := bootstrap.Logger(&buf, config.AppConfig{Env: "test", LogLevel: "WARN"}, "tripweaver-api", "1.2.3")

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "tripweaver-api", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "test", entry["env"])
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	logger := bootstrap.Logger(&bytes.Buffer{}, config.AppConfig{LogLevel: "loud"}, "svc", "dev")
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestBootLogger(t *testing.T) {
	var buf bytes.Buffer
	boot := bootstrap.BootLogger(&buf, "tripweaver-worker")
	boot.Error().Err(errors.New("LLM_API_KEY is required")).Msg("invalid configuration")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "tripweaver-worker", entry["service"])
	assert.Equal(t, "LLM_API_KEY is required", entry["error"])
	assert.Contains(t, entry, "time")
}

func TestOpenStorage_MemoryAppliesQuota(t *testing.T) {
	storage, err := bootstrap.OpenStorage(context.Background(), baseConfig(t), zerolog.Nop())
	require.NoError(t, err)
	defer storage.Close()

	assert.Nil(t, storage.Check)
	err = storage.Store.Save(context.Background(), snapshot.Key("s1"), bytes.Repeat([]byte("x"), 65))
	assert.ErrorIs(t, err, snapshot.ErrTooLarge)
	require.NoError(t, storage.Store.Save(context.Background(), snapshot.Key("s1"), []byte(`{}`)))
}

func TestOpenStorage_File(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Snapshot.Backend = config.SnapshotFile
	cfg.Snapshot.Dir = t.TempDir()
	cfg.Snapshot.QuotaBytes = 0

	storage, err := bootstrap.OpenStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer storage.Close()

	ctx := context.Background()
	require.NoError(t, storage.Store.Save(ctx, snapshot.Key("s1"), []byte(`{"v":1}`)))
	data, err := storage.Store.Load(ctx, snapshot.Key("s1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(data))
}

func TestOpenStorage_RedisRegistersCheck(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Snapshot.Backend = config.SnapshotRedis
	cfg.Snapshot.RedisURL = "redis://localhost:6379/0"

	storage, err := bootstrap.OpenStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer storage.Close()
	assert.NotNil(t, storage.Check)
}

func TestOpenStorage_InvalidRedisURL(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Snapshot.Backend = config.SnapshotRedis
	cfg.Snapshot.RedisURL = "mysql://nope"

	_, err := bootstrap.OpenStorage(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "parsing redis url")
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	cfg := baseConfig(t)
	cfg.Snapshot.Backend = "s3"

	_, err := bootstrap.OpenStorage(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown snapshot backend")
}

func TestOpenPublisher_InProcessBackends(t *testing.T) {
	pub, err := bootstrap.OpenPublisher(context.Background(), config.EventsConfig{Backend: config.EventsNone}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, events.NoopPublisher{}, pub)

	pub, err = bootstrap.OpenPublisher(context.Background(), config.EventsConfig{Backend: config.EventsLog}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, events.LogPublisher{}, pub)
	assert.NoError(t, pub.Publish(context.Background(), events.New(events.TypeGenerated, "s1", 1)))
}

func TestConsume_RequiresBroker(t *testing.T) {
	err := bootstrap.Consume(context.Background(), config.EventsConfig{Backend: config.EventsLog}, "worker", zerolog.Nop(),
		func(context.Context, events.Event) error { return nil })
	assert.ErrorIs(t, err, bootstrap.ErrNoBroker)
}

func TestNewCurrency_HTTPRegistersProvider(t *testing.T) {
	registry := resilience.NewRegistry()
	svc := bootstrap.NewCurrency(config.CurrencyConfig{Provider: config.CurrencyHTTP, BaseURL: "http://127.0.0.1:1"}, registry, zerolog.Nop())
	require.NotNil(t, svc)

	names := make([]string, 0)
	for _, p := range registry.All() {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "frankfurter")
}

func TestNewCurrency_Mock(t *testing.T) {
	svc := bootstrap.NewCurrency(config.CurrencyConfig{Provider: config.CurrencyMock}, nil, zerolog.Nop())

	rates, err := svc.Rates(context.Background(), "EUR")
	require.NoError(t, err)
	assert.Contains(t, rates, "USD")
}

func TestNewImages_DisabledReturnsNil(t *testing.T) {
	coord, err := bootstrap.NewImages(config.ImagesConfig{Enabled: false}, metrics.New(), zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, coord)
}

func TestNewImages_NeedsKey(t *testing.T) {
	_, err := bootstrap.NewImages(config.ImagesConfig{Enabled: true}, metrics.New(), zerolog.Nop())
	assert.ErrorContains(t, err, "creating image generator")
}

func TestRetry_UsesConfiguredCount(t *testing.T) {
	policy := bootstrap.Retry(config.LLMConfig{MaxRetries: 4})
	assert.Equal(t, uint64(4), policy.MaxRetries)
	require.NotNil(t, policy.Retryable)
	assert.False(t, policy.Retryable(context.Canceled))
}

func TestModelBreaker_IgnoresCancellation(t *testing.T) {
	cb := bootstrap.ModelBreaker(zerolog.Nop())
	assert.Equal(t, planner.ModelProvider, cb.Name())

	_, err := cb.Execute(func() (*llm.CompletionResponse, error) { return nil, context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(0), cb.Counts().TotalFailures)

	_, err = cb.Execute(func() (*llm.CompletionResponse, error) { return nil, errors.New("503") })
	assert.Error(t, err)
	assert.Equal(t, uint32(1), cb.Counts().TotalFailures)
}

func TestNewPlanner_RegistersModel(t *testing.T) {
	registry := resilience.NewRegistry()
	svc, err := bootstrap.NewPlanner(baseConfig(t), bootstrap.PlannerDeps{
		Store:    snapshot.NewMemoryStore(),
		Metrics:  metrics.New(),
		Registry: registry,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	require.NotNil(t, svc)

	all := registry.All()
	require.Len(t, all, 1)
	assert.Equal(t, planner.ModelProvider, all[0].Name)
	assert.Equal(t, 0, svc.Sessions().Len())
}

func TestNewPlanner_UnknownProvider(t *testing.T) {
	cfg := baseConfig(t)
	cfg.LLM.Provider = "mistral"

	_, err := bootstrap.NewPlanner(cfg, bootstrap.PlannerDeps{Logger: zerolog.Nop()})
	assert.ErrorContains(t, err, "creating model client")
}
