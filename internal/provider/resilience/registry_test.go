package resilience_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/provider/resilience"
)

func TestRegistry_RegisterAndHealth(t *testing.T) {
	registry := resilience.NewRegistry()
	client := resilience.NewClient(resilience.DefaultClientConfig("rates"))
	registry.Register("rates", client)

	health := registry.Health("rates")
	require.NotNil(t, health)
	assert.Equal(t, "rates", health.Name)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.Nil(t, health.LastSuccessAt)
}

func TestRegistry_AcceptsModelBreaker(t *testing.T) {
	registry := resilience.NewRegistry()
	cb := resilience.NewCircuitBreaker[string](resilience.DefaultCircuitBreakerConfig("model"))
	registry.Register("model", cb)

	health := registry.Health("model")
	require.NotNil(t, health)
	assert.True(t, health.IsHealthy())
}

func TestRegistry_Record(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("model", nil)

	registry.Record("model", nil)
	registry.Record("model", errors.New("upstream 503"))

	health := registry.Health("model")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.NotNil(t, health.LastFailureAt)
	assert.Equal(t, "upstream 503", health.LastError)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Record("missing", nil)
	assert.Nil(t, registry.Health("missing"))
}

func TestRegistry_AllSortedByName(t *testing.T) {
	registry := resilience.NewRegistry()
	registry.Register("rates", nil)
	registry.Register("images", nil)
	registry.Register("model", nil)

	all := registry.All()
	require.Len(t, all, 3)
	assert.Equal(t, "images", all[0].Name)
	assert.Equal(t, "model", all[1].Name)
	assert.Equal(t, "rates", all[2].Name)
}

func TestProviderHealth_States(t *testing.T) {
	open := &resilience.ProviderHealth{CircuitState: gobreaker.StateOpen}
	half := &resilience.ProviderHealth{CircuitState: gobreaker.StateHalfOpen}

	assert.False(t, open.IsHealthy())
	assert.False(t, open.IsDegraded())
	assert.True(t, half.IsDegraded())
}
