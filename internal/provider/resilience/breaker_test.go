package resilience_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/provider/resilience"
)

func TestLogStateChanges(t *testing.T) {
	var buf bytes.Buffer
	hook := resilience.LogStateChanges(zerolog.New(&buf))

	hook("model", gobreaker.StateClosed, gobreaker.StateOpen)
	hook("model", gobreaker.StateHalfOpen, gobreaker.StateClosed)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var opened, closed map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &opened))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &closed))

	assert.Equal(t, "warn", opened["level"])
	assert.Equal(t, "model", opened["provider"])
	assert.Equal(t, "closed", opened["from"])
	assert.Equal(t, "open", opened["to"])
	assert.Equal(t, "info", closed["level"])
	assert.Equal(t, "half-open", closed["from"])
}

func TestNewCircuitBreaker_DefaultsTripRule(t *testing.T) {
	cb := resilience.NewCircuitBreaker[int](resilience.CircuitBreakerConfig{Name: "images"})

	for range 5 {
		_, _ = cb.Execute(func() (int, error) { return 0, assert.AnError })
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, "images", cb.Name())
}
