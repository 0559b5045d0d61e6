package events_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripweaver/tripweaver/internal/events"
)

func TestEvent_RoundTrip(t *testing.T) {
	e := events.New(events.TypeGenerated, "s1", 3)
	e.Destination = "Paris"
	e.Data = map[string]any{"images": float64(4)}

	data, err := e.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"trip.generated"`)
	assert.Contains(t, string(data), `"sessionId":"s1"`)

	got, err := events.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, "Paris", got.Destination)
	assert.Equal(t, uint64(3), got.Version)
}

func TestDecode_RejectsIncompleteEvents(t *testing.T) {
	_, err := events.Decode([]byte(`{"type":"trip.reset"}`))
	assert.Error(t, err)

	_, err = events.Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "TRIPS.trip.activity_swapped", events.Subject(events.TypeActivitySwapped))
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	pub := events.LogPublisher{Logger: zerolog.New(&buf)}

	require.NoError(t, pub.Publish(context.Background(), events.New(events.TypeReset, "s9", 1)))
	assert.Contains(t, buf.String(), `"event_type":"trip.reset"`)
	assert.Contains(t, buf.String(), `"session_id":"s9"`)
	assert.NoError(t, pub.Close())
}

func TestNoopPublisher(t *testing.T) {
	var pub events.Publisher = events.NoopPublisher{}
	assert.NoError(t, pub.Publish(context.Background(), events.New(events.TypeReset, "s", 1)))
	assert.NoError(t, pub.Close())
}

func TestDispatch(t *testing.T) {
	valid, err := events.New(events.TypeGenerated, "s1", 1).Encode()
	require.NoError(t, err)

	var handled []events.Event
	ok := events.Dispatch(context.Background(), zerolog.Nop(), valid, func(_ context.Context, e events.Event) error {
		handled = append(handled, e)
		return nil
	})
	assert.True(t, ok)
	require.Len(t, handled, 1)

	failing := func(context.Context, events.Event) error { return errors.New("downstream unavailable") }
	assert.False(t, events.Dispatch(context.Background(), zerolog.Nop(), valid, failing))
	assert.True(t, events.Dispatch(context.Background(), zerolog.Nop(), []byte("garbage"), failing), "undecodable payloads are acked")
}

func TestNATSPublisher(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}
	pub, err := events.ConnectNATS(context.Background(), events.NATSConfig{URL: url, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer pub.Close()

	assert.NoError(t, pub.Publish(context.Background(), events.New(events.TypeGenerated, "s1", 1)))
}
