// Package events publishes trip lifecycle events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Type identifies a lifecycle event.
type Type string

const (
	TypeGenerated       Type = "trip.generated"
	TypeActivitySwapped Type = "trip.activity_swapped"
	TypeReset           Type = "trip.reset"
)

// Event is the broker payload for a lifecycle change.
type Event struct {
	ID          string         `json:"id"`
	Type        Type           `json:"type"`
	SessionID   string         `json:"sessionId"`
	Destination string         `json:"destination,omitempty"`
	Version     uint64         `json:"version"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Data        map[string]any `json:"data,omitempty"`
}

// New creates an event with a fresh identifier.
func New(t Type, sessionID string, version uint64) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		SessionID:  sessionID,
		Version:    version,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode marshals the event to JSON.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encoding event: %w", err)
	}
	return data, nil
}

// Decode parses an event payload.
func Decode(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	if e.Type == "" || e.SessionID == "" {
		return Event{}, fmt.Errorf("decoding event: missing type or session")
	}
	return e, nil
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }

// LogPublisher writes events to a logger.
type LogPublisher struct {
	Logger zerolog.Logger
}

// Publish logs the event.
func (p LogPublisher) Publish(_ context.Context, e Event) error {
	p.Logger.Info().
		Str("event_id", e.ID).
		Str("event_type", string(e.Type)).
		Str("session_id", e.SessionID).
		Str("destination", e.Destination).
		Uint64("version", e.Version).
		Msg("trip event")
	return nil
}

// Close does nothing.
func (LogPublisher) Close() error { return nil }
