// Package worker processes trip lifecycle events consumed from the broker.
package worker

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/events"
)

// DigestConfig holds configuration for creating a Digest.
type DigestConfig struct {
	Logger zerolog.Logger

	// DedupeWindow is how long a seen event ID suppresses redeliveries.
	// Default: 1 hour
	DedupeWindow time.Duration

	// Now is the clock used for LastEventAt. Defaults to time.Now.
	Now func() time.Time
}

// Stats is a point-in-time copy of the digest counters.
type Stats struct {
	Events      int64     `json:"events"`
	Generated   int64     `json:"generated"`
	Swapped     int64     `json:"swapped"`
	Reset       int64     `json:"reset"`
	Duplicates  int64     `json:"duplicates"`
	Ignored     int64     `json:"ignored"`
	Sessions    int       `json:"sessions"`
	LastEventAt time.Time `json:"lastEventAt,omitempty"`
}

// DestinationStats counts lifecycle events for one destination.
type DestinationStats struct {
	Destination string `json:"destination"`
	Generated   int64  `json:"generated"`
	Swapped     int64  `json:"swapped"`
}

// Digest aggregates trip events into running counters. Redelivered events
// are counted once.
type Digest struct {
	mu           sync.RWMutex
	logger       zerolog.Logger
	seen         *cache.Cache
	now          func() time.Time
	stats        Stats
	sessions     map[string]struct{}
	destinations map[string]*DestinationStats
}

// NewDigest creates an empty digest.
func NewDigest(cfg DigestConfig) *Digest {
	window := cfg.DedupeWindow
	if window <= 0 {
		window = time.Hour
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Digest{
		logger:       cfg.Logger,
		seen:         cache.New(window, 2*window),
		now:          now,
		sessions:     make(map[string]struct{}),
		destinations: make(map[string]*DestinationStats),
	}
}

// Handle records one event. It never fails, so every event is acknowledged.
func (d *Digest) Handle(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e.ID != "" {
		if err := d.seen.Add(e.ID, struct{}{}, cache.DefaultExpiration); err != nil {
			d.stats.Duplicates++
			return nil
		}
	}

	d.stats.Events++
	d.stats.LastEventAt = d.now()
	d.sessions[e.SessionID] = struct{}{}
	d.stats.Sessions = len(d.sessions)

	switch e.Type {
	case events.TypeGenerated:
		d.stats.Generated++
		d.destination(e.Destination).Generated++
	case events.TypeActivitySwapped:
		d.stats.Swapped++
		d.destination(e.Destination).Swapped++
	case events.TypeReset:
		d.stats.Reset++
	default:
		d.stats.Ignored++
		d.logger.Warn().
			Str("event_type", string(e.Type)).
			Str("event_id", e.ID).
			Msg("ignoring unknown trip event type")
		return nil
	}

	d.logger.Debug().
		Str("event_type", string(e.Type)).
		Str("session_id", e.SessionID).
		Str("destination", e.Destination).
		Uint64("version", e.Version).
		Msg("trip event recorded")
	return nil
}

// destination returns the counters for name, keyed case-insensitively.
// Callers hold d.mu.
func (d *Digest) destination(name string) *DestinationStats {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "unknown"
	}
	key := strings.ToLower(name)
	ds, ok := d.destinations[key]
	if !ok {
		ds = &DestinationStats{Destination: name}
		d.destinations[key] = ds
	}
	return ds
}

// Stats returns a copy of the counters.
func (d *Digest) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// TopDestinations returns up to n destinations ordered by generations, then
// swaps, then name. A non-positive n returns all of them.
func (d *Digest) TopDestinations(n int) []DestinationStats {
	d.mu.RLock()
	out := make([]DestinationStats, 0, len(d.destinations))
	for _, ds := range d.destinations {
		out = append(out, *ds)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Generated != out[j].Generated {
			return out[i].Generated > out[j].Generated
		}
		if out[i].Swapped != out[j].Swapped {
			return out[i].Swapped > out[j].Swapped
		}
		return out[i].Destination < out[j].Destination
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// RunSummary logs the counters every interval until ctx is cancelled.
func (d *Digest) RunSummary(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := d.Stats()
			evt := d.logger.Info().
				Int64("events", s.Events).
				Int64("generated", s.Generated).
				Int64("swapped", s.Swapped).
				Int64("reset", s.Reset).
				Int64("duplicates", s.Duplicates).
				Int("sessions", s.Sessions)
			if top := d.TopDestinations(1); len(top) > 0 {
				evt = evt.Str("top_destination", top[0].Destination)
			}
			evt.Msg("trip event digest")
		}
	}
}
