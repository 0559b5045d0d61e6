package planner

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/planstate"
	"github.com/tripweaver/tripweaver/internal/snapshot"
)

// SessionsConfig holds configuration for the session table.
type SessionsConfig struct {
	Store   snapshot.Store
	Logger  zerolog.Logger
	Metrics *metrics.Metrics

	// IdleTTL evicts managers not touched for this long. Zero never evicts.
	IdleTTL time.Duration

	// Now is the clock used for idle tracking. Defaults to time.Now.
	Now func() time.Time
}

// Sessions owns one plan state manager per planning session. Managers are
// created on first use; an evicted session keeps its persisted snapshot.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	store   snapshot.Store
	logger  zerolog.Logger
	metrics *metrics.Metrics
	idleTTL time.Duration
	now     func() time.Time
}

type sessionEntry struct {
	manager  *planstate.Manager
	lastUsed time.Time
}

// NewSessions creates an empty session table.
func NewSessions(cfg SessionsConfig) *Sessions {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Sessions{
		entries: make(map[string]*sessionEntry),
		store:   cfg.Store,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		idleTTL: cfg.IdleTTL,
		now:     now,
	}
}

// Get returns the manager for a session, creating it when absent.
func (s *Sessions) Get(sessionID string) *planstate.Manager {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[sessionID]; ok {
		e.lastUsed = now
		return e.manager
	}

	m := planstate.NewManager(planstate.ManagerConfig{
		SessionID: sessionID,
		Store:     s.store,
		Logger:    s.logger,
		Metrics:   s.metrics,
	})
	s.entries[sessionID] = &sessionEntry{manager: m, lastUsed: now}
	return m
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Evict drops managers idle for longer than the configured TTL and returns
// how many were removed.
func (s *Sessions) Evict() int {
	if s.idleTTL <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	evicted := 0
	for id, e := range s.entries {
		if e.lastUsed.Before(cutoff) {
			delete(s.entries, id)
			evicted++
		}
	}
	if evicted > 0 {
		s.logger.Debug().
			Int("evicted", evicted).
			Int("remaining", len(s.entries)).
			Msg("evicted idle planning sessions")
	}
	return evicted
}

// RunEviction calls Evict every interval until ctx is done.
func (s *Sessions) RunEviction(ctx context.Context, interval time.Duration) {
	if interval <= 0 || s.idleTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Evict()
		case <-ctx.Done():
			return
		}
	}
}
