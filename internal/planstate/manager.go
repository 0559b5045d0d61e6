// Package planstate owns the current plan of one planning session and keeps
// its persisted snapshot in step with every mutation.
package planstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripweaver/tripweaver/internal/metrics"
	"github.com/tripweaver/tripweaver/internal/snapshot"
	"github.com/tripweaver/tripweaver/internal/trip"
)

// ManagerConfig holds configuration for creating a Manager.
type ManagerConfig struct {
	SessionID string
	Store     snapshot.Store
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics

	// Now returns the snapshot timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Manager is a single-writer container for one session's plan.
// Readers always receive deep copies.
type Manager struct {
	mu      sync.Mutex
	key     string
	store   snapshot.Store
	logger  zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	plan    *trip.Plan
	prefs   trip.Preferences
	version uint64
}

// Commit reports the result of a mutation. PersistErr is set when the
// in-memory change succeeded but the snapshot could not be written.
type Commit struct {
	Version    uint64
	PersistErr error
}

// State is a point-in-time copy of the manager's contents.
type State struct {
	Plan        *trip.Plan
	Preferences trip.Preferences
	Version     uint64
}

// NewManager creates a manager for a session. A nil store keeps state in memory only.
func NewManager(cfg ManagerConfig) *Manager {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		key:     snapshot.Key(cfg.SessionID),
		store:   cfg.Store,
		logger:  cfg.Logger.With().Str("session_id", cfg.SessionID).Logger(),
		metrics: cfg.Metrics,
		now:     now,
	}
}

// Current returns a copy of the plan and preferences, or ErrNoPlan.
func (m *Manager) Current() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plan == nil {
		return State{Version: m.version}, trip.ErrNoPlan
	}
	return State{Plan: m.plan.Clone(), Preferences: m.prefs, Version: m.version}, nil
}

// Replace installs a freshly generated plan and writes a new snapshot.
func (m *Manager) Replace(ctx context.Context, plan *trip.Plan, prefs trip.Preferences) Commit {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plan = plan.Clone()
	m.prefs = prefs
	m.version++

	return Commit{Version: m.version, PersistErr: m.persistLocked(ctx)}
}

// SwapActivity replaces the activity at (dayIdx, actIdx). Every other day and
// activity is left untouched.
func (m *Manager) SwapActivity(ctx context.Context, dayIdx, actIdx int, activity trip.Activity) (Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plan == nil {
		return Commit{Version: m.version}, trip.ErrNoPlan
	}
	if dayIdx < 0 || dayIdx >= len(m.plan.Itinerary) {
		return Commit{Version: m.version}, fmt.Errorf("%w: day %d", trip.ErrActivityNotFound, dayIdx)
	}
	day := &m.plan.Itinerary[dayIdx]
	if actIdx < 0 || actIdx >= len(day.Activities) {
		return Commit{Version: m.version}, fmt.Errorf("%w: day %d activity %d", trip.ErrActivityNotFound, dayIdx, actIdx)
	}

	return m.swapLocked(ctx, dayIdx, actIdx, activity), nil
}

// ReplaceActivity swaps the activity with the given identifier wherever it
// currently sits in the plan.
func (m *Manager) ReplaceActivity(ctx context.Context, activityID string, activity trip.Activity) (Commit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plan == nil {
		return Commit{Version: m.version}, trip.ErrNoPlan
	}
	dayIdx, actIdx, ok := m.plan.Locate(activityID)
	if !ok {
		return Commit{Version: m.version}, fmt.Errorf("%w: %s", trip.ErrActivityNotFound, activityID)
	}
	return m.swapLocked(ctx, dayIdx, actIdx, activity), nil
}

func (m *Manager) swapLocked(ctx context.Context, dayIdx, actIdx int, activity trip.Activity) Commit {
	day := &m.plan.Itinerary[dayIdx]
	activities := make([]trip.Activity, len(day.Activities))
	copy(activities, day.Activities)
	activities[actIdx] = activity
	day.Activities = activities
	m.version++

	return Commit{Version: m.version, PersistErr: m.persistLocked(ctx)}
}

// Locate resolves an activity identifier to its position in the current plan.
func (m *Manager) Locate(activityID string) (dayIdx, actIdx int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.plan == nil {
		return 0, 0, trip.ErrNoPlan
	}
	dayIdx, actIdx, ok := m.plan.Locate(activityID)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s", trip.ErrActivityNotFound, activityID)
	}
	return dayIdx, actIdx, nil
}

// Saved reads the persisted snapshot without changing memory. A corrupt
// record is deleted and reported as ErrNoSnapshot.
func (m *Manager) Saved(ctx context.Context) (*trip.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(ctx)
}

// Restore loads the persisted snapshot into memory.
func (m *Manager) Restore(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.loadLocked(ctx)
	if err != nil {
		return State{Version: m.version}, err
	}
	m.plan = snap.Plan
	m.prefs = snap.Preferences
	m.version++

	m.logger.Info().
		Str("destination", snap.Preferences.Destination).
		Time("saved_at", snap.SavedAt).
		Msg("restored saved trip")

	return State{Plan: m.plan.Clone(), Preferences: m.prefs, Version: m.version}, nil
}

// Dismiss deletes the persisted snapshot and keeps the in-memory plan.
func (m *Manager) Dismiss(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLocked(ctx)
}

// Reset clears the in-memory plan and deletes the persisted snapshot.
func (m *Manager) Reset(ctx context.Context) Commit {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plan = nil
	m.prefs = trip.Preferences{}
	m.version++

	return Commit{Version: m.version, PersistErr: m.deleteLocked(ctx)}
}

func (m *Manager) persistLocked(ctx context.Context) error {
	if m.store == nil {
		return nil
	}

	data, err := snapshot.Encode(m.plan, m.prefs, m.now())
	if err == nil {
		err = m.store.Save(ctx, m.key, data)
	}
	if err != nil {
		if !errors.Is(err, trip.ErrPersistence) {
			err = fmt.Errorf("%w: %w", trip.ErrPersistence, err)
		}
		outcome := metrics.OutcomeFailure
		if errors.Is(err, snapshot.ErrTooLarge) {
			outcome = metrics.OutcomeRejected
		}
		m.metrics.RecordSnapshotWrite(outcome)
		m.logger.Error().
			Err(err).
			Uint64("version", m.version).
			Int("bytes", len(data)).
			Msg("failed to persist trip snapshot")
		return err
	}

	m.metrics.RecordSnapshotWrite(metrics.OutcomeSuccess)
	m.logger.Debug().
		Uint64("version", m.version).
		Int("bytes", len(data)).
		Msg("persisted trip snapshot")
	return nil
}

func (m *Manager) loadLocked(ctx context.Context) (*trip.Snapshot, error) {
	if m.store == nil {
		return nil, trip.ErrNoSnapshot
	}

	data, err := m.store.Load(ctx, m.key)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			return nil, trip.ErrNoSnapshot
		}
		return nil, fmt.Errorf("%w: %w", trip.ErrPersistence, err)
	}

	snap, err := snapshot.Decode(data)
	if err != nil {
		m.logger.Warn().Err(err).Msg("discarding corrupt trip snapshot")
		if delErr := m.store.Delete(ctx, m.key); delErr != nil {
			m.logger.Error().Err(delErr).Msg("failed to delete corrupt trip snapshot")
		}
		return nil, trip.ErrNoSnapshot
	}
	return snap, nil
}

func (m *Manager) deleteLocked(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Delete(ctx, m.key); err != nil {
		err = fmt.Errorf("%w: %w", trip.ErrPersistence, err)
		m.logger.Error().Err(err).Msg("failed to delete trip snapshot")
		return err
	}
	return nil
}
