package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tripweaver/tripweaver/internal/trip"
)

// Encode serialises the image-free projection of a plan and its preferences.
func Encode(plan *trip.Plan, prefs trip.Preferences, savedAt time.Time) ([]byte, error) {
	if plan == nil {
		return nil, trip.ErrNoPlan
	}
	data, err := json.Marshal(trip.Snapshot{
		Plan:        plan.WithoutImages(),
		Preferences: prefs,
		SavedAt:     savedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a stored record. Anything that does not describe a plan
// with at least one day yields ErrCorrupt.
func Decode(data []byte) (*trip.Snapshot, error) {
	var snap trip.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if snap.Plan == nil || len(snap.Plan.Itinerary) == 0 {
		return nil, fmt.Errorf("%w: missing itinerary", ErrCorrupt)
	}
	if snap.Preferences.Destination == "" {
		return nil, fmt.Errorf("%w: missing preferences", ErrCorrupt)
	}
	return &snap, nil
}
