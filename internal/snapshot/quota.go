package snapshot

import (
	"context"
	"fmt"

	"github.com/tripweaver/tripweaver/internal/trip"
)

// DefaultQuotaBytes matches the storage budget of a browser origin.
const DefaultQuotaBytes = 5 << 20

// QuotaStore rejects records larger than a byte budget.
type QuotaStore struct {
	Store
	maxBytes int
}

// NewQuotaStore wraps store with a size limit. A non-positive limit uses DefaultQuotaBytes.
func NewQuotaStore(store Store, maxBytes int) *QuotaStore {
	if maxBytes <= 0 {
		maxBytes = DefaultQuotaBytes
	}
	return &QuotaStore{Store: store, maxBytes: maxBytes}
}

// Save stores the record if it fits within the quota.
func (s *QuotaStore) Save(ctx context.Context, key string, data []byte) error {
	if len(data) > s.maxBytes {
		return fmt.Errorf("%w: %w: %d bytes exceeds %d", trip.ErrPersistence, ErrTooLarge, len(data), s.maxBytes)
	}
	return s.Store.Save(ctx, key, data)
}
