package sink

import (
	"context"
	"errors"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/storage"
)

// StoreSink persists signals through a storage.SignalStore. Duplicate
// signal IDs (re-evaluation of a redelivered event) are swallowed: the
// archive already has the record.
type StoreSink struct {
	store storage.SignalStore
}

// NewStoreSink creates a store-backed sink.
func NewStoreSink(store storage.SignalStore) *StoreSink {
	return &StoreSink{store: store}
}

// Publish inserts the signal.
func (s *StoreSink) Publish(ctx context.Context, signal *domain.Signal) error {
	err := s.store.Insert(ctx, signal)
	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil
	}
	return err
}

// Close is a no-op; the store's connection lifecycle is owned elsewhere.
func (s *StoreSink) Close() error {
	return nil
}

var _ Sink = (*StoreSink)(nil)
