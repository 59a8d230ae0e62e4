package storage

import (
	"context"

	"chain-sentinel/internal/domain"
)

// SignalStore provides access to the persisted signal archive. The
// engine itself retains nothing after emission; the store-backed sink is
// a downstream collaborator that records signals for later querying.
type SignalStore interface {
	// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
	Insert(ctx context.Context, s *domain.Signal) error

	// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, signalID string) (*domain.Signal, error)

	// GetByKind retrieves all signals of a detector kind, ordered by timestamp ASC.
	GetByKind(ctx context.Context, kind domain.DetectorKind) ([]*domain.Signal, error)

	// GetByTimeRange retrieves signals emitted within [start, end] ms (inclusive).
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.Signal, error)

	// GetByAddress retrieves signals whose related addresses include address.
	GetByAddress(ctx context.Context, address string) ([]*domain.Signal, error)
}
