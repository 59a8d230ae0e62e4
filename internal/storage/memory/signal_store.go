package memory

import (
	"context"
	"sort"
	"sync"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/storage"
)

// SignalStore is an in-memory implementation of storage.SignalStore.
type SignalStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Signal // keyed by signal_id
}

// NewSignalStore creates a new in-memory signal store.
func NewSignalStore() *SignalStore {
	return &SignalStore{
		data: make(map[string]*domain.Signal),
	}
}

// Insert adds a new signal. Returns ErrDuplicateKey if signal_id exists.
func (s *SignalStore) Insert(_ context.Context, signal *domain.Signal) error {
	if signal == nil || signal.SignalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[signal.SignalID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *signal
	s.data[signal.SignalID] = &copy
	return nil
}

// GetByID retrieves a signal by its ID. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByID(_ context.Context, signalID string) (*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	signal, ok := s.data[signalID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *signal
	return &copy, nil
}

// GetByKind retrieves all signals of a detector kind, ordered by timestamp ASC.
func (s *SignalStore) GetByKind(_ context.Context, kind domain.DetectorKind) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Signal
	for _, signal := range s.data {
		if signal.Kind == kind {
			copy := *signal
			result = append(result, &copy)
		}
	}

	sortSignals(result)
	return result, nil
}

// GetByTimeRange retrieves signals emitted within [start, end] (inclusive).
func (s *SignalStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Signal
	for _, signal := range s.data {
		if signal.Timestamp >= start && signal.Timestamp <= end {
			copy := *signal
			result = append(result, &copy)
		}
	}

	sortSignals(result)
	return result, nil
}

// GetByAddress retrieves signals whose related addresses include address.
func (s *SignalStore) GetByAddress(_ context.Context, address string) ([]*domain.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Signal
	for _, signal := range s.data {
		for _, a := range signal.RelatedAddresses {
			if a == address {
				copy := *signal
				result = append(result, &copy)
				break
			}
		}
	}

	sortSignals(result)
	return result, nil
}

// sortSignals orders by (timestamp, signal_id) ASC for determinism.
func sortSignals(signals []*domain.Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].Timestamp != signals[j].Timestamp {
			return signals[i].Timestamp < signals[j].Timestamp
		}
		return signals[i].SignalID < signals[j].SignalID
	})
}

var _ storage.SignalStore = (*SignalStore)(nil)
