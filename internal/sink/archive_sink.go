package sink

import (
	"context"
	"sync"

	"chain-sentinel/internal/domain"
)

// DefaultArchiveBatchSize is how many signals the archive sink buffers
// before flushing a batch.
const DefaultArchiveBatchSize = 64

// SignalArchiver is the batch-insert surface of a signal archive
// (clickhouse.SignalArchive in production).
type SignalArchiver interface {
	InsertBatch(ctx context.Context, signals []*domain.Signal) error
}

// ArchiveSink batches signals into a signal archive. ClickHouse favors
// large inserts, so signals are buffered and flushed by count; Close
// flushes the remainder.
type ArchiveSink struct {
	archive   SignalArchiver
	batchSize int

	mu      sync.Mutex
	pending []*domain.Signal
}

// NewArchiveSink creates a batching archive sink.
func NewArchiveSink(archive SignalArchiver, batchSize int) *ArchiveSink {
	if batchSize <= 0 {
		batchSize = DefaultArchiveBatchSize
	}
	return &ArchiveSink{
		archive:   archive,
		batchSize: batchSize,
	}
}

// Publish buffers the signal, flushing when the batch is full.
func (s *ArchiveSink) Publish(ctx context.Context, signal *domain.Signal) error {
	s.mu.Lock()
	s.pending = append(s.pending, signal)
	var flush []*domain.Signal
	if len(s.pending) >= s.batchSize {
		flush = s.pending
		s.pending = nil
	}
	s.mu.Unlock()

	if flush == nil {
		return nil
	}
	return s.archive.InsertBatch(ctx, flush)
}

// Flush writes any buffered signals immediately.
func (s *ArchiveSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	flush := s.pending
	s.pending = nil
	s.mu.Unlock()

	return s.archive.InsertBatch(ctx, flush)
}

// Close flushes the remaining buffer.
func (s *ArchiveSink) Close() error {
	return s.Flush(context.Background())
}

var _ Sink = (*ArchiveSink)(nil)
