// Package stub provides a channel-backed event source for tests and
// offline replay.
package stub

import (
	"context"

	"chain-sentinel/internal/domain"
)

// Source is a controllable in-memory event source.
type Source struct {
	ch chan *domain.TransactionEvent
}

// New creates a stub source with the given channel buffer.
func New(buffer int) *Source {
	if buffer <= 0 {
		buffer = 64
	}
	return &Source{
		ch: make(chan *domain.TransactionEvent, buffer),
	}
}

// Subscribe returns the event channel.
func (s *Source) Subscribe(_ context.Context) (<-chan *domain.TransactionEvent, error) {
	return s.ch, nil
}

// Send queues an event for delivery. Blocks when the buffer is full.
func (s *Source) Send(event *domain.TransactionEvent) {
	s.ch <- event
}

// Close closes the event channel, ending any consuming dispatcher run.
func (s *Source) Close() {
	close(s.ch)
}
