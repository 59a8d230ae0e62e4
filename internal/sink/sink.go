// Package sink provides signal-bus collaborators: destinations the
// dispatcher hands emitted signals to. Delivery is at-most-once; the
// dispatcher logs and drops on failure without retrying.
package sink

import (
	"context"
	"log"

	"chain-sentinel/internal/domain"
)

// Sink accepts emitted signals.
type Sink interface {
	Publish(ctx context.Context, signal *domain.Signal) error
	Close() error
}

// LogSink writes each signal to a logger. It is the default sink when no
// bus or store is configured.
type LogSink struct {
	logger *log.Logger
}

// NewLogSink creates a logging sink.
func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger}
}

// Publish logs the signal.
func (s *LogSink) Publish(_ context.Context, signal *domain.Signal) error {
	s.logger.Printf("SIGNAL %s kind=%s severity=%s confidence=%.2f addrs=%v txs=%v: %s",
		signal.SignalID, signal.Kind, signal.Severity, signal.Confidence,
		signal.RelatedAddresses, signal.RelatedTxHashes, signal.Description)
	return nil
}

// Close is a no-op.
func (s *LogSink) Close() error {
	return nil
}

var _ Sink = (*LogSink)(nil)

// MultiSink fans a signal out to several sinks. Each sink receives every
// signal; the first error is returned after all sinks were attempted.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a fan-out sink.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Publish delivers the signal to every sink.
func (s *MultiSink) Publish(ctx context.Context, signal *domain.Signal) error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, signal); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every sink.
func (s *MultiSink) Close() error {
	var firstErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

var _ Sink = (*MultiSink)(nil)
