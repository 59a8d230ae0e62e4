// Package ingestion provides transaction-event sources for the engine.
// The transport is a collaborator concern; the dispatcher only ever sees
// a channel of events in approximately block order.
package ingestion

import (
	"context"

	"chain-sentinel/internal/domain"
)

// Source delivers transaction events to the dispatcher.
type Source interface {
	// Subscribe returns a channel of events. The channel is closed when
	// the source shuts down.
	Subscribe(ctx context.Context) (<-chan *domain.TransactionEvent, error)
}
