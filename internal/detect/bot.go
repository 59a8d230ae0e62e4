package detect

import (
	"fmt"
	"time"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/engine"
	"chain-sentinel/internal/sigid"
)

// BotDetector fingerprints automated actors by in-window transaction
// volume and gas bidding. It is the only detector with registry-gated
// idempotency: an address produces at most one BOT signal ever, however
// many qualifying transactions follow.
type BotDetector struct {
	config Config
}

// NewBotDetector creates a bot-fingerprint detector.
func NewBotDetector(config Config) *BotDetector {
	return &BotDetector{config: config}
}

// Kind returns the detector kind.
func (d *BotDetector) Kind() domain.DetectorKind {
	return domain.KindBot
}

// Evaluate counts in-window transactions from the sender. Confidence and
// severity are fixed (0.7 / MEDIUM) rather than threshold-derived.
func (d *BotDetector) Evaluate(event *domain.TransactionEvent, window *engine.Window, registry *engine.BotRegistry) (*domain.Signal, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("bot: %w", ErrMalformedEvent)
	}

	count := len(window.TransactionsByAddress(event.FromAddress))
	if count < d.config.BotTxCountThreshold {
		return nil, nil
	}
	if event.GasPriceWei <= d.config.BotGasThresholdWei {
		return nil, nil
	}

	// Idempotency gate: only the first qualifying transaction per address
	// emits a signal.
	if !registry.MarkSeen(event.FromAddress) {
		return nil, nil
	}

	now := time.Now().UnixMilli()
	return &domain.Signal{
		SignalID:         sigid.ComputeSignalID(event.TransactionHash, domain.KindBot, event.BlockNumber, now),
		Kind:             domain.KindBot,
		Confidence:       0.7,
		Severity:         domain.SeverityMedium, // fixed, independent of confidence
		RelatedAddresses: domain.AppendUnique(nil, event.FromAddress),
		RelatedTxHashes:  domain.AppendUnique(nil, event.TransactionHash),
		Description: fmt.Sprintf("address %s submitted %d transactions across the window at elevated gas",
			event.FromAddress, count),
		Metadata: map[string]any{
			"window_tx_count": count,
			"gas_price_wei":   event.GasPriceWei,
		},
		Timestamp: now,
	}, nil
}
