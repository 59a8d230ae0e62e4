package detect

import (
	"fmt"
	"time"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/engine"
	"chain-sentinel/internal/sigid"
)

// SandwichDetector flags senders submitting several transactions to a
// known DEX router within a single block, the wrap-and-unwrap signature
// of a sandwich attack. Two *other* same-sender transactions (three in
// total) is the trigger: low enough to catch attacks, high enough to
// spare legitimate batch traders.
type SandwichDetector struct {
	config Config
}

// NewSandwichDetector creates a sandwich detector.
func NewSandwichDetector(config Config) *SandwichDetector {
	return &SandwichDetector{config: config}
}

// Kind returns the detector kind.
func (d *SandwichDetector) Kind() domain.DetectorKind {
	return domain.KindSandwich
}

// Evaluate checks the current block for other transactions from the same
// sender. Returns nil when the event does not target a router or the
// same-sender count is below threshold.
func (d *SandwichDetector) Evaluate(event *domain.TransactionEvent, window *engine.Window, _ *engine.BotRegistry) (*domain.Signal, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("sandwich: %w", ErrMalformedEvent)
	}
	if !d.config.Routers.Contains(event.ToAddress) {
		return nil, nil
	}

	var sameSender []*domain.TransactionEvent
	for _, tx := range window.TransactionsForBlock(event.BlockNumber) {
		if tx.FromAddress == event.FromAddress && tx.TransactionHash != event.TransactionHash {
			sameSender = append(sameSender, tx)
		}
	}

	count := len(sameSender)
	if count < 2 {
		return nil, nil
	}

	// Integer tenths keep the stepped values exact (0.7, not 0.7000...01).
	confidence := Clamp01(minFloat(0.8, float64(3+count)/10))
	severity := domain.SeverityMedium
	if confidence > 0.6 {
		severity = domain.SeverityHigh
	}

	hashes := domain.AppendUnique(nil, event.TransactionHash)
	for _, tx := range sameSender {
		hashes = domain.AppendUnique(hashes, tx.TransactionHash)
	}

	now := time.Now().UnixMilli()
	return &domain.Signal{
		SignalID:         sigid.ComputeSignalID(event.TransactionHash, domain.KindSandwich, event.BlockNumber, now),
		Kind:             domain.KindSandwich,
		Confidence:       confidence,
		Severity:         severity,
		RelatedAddresses: domain.AppendUnique(nil, event.FromAddress, event.ToAddress),
		RelatedTxHashes:  hashes,
		Description: fmt.Sprintf("sender %s submitted %d transactions to router %s in block %d",
			event.FromAddress, count+1, event.ToAddress, event.BlockNumber),
		Metadata: map[string]any{
			"block_number":      event.BlockNumber,
			"same_sender_count": count,
		},
		Timestamp: now,
	}, nil
}
