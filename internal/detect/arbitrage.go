package detect

import (
	"fmt"
	"time"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/engine"
	"chain-sentinel/internal/sigid"
)

// maxArbitrageRelated caps how many matched hashes an arbitrage signal
// carries.
const maxArbitrageRelated = 5

// ArbitrageDetector flags senders repeatedly touching DEX routers across
// the retained window with sizable value attached, the shape of a bot
// cycling funds between pools.
type ArbitrageDetector struct {
	config Config
}

// NewArbitrageDetector creates an arbitrage detector.
func NewArbitrageDetector(config Config) *ArbitrageDetector {
	return &ArbitrageDetector{config: config}
}

// Kind returns the detector kind.
func (d *ArbitrageDetector) Kind() domain.DetectorKind {
	return domain.KindArbitrage
}

// Evaluate counts prior same-sender router interactions anywhere in the
// window. Severity is fixed LOW: arbitrage clustering is informational,
// not an attack on a victim.
func (d *ArbitrageDetector) Evaluate(event *domain.TransactionEvent, window *engine.Window, _ *engine.BotRegistry) (*domain.Signal, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("arbitrage: %w", ErrMalformedEvent)
	}
	if !d.config.Routers.Contains(event.ToAddress) {
		return nil, nil
	}
	if event.Value().Cmp(d.config.ArbitrageValueThresholdWei) <= 0 {
		return nil, nil
	}

	var matched []*domain.TransactionEvent
	routersTouched := domain.AppendUnique(nil, event.ToAddress)
	for _, tx := range window.TransactionsByAddress(event.FromAddress) {
		if tx.TransactionHash == event.TransactionHash {
			continue
		}
		if d.config.Routers.Contains(tx.ToAddress) {
			matched = append(matched, tx)
			routersTouched = domain.AppendUnique(routersTouched, tx.ToAddress)
		}
	}

	count := len(matched)
	if count < d.config.ArbitragePriorThreshold {
		return nil, nil
	}

	// Integer tenths keep the stepped values exact (0.6, not 0.6000...01).
	confidence := Clamp01(minFloat(0.85, float64(4+count)/10))

	hashes := domain.AppendUnique(nil, event.TransactionHash)
	for i, tx := range matched {
		if i >= maxArbitrageRelated {
			break
		}
		hashes = domain.AppendUnique(hashes, tx.TransactionHash)
	}

	now := time.Now().UnixMilli()
	return &domain.Signal{
		SignalID:         sigid.ComputeSignalID(event.TransactionHash, domain.KindArbitrage, event.BlockNumber, now),
		Kind:             domain.KindArbitrage,
		Confidence:       confidence,
		Severity:         domain.SeverityLow, // fixed, independent of confidence
		RelatedAddresses: domain.AppendUnique(nil, event.FromAddress),
		RelatedTxHashes:  hashes,
		Description: fmt.Sprintf("sender %s has %d prior router interactions across the window",
			event.FromAddress, count),
		Metadata: map[string]any{
			"routers_touched":    routersTouched,
			"prior_interactions": count,
		},
		Timestamp: now,
	}, nil
}
