package detect

import (
	"fmt"
	"time"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/engine"
	"chain-sentinel/internal/sigid"
)

// maxFrontRunRelated caps how many matched prior hashes a front-running
// signal carries.
const maxFrontRunRelated = 3

// frontRunGasScale converts the incoming gas price into the confidence
// contribution: confidence = 0.5 + gasPriceWei/400e9, capped at 0.9.
// A 150 gwei bid therefore scores 0.875.
const frontRunGasScale = 400_000_000_000

// FrontRunDetector flags abnormally high gas bids targeting a router that
// recently received a much cheaper competing transaction. The lookback is
// capped at a few blocks, which bounds the scan and matches the timing
// window in which front-running actually pays off.
type FrontRunDetector struct {
	config Config
}

// NewFrontRunDetector creates a front-running detector.
func NewFrontRunDetector(config Config) *FrontRunDetector {
	return &FrontRunDetector{config: config}
}

// Kind returns the detector kind.
func (d *FrontRunDetector) Kind() domain.DetectorKind {
	return domain.KindFrontRunning
}

// Evaluate scans the previous lookback blocks for transactions to the
// same router whose gas price is below half of the incoming bid.
func (d *FrontRunDetector) Evaluate(event *domain.TransactionEvent, window *engine.Window, _ *engine.BotRegistry) (*domain.Signal, error) {
	if !event.Valid() {
		return nil, fmt.Errorf("front-run: %w", ErrMalformedEvent)
	}
	if !d.config.Routers.Contains(event.ToAddress) {
		return nil, nil
	}
	if event.GasPriceWei <= d.config.FrontRunGasThresholdWei {
		return nil, nil
	}

	halfGas := event.GasPriceWei / 2
	var matched []*domain.TransactionEvent

	for offset := uint64(1); offset <= d.config.FrontRunLookbackBlocks; offset++ {
		if offset > event.BlockNumber {
			break
		}
		for _, tx := range window.TransactionsForBlock(event.BlockNumber - offset) {
			if tx.ToAddress == event.ToAddress && tx.GasPriceWei < halfGas {
				matched = append(matched, tx)
			}
		}
	}

	if len(matched) == 0 {
		return nil, nil
	}

	confidence := Clamp01(minFloat(0.9, 0.5+float64(event.GasPriceWei)/frontRunGasScale))
	severity := domain.SeverityMedium
	if confidence > 0.7 {
		severity = domain.SeverityHigh
	}

	hashes := domain.AppendUnique(nil, event.TransactionHash)
	for i, tx := range matched {
		if i >= maxFrontRunRelated {
			break
		}
		hashes = domain.AppendUnique(hashes, tx.TransactionHash)
	}

	now := time.Now().UnixMilli()
	return &domain.Signal{
		SignalID:         sigid.ComputeSignalID(event.TransactionHash, domain.KindFrontRunning, event.BlockNumber, now),
		Kind:             domain.KindFrontRunning,
		Confidence:       confidence,
		Severity:         severity,
		RelatedAddresses: domain.AppendUnique(nil, event.FromAddress, event.ToAddress),
		RelatedTxHashes:  hashes,
		Description: fmt.Sprintf("gas price %d wei outbids %d cheaper pending transaction(s) to %s",
			event.GasPriceWei, len(matched), event.ToAddress),
		Metadata: map[string]any{
			"gas_price_wei":   event.GasPriceWei,
			"matched_count":   len(matched),
			"lookback_blocks": d.config.FrontRunLookbackBlocks,
		},
		Timestamp: now,
	}, nil
}
