// Package detect implements the four pattern heuristics evaluated per
// transaction event: sandwich, front-running, arbitrage clustering, and
// bot fingerprinting.
package detect

import "chain-sentinel/internal/engine"

// NewSet returns the detectors in their fixed evaluation order:
// sandwich, front-running, arbitrage, bot. The order does not affect
// correctness but is fixed for deterministic behavior.
func NewSet(config Config) []engine.Detector {
	return []engine.Detector{
		NewSandwichDetector(config),
		NewFrontRunDetector(config),
		NewArbitrageDetector(config),
		NewBotDetector(config),
	}
}
