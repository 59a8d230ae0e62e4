package detect

import "chain-sentinel/internal/domain"

// Shared severity thresholds. Individual detectors deliberately deviate
// from this mapping (arbitrage is always LOW, bot always MEDIUM, sandwich
// and front-running carry their own HIGH cut-offs); those deviations are
// part of the observed behavior and are kept as-is.
const (
	severityHighMin   = 0.7
	severityMediumMin = 0.3
)

// Clamp01 clamps a confidence value into [0, 1]. Every emitted signal
// passes through this before leaving a detector.
func Clamp01(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// SeverityForConfidence maps a confidence value onto the shared severity
// scale: HIGH >= 0.7, MEDIUM >= 0.3, else LOW.
func SeverityForConfidence(confidence float64) domain.Severity {
	switch {
	case confidence >= severityHighMin:
		return domain.SeverityHigh
	case confidence >= severityMediumMin:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
