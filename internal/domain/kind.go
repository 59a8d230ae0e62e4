package domain

// DetectorKind identifies the heuristic that produced a signal.
type DetectorKind string

const (
	KindSandwich     DetectorKind = "SANDWICH"
	KindFrontRunning DetectorKind = "FRONT_RUNNING"
	KindArbitrage    DetectorKind = "ARBITRAGE"
	KindBot          DetectorKind = "BOT"
)

// String returns the string representation of the kind.
func (k DetectorKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a known value.
func (k DetectorKind) IsValid() bool {
	switch k {
	case KindSandwich, KindFrontRunning, KindArbitrage, KindBot:
		return true
	}
	return false
}

// Severity classifies how urgent a signal is for downstream consumers.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}
