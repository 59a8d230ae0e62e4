package detect

import (
	"math/big"
	"testing"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/engine"
)

// twoEther is comfortably above the 1 ether arbitrage threshold.
func twoEther() *big.Int {
	return new(big.Int).Mul(WeiPerEther, big.NewInt(2))
}

func TestArbitrage_PriorRouterInteractions(t *testing.T) {
	d := NewArbitrageDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	// Two prior router interactions from the same sender in the window.
	w.Append(tx(95, "0xa1", "0xarber", testRouter, 0, nil))
	w.Append(tx(97, "0xa2", "0xarber", testRouter, 0, nil))

	incoming := tx(100, "0xa3", "0xarber", testRouter, 0, twoEther())
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal == nil {
		t.Fatal("Expected an ARBITRAGE signal")
	}

	if signal.Kind != domain.KindArbitrage {
		t.Errorf("Expected kind ARBITRAGE, got %s", signal.Kind)
	}
	// confidence = min(0.85, 0.4 + 0.1*2) = 0.6
	if signal.Confidence != 0.6 {
		t.Errorf("Expected confidence 0.6, got %v", signal.Confidence)
	}
	// Severity is fixed LOW regardless of confidence.
	if signal.Severity != domain.SeverityLow {
		t.Errorf("Expected severity LOW, got %s", signal.Severity)
	}
	if len(signal.RelatedAddresses) != 1 || signal.RelatedAddresses[0] != "0xarber" {
		t.Errorf("Expected related addresses {0xarber}, got %v", signal.RelatedAddresses)
	}

	routers, ok := signal.Metadata["routers_touched"].([]string)
	if !ok || len(routers) != 1 {
		t.Errorf("Expected one distinct router in metadata, got %v", signal.Metadata["routers_touched"])
	}
}

func TestArbitrage_ConfidenceStepsAreExact(t *testing.T) {
	d := NewArbitrageDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	// Three priors: confidence must be exactly 0.7, with no float64
	// accumulation drift from repeated 0.1 steps.
	w.Append(tx(95, "0xa1", "0xarber", testRouter, 0, nil))
	w.Append(tx(96, "0xa2", "0xarber", testRouter, 0, nil))
	w.Append(tx(97, "0xa3", "0xarber", testRouter, 0, nil))

	incoming := tx(100, "0xa4", "0xarber", testRouter, 0, twoEther())
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal == nil {
		t.Fatal("Expected an ARBITRAGE signal")
	}
	if signal.Confidence != 0.7 {
		t.Errorf("Expected confidence exactly 0.7, got %v", signal.Confidence)
	}
}

func TestArbitrage_ValueAtThresholdIgnored(t *testing.T) {
	d := NewArbitrageDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	w.Append(tx(95, "0xa1", "0xarber", testRouter, 0, nil))
	w.Append(tx(97, "0xa2", "0xarber", testRouter, 0, nil))

	// Exactly 1 ether: threshold is strict.
	incoming := tx(100, "0xa3", "0xarber", testRouter, 0, new(big.Int).Set(WeiPerEther))
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal != nil {
		t.Errorf("Value exactly at 1 ether should not trigger, got %+v", signal)
	}
}

func TestArbitrage_BelowPriorThreshold(t *testing.T) {
	d := NewArbitrageDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	w.Append(tx(95, "0xa1", "0xarber", testRouter, 0, nil))

	incoming := tx(100, "0xa2", "0xarber", testRouter, 0, twoEther())
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal != nil {
		t.Errorf("One prior interaction is below the threshold of 2, got %+v", signal)
	}
}

func TestArbitrage_NonRouterPriorsExcluded(t *testing.T) {
	d := NewArbitrageDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	// Same sender but plain transfers, not router interactions.
	w.Append(tx(95, "0xa1", "0xarber", "0xfriend", 0, nil))
	w.Append(tx(97, "0xa2", "0xarber", "0xfriend", 0, nil))

	incoming := tx(100, "0xa3", "0xarber", testRouter, 0, twoEther())
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal != nil {
		t.Errorf("Non-router priors should not count, got %+v", signal)
	}
}

func TestArbitrage_RelatedHashesCapped(t *testing.T) {
	d := NewArbitrageDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	for i, h := range []string{"0xa1", "0xa2", "0xa3", "0xa4", "0xa5", "0xa6", "0xa7"} {
		w.Append(tx(94+uint64(i), h, "0xarber", testRouter, 0, nil))
	}
	incoming := tx(101, "0xcur", "0xarber", testRouter, 0, twoEther())
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal == nil {
		t.Fatal("Expected an ARBITRAGE signal")
	}
	// Incoming hash plus at most 5 matched priors.
	if len(signal.RelatedTxHashes) != 6 {
		t.Errorf("Expected 6 related hashes (1 incoming + 5 matched), got %v", signal.RelatedTxHashes)
	}
}
