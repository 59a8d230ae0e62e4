package detect

import (
	"errors"
	"math/big"
	"testing"

	"chain-sentinel/internal/domain"
	"chain-sentinel/internal/engine"
)

const testRouter = "0xrouter"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Routers = NewRouterSet([]string{testRouter})
	return cfg
}

func tx(block uint64, hash, from, to string, gasWei uint64, valueWei *big.Int) *domain.TransactionEvent {
	return &domain.TransactionEvent{
		BlockNumber:     block,
		TransactionHash: hash,
		FromAddress:     from,
		ToAddress:       to,
		GasPriceWei:     gasWei,
		ValueWei:        valueWei,
	}
}

func TestSandwich_ThreeSameSenderTxsInBlock(t *testing.T) {
	d := NewSandwichDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	// Block 100: three transactions from the same sender to the router.
	w.Append(tx(100, "0xs1", "0xattacker", testRouter, 0, nil))
	w.Append(tx(100, "0xs2", "0xattacker", testRouter, 0, nil))
	incoming := tx(100, "0xs3", "0xattacker", testRouter, 0, nil)
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal == nil {
		t.Fatal("Expected a SANDWICH signal")
	}

	if signal.Kind != domain.KindSandwich {
		t.Errorf("Expected kind SANDWICH, got %s", signal.Kind)
	}
	// 2 other same-sender transactions: confidence = 0.3 + 0.1*2 = 0.5.
	if signal.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %v", signal.Confidence)
	}
	// 0.5 is not above the detector's own 0.6 HIGH cut-off.
	if signal.Severity != domain.SeverityMedium {
		t.Errorf("Expected severity MEDIUM, got %s", signal.Severity)
	}
	if len(signal.RelatedTxHashes) != 3 {
		t.Errorf("Expected 3 related hashes, got %v", signal.RelatedTxHashes)
	}
	if signal.RelatedTxHashes[0] != "0xs3" {
		t.Errorf("Incoming hash should lead the related set, got %v", signal.RelatedTxHashes)
	}
}

func TestSandwich_HighSeverityAtHighCount(t *testing.T) {
	d := NewSandwichDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	// 4 other same-sender transactions: confidence = 0.3 + 0.4 = 0.7 > 0.6.
	for _, h := range []string{"0xs1", "0xs2", "0xs3", "0xs4"} {
		w.Append(tx(100, h, "0xattacker", testRouter, 0, nil))
	}
	incoming := tx(100, "0xs5", "0xattacker", testRouter, 0, nil)
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal == nil {
		t.Fatal("Expected a SANDWICH signal")
	}
	if signal.Confidence != 0.7 {
		t.Errorf("Expected confidence 0.7, got %v", signal.Confidence)
	}
	if signal.Severity != domain.SeverityHigh {
		t.Errorf("Expected severity HIGH, got %s", signal.Severity)
	}
}

func TestSandwich_NoSignalBelowThreshold(t *testing.T) {
	d := NewSandwichDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	// Only 1 other same-sender transaction: below the 2-other threshold.
	w.Append(tx(100, "0xs1", "0xattacker", testRouter, 0, nil))
	incoming := tx(100, "0xs2", "0xattacker", testRouter, 0, nil)
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal != nil {
		t.Errorf("Expected no signal, got %+v", signal)
	}
}

func TestSandwich_RedeliveryDoesNotInflateCount(t *testing.T) {
	d := NewSandwichDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	// One other same-sender transaction, delivered twice. The duplicate
	// must not push the count over the 2-other threshold.
	w.Append(tx(100, "0xs1", "0xattacker", testRouter, 0, nil))
	w.Append(tx(100, "0xs1", "0xattacker", testRouter, 0, nil))
	incoming := tx(100, "0xs2", "0xattacker", testRouter, 0, nil)
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal != nil {
		t.Errorf("Redelivered transaction should count once, got %+v", signal)
	}
}

func TestSandwich_NonRouterIgnored(t *testing.T) {
	d := NewSandwichDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	w.Append(tx(100, "0xs1", "0xattacker", "0xelsewhere", 0, nil))
	w.Append(tx(100, "0xs2", "0xattacker", "0xelsewhere", 0, nil))
	incoming := tx(100, "0xs3", "0xattacker", "0xelsewhere", 0, nil)
	w.Append(incoming)

	signal, err := d.Evaluate(incoming, w, r)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if signal != nil {
		t.Errorf("Expected no signal for non-router target, got %+v", signal)
	}
}

func TestSandwich_MalformedEvent(t *testing.T) {
	d := NewSandwichDetector(testConfig())
	w := engine.NewWindow(10)
	r := engine.NewBotRegistry()

	_, err := d.Evaluate(&domain.TransactionEvent{BlockNumber: 100}, w, r)
	if !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("Expected ErrMalformedEvent, got %v", err)
	}
}
