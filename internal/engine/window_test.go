package engine

import (
	"fmt"
	"testing"

	"chain-sentinel/internal/domain"
)

func makeEvent(block uint64, hash, from, to string) *domain.TransactionEvent {
	return &domain.TransactionEvent{
		BlockNumber:     block,
		TransactionHash: hash,
		FromAddress:     from,
		ToAddress:       to,
	}
}

func TestWindow_BoundInvariant(t *testing.T) {
	w := NewWindow(10)

	// Append a long run of blocks; the retained count must never exceed
	// the window size after any single append.
	for block := uint64(1); block <= 100; block++ {
		for i := 0; i < 3; i++ {
			w.Append(makeEvent(block, fmt.Sprintf("0x%d-%d", block, i), "0xaaa", "0xbbb"))
			if w.BlockCount() > 10 {
				t.Fatalf("Window retained %d blocks after appending block %d, limit 10", w.BlockCount(), block)
			}
		}
	}

	if w.BlockCount() != 10 {
		t.Errorf("Expected 10 retained blocks, got %d", w.BlockCount())
	}
}

func TestWindow_EvictionCorrectness(t *testing.T) {
	w := NewWindow(10)

	for block := uint64(1); block <= 15; block++ {
		w.Append(makeEvent(block, fmt.Sprintf("0x%d", block), "0xaaa", "0xbbb"))
	}

	// Max retained block is 15, so blocks < 6 must be gone.
	for block := uint64(1); block <= 5; block++ {
		if got := w.TransactionsForBlock(block); got != nil {
			t.Errorf("Block %d should be evicted, got %d transactions", block, len(got))
		}
	}
	for block := uint64(6); block <= 15; block++ {
		if got := w.TransactionsForBlock(block); len(got) != 1 {
			t.Errorf("Block %d should be retained with 1 transaction, got %d", block, len(got))
		}
	}
}

func TestWindow_LateLowBlockEvictedImmediately(t *testing.T) {
	w := NewWindow(10)

	w.Append(makeEvent(100, "0xhigh", "0xaaa", "0xbbb"))

	// Block 50 is far outside [91, 100]; it must not be retained.
	w.Append(makeEvent(50, "0xlate", "0xaaa", "0xbbb"))

	if got := w.TransactionsForBlock(50); got != nil {
		t.Errorf("Late block 50 should be evicted immediately, got %d transactions", len(got))
	}
	if w.BlockCount() != 1 {
		t.Errorf("Expected 1 retained block, got %d", w.BlockCount())
	}
}

func TestWindow_LateBlockInsideWindowRetained(t *testing.T) {
	w := NewWindow(10)

	w.Append(makeEvent(100, "0xhigh", "0xaaa", "0xbbb"))
	w.Append(makeEvent(95, "0xlate", "0xaaa", "0xbbb"))

	if got := w.TransactionsForBlock(95); len(got) != 1 {
		t.Errorf("Block 95 is inside the window and should be retained, got %d transactions", len(got))
	}
}

func TestWindow_InsertionOrderPreserved(t *testing.T) {
	w := NewWindow(10)

	hashes := []string{"0x1", "0x2", "0x3"}
	for _, h := range hashes {
		w.Append(makeEvent(7, h, "0xaaa", "0xbbb"))
	}

	got := w.TransactionsForBlock(7)
	if len(got) != 3 {
		t.Fatalf("Expected 3 transactions, got %d", len(got))
	}
	for i, h := range hashes {
		if got[i].TransactionHash != h {
			t.Errorf("Position %d: expected %s, got %s", i, h, got[i].TransactionHash)
		}
	}
}

func TestWindow_TransactionsByAddress(t *testing.T) {
	w := NewWindow(10)

	w.Append(makeEvent(1, "0xa1", "0xalice", "0xrouter"))
	w.Append(makeEvent(2, "0xb1", "0xbob", "0xrouter"))
	w.Append(makeEvent(2, "0xa2", "0xalice", "0xother"))
	w.Append(makeEvent(3, "0xa3", "0xalice", "0xrouter"))

	got := w.TransactionsByAddress("0xalice")
	if len(got) != 3 {
		t.Fatalf("Expected 3 transactions from alice, got %d", len(got))
	}
	// Ordered by block, then insertion order.
	want := []string{"0xa1", "0xa2", "0xa3"}
	for i, h := range want {
		if got[i].TransactionHash != h {
			t.Errorf("Position %d: expected %s, got %s", i, h, got[i].TransactionHash)
		}
	}

	if got := w.TransactionsByAddress("0xnobody"); got != nil {
		t.Errorf("Expected no transactions for unknown address, got %d", len(got))
	}
}

func TestWindow_RedeliveredEventNotDuplicated(t *testing.T) {
	w := NewWindow(10)

	event := makeEvent(7, "0x1", "0xalice", "0xrouter")
	w.Append(event)
	w.Append(event)
	w.Append(makeEvent(7, "0x1", "0xalice", "0xrouter")) // re-decoded copy

	if got := w.TransactionsForBlock(7); len(got) != 1 {
		t.Errorf("Redelivered hash should be retained once, got %d entries", len(got))
	}
	if got := w.TransactionsByAddress("0xalice"); len(got) != 1 {
		t.Errorf("Redelivery should not inflate per-address counts, got %d", len(got))
	}

	// The same hash in a different block is a distinct entry.
	w.Append(makeEvent(8, "0x1", "0xalice", "0xrouter"))
	if got := w.TransactionsForBlock(8); len(got) != 1 {
		t.Errorf("Same hash in another block should be retained, got %d entries", len(got))
	}
}

func TestWindow_DefaultSize(t *testing.T) {
	w := NewWindow(0)
	for block := uint64(1); block <= 20; block++ {
		w.Append(makeEvent(block, fmt.Sprintf("0x%d", block), "0xaaa", "0xbbb"))
	}
	if w.BlockCount() != DefaultWindowSize {
		t.Errorf("Expected default size %d, got %d", DefaultWindowSize, w.BlockCount())
	}
}
