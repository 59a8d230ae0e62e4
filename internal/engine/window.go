package engine

import (
	"sort"

	"chain-sentinel/internal/domain"
)

// DefaultWindowSize is the number of distinct block numbers retained.
const DefaultWindowSize = 10

// Window is the bounded, block-indexed history of recent transactions.
// It is exclusively owned by the Dispatcher: mutated only between detector
// runs and read-only while detectors evaluate a single event. A restart
// loses all window history; detectors that need cross-restart history are
// not supported.
type Window struct {
	size      int
	blocks    map[uint64][]*domain.TransactionEvent
	maxSeen   uint64 // highest block number ever appended
	seenBlock bool   // false until the first append
}

// NewWindow creates a window retaining the most recent size distinct
// block numbers. Non-positive size falls back to DefaultWindowSize.
func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{
		size:   size,
		blocks: make(map[uint64][]*domain.TransactionEvent),
	}
}

// Append inserts event into the list for its block number, creating the
// block entry if absent, then evicts every retained block older than
// (maxSeen - size + 1). Eviction is keyed on block-number ordering, not
// insertion time, so a late event for a block outside the window is
// evicted immediately rather than retained. A redelivered event (same
// hash already in the block's list) is not appended again; hashes are
// unique per block, so one delivery is authoritative.
func (w *Window) Append(event *domain.TransactionEvent) {
	block := event.BlockNumber
	for _, tx := range w.blocks[block] {
		if tx.TransactionHash == event.TransactionHash {
			return
		}
	}
	w.blocks[block] = append(w.blocks[block], event)

	if !w.seenBlock || block > w.maxSeen {
		w.maxSeen = block
		w.seenBlock = true
	}

	cutoff := w.cutoff()
	for b := range w.blocks {
		if b < cutoff {
			delete(w.blocks, b)
		}
	}
}

// cutoff returns the lowest retained block number.
func (w *Window) cutoff() uint64 {
	span := uint64(w.size)
	if w.maxSeen+1 < span {
		return 0
	}
	return w.maxSeen + 1 - span
}

// TransactionsForBlock returns the current list for a block, or nil if
// the block is absent or already evicted.
func (w *Window) TransactionsForBlock(block uint64) []*domain.TransactionEvent {
	return w.blocks[block]
}

// TransactionsByAddress collects transactions across all retained blocks
// where the sender matches address, ordered by (block, insertion order).
// This is an O(window) scan; the window is small and bounded so that is
// acceptable.
func (w *Window) TransactionsByAddress(address string) []*domain.TransactionEvent {
	blocks := w.RetainedBlocks()

	var result []*domain.TransactionEvent
	for _, b := range blocks {
		for _, tx := range w.blocks[b] {
			if tx.FromAddress == address {
				result = append(result, tx)
			}
		}
	}
	return result
}

// RetainedBlocks returns the retained block numbers in ascending order.
func (w *Window) RetainedBlocks() []uint64 {
	blocks := make([]uint64, 0, len(w.blocks))
	for b := range w.blocks {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })
	return blocks
}

// BlockCount returns the number of distinct retained block numbers.
func (w *Window) BlockCount() int {
	return len(w.blocks)
}

// MaxBlock returns the highest block number ever appended and whether any
// event has been appended yet.
func (w *Window) MaxBlock() (uint64, bool) {
	return w.maxSeen, w.seenBlock
}
