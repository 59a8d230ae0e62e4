package engine

import "sync"

// BotRegistry is the set of addresses already flagged as automated actors.
// The bot detector is the only writer; every detector may read it. An
// address enters the registry at most once, which gives the bot detector
// its first-detection idempotency gate.
type BotRegistry struct {
	mu   sync.RWMutex // protects seen from concurrent access
	seen map[string]struct{}
}

// NewBotRegistry creates an empty registry.
func NewBotRegistry() *BotRegistry {
	return &BotRegistry{
		seen: make(map[string]struct{}),
	}
}

// Contains reports whether address has already been flagged.
func (r *BotRegistry) Contains(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.seen[address]
	return ok
}

// MarkSeen inserts address idempotently and returns true only for the
// first insertion.
func (r *BotRegistry) MarkSeen(address string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[address]; ok {
		return false
	}
	r.seen[address] = struct{}{}
	return true
}

// Size returns the number of flagged addresses.
func (r *BotRegistry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.seen)
}

// Reset clears the registry. Useful for replay scenarios.
func (r *BotRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = make(map[string]struct{})
}
