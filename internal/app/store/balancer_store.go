package store

import (
	"sync"

	"defi_tracker/internal/domain/entity"
)

// Snapshot is a consistent view of the store at one version.
// The maps are never mutated after the snapshot is taken and must be
// treated as read-only by callers.
type Snapshot struct {
	Balances   entity.BalancerBalances
	Events     entity.BalancerEvents
	Version    uint64
	Generation uint64
}

// BalancerStore holds the raw per-address balances and events of the
// balancer sections. Every write replaces a whole map.
type BalancerStore struct {
	mu         sync.RWMutex
	balances   entity.BalancerBalances
	events     entity.BalancerEvents
	version    uint64
	generation uint64
}

// NewBalancerStore creates an empty store.
func NewBalancerStore() *BalancerStore {
	return &BalancerStore{
		balances: entity.BalancerBalances{},
		events:   entity.BalancerEvents{},
	}
}

// SetBalances replaces the balances map.
func (s *BalancerStore) SetBalances(balances entity.BalancerBalances) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = copyBalances(balances)
	s.version++
}

// SetEvents replaces the events map.
func (s *BalancerStore) SetEvents(events entity.BalancerEvents) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = copyEvents(events)
	s.version++
}

// ReplaceBalances replaces the balances map only if no Clear happened since
// generation was read. It reports whether the write was applied.
func (s *BalancerStore) ReplaceBalances(generation uint64, balances entity.BalancerBalances) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.balances = copyBalances(balances)
	s.version++
	return true
}

// ReplaceEvents is the events counterpart of ReplaceBalances.
func (s *BalancerStore) ReplaceEvents(generation uint64, events entity.BalancerEvents) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation != s.generation {
		return false
	}
	s.events = copyEvents(events)
	s.version++
	return true
}

// Clear empties both maps and invalidates writes started before the call.
func (s *BalancerStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = entity.BalancerBalances{}
	s.events = entity.BalancerEvents{}
	s.version++
	s.generation++
}

// Generation returns the current reset generation.
func (s *BalancerStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Version returns a counter incremented on every write.
func (s *BalancerStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the current contents of the store.
func (s *BalancerStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Balances:   s.balances,
		Events:     s.events,
		Version:    s.version,
		Generation: s.generation,
	}
}

// copyBalances detaches the stored map from the caller's map, down to the
// token lists, so later mutations by the caller cannot leak into snapshots.
func copyBalances(in entity.BalancerBalances) entity.BalancerBalances {
	return in.Clone()
}

func copyEvents(in entity.BalancerEvents) entity.BalancerEvents {
	return in.Clone()
}
