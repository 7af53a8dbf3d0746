package projection

import (
	"sync"

	"defi_tracker/internal/app/store"
	"defi_tracker/internal/domain/entity"
)

// Engine serves projections of a live store. The unfiltered balance list
// and pool directory are memoized per store version; filtered projections
// are always computed on demand.
type Engine struct {
	store *store.BalancerStore

	mu          sync.Mutex
	cached      bool
	version     uint64
	balanceList []entity.BalanceWithOwner
	pools       []entity.Pool
}

// NewEngine creates an Engine reading from s.
func NewEngine(s *store.BalancerStore) *Engine {
	return &Engine{store: s}
}

func (e *Engine) memoized() ([]entity.BalanceWithOwner, []entity.Pool) {
	snap := e.store.Snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cached || e.version != snap.Version {
		e.balanceList = BalanceList(snap)
		e.pools = pools(e.balanceList, EventList(snap))
		e.version = snap.Version
		e.cached = true
	}
	return e.balanceList, e.pools
}

// Addresses returns the addresses that have balances.
func (e *Engine) Addresses() []entity.Address {
	return Addresses(e.store.Snapshot())
}

// BalanceList returns every balance tagged with its owner.
func (e *Engine) BalanceList() []entity.BalanceWithOwner {
	list, _ := e.memoized()
	out := make([]entity.BalanceWithOwner, len(list))
	for i, b := range list {
		out[i] = b.Clone()
	}
	return out
}

// Pools returns the deduplicated pool directory.
func (e *Engine) Pools() []entity.Pool {
	_, p := e.memoized()
	out := make([]entity.Pool, len(p))
	for i, pool := range p {
		out[i] = pool.Clone()
	}
	return out
}

// EventList returns the flattened events of the given addresses.
func (e *Engine) EventList(addresses ...entity.Address) []entity.BalancerEvent {
	return EventList(e.store.Snapshot(), addresses...)
}

// ProfitLoss returns the first-seen profit/loss per pool of the given addresses.
func (e *Engine) ProfitLoss(addresses ...entity.Address) []entity.BalancerProfitLoss {
	return ProfitLoss(e.store.Snapshot(), addresses...)
}
