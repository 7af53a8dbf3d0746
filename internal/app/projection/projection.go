// Package projection derives read-only views from the raw balancer records.
// Every function is pure: it reads a store snapshot and returns freshly
// built values.
package projection

import (
	"maps"
	"slices"
	"sort"

	"defi_tracker/internal/app/store"
	"defi_tracker/internal/domain/entity"
)

// Addresses returns the addresses that have balances, sorted.
func Addresses(snap store.Snapshot) []entity.Address {
	return sortedKeys(snap.Balances)
}

// BalanceList flattens every address's balances, tagging each with its owner.
// Addresses are visited in sorted order, then in list order.
func BalanceList(snap store.Snapshot) []entity.BalanceWithOwner {
	result := make([]entity.BalanceWithOwner, 0)
	for _, addr := range sortedKeys(snap.Balances) {
		for _, balance := range snap.Balances[addr] {
			result = append(result, entity.BalanceWithOwner{
				BalancerBalance: balance.Clone(),
				Owner:           addr,
			})
		}
	}
	return result
}

// Pools returns the deduplicated pool directory. Pools seen in balances are
// recorded first; pools only seen in events are added afterwards. An entry
// is never overwritten once recorded.
func Pools(snap store.Snapshot) []entity.Pool {
	return pools(BalanceList(snap), EventList(snap))
}

func pools(balances []entity.BalanceWithOwner, events []entity.BalancerEvent) []entity.Pool {
	seen := make(map[entity.Address]struct{})
	result := make([]entity.Pool, 0)

	for _, b := range balances {
		if _, ok := seen[b.Address]; ok {
			continue
		}
		seen[b.Address] = struct{}{}
		result = append(result, entity.Pool{
			Address: b.Address,
			Assets:  entity.TokenIDs(b.Tokens),
		})
	}

	for _, e := range events {
		if e.Pool == nil {
			continue
		}
		if _, ok := seen[e.Pool.Address]; ok {
			continue
		}
		seen[e.Pool.Address] = struct{}{}
		result = append(result, entity.Pool{
			Address: e.Pool.Address,
			Assets:  append([]entity.AssetID(nil), e.Pool.Assets...),
		})
	}
	return result
}

// EventList flattens the events of the given addresses (all addresses when
// none are given), stamping each event with the pool it belongs to.
func EventList(snap store.Snapshot, addresses ...entity.Address) []entity.BalancerEvent {
	result := make([]entity.BalancerEvent, 0)
	filterAddresses(snap.Events, addresses, func(details []entity.BalancerPoolDetail) {
		for _, detail := range details {
			assets := entity.TokenIDs(detail.PoolTokens)
			for _, event := range detail.Events {
				event = event.Clone()
				event.Pool = &entity.PoolRef{
					Address: detail.PoolAddress,
					Assets:  slices.Clone(assets),
				}
				result = append(result, event)
			}
		}
	})
	return result
}

// ProfitLoss returns one entry per pool address for the given addresses
// (all addresses when none are given). The first pool detail seen for a
// pool wins; later details for the same pool are ignored, not summed.
func ProfitLoss(snap store.Snapshot, addresses ...entity.Address) []entity.BalancerProfitLoss {
	seen := make(map[entity.Address]struct{})
	result := make([]entity.BalancerProfitLoss, 0)
	filterAddresses(snap.Events, addresses, func(details []entity.BalancerPoolDetail) {
		for _, detail := range details {
			if _, ok := seen[detail.PoolAddress]; ok {
				continue
			}
			seen[detail.PoolAddress] = struct{}{}
			assets := entity.TokenIDs(detail.PoolTokens)
			result = append(result, entity.BalancerProfitLoss{
				Pool: entity.Pool{
					Address: detail.PoolAddress,
					Assets:  assets,
				},
				Tokens:           slices.Clone(assets),
				ProfitLossAmount: maps.Clone(detail.ProfitLossAmounts),
				UsdProfitLoss:    detail.UsdProfitLoss,
			})
		}
	})
	return result
}

// filterAddresses calls fn with the events of every address in addresses,
// or of every address in the map when addresses is empty. Iteration
// follows sorted map keys so results are deterministic.
func filterAddresses(events entity.BalancerEvents, addresses []entity.Address, fn func([]entity.BalancerPoolDetail)) {
	var wanted map[entity.Address]struct{}
	if len(addresses) > 0 {
		wanted = make(map[entity.Address]struct{}, len(addresses))
		for _, a := range addresses {
			wanted[a] = struct{}{}
		}
	}
	for _, addr := range sortedKeys(events) {
		if wanted != nil {
			if _, ok := wanted[addr]; !ok {
				continue
			}
		}
		fn(events[addr])
	}
}

func sortedKeys[V any](m map[entity.Address]V) []entity.Address {
	keys := make([]entity.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
