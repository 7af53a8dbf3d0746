package store

import (
	"testing"

	"defi_tracker/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func balancesFixture(addr, pool string) entity.BalancerBalances {
	return entity.BalancerBalances{
		addr: {{Address: pool, Tokens: []entity.PoolToken{{Token: "T1"}}}},
	}
}

func TestBalancerStore_SetBalancesReplacesWholesale(t *testing.T) {
	s := NewBalancerStore()
	s.SetBalances(balancesFixture("0xA", "P1"))
	s.SetBalances(balancesFixture("0xB", "P2"))

	snap := s.Snapshot()
	require.Len(t, snap.Balances, 1)
	assert.Contains(t, snap.Balances, "0xB")
	assert.NotContains(t, snap.Balances, "0xA")
	assert.Equal(t, uint64(2), snap.Version)
}

func TestBalancerStore_SnapshotIsDetachedFromInput(t *testing.T) {
	s := NewBalancerStore()
	in := balancesFixture("0xA", "P1")
	s.SetBalances(in)

	in["0xC"] = nil
	in["0xA"][0].Address = "changed"

	snap := s.Snapshot()
	assert.NotContains(t, snap.Balances, "0xC")
	assert.Equal(t, "P1", snap.Balances["0xA"][0].Address)
}

func TestBalancerStore_ClearEmptiesAndBumpsGeneration(t *testing.T) {
	s := NewBalancerStore()
	s.SetBalances(balancesFixture("0xA", "P1"))
	s.SetEvents(entity.BalancerEvents{"0xA": {{PoolAddress: "P1"}}})
	gen := s.Generation()

	s.Clear()

	snap := s.Snapshot()
	assert.Empty(t, snap.Balances)
	assert.Empty(t, snap.Events)
	assert.Equal(t, gen+1, snap.Generation)
}

func TestBalancerStore_ReplaceRejectsStaleGeneration(t *testing.T) {
	s := NewBalancerStore()
	gen := s.Generation()
	s.Clear()

	applied := s.ReplaceBalances(gen, balancesFixture("0xA", "P1"))
	assert.False(t, applied)
	applied = s.ReplaceEvents(gen, entity.BalancerEvents{"0xA": {{PoolAddress: "P1"}}})
	assert.False(t, applied)

	snap := s.Snapshot()
	assert.Empty(t, snap.Balances)
	assert.Empty(t, snap.Events)

	assert.True(t, s.ReplaceBalances(s.Generation(), balancesFixture("0xA", "P1")))
	assert.Len(t, s.Snapshot().Balances, 1)
}

func TestBalancerStore_VersionIncrementsOnEveryWrite(t *testing.T) {
	s := NewBalancerStore()
	assert.Equal(t, uint64(0), s.Version())
	s.SetBalances(nil)
	s.SetEvents(nil)
	s.Clear()
	assert.Equal(t, uint64(3), s.Version())
}

func TestBalancerStore_NestedValuesAreDetachedFromInput(t *testing.T) {
	s := NewBalancerStore()
	amount := decimal.NewFromInt(3)
	in := entity.BalancerBalances{"0xA": {{
		Address: "P1",
		Tokens:  []entity.PoolToken{{Token: "T1", TotalAmount: &amount}},
	}}}
	events := entity.BalancerEvents{"0xA": {{
		PoolAddress:       "P1",
		PoolTokens:        []entity.PoolToken{{Token: "T1"}},
		Events:            []entity.BalancerEvent{{TxHash: "0x1", Amounts: map[string]decimal.Decimal{"T1": amount}}},
		ProfitLossAmounts: map[string]decimal.Decimal{"T1": amount},
	}}}
	s.SetBalances(in)
	s.SetEvents(events)

	in["0xA"][0].Tokens[0].Token = "changed"
	*in["0xA"][0].Tokens[0].TotalAmount = decimal.NewFromInt(7)
	events["0xA"][0].PoolTokens[0].Token = "changed"
	events["0xA"][0].Events[0].Amounts["T1"] = decimal.NewFromInt(7)
	events["0xA"][0].ProfitLossAmounts["T1"] = decimal.NewFromInt(7)

	snap := s.Snapshot()
	token := snap.Balances["0xA"][0].Tokens[0]
	assert.Equal(t, "T1", token.Token)
	assert.True(t, token.TotalAmount.Equal(decimal.NewFromInt(3)))
	detail := snap.Events["0xA"][0]
	assert.Equal(t, "T1", detail.PoolTokens[0].Token)
	assert.True(t, detail.Events[0].Amounts["T1"].Equal(decimal.NewFromInt(3)))
	assert.True(t, detail.ProfitLossAmounts["T1"].Equal(decimal.NewFromInt(3)))
}
