package entity

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// Clone returns a copy of t that shares no memory with it.
func (t PoolToken) Clone() PoolToken {
	t.TotalAmount = cloneDecimal(t.TotalAmount)
	t.UsdPrice = cloneDecimal(t.UsdPrice)
	if t.UserBalance != nil {
		b := *t.UserBalance
		t.UserBalance = &b
	}
	return t
}

// ClonePoolTokens deep-copies a token list, keeping nil as nil.
func ClonePoolTokens(tokens []PoolToken) []PoolToken {
	if tokens == nil {
		return nil
	}
	out := make([]PoolToken, len(tokens))
	for i, t := range tokens {
		out[i] = t.Clone()
	}
	return out
}

// Clone returns a copy of b that shares no memory with it.
func (b BalancerBalance) Clone() BalancerBalance {
	b.Tokens = ClonePoolTokens(b.Tokens)
	return b
}

// Clone returns a copy of b that shares no memory with it.
func (b BalanceWithOwner) Clone() BalanceWithOwner {
	b.BalancerBalance = b.BalancerBalance.Clone()
	return b
}

// Clone returns a copy of p that shares no memory with it.
func (p Pool) Clone() Pool {
	p.Assets = slices.Clone(p.Assets)
	return p
}

// Clone returns a copy of e that shares no memory with it.
func (e BalancerEvent) Clone() BalancerEvent {
	e.Amounts = maps.Clone(e.Amounts)
	if e.Pool != nil {
		e.Pool = &PoolRef{Address: e.Pool.Address, Assets: slices.Clone(e.Pool.Assets)}
	}
	return e
}

// Clone returns a copy of d that shares no memory with it.
func (d BalancerPoolDetail) Clone() BalancerPoolDetail {
	d.PoolTokens = ClonePoolTokens(d.PoolTokens)
	if d.Events != nil {
		events := make([]BalancerEvent, len(d.Events))
		for i, e := range d.Events {
			events[i] = e.Clone()
		}
		d.Events = events
	}
	d.ProfitLossAmounts = maps.Clone(d.ProfitLossAmounts)
	return d
}

// Clone returns a copy of p that shares no memory with it.
func (p BalancerProfitLoss) Clone() BalancerProfitLoss {
	p.Pool = p.Pool.Clone()
	p.Tokens = slices.Clone(p.Tokens)
	p.ProfitLossAmount = maps.Clone(p.ProfitLossAmount)
	return p
}

// Clone deep-copies every address's balances.
func (b BalancerBalances) Clone() BalancerBalances {
	out := make(BalancerBalances, len(b))
	for addr, list := range b {
		cloned := make([]BalancerBalance, len(list))
		for i, item := range list {
			cloned[i] = item.Clone()
		}
		out[addr] = cloned
	}
	return out
}

// Clone deep-copies every address's pool details.
func (e BalancerEvents) Clone() BalancerEvents {
	out := make(BalancerEvents, len(e))
	for addr, list := range e {
		cloned := make([]BalancerPoolDetail, len(list))
		for i, item := range list {
			cloned[i] = item.Clone()
		}
		out[addr] = cloned
	}
	return out
}
