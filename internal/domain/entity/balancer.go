package entity

import "github.com/shopspring/decimal"

// Address is a wallet or account address. It keys every per-address map.
type Address = string

// AssetID identifies an asset known to the portfolio backend.
type AssetID = string

// Balance is an amount of an asset together with its USD value.
type Balance struct {
	Amount   decimal.Decimal `json:"amount"`
	UsdValue decimal.Decimal `json:"usd_value"`
}

// PoolToken is one constituent token of a liquidity pool.
type PoolToken struct {
	Token       AssetID          `json:"token" validate:"required"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	UsdPrice    *decimal.Decimal `json:"usd_price,omitempty"`
	Weight      decimal.Decimal  `json:"weight"`
	UserBalance *Balance         `json:"user_balance,omitempty"`
}

// BalancerBalance is the position an address holds in a single pool.
type BalancerBalance struct {
	Address     Address         `json:"address" validate:"required"`
	Tokens      []PoolToken     `json:"tokens" validate:"required,dive"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	UserBalance Balance         `json:"user_balance"`
}

// BalancerBalances holds the pool positions of every tracked address.
type BalancerBalances map[Address][]BalancerBalance

// BalanceWithOwner is a BalancerBalance annotated with the address that owns it.
type BalanceWithOwner struct {
	BalancerBalance
	Owner Address `json:"owner"`
}

// BalancerEventType is the kind of a pool event.
type BalancerEventType string

const (
	BalancerEventMint BalancerEventType = "mint"
	BalancerEventBurn BalancerEventType = "burn"
)

// PoolRef references the pool an event belongs to.
type PoolRef struct {
	Address Address   `json:"address"`
	Assets  []AssetID `json:"assets"`
}

// BalancerEvent is a single mint or burn of pool shares.
// Pool is only set on events produced by the projection layer.
type BalancerEvent struct {
	TxHash    string                      `json:"tx_hash" validate:"required"`
	LogIndex  int64                       `json:"log_index"`
	Timestamp int64                       `json:"timestamp"`
	EventType BalancerEventType           `json:"event_type" validate:"required,oneof=mint burn"`
	LPBalance Balance                     `json:"lp_balance"`
	Amounts   map[AssetID]decimal.Decimal `json:"amounts"`
	Pool      *PoolRef                    `json:"pool,omitempty"`
}

// BalancerPoolDetail groups the events of one address in one pool with the
// profit/loss the backend computed for them.
type BalancerPoolDetail struct {
	PoolAddress       Address                     `json:"pool_address" validate:"required"`
	PoolTokens        []PoolToken                 `json:"pool_tokens" validate:"required,dive"`
	Events            []BalancerEvent             `json:"events" validate:"dive"`
	ProfitLossAmounts map[AssetID]decimal.Decimal `json:"profit_loss_amounts"`
	UsdProfitLoss     decimal.Decimal             `json:"usd_profit_loss"`
}

// BalancerEvents holds the per-pool event details of every tracked address.
type BalancerEvents map[Address][]BalancerPoolDetail

// Pool is a deduplicated liquidity pool and its constituent assets.
type Pool struct {
	Address Address   `json:"address"`
	Assets  []AssetID `json:"assets"`
}

// BalancerProfitLoss is the profit/loss recorded for a pool.
type BalancerProfitLoss struct {
	Pool             Pool                        `json:"pool"`
	Tokens           []AssetID                   `json:"tokens"`
	ProfitLossAmount map[AssetID]decimal.Decimal `json:"profit_loss_amount"`
	UsdProfitLoss    decimal.Decimal             `json:"usd_profit_loss"`
}

// TokenIDs returns the asset identifiers of the given pool tokens in order.
func TokenIDs(tokens []PoolToken) []AssetID {
	ids := make([]AssetID, 0, len(tokens))
	for _, t := range tokens {
		ids = append(ids, t.Token)
	}
	return ids
}
