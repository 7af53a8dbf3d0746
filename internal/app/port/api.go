package port

import (
	"context"

	"defi_tracker/internal/domain/entity"
)

// BalancerAPI queries the portfolio backend for balancer module data.
// Both methods return the raw JSON result; parsing is left to the caller.
type BalancerAPI interface {
	FetchBalancerBalances(ctx context.Context) ([]byte, error)
	FetchBalancerEvents(ctx context.Context) ([]byte, error)
}

// AssetAPI queries the portfolio backend for asset metadata and prices.
type AssetAPI interface {
	FetchSupportedAssets(ctx context.Context) ([]byte, error)
	FetchLatestPrices(ctx context.Context, assets []entity.AssetID, targetAsset entity.AssetID) ([]byte, error)

	// FetchHistoricalPrices returns the raw list of manually entered historical prices.
	FetchHistoricalPrices(ctx context.Context, filter entity.HistoricalPriceFilter) ([]byte, error)
	AddHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error
	EditHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error
	DeleteHistoricalPrice(ctx context.Context, key entity.HistoricalPriceKey) error
}

// HistoryAPI changes the accounting state of history entries.
type HistoryAPI interface {
	IgnoreInAccounting(ctx context.Context, payload entity.IgnoreActionPayload, ignore bool) error
}
