package port

import (
	"context"

	"defi_tracker/internal/domain/entity"
)

// BalancerService refreshes the balancer sections and serves their projections.
type BalancerService interface {
	FetchBalances(ctx context.Context, refresh bool) entity.Outcome
	FetchEvents(ctx context.Context, refresh bool) entity.Outcome
	RefreshAll(ctx context.Context, refresh bool) map[entity.Section]entity.Outcome
	Reset()
	Status(section entity.Section) entity.FetchStatus

	Addresses() []entity.Address
	BalanceList() []entity.BalanceWithOwner
	Pools() []entity.Pool
	EventList(addresses ...entity.Address) []entity.BalancerEvent
	ProfitLoss(addresses ...entity.Address) []entity.BalancerProfitLoss
}

// AssetInfoService serves asset metadata, latest prices and the user's
// historical price overrides.
type AssetInfoService interface {
	AssetRefresher
	AssetInfo(id entity.AssetID) (entity.SupportedAsset, bool)
	AssetPrice(ctx context.Context, id entity.AssetID) (entity.PriceInformation, error)

	HistoricalPrices(ctx context.Context, filter entity.HistoricalPriceFilter) ([]entity.HistoricalPrice, error)
	AddHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error
	EditHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error
	DeleteHistoricalPrice(ctx context.Context, key entity.HistoricalPriceKey) error
}

// IgnoreService (un)ignores history entries in accounting.
type IgnoreService interface {
	Ignore(ctx context.Context, kind entity.IgnoreActionType, selected []entity.HistoryEntry, ignored bool, refresh func()) (bool, error)
}
