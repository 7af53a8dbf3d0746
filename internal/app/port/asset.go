package port

import "context"

// AssetRefresher refreshes the shared asset metadata dataset.
type AssetRefresher interface {
	FetchSupportedAssets(ctx context.Context, refresh bool) error
}
