package entity

import "github.com/shopspring/decimal"

// SupportedAsset is asset metadata served by the portfolio backend.
type SupportedAsset struct {
	Identifier string `json:"identifier" validate:"required"`
	Name       string `json:"name"`
	Symbol     string `json:"symbol"`
	AssetType  string `json:"asset_type"`
	Address    string `json:"address,omitempty"`
	Decimals   *int   `json:"decimals,omitempty"`
	Protocol   string `json:"protocol,omitempty"`
}

// PriceInformation is the latest known price of an asset, including whether
// it was entered manually by the user.
type PriceInformation struct {
	UsdPrice      decimal.Decimal `json:"usd_price"`
	ManuallyInput bool            `json:"manually_input"`
	PriceAsset    string          `json:"price_asset" validate:"required"`
	PriceInAsset  decimal.Decimal `json:"price_in_asset"`
}

// HistoricalPrice is a price of FromAsset in ToAsset at Timestamp that the
// user entered manually. It overrides the price the backend would look up.
type HistoricalPrice struct {
	FromAsset AssetID         `json:"from_asset" validate:"required"`
	ToAsset   AssetID         `json:"to_asset" validate:"required"`
	Timestamp int64           `json:"timestamp" validate:"gt=0"`
	Price     decimal.Decimal `json:"price"`
}

// Key returns the identity of the override.
func (p HistoricalPrice) Key() HistoricalPriceKey {
	return HistoricalPriceKey{FromAsset: p.FromAsset, ToAsset: p.ToAsset, Timestamp: p.Timestamp}
}

// HistoricalPriceKey identifies one historical price override.
type HistoricalPriceKey struct {
	FromAsset AssetID `json:"from_asset" validate:"required"`
	ToAsset   AssetID `json:"to_asset" validate:"required"`
	Timestamp int64   `json:"timestamp" validate:"gt=0"`
}

// HistoricalPriceFilter narrows a historical price listing. Empty fields
// match every asset.
type HistoricalPriceFilter struct {
	FromAsset AssetID `json:"from_asset,omitempty"`
	ToAsset   AssetID `json:"to_asset,omitempty"`
}
