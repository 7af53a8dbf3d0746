package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"defi_tracker/internal/app/parser"
	"defi_tracker/internal/app/port"
	"defi_tracker/internal/domain/entity"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

const (
	supportedAssetsKey = "supported_assets"
	priceKeyPrefix     = "price:"
	defaultPriceAsset  = "USD"
)

var _ port.AssetInfoService = (*AssetInfoService)(nil)

// AssetInfoService keeps the supported asset metadata and latest prices
// used to render pools and events.
type AssetInfoService struct {
	api    port.AssetAPI
	logger port.Logger
	cache  *cache.Cache
	group  singleflight.Group
}

// NewAssetInfoService creates an AssetInfoService whose entries expire after ttl.
func NewAssetInfoService(api port.AssetAPI, logger port.Logger, ttl, cleanupInterval time.Duration) *AssetInfoService {
	return &AssetInfoService{
		api:    api,
		logger: logger,
		cache:  cache.New(ttl, cleanupInterval),
	}
}

// FetchSupportedAssets loads the supported assets unless they are cached and
// refresh is false. Concurrent calls share one request.
func (s *AssetInfoService) FetchSupportedAssets(ctx context.Context, refresh bool) error {
	if !refresh {
		if _, ok := s.cache.Get(supportedAssetsKey); ok {
			return nil
		}
	}

	_, err, shared := s.group.Do(supportedAssetsKey, func() (any, error) {
		raw, err := s.api.FetchSupportedAssets(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch supported assets: %w", err)
		}
		assets, err := parser.ParseSupportedAssets(raw)
		if err != nil {
			return nil, err
		}
		index := make(map[entity.AssetID]entity.SupportedAsset, len(assets))
		for _, a := range assets {
			index[strings.ToLower(a.Identifier)] = a
		}
		s.cache.SetDefault(supportedAssetsKey, index)
		s.logger.Info("Supported assets cached", "count", len(index))
		return nil, nil
	})
	if shared {
		s.logger.Debug("Supported assets refresh shared with a concurrent caller")
	}
	return err
}

// AssetInfo returns the cached metadata of an asset, matched case-insensitively.
func (s *AssetInfoService) AssetInfo(id entity.AssetID) (entity.SupportedAsset, bool) {
	index, ok := s.index()
	if !ok {
		return entity.SupportedAsset{}, false
	}
	asset, ok := index[strings.ToLower(id)]
	return asset, ok
}

// Count returns how many supported assets are cached.
func (s *AssetInfoService) Count() int {
	index, _ := s.index()
	return len(index)
}

func (s *AssetInfoService) index() (map[entity.AssetID]entity.SupportedAsset, bool) {
	v, ok := s.cache.Get(supportedAssetsKey)
	if !ok {
		return nil, false
	}
	return v.(map[entity.AssetID]entity.SupportedAsset), true
}

// AssetPrice returns the latest USD price information of an asset,
// including prices the user entered manually.
func (s *AssetInfoService) AssetPrice(ctx context.Context, id entity.AssetID) (entity.PriceInformation, error) {
	key := priceKeyPrefix + id
	if v, ok := s.cache.Get(key); ok {
		return v.(entity.PriceInformation), nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		raw, err := s.api.FetchLatestPrices(ctx, []entity.AssetID{id}, defaultPriceAsset)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch price of %s: %w", id, err)
		}
		prices, err := parser.ParsePrices(raw)
		if err != nil {
			return nil, err
		}
		info, ok := prices[id]
		if !ok {
			return nil, fmt.Errorf("no price returned for %s", id)
		}
		s.cache.SetDefault(key, info)
		if info.ManuallyInput {
			s.logger.Debug("Using manually input price", "asset", id, "usd_price", info.UsdPrice.String())
		}
		return info, nil
	})
	if err != nil {
		return entity.PriceInformation{}, err
	}
	return v.(entity.PriceInformation), nil
}

// HistoricalPrices lists the manually entered historical prices matching filter.
func (s *AssetInfoService) HistoricalPrices(ctx context.Context, filter entity.HistoricalPriceFilter) ([]entity.HistoricalPrice, error) {
	raw, err := s.api.FetchHistoricalPrices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical prices: %w", err)
	}
	return parser.ParseHistoricalPrices(raw)
}

// AddHistoricalPrice stores a price override.
func (s *AssetInfoService) AddHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error {
	if err := s.api.AddHistoricalPrice(ctx, price); err != nil {
		return fmt.Errorf("failed to add historical price of %s: %w", price.FromAsset, err)
	}
	s.priceChanged("Historical price added", price.Key())
	return nil
}

// EditHistoricalPrice changes the price of an existing override.
func (s *AssetInfoService) EditHistoricalPrice(ctx context.Context, price entity.HistoricalPrice) error {
	if err := s.api.EditHistoricalPrice(ctx, price); err != nil {
		return fmt.Errorf("failed to edit historical price of %s: %w", price.FromAsset, err)
	}
	s.priceChanged("Historical price edited", price.Key())
	return nil
}

// DeleteHistoricalPrice removes a price override.
func (s *AssetInfoService) DeleteHistoricalPrice(ctx context.Context, key entity.HistoricalPriceKey) error {
	if err := s.api.DeleteHistoricalPrice(ctx, key); err != nil {
		return fmt.Errorf("failed to delete historical price of %s: %w", key.FromAsset, err)
	}
	s.priceChanged("Historical price deleted", key)
	return nil
}

// InvalidatePrices drops the cached latest prices of ids so the next
// AssetPrice call asks the backend again.
func (s *AssetInfoService) InvalidatePrices(ids ...entity.AssetID) {
	for _, id := range ids {
		key := priceKeyPrefix + id
		s.cache.Delete(key)
		s.group.Forget(key)
	}
}

func (s *AssetInfoService) priceChanged(msg string, key entity.HistoricalPriceKey) {
	s.InvalidatePrices(key.FromAsset, key.ToAsset)
	s.logger.Info(msg, "from_asset", key.FromAsset, "to_asset", key.ToAsset, "timestamp", key.Timestamp)
}
