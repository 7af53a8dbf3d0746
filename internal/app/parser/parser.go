// Package parser decodes and validates portfolio API payloads.
package parser

import (
	"fmt"

	"defi_tracker/internal/domain/entity"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
)

var (
	json     = jsoniter.ConfigCompatibleWithStandardLibrary
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// ParseBalances decodes a balancer balances payload keyed by owner address.
func ParseBalances(data []byte) (entity.BalancerBalances, error) {
	var raw map[string][]entity.BalancerBalance
	if err := decode("balancer balances", data, &raw); err != nil {
		return nil, err
	}

	out := make(entity.BalancerBalances, len(raw))
	seen := make(map[entity.Address]string, len(raw))
	for owner, list := range raw {
		addr, err := ownerAddress("balancer balances", owner)
		if err != nil {
			return nil, err
		}
		if other, dup := seen[addr]; dup {
			return nil, schemaError("balancer balances", duplicateOwner(other, owner, addr))
		}
		seen[addr] = owner
		if list == nil {
			return nil, schemaError("balancer balances", fmt.Errorf("address %s: null balance list", owner))
		}
		if err := validateEach(list); err != nil {
			return nil, schemaError("balancer balances", fmt.Errorf("address %s: %w", owner, err))
		}
		out[addr] = list
	}
	return out, nil
}

// ParseEvents decodes a balancer events payload keyed by owner address.
func ParseEvents(data []byte) (entity.BalancerEvents, error) {
	var raw map[string][]entity.BalancerPoolDetail
	if err := decode("balancer events", data, &raw); err != nil {
		return nil, err
	}

	out := make(entity.BalancerEvents, len(raw))
	seen := make(map[entity.Address]string, len(raw))
	for owner, list := range raw {
		addr, err := ownerAddress("balancer events", owner)
		if err != nil {
			return nil, err
		}
		if other, dup := seen[addr]; dup {
			return nil, schemaError("balancer events", duplicateOwner(other, owner, addr))
		}
		seen[addr] = owner
		if list == nil {
			return nil, schemaError("balancer events", fmt.Errorf("address %s: null event list", owner))
		}
		if err := validateEach(list); err != nil {
			return nil, schemaError("balancer events", fmt.Errorf("address %s: %w", owner, err))
		}
		out[addr] = list
	}
	return out, nil
}

// ParseSupportedAssets decodes the supported assets list.
func ParseSupportedAssets(data []byte) ([]entity.SupportedAsset, error) {
	var assets []entity.SupportedAsset
	if err := decode("supported assets", data, &assets); err != nil {
		return nil, err
	}
	if err := validateEach(assets); err != nil {
		return nil, schemaError("supported assets", err)
	}
	return assets, nil
}

// ParsePrices decodes a latest prices payload keyed by asset identifier.
func ParsePrices(data []byte) (map[entity.AssetID]entity.PriceInformation, error) {
	var wrapper struct {
		Assets map[entity.AssetID]entity.PriceInformation `json:"assets"`
	}
	if err := decode("asset prices", data, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Assets == nil {
		return nil, schemaError("asset prices", fmt.Errorf("missing assets field"))
	}
	for id, info := range wrapper.Assets {
		if err := validate.Struct(info); err != nil {
			return nil, schemaError("asset prices", fmt.Errorf("asset %s: %w", id, err))
		}
	}
	return wrapper.Assets, nil
}

// ParseHistoricalPrices decodes the list of manually entered historical prices.
func ParseHistoricalPrices(data []byte) ([]entity.HistoricalPrice, error) {
	var prices []entity.HistoricalPrice
	if err := decode("historical prices", data, &prices); err != nil {
		return nil, err
	}
	if err := validateEach(prices); err != nil {
		return nil, schemaError("historical prices", err)
	}
	return prices, nil
}

// duplicateOwner reports two payload keys that differ only in letter case.
func duplicateOwner(a, b string, addr entity.Address) error {
	if b < a {
		a, b = b, a
	}
	return fmt.Errorf("owners %s and %s both resolve to %s", a, b, addr)
}

func validateEach[T any](items []T) error {
	for i := range items {
		if err := validate.Struct(items[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

func decode(shape string, data []byte, v any) error {
	if len(data) == 0 {
		return schemaError(shape, fmt.Errorf("empty payload"))
	}
	if err := json.Unmarshal(data, v); err != nil {
		return schemaError(shape, err)
	}
	return nil
}

// ownerAddress checks that owner is a hex address and returns its checksum form.
func ownerAddress(shape, owner string) (entity.Address, error) {
	if !common.IsHexAddress(owner) {
		return "", schemaError(shape, fmt.Errorf("invalid owner address %q", owner))
	}
	return common.HexToAddress(owner).Hex(), nil
}

func schemaError(shape string, err error) error {
	return &entity.SchemaValidationError{Shape: shape, Err: err}
}
