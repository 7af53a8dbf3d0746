package parser

import (
	"errors"
	"testing"

	"defi_tracker/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	wethLower    = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	wethChecksum = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
)

func TestParseBalances_Valid(t *testing.T) {
	payload := `{"` + wethLower + `": [{
		"address": "0xPool1",
		"tokens": [{"token": "T1", "weight": "50", "total_amount": "10.5", "user_balance": {"amount": "1", "usd_value": "2"}}],
		"total_amount": "100",
		"user_balance": {"amount": "3", "usd_value": "4.25"}
	}]}`

	got, err := ParseBalances([]byte(payload))
	require.NoError(t, err)
	require.Contains(t, got, wethChecksum)

	list := got[wethChecksum]
	require.Len(t, list, 1)
	assert.Equal(t, "0xPool1", list[0].Address)
	require.Len(t, list[0].Tokens, 1)
	assert.Equal(t, "T1", list[0].Tokens[0].Token)
	assert.True(t, list[0].UserBalance.UsdValue.Equal(decimal.RequireFromString("4.25")))
}

func TestParseBalances_SchemaErrors(t *testing.T) {
	cases := map[string]string{
		"empty":           ``,
		"not json":        `{`,
		"wrong type":      `[]`,
		"bad owner":       `{"not-an-address": []}`,
		"null list":       `{"` + wethLower + `": null}`,
		"missing address": `{"` + wethLower + `": [{"tokens": [{"token": "T1"}]}]}`,
		"missing tokens":  `{"` + wethLower + `": [{"address": "P1"}]}`,
		"token no id":     `{"` + wethLower + `": [{"address": "P1", "tokens": [{"weight": "1"}]}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBalances([]byte(payload))
			require.Error(t, err)
			assert.True(t, errors.Is(err, entity.ErrSchemaValidation))
			var schemaErr *entity.SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, "balancer balances", schemaErr.Shape)
		})
	}
}

func TestParseEvents_Valid(t *testing.T) {
	payload := `{"` + wethLower + `": [{
		"pool_address": "P2",
		"pool_tokens": [{"token": "T2", "weight": "100"}],
		"events": [{"tx_hash": "0x1", "log_index": 3, "timestamp": 1600000000, "event_type": "mint",
			"lp_balance": {"amount": "1", "usd_value": "1"}, "amounts": {"T2": "5"}}],
		"profit_loss_amounts": {"T2": "5"},
		"usd_profit_loss": "10"
	}]}`

	got, err := ParseEvents([]byte(payload))
	require.NoError(t, err)

	details := got[wethChecksum]
	require.Len(t, details, 1)
	assert.Equal(t, "P2", details[0].PoolAddress)
	require.Len(t, details[0].Events, 1)
	assert.Equal(t, entity.BalancerEventMint, details[0].Events[0].EventType)
	assert.True(t, details[0].ProfitLossAmounts["T2"].Equal(decimal.NewFromInt(5)))
	assert.True(t, details[0].UsdProfitLoss.Equal(decimal.NewFromInt(10)))
}

func TestParseEvents_RejectsUnknownEventType(t *testing.T) {
	payload := `{"` + wethLower + `": [{
		"pool_address": "P2",
		"pool_tokens": [{"token": "T2"}],
		"events": [{"tx_hash": "0x1", "event_type": "swap"}]
	}]}`

	_, err := ParseEvents([]byte(payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrSchemaValidation)
}

func TestParseSupportedAssets(t *testing.T) {
	got, err := ParseSupportedAssets([]byte(`[{"identifier": "ETH", "name": "Ether", "symbol": "ETH", "asset_type": "own chain"}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ETH", got[0].Identifier)

	_, err = ParseSupportedAssets([]byte(`[{"name": "nameless"}]`))
	assert.ErrorIs(t, err, entity.ErrSchemaValidation)
}

func TestParsePrices(t *testing.T) {
	got, err := ParsePrices([]byte(`{"assets": {"ETH": {"usd_price": "1800.5", "manually_input": true, "price_asset": "USD", "price_in_asset": "1800.5"}}}`))
	require.NoError(t, err)
	require.Contains(t, got, "ETH")
	assert.True(t, got["ETH"].ManuallyInput)

	_, err = ParsePrices([]byte(`{"assets": {"ETH": {"usd_price": "1"}}}`))
	assert.ErrorIs(t, err, entity.ErrSchemaValidation)

	_, err = ParsePrices([]byte(`{}`))
	assert.ErrorIs(t, err, entity.ErrSchemaValidation)
}

func TestParseBalancesAndEvents_RejectOwnersDifferingInCase(t *testing.T) {
	balances := `{
		"` + wethLower + `": [{"address": "P1", "tokens": [{"token": "T1"}]}],
		"` + wethChecksum + `": [{"address": "P2", "tokens": [{"token": "T2"}]}]
	}`
	_, err := ParseBalances([]byte(balances))
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrSchemaValidation)
	assert.Contains(t, err.Error(), wethChecksum)

	events := `{
		"` + wethLower + `": [{"pool_address": "P1", "pool_tokens": [{"token": "T1"}], "events": []}],
		"` + wethChecksum + `": [{"pool_address": "P2", "pool_tokens": [{"token": "T2"}], "events": []}]
	}`
	_, err = ParseEvents([]byte(events))
	require.Error(t, err)
	var schemaErr *entity.SchemaValidationError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "balancer events", schemaErr.Shape)
}

func TestParseHistoricalPrices(t *testing.T) {
	got, err := ParseHistoricalPrices([]byte(`[{"from_asset": "ETH", "to_asset": "USD", "timestamp": 1611166335, "price": "1250.5"}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, entity.HistoricalPriceKey{FromAsset: "ETH", ToAsset: "USD", Timestamp: 1611166335}, got[0].Key())
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("1250.5")))

	got, err = ParseHistoricalPrices([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = ParseHistoricalPrices([]byte(`[{"from_asset": "ETH", "timestamp": 1}]`))
	assert.ErrorIs(t, err, entity.ErrSchemaValidation)

	_, err = ParseHistoricalPrices([]byte(`{}`))
	assert.ErrorIs(t, err, entity.ErrSchemaValidation)
}
