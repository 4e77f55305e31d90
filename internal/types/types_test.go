package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsib/0x-swap-api/internal/sources"
)

func TestQuoteSourceFlags(t *testing.T) {
	q := &Quote{
		SourceBreakdown: sources.Breakdown{
			sources.Curve:     {Proportion: decimal.RequireFromString("0.4")},
			sources.UniswapV2: {Proportion: decimal.RequireFromString("0.6")},
		},
	}
	assert.Equal(t, sources.FlagsOf(sources.Curve, sources.UniswapV2), q.SourceFlags())
	assert.False(t, q.HasUndeterministicFills())

	q.Orders = []Order{{Fills: []Fill{{Source: sources.Native}}}}
	assert.True(t, q.HasUndeterministicFills())
	assert.True(t, q.SourceFlags().Has(sources.Native))
}

func TestSwapParamsSide(t *testing.T) {
	p := &SwapParams{SellAmount: big.NewInt(1)}
	assert.Equal(t, Sell, p.Side())
	p = &SwapParams{BuyAmount: big.NewInt(1)}
	assert.Equal(t, Buy, p.Side())
}

func TestQuoteDecodesEngineJSON(t *testing.T) {
	raw := `{
		"makerToken": "0x6b175474e89094c44da98b954eedeac495271d0f",
		"takerToken": "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		"type": "SELL",
		"bestCaseQuoteInfo": {"makerAmount": 2000000000000000000000, "takerAmount": 1000000000000000000, "totalTakerAmount": 1000000000000000000, "protocolFeeInWeiAmount": 0, "gas": 120000},
		"worstCaseQuoteInfo": {"makerAmount": 1980000000000000000000, "takerAmount": 1000000000000000000, "totalTakerAmount": 1000000000000000000, "protocolFeeInWeiAmount": 0, "gas": 150000},
		"gasPrice": 30000000000,
		"sourceBreakdown": {"Uniswap_V2": {"proportion": "1"}},
		"orders": [],
		"makerTokenDecimals": 18,
		"takerTokenDecimals": 18,
		"takerAmountPerEth": "1",
		"makerAmountPerEth": "2000"
	}`
	var q Quote
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	assert.Equal(t, Sell, q.Side)
	assert.Equal(t, "2000000000000000000000", q.BestCase.MakerAmount.String())
	assert.Equal(t, uint64(150000), q.WorstCase.Gas)
	assert.True(t, q.SourceFlags().Has(sources.UniswapV2))
}
