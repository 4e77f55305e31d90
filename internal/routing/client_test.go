package routing

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/types"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second, zap.NewNop())
}

func TestGetQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req QuoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, types.Sell, req.Side)
		assert.Equal(t, "1000", req.Amount.String())
		assert.True(t, req.Options.VIP)
		assert.Equal(t, []sources.Source{sources.MultiBridge}, req.Options.ExcludedSources)

		_ = json.NewEncoder(w).Encode(types.Quote{
			Side:      types.Sell,
			BestCase:  types.QuoteInfo{MakerAmount: big.NewInt(2000), TotalTakerAmount: big.NewInt(1000), Gas: 100},
			WorstCase: types.QuoteInfo{MakerAmount: big.NewInt(1990), TotalTakerAmount: big.NewInt(1000), Gas: 120},
		})
	})

	q, err := c.GetQuote(context.Background(), QuoteRequest{
		MakerToken: common.HexToAddress("0x01"),
		TakerToken: common.HexToAddress("0x02"),
		Amount:     big.NewInt(1000),
		Side:       types.Sell,
		Options: QuoteOptions{
			ExcludedSources: []sources.Source{sources.MultiBridge},
			BridgeSlippage:  decimal.RequireFromString("0.01"),
			VIP:             true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "1990", q.WorstCase.MakerAmount.String())
	assert.Equal(t, uint64(120), q.WorstCase.Gas)
}

func TestEngineError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"INSUFFICIENT_ASSET_LIQUIDITY","reason":"not enough liquidity"}`))
	})
	_, err := c.GetQuote(context.Background(), QuoteRequest{Amount: big.NewInt(1)})

	var engErr *EngineError
	require.True(t, errors.As(err, &engErr))
	assert.Equal(t, CodeInsufficientAssetLiquidity, engErr.Code)
	assert.Equal(t, http.StatusBadRequest, engErr.Status)
	assert.Contains(t, err.Error(), "INSUFFICIENT_ASSET_LIQUIDITY")
}

func TestUnstructuredFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	_, err := c.GetCalldata(context.Background(), CalldataRequest{})
	require.Error(t, err)

	var engErr *EngineError
	assert.False(t, errors.As(err, &engErr))
	assert.Contains(t, err.Error(), "502")
}

func TestGetLiquidityCurve(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/depth", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"asks": [[{"source":"Uniswap_V2","input":100,"output":200}]],
			"bids": [],
			"makerTokenDecimals": 6,
			"takerTokenDecimals": 18
		}`))
	})
	lc, err := c.GetLiquidityCurve(context.Background(), DepthRequest{Amount: big.NewInt(100)})
	require.NoError(t, err)
	require.Len(t, lc.Asks, 1)
	assert.Equal(t, sources.UniswapV2, lc.Asks[0][0].Source)
	assert.Equal(t, "200", lc.Asks[0][0].Output.String())
	assert.Equal(t, int32(6), lc.MakerTokenDecimals)
}
