package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/config"
	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/types"
)

func newTestPublisher(t *testing.T) (*Publisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := &config.Config{Redis: config.RedisCfg{
		Addr:      mr.Addr(),
		Stream:    "swap:quotes",
		ActiveKey: "swap:pairs:active",
		MaxLen:    1000,
	}}
	p := NewPublisher(cfg, zap.NewNop())
	require.NotNil(t, p)
	t.Cleanup(func() { _ = p.Close() })
	return p, mr
}

func TestPublish(t *testing.T) {
	p, mr := newTestPublisher(t)
	ev := Event{
		Endpoint:   "quote",
		SellToken:  "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		BuyToken:   "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		SellAmount: "1000000000000000000",
		BuyAmount:  "2000000000",
		Price:      "2000",
		Gas:        "121000",
		Sources:    []string{"Uniswap_V2", "Curve"},
		TsMs:       1_700_000_000_000,
	}
	require.NoError(t, p.Publish(context.Background(), ev))
	ev.TsMs++
	require.NoError(t, p.Publish(context.Background(), ev))

	entries, err := mr.Stream("swap:quotes")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	values := map[string]string{}
	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		values[entries[0].Values[i]] = entries[0].Values[i+1]
	}
	assert.Equal(t, "quote", values["endpoint"])
	assert.Equal(t, "2000", values["price"])
	assert.Equal(t, "Uniswap_V2,Curve", values["sources"])

	members, err := mr.ZMembers("swap:pairs:active")
	require.NoError(t, err)
	assert.Equal(t, []string{ev.pair()}, members)
	score, err := mr.ZScore("swap:pairs:active", ev.pair())
	require.NoError(t, err)
	assert.Equal(t, float64(1_700_000_000_001), score)
}

func TestPublish_RedisDown(t *testing.T) {
	p, mr := newTestPublisher(t)
	mr.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, p.Publish(ctx, Event{SellToken: "a", BuyToken: "b"}))
}

func TestNilPublisherIsDisabled(t *testing.T) {
	p := NewPublisher(&config.Config{}, zap.NewNop())
	assert.Nil(t, p)
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	p.PublishAsync(Event{})
	assert.NoError(t, p.Close())
}

func TestEventFromPrice(t *testing.T) {
	r := &types.PriceResponse{
		SellTokenAddress: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		BuyTokenAddress:  common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		SellAmount:       decimal.NewFromInt(10),
		BuyAmount:        decimal.NewFromInt(20),
		Price:            decimal.NewFromInt(2),
		Gas:              decimal.NewFromInt(150000),
		Sources: []sources.LiquiditySource{
			{Name: "Uniswap_V2", Proportion: decimal.RequireFromString("0.6")},
			{Name: "Curve", Proportion: decimal.Zero},
			{Name: "0x", Proportion: decimal.RequireFromString("0.4")},
		},
	}
	now := time.UnixMilli(1_700_000_000_123)
	ev := EventFromPrice("price", r, "", now)
	assert.Equal(t, "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", ev.SellToken)
	assert.Equal(t, []string{"Uniswap_V2", "0x"}, ev.Sources)
	assert.Equal(t, int64(1_700_000_000_123), ev.TsMs)
	assert.Equal(t, "2", ev.Price)
}
