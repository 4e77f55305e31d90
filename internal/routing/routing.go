// Package routing is the client side of the external routing engine that
// finds routes and encodes their calldata.
package routing

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/types"
)

// Error codes the engine reports for requests it cannot route.
const (
	CodeInsufficientAssetLiquidity = "INSUFFICIENT_ASSET_LIQUIDITY"
	CodeNoOptimalPath              = "NO_OPTIMAL_PATH"
	CodeAssetUnavailable           = "ASSET_UNAVAILABLE"
)

type Engine interface {
	GetQuote(ctx context.Context, req QuoteRequest) (*types.Quote, error)
	GetCalldata(ctx context.Context, req CalldataRequest) (*types.PreparedTransaction, error)
	GetLiquidityCurve(ctx context.Context, req DepthRequest) (*LiquidityCurve, error)
}

type QuoteOptions struct {
	ExcludedSources               []sources.Source `json:"excludedSources,omitempty"`
	IncludedSources               []sources.Source `json:"includedSources,omitempty"`
	ExcludedFeeSources            []sources.Source `json:"excludedFeeSources,omitempty"`
	BridgeSlippage                decimal.Decimal  `json:"bridgeSlippage"`
	GasPrice                      *big.Int         `json:"gasPrice,omitempty"`
	VIP                           bool             `json:"vip"`
	ShouldIncludePriceComparisons bool             `json:"shouldIncludePriceComparisonsReport"`
}

type QuoteRequest struct {
	MakerToken common.Address   `json:"makerToken"`
	TakerToken common.Address   `json:"takerToken"`
	Amount     *big.Int         `json:"amount"`
	Side       types.MarketSide `json:"side"`
	Options    QuoteOptions     `json:"options"`
}

type CalldataRequest struct {
	Quote                   *types.Quote             `json:"quote"`
	IsFromETH               bool                     `json:"isFromETH"`
	IsToETH                 bool                     `json:"isToETH"`
	IsMetaTransaction       bool                     `json:"isMetaTransaction"`
	ShouldSellEntireBalance bool                     `json:"shouldSellEntireBalance"`
	AffiliateFee            types.AffiliateFeeAmount `json:"affiliateFee"`
}

type DepthOptions struct {
	NumSamples             int              `json:"numSamples"`
	SampleDistributionBase decimal.Decimal  `json:"sampleDistributionBase"`
	ExcludedSources        []sources.Source `json:"excludedSources,omitempty"`
	IncludedSources        []sources.Source `json:"includedSources,omitempty"`
}

type DepthRequest struct {
	MakerToken common.Address `json:"makerToken"`
	TakerToken common.Address `json:"takerToken"`
	Amount     *big.Int       `json:"amount"`
	Options    DepthOptions   `json:"options"`
}

// LiquidityCurve holds one sampled curve per source and side.
type LiquidityCurve struct {
	Bids               [][]types.Sample `json:"bids"`
	Asks               [][]types.Sample `json:"asks"`
	MakerTokenDecimals int32            `json:"makerTokenDecimals"`
	TakerTokenDecimals int32            `json:"takerTokenDecimals"`
}

// EngineError is a request the engine rejected. Its message starts with the code.
type EngineError struct {
	Status int    `json:"-"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func (e *EngineError) Error() string {
	if e.Reason == "" {
		return e.Code
	}
	return e.Code + ": " + e.Reason
}
