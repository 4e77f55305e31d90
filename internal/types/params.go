package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/sources"
)

// SwapParams is a validated swap or price request. Exactly one of
// SellAmount and BuyAmount is set.
type SwapParams struct {
	SellToken    common.Address
	BuyToken     common.Address
	SellAmount   *big.Int
	BuyAmount    *big.Int
	TakerAddress *common.Address
	GasPrice     *big.Int

	SlippagePercentage decimal.Decimal
	ExcludedSources    []sources.Source
	IncludedSources    []sources.Source
	AffiliateAddress   *common.Address
	AffiliateFee       AffiliateFee

	IncludePriceComparisons bool
	SkipValidation          bool
	ShouldSellEntireBalance bool
	IsMetaTransaction       bool
	IsWrap                  bool
	IsUnwrap                bool
	IsETHSell               bool
	IsETHBuy                bool
}

func (p *SwapParams) Side() MarketSide {
	if p.SellAmount != nil {
		return Sell
	}
	return Buy
}

type DepthParams struct {
	SellToken              common.Address
	BuyToken               common.Address
	SellAmount             *big.Int
	NumSamples             int
	SampleDistributionBase decimal.Decimal
	ExcludedSources        []sources.Source
	IncludedSources        []sources.Source
}
