package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/sources"
)

// MarketSide says which amount of a trade is fixed.
type MarketSide string

const (
	Sell MarketSide = "SELL" // exact input
	Buy  MarketSide = "BUY"  // exact output
)

type AffiliateFeeType int

const (
	FeeNone AffiliateFeeType = iota
	FeePercentage
	FeePositiveSlippage
)

func (t AffiliateFeeType) String() string {
	switch t {
	case FeePercentage:
		return "percentage_fee"
	case FeePositiveSlippage:
		return "positive_slippage_fee"
	default:
		return "none"
	}
}

type AffiliateFee struct {
	FeeType                AffiliateFeeType
	Recipient              common.Address
	BuyTokenPercentageFee  decimal.Decimal
	SellTokenPercentageFee decimal.Decimal
}

type AffiliateFeeAmounts struct {
	GasCost            uint64
	BuyTokenFeeAmount  *big.Int
	SellTokenFeeAmount *big.Int
}

// AffiliateFeeAmount is what the routing engine needs to encode fee
// transfers into the swap calldata.
type AffiliateFeeAmount struct {
	FeeType            AffiliateFeeType `json:"feeType"`
	Recipient          common.Address   `json:"recipient"`
	BuyTokenFeeAmount  *big.Int         `json:"buyTokenFeeAmount"`
	SellTokenFeeAmount *big.Int         `json:"sellTokenFeeAmount"`
}

// QuoteInfo is one case (best or worst) of a routed quote, in raw token units.
type QuoteInfo struct {
	MakerAmount      *big.Int `json:"makerAmount"`
	TakerAmount      *big.Int `json:"takerAmount"`
	TotalTakerAmount *big.Int `json:"totalTakerAmount"`
	ProtocolFee      *big.Int `json:"protocolFeeInWeiAmount"`
	Gas              uint64   `json:"gas"`
}

type Fill struct {
	Source sources.Source `json:"source"`
	Input  *big.Int       `json:"input"`
	Output *big.Int       `json:"output"`
}

type Order struct {
	MakerToken  common.Address `json:"makerToken"`
	TakerToken  common.Address `json:"takerToken"`
	MakerAmount *big.Int       `json:"makerAmount"`
	TakerAmount *big.Int       `json:"takerAmount"`
	Fills       []Fill         `json:"fills,omitempty"`
}

// SourceComparison is a price the trade would have gotten from a single source.
type SourceComparison struct {
	Name         string              `json:"name"`
	Price        decimal.NullDecimal `json:"price"`
	Gas          decimal.NullDecimal `json:"gas"`
	SavingsInEth decimal.NullDecimal `json:"savingsInEth"`
	BuyAmount    decimal.NullDecimal `json:"buyAmount"`
	SellAmount   decimal.NullDecimal `json:"sellAmount"`
}

// Quote is a route as produced by the routing engine. Request scoped.
type Quote struct {
	MakerToken         common.Address     `json:"makerToken"`
	TakerToken         common.Address     `json:"takerToken"`
	Side               MarketSide         `json:"type"`
	BestCase           QuoteInfo          `json:"bestCaseQuoteInfo"`
	WorstCase          QuoteInfo          `json:"worstCaseQuoteInfo"`
	GasPrice           *big.Int           `json:"gasPrice"`
	SourceBreakdown    sources.Breakdown  `json:"sourceBreakdown"`
	Orders             []Order            `json:"orders"`
	MakerTokenDecimals int32              `json:"makerTokenDecimals"`
	TakerTokenDecimals int32              `json:"takerTokenDecimals"`
	TakerAmountPerEth  decimal.Decimal    `json:"takerAmountPerEth"`
	MakerAmountPerEth  decimal.Decimal    `json:"makerAmountPerEth"`
	PriceComparisons   []SourceComparison `json:"priceComparisons,omitempty"`
}

// SourceFlags fingerprints the sources the route fills from.
func (q *Quote) SourceFlags() sources.Flags {
	f := q.SourceBreakdown.Flags()
	for _, o := range q.Orders {
		for _, fl := range o.Fills {
			f |= fl.Source.Flag()
		}
	}
	return f
}

// HasUndeterministicFills reports whether any fill's gas cost depends on
// state at execution time.
func (q *Quote) HasUndeterministicFills() bool {
	for _, o := range q.Orders {
		for _, f := range o.Fills {
			if f.Source == sources.Native || f.Source == sources.MultiBridge {
				return true
			}
		}
	}
	return false
}

// PreparedTransaction is the unsigned transaction body before final gas is attached.
type PreparedTransaction struct {
	To          common.Address `json:"to"`
	Data        hexutil.Bytes  `json:"data"`
	Value       *big.Int       `json:"value"`
	GasOverhead uint64         `json:"gasOverhead"`
}

type GasEstimationResult struct {
	GasUsed      uint64
	Success      bool
	RevertReason []byte
}

// Sample is one observation of a source's liquidity curve.
type Sample struct {
	Source sources.Source `json:"source"`
	Input  *big.Int       `json:"input"`
	Output *big.Int       `json:"output"`
}

type BucketedPriceDepth struct {
	Cumulative  decimal.Decimal `json:"cumulative"`
	Price       decimal.Decimal `json:"price"`
	Bucket      int             `json:"bucket"`
	BucketTotal decimal.Decimal `json:"bucketTotal"`
}

type TokenMetadata struct {
	Symbol   string         `json:"symbol,omitempty"`
	Address  common.Address `json:"tokenAddress"`
	Decimals int32          `json:"decimals"`
}

type DepthSide struct {
	Depth []BucketedPriceDepth `json:"depth"`
}

type DepthResponse struct {
	Asks      DepthSide     `json:"asks"`
	Bids      DepthSide     `json:"bids"`
	BuyToken  TokenMetadata `json:"buyToken"`
	SellToken TokenMetadata `json:"sellToken"`
}
