package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/sources"
)

// PriceResponse is the indicative part of a quote.
type PriceResponse struct {
	ChainID            uint64                    `json:"chainId"`
	Price              decimal.Decimal           `json:"price"`
	Value              decimal.Decimal           `json:"value"`
	Gas                decimal.Decimal           `json:"gas"`
	EstimatedGas       decimal.Decimal           `json:"estimatedGas"`
	GasPrice           decimal.Decimal           `json:"gasPrice"`
	ProtocolFee        decimal.Decimal           `json:"protocolFee"`
	MinimumProtocolFee decimal.Decimal           `json:"minimumProtocolFee"`
	BuyTokenAddress    common.Address            `json:"buyTokenAddress"`
	SellTokenAddress   common.Address            `json:"sellTokenAddress"`
	BuyAmount          decimal.Decimal           `json:"buyAmount"`
	SellAmount         decimal.Decimal           `json:"sellAmount"`
	Sources            []sources.LiquiditySource `json:"sources"`
	AllowanceTarget    common.Address            `json:"allowanceTarget"`
	SellTokenToEthRate decimal.Decimal           `json:"sellTokenToEthRate"`
	BuyTokenToEthRate  decimal.Decimal           `json:"buyTokenToEthRate"`
	PriceComparisons   []SourceComparison        `json:"priceComparisons,omitempty"`
}

type QuoteResponse struct {
	PriceResponse
	GuaranteedPrice decimal.Decimal `json:"guaranteedPrice"`
	To              common.Address  `json:"to"`
	Data            hexutil.Bytes   `json:"data"`
	From            *common.Address `json:"from,omitempty"`
	Orders          []Order         `json:"orders"`
}
