package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/types"
)

var errNoAmount = errors.New("sellAmount or buyAmount required")

// WrapQuote deposits the native asset into the wrapped token contract.
func (s *Service) WrapQuote(ctx context.Context, p *types.SwapParams) (*types.QuoteResponse, error) {
	return s.nativeWrappedQuote(ctx, p, false)
}

// UnwrapQuote withdraws the native asset from the wrapped token contract.
func (s *Service) UnwrapQuote(ctx context.Context, p *types.SwapParams) (*types.QuoteResponse, error) {
	return s.nativeWrappedQuote(ctx, p, true)
}

// nativeWrappedQuote is 1:1 and needs no route: the amount is whichever
// side was given, gas is fixed per chain.
func (s *Service) nativeWrappedQuote(ctx context.Context, p *types.SwapParams, unwrap bool) (*types.QuoteResponse, error) {
	amount := p.BuyAmount
	if amount == nil {
		amount = p.SellAmount
	}
	if amount == nil {
		return nil, errNoAmount
	}

	var (
		data  []byte
		err   error
		value = new(big.Int)
		gas   = s.chain.WrapQuoteGas
	)
	if unwrap {
		data, err = s.weth.Pack("withdraw", amount)
		gas = s.chain.UnwrapQuoteGas
	} else {
		data, err = s.weth.Pack("deposit")
		value.Set(amount)
	}
	if err != nil {
		return nil, fmt.Errorf("pack weth call: %w", err)
	}
	data, _, err = s.patcher.Attribute(data, p.AffiliateAddress)
	if err != nil {
		return nil, err
	}

	gasPrice, err := s.gasPrice(ctx, p.GasPrice)
	if err != nil {
		return nil, err
	}

	one := decimal.NewFromInt(1)
	return &types.QuoteResponse{
		PriceResponse: types.PriceResponse{
			ChainID:            uint64(s.chain.ChainID),
			Price:              one,
			Value:              unitDecimal(value),
			Gas:                decimal.NewFromUint64(gas),
			EstimatedGas:       decimal.NewFromUint64(gas),
			GasPrice:           unitDecimal(gasPrice),
			ProtocolFee:        decimal.Zero,
			MinimumProtocolFee: decimal.Zero,
			BuyTokenAddress:    p.BuyToken,
			SellTokenAddress:   p.SellToken,
			BuyAmount:          unitDecimal(amount),
			SellAmount:         unitDecimal(amount),
			Sources:            []sources.LiquiditySource{},
			AllowanceTarget:    common.Address{},
			SellTokenToEthRate: one,
			BuyTokenToEthRate:  one,
		},
		GuaranteedPrice: one,
		To:              s.cfg.WrappedNativeToken,
		Data:            data,
		From:            p.TakerAddress,
		Orders:          []types.Order{},
	}, nil
}
