package swap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/fees"
	"github.com/itsib/0x-swap-api/internal/gasest"
	"github.com/itsib/0x-swap-api/internal/pricing"
	"github.com/itsib/0x-swap-api/internal/routing"
	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/types"
)

// SwapQuote routes p and turns the route into a transaction. The steps run
// in order and stop at the first failure: quote, prices, affiliate fee,
// calldata, gas estimation (taker known and validation not skipped),
// response.
func (s *Service) SwapQuote(ctx context.Context, p *types.SwapParams) (*types.QuoteResponse, error) {
	// positive slippage fees keep VIP, percentage fees need the generic path
	vip := !(p.IsMetaTransaction || p.ShouldSellEntireBalance || p.AffiliateFee.FeeType == types.FeePercentage)

	side := p.Side()
	amount := p.SellAmount
	if side == types.Buy {
		amount = fees.InflateBuyAmount(p.BuyAmount, p.AffiliateFee)
	}

	quote, err := s.engine.GetQuote(ctx, routing.QuoteRequest{
		MakerToken: p.BuyToken,
		TakerToken: p.SellToken,
		Amount:     amount,
		Side:       side,
		Options: routing.QuoteOptions{
			ExcludedSources:               mergeSources(s.chain.ExcludedSources, p.ExcludedSources),
			IncludedSources:               p.IncludedSources,
			ExcludedFeeSources:            s.chain.ExcludedFeeSources,
			BridgeSlippage:                p.SlippagePercentage,
			GasPrice:                      p.GasPrice,
			VIP:                           vip,
			ShouldIncludePriceComparisons: p.IncludePriceComparisons,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}

	prices, err := pricing.Calculate(pricing.Input{
		Side:                  side,
		BestCase:              pricing.Amounts{MakerAmount: quote.BestCase.MakerAmount, TotalTakerAmount: quote.BestCase.TotalTakerAmount},
		WorstCase:             pricing.Amounts{MakerAmount: quote.WorstCase.MakerAmount, TotalTakerAmount: quote.WorstCase.TotalTakerAmount},
		MakerTokenDecimals:    quote.MakerTokenDecimals,
		TakerTokenDecimals:    quote.TakerTokenDecimals,
		BuyTokenPercentageFee: p.AffiliateFee.BuyTokenPercentageFee,
	})
	if err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}

	feeAmounts := fees.Amounts(quote.WorstCase.MakerAmount, p.AffiliateFee)

	tx, err := s.engine.GetCalldata(ctx, routing.CalldataRequest{
		Quote:                   quote,
		IsFromETH:               p.IsETHSell,
		IsToETH:                 p.IsETHBuy,
		IsMetaTransaction:       p.IsMetaTransaction,
		ShouldSellEntireBalance: p.ShouldSellEntireBalance,
		AffiliateFee: types.AffiliateFeeAmount{
			FeeType:            p.AffiliateFee.FeeType,
			Recipient:          p.AffiliateFee.Recipient,
			BuyTokenFeeAmount:  feeAmounts.BuyTokenFeeAmount,
			SellTokenFeeAmount: feeAmounts.SellTokenFeeAmount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get calldata: %w", err)
	}

	data := s.patcher.FixPayTakerTokens(tx.Data, quote.TakerToken, quote.MakerToken)
	data, attributionID, err := s.patcher.Attribute(data, p.AffiliateAddress)
	if err != nil {
		return nil, err
	}

	gasPrice := quote.GasPrice
	if gasPrice == nil {
		if gasPrice, err = s.gasPrice(ctx, p.GasPrice); err != nil {
			return nil, err
		}
	}

	estimatedGas := quote.WorstCase.Gas +
		s.chain.Overhead.Overhead(quote.SourceFlags(), vip) +
		feeAmounts.GasCost
	if p.IsETHSell {
		estimatedGas += s.chain.WrapGas
	}
	if p.IsETHBuy {
		estimatedGas += s.chain.UnwrapGas
	}

	if p.TakerAddress != nil && !p.SkipValidation {
		simulated, err := s.estimator.Estimate(ctx, gasest.Tx{
			From:     *p.TakerAddress,
			To:       tx.To,
			Data:     data,
			Value:    tx.Value,
			GasPrice: gasPrice,
		})
		if err != nil {
			return nil, err
		}
		if buffered := s.bufferGas(simulated + tx.GasOverhead); buffered > estimatedGas {
			estimatedGas = buffered
		}
	}
	gas := estimatedGas
	if quote.HasUndeterministicFills() {
		gas = s.bufferGas(estimatedGas)
	}

	protocolFee := nonNil(quote.WorstCase.ProtocolFee)
	value := new(big.Int).Set(protocolFee)
	sellTokenAddress := p.SellToken
	allowanceTarget := s.cfg.ExchangeProxy
	if p.IsETHSell {
		value.Add(value, nonNil(quote.WorstCase.TakerAmount))
		sellTokenAddress = s.cfg.NativeSentinel
		allowanceTarget = common.Address{}
	}
	buyTokenAddress := p.BuyToken
	if p.IsETHBuy {
		buyTokenAddress = s.cfg.NativeSentinel
	}

	minimumProtocolFee := protocolFee
	if best := nonNil(quote.BestCase.ProtocolFee); best.Cmp(protocolFee) < 0 {
		minimumProtocolFee = best
	}

	buyAmount := new(big.Int).Sub(nonNil(quote.BestCase.MakerAmount), feeAmounts.BuyTokenFeeAmount)

	s.log.Debug("swap quote assembled",
		zap.String("side", string(side)),
		zap.Stringer("sell_token", p.SellToken),
		zap.Stringer("buy_token", p.BuyToken),
		zap.Uint64("gas", gas),
		zap.Bool("vip", vip),
		zap.String("attribution_id", attributionID),
	)

	return &types.QuoteResponse{
		PriceResponse: types.PriceResponse{
			ChainID:            uint64(s.chain.ChainID),
			Price:              prices.Price,
			Value:              unitDecimal(value),
			Gas:                decimal.NewFromUint64(gas),
			EstimatedGas:       decimal.NewFromUint64(estimatedGas),
			GasPrice:           unitDecimal(gasPrice),
			ProtocolFee:        unitDecimal(protocolFee),
			MinimumProtocolFee: unitDecimal(minimumProtocolFee),
			BuyTokenAddress:    buyTokenAddress,
			SellTokenAddress:   sellTokenAddress,
			BuyAmount:          unitDecimal(buyAmount),
			SellAmount:         unitDecimal(quote.BestCase.TotalTakerAmount),
			Sources:            quote.SourceBreakdown.ToList(s.chain.EnabledSources),
			AllowanceTarget:    allowanceTarget,
			SellTokenToEthRate: ethRate(quote.TakerAmountPerEth, quote.TakerTokenDecimals),
			BuyTokenToEthRate:  ethRate(quote.MakerAmountPerEth, quote.MakerTokenDecimals),
			PriceComparisons:   priceComparisons(p, quote),
		},
		GuaranteedPrice: prices.GuaranteedPrice,
		To:              tx.To,
		Data:            data,
		From:            p.TakerAddress,
		Orders:          withoutFills(quote.Orders),
	}, nil
}

// ethRate converts a raw amount-per-wei rate into token units per ETH.
func ethRate(perEth decimal.Decimal, tokenDecimals int32) decimal.Decimal {
	return perEth.Shift(ethDecimals - tokenDecimals).Round(tokenDecimals)
}

func priceComparisons(p *types.SwapParams, q *types.Quote) []types.SourceComparison {
	if !p.IncludePriceComparisons || len(q.PriceComparisons) == 0 {
		return nil
	}
	out := make([]types.SourceComparison, len(q.PriceComparisons))
	for i, c := range q.PriceComparisons {
		if src, err := sources.Parse(c.Name); err == nil {
			c.Name = src.DisplayName()
		}
		out[i] = c
	}
	return out
}

func withoutFills(orders []types.Order) []types.Order {
	out := make([]types.Order, len(orders))
	for i, o := range orders {
		o.Fills = nil
		out[i] = o
	}
	return out
}

// mergeSources appends extra to base without duplicates.
func mergeSources(base, extra []sources.Source) []sources.Source {
	out := make([]sources.Source, 0, len(base)+len(extra))
	seen := make(map[sources.Source]bool, len(base)+len(extra))
	for _, list := range [][]sources.Source{base, extra} {
		for _, src := range list {
			if !seen[src] {
				seen[src] = true
				out = append(out, src)
			}
		}
	}
	return out
}

func nonNil(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}
