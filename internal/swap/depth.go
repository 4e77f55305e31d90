package swap

import (
	"context"
	"fmt"

	"github.com/itsib/0x-swap-api/internal/depth"
	"github.com/itsib/0x-swap-api/internal/routing"
	"github.com/itsib/0x-swap-api/internal/sources"
	"github.com/itsib/0x-swap-api/internal/types"
)

// MarketDepth samples both sides of the pair and buckets them. Asks sell
// sellToken for buyToken, prices falling; bids are the reverse, prices rising.
func (s *Service) MarketDepth(ctx context.Context, p *types.DepthParams) (*types.DepthResponse, error) {
	excluded := mergeSources(s.chain.ExcludedSources, p.ExcludedSources)
	excluded = mergeSources(excluded, []sources.Source{sources.MultiBridge, sources.MultiHop})

	curve, err := s.engine.GetLiquidityCurve(ctx, routing.DepthRequest{
		MakerToken: p.BuyToken,
		TakerToken: p.SellToken,
		Amount:     p.SellAmount,
		Options: routing.DepthOptions{
			NumSamples:             p.NumSamples,
			SampleDistributionBase: p.SampleDistributionBase,
			ExcludedSources:        excluded,
			IncludedSources:        p.IncludedSources,
		},
	})
	if err != nil {
		return nil, s.reclassify(fmt.Errorf("liquidity curve: %w", err), &types.SwapParams{SellAmount: p.SellAmount})
	}

	asks, bids := depth.Calculate(curve.Asks, curve.Bids, p.NumSamples, p.SampleDistributionBase,
		s.cfg.DepthMaxEndSlippagePerc, curve.TakerTokenDecimals, curve.MakerTokenDecimals)

	return &types.DepthResponse{
		Asks: types.DepthSide{Depth: asks},
		Bids: types.DepthSide{Depth: bids},
		BuyToken: types.TokenMetadata{
			Address:  p.BuyToken,
			Decimals: curve.MakerTokenDecimals,
		},
		SellToken: types.TokenMetadata{
			Address:  p.SellToken,
			Decimals: curve.TakerTokenDecimals,
		},
	}, nil
}
