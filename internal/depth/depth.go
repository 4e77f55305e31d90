// Package depth buckets sampled liquidity curves into a market depth chart.
package depth

import (
	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/types"
)

const pricePrecision = 36

var hundred = decimal.NewFromInt(100)

// ForSide buckets one side of a liquidity curve. curves holds one sampled
// curve per source. Sell prices are output/input and worsen downwards;
// buy prices are input/output and worsen upwards. Buckets run from the
// best sampled price to maxEndSlippagePct away from it, spaced by
// distributionBase (1 spaces them evenly). Each bucket's cumulative amount
// is the liquidity available at that price or better.
func ForSide(curves [][]types.Sample, side types.MarketSide, numBuckets int, distributionBase, maxEndSlippagePct decimal.Decimal) []types.BucketedPriceDepth {
	if numBuckets <= 0 {
		return []types.BucketedPriceDepth{}
	}
	type point struct {
		amount decimal.Decimal
		price  decimal.Decimal
	}
	points := make([][]point, 0, len(curves))
	var start decimal.Decimal
	found := false
	for _, curve := range curves {
		pts := make([]point, 0, len(curve))
		for _, s := range curve {
			if s.Input == nil || s.Output == nil || s.Input.Sign() <= 0 || s.Output.Sign() <= 0 {
				continue
			}
			in := decimal.NewFromBigInt(s.Input, 0)
			out := decimal.NewFromBigInt(s.Output, 0)
			var p decimal.Decimal
			if side == types.Sell {
				p = out.DivRound(in, pricePrecision)
			} else {
				p = in.DivRound(out, pricePrecision)
			}
			pts = append(pts, point{amount: in, price: p})
			if !found || better(side, p, start) {
				start = p
				found = true
			}
		}
		points = append(points, pts)
	}
	if !found {
		return []types.BucketedPriceDepth{}
	}

	slip := maxEndSlippagePct.Div(hundred)
	var end decimal.Decimal
	if side == types.Sell {
		end = start.Mul(decimal.NewFromInt(1).Sub(slip))
	} else {
		end = start.Mul(decimal.NewFromInt(1).Add(slip))
	}

	prices := bucketPrices(start, end, numBuckets, distributionBase)
	out := make([]types.BucketedPriceDepth, 0, numBuckets)
	prev := decimal.Zero
	for i, bp := range prices {
		cumulative := decimal.Zero
		for _, pts := range points {
			best := decimal.Zero
			for _, pt := range pts {
				if !better(side, bp, pt.price) && pt.amount.GreaterThan(best) {
					best = pt.amount
				}
			}
			cumulative = cumulative.Add(best)
		}
		out = append(out, types.BucketedPriceDepth{
			Bucket:      i,
			Price:       bp,
			Cumulative:  cumulative,
			BucketTotal: cumulative.Sub(prev),
		})
		prev = cumulative
	}
	return out
}

// better reports whether price a is strictly better than b for side.
func better(side types.MarketSide, a, b decimal.Decimal) bool {
	if side == types.Sell {
		return a.GreaterThan(b)
	}
	return a.LessThan(b)
}

// bucketPrices places n prices from start to end. Gaps grow by a factor
// of base from one bucket to the next.
func bucketPrices(start, end decimal.Decimal, n int, base decimal.Decimal) []decimal.Decimal {
	if n == 1 {
		return []decimal.Decimal{start}
	}
	if !base.IsPositive() {
		base = decimal.NewFromInt(1)
	}
	steps := n - 1
	weights := make([]decimal.Decimal, steps)
	total := decimal.Zero
	w := decimal.NewFromInt(1)
	for i := 0; i < steps; i++ {
		weights[i] = w
		total = total.Add(w)
		w = w.Mul(base)
	}
	span := end.Sub(start)
	out := make([]decimal.Decimal, 0, n)
	out = append(out, start)
	acc := decimal.Zero
	for i := 0; i < steps; i++ {
		acc = acc.Add(weights[i])
		if i == steps-1 {
			out = append(out, end)
			break
		}
		out = append(out, start.Add(span.Mul(acc).DivRound(total, pricePrecision)))
	}
	return out
}

// ScalePrices converts raw-unit prices into token-unit prices.
func ScalePrices(depth []types.BucketedPriceDepth, takerDecimals, makerDecimals int32) []types.BucketedPriceDepth {
	shift := takerDecimals - makerDecimals
	out := make([]types.BucketedPriceDepth, len(depth))
	for i, b := range depth {
		b.Price = b.Price.Shift(shift)
		out[i] = b
	}
	return out
}

// Calculate buckets both sides of a pair into numSamples*2 buckets each
// and scales the prices to token units.
func Calculate(asks, bids [][]types.Sample, numSamples int, distributionBase, maxEndSlippagePct decimal.Decimal, takerDecimals, makerDecimals int32) (askDepth, bidDepth []types.BucketedPriceDepth) {
	numBuckets := numSamples * 2
	askDepth = ScalePrices(ForSide(asks, types.Sell, numBuckets, distributionBase, maxEndSlippagePct), takerDecimals, makerDecimals)
	bidDepth = ScalePrices(ForSide(bids, types.Buy, numBuckets, distributionBase, maxEndSlippagePct), takerDecimals, makerDecimals)
	return askDepth, bidDepth
}
