// Package pricing turns raw quote amounts into human-scale prices.
package pricing

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/types"
)

var ErrZeroAmount = errors.New("pricing: amount must be positive")

// Amounts is one case of a quote: what the taker receives and pays, in raw units.
type Amounts struct {
	MakerAmount      *big.Int
	TotalTakerAmount *big.Int
}

type Input struct {
	Side                  types.MarketSide
	BestCase              Amounts
	WorstCase             Amounts
	MakerTokenDecimals    int32
	TakerTokenDecimals    int32
	BuyTokenPercentageFee decimal.Decimal
}

type Prices struct {
	Price           decimal.Decimal
	GuaranteedPrice decimal.Decimal
}

// Calculate never reports a price better than the route delivers: sells
// (maker per taker) round down to maker decimals, buys (taker per maker)
// round up to taker decimals.
func Calculate(in Input) (Prices, error) {
	worstMaker := ToUnitAmount(in.WorstCase.MakerAmount, in.MakerTokenDecimals)
	fee := worstMaker.Mul(in.BuyTokenPercentageFee)

	price, err := casePrice(in, in.BestCase, fee)
	if err != nil {
		return Prices{}, err
	}
	guaranteed, err := casePrice(in, in.WorstCase, fee)
	if err != nil {
		return Prices{}, err
	}
	return Prices{Price: price, GuaranteedPrice: guaranteed}, nil
}

func casePrice(in Input, a Amounts, fee decimal.Decimal) (decimal.Decimal, error) {
	maker := ToUnitAmount(a.MakerAmount, in.MakerTokenDecimals).Sub(fee)
	taker := ToUnitAmount(a.TotalTakerAmount, in.TakerTokenDecimals)
	if !maker.IsPositive() || !taker.IsPositive() {
		return decimal.Zero, ErrZeroAmount
	}
	if in.Side == types.Buy {
		return DivCeil(taker, maker, in.TakerTokenDecimals), nil
	}
	return DivFloor(maker, taker, in.MakerTokenDecimals), nil
}

// ToUnitAmount scales a raw integer amount down by 10^decimals.
func ToUnitAmount(x *big.Int, decimals int32) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, -decimals)
}

// DivFloor divides non-negative a by positive b, truncating to places.
func DivFloor(a, b decimal.Decimal, places int32) decimal.Decimal {
	q, _ := a.QuoRem(b, places)
	return q
}

// DivCeil divides non-negative a by positive b, rounding up to places.
func DivCeil(a, b decimal.Decimal, places int32) decimal.Decimal {
	q, r := a.QuoRem(b, places)
	if !r.IsZero() {
		q = q.Add(decimal.New(1, -places))
	}
	return q
}
