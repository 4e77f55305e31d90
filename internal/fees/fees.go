// Package fees computes affiliate fee deductions on the buy token.
package fees

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/itsib/0x-swap-api/internal/types"
)

const (
	PercentageFeeGas       = 15_000
	PositiveSlippageFeeGas = 30_000
)

// Amounts returns the fee taken from minBuyAmount (the worst case maker
// amount). The fee is a percentage of what remains after the fee, hence
// p/(p+1). Sell token fees are not supported and always zero.
func Amounts(minBuyAmount *big.Int, fee types.AffiliateFee) types.AffiliateFeeAmounts {
	if fee.FeeType == types.FeeNone || fee.Recipient == (common.Address{}) || minBuyAmount == nil {
		return zero()
	}
	p := fee.BuyTokenPercentageFee
	if p.IsNegative() {
		p = decimal.Zero
	}
	amount, _ := decimal.NewFromBigInt(minBuyAmount, 0).
		Mul(p).
		QuoRem(p.Add(decimal.NewFromInt(1)), 0)

	gas := uint64(PositiveSlippageFeeGas)
	if fee.FeeType == types.FeePercentage {
		gas = PercentageFeeGas
	}
	return types.AffiliateFeeAmounts{
		GasCost:            gas,
		BuyTokenFeeAmount:  amount.BigInt(),
		SellTokenFeeAmount: new(big.Int),
	}
}

// InflateBuyAmount scales a requested buy amount by (1 + fee) so the taker
// still receives it after the fee is taken.
func InflateBuyAmount(buyAmount *big.Int, fee types.AffiliateFee) *big.Int {
	onePlus := fee.BuyTokenPercentageFee.Add(decimal.NewFromInt(1))
	return decimal.NewFromBigInt(buyAmount, 0).Mul(onePlus).Floor().BigInt()
}

func zero() types.AffiliateFeeAmounts {
	return types.AffiliateFeeAmounts{
		BuyTokenFeeAmount:  new(big.Int),
		SellTokenFeeAmount: new(big.Int),
	}
}
