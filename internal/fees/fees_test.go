package fees

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/itsib/0x-swap-api/internal/types"
)

var recipient = common.HexToAddress("0x5591360f8c7640fea5771c9682d6b5ecb776e1f8")

func TestAmounts_None(t *testing.T) {
	a := Amounts(big.NewInt(1000), types.AffiliateFee{FeeType: types.FeeNone, Recipient: recipient})
	assert.Zero(t, a.GasCost)
	assert.Zero(t, a.BuyTokenFeeAmount.Sign())
	assert.Zero(t, a.SellTokenFeeAmount.Sign())
}

func TestAmounts_NullRecipient(t *testing.T) {
	a := Amounts(big.NewInt(1000), types.AffiliateFee{
		FeeType:               types.FeePercentage,
		BuyTokenPercentageFee: decimal.RequireFromString("0.1"),
	})
	assert.Zero(t, a.GasCost)
	assert.Zero(t, a.BuyTokenFeeAmount.Sign())
}

func TestAmounts_Percentage(t *testing.T) {
	a := Amounts(big.NewInt(1100), types.AffiliateFee{
		FeeType:               types.FeePercentage,
		Recipient:             recipient,
		BuyTokenPercentageFee: decimal.RequireFromString("0.1"),
	})
	// 1100 * 0.1 / 1.1
	assert.Equal(t, "100", a.BuyTokenFeeAmount.String())
	assert.Equal(t, uint64(PercentageFeeGas), a.GasCost)
	assert.Zero(t, a.SellTokenFeeAmount.Sign())
}

func TestAmounts_PositiveSlippageGas(t *testing.T) {
	a := Amounts(big.NewInt(1000), types.AffiliateFee{
		FeeType:   types.FeePositiveSlippage,
		Recipient: recipient,
	})
	assert.Equal(t, uint64(PositiveSlippageFeeGas), a.GasCost)
	assert.Zero(t, a.BuyTokenFeeAmount.Sign())
}

func TestAmounts_FloorAndBound(t *testing.T) {
	minBuy := big.NewInt(999_999_999)
	for _, p := range []string{"0", "0.0001", "0.015", "0.3333", "0.5", "0.99", "0.999999"} {
		pct := decimal.RequireFromString(p)
		a := Amounts(minBuy, types.AffiliateFee{FeeType: types.FeePercentage, Recipient: recipient, BuyTokenPercentageFee: pct})

		want := decimal.NewFromBigInt(minBuy, 0).Mul(pct).Div(pct.Add(decimal.NewFromInt(1))).Floor()
		assert.Equal(t, want.String(), a.BuyTokenFeeAmount.String(), p)
		assert.Equal(t, -1, a.BuyTokenFeeAmount.Cmp(minBuy), p)
	}
}

func TestInflateBuyAmount(t *testing.T) {
	fee := types.AffiliateFee{BuyTokenPercentageFee: decimal.RequireFromString("0.015")}
	assert.Equal(t, "1015", InflateBuyAmount(big.NewInt(1000), fee).String())
	assert.Equal(t, "1", InflateBuyAmount(big.NewInt(1), fee).String())
	assert.Equal(t, "7", InflateBuyAmount(big.NewInt(7), types.AffiliateFee{}).String())
}
