package pricing

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsib/0x-swap-api/internal/types"
)

func exp10(n int64) *big.Int { return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil) }

func mul(a int64, b *big.Int) *big.Int { return new(big.Int).Mul(big.NewInt(a), b) }

func TestCalculate_SellEighteenToSix(t *testing.T) {
	in := Input{
		Side:               types.Sell,
		BestCase:           Amounts{MakerAmount: big.NewInt(500000), TotalTakerAmount: mul(1000, exp10(18))},
		WorstCase:          Amounts{MakerAmount: big.NewInt(490000), TotalTakerAmount: mul(1000, exp10(18))},
		MakerTokenDecimals: 6,
		TakerTokenDecimals: 18,
	}
	p, err := Calculate(in)
	require.NoError(t, err)

	// 0.5 B for 1000 A, truncated to B's 6 decimals
	assert.Equal(t, "0.0005", p.Price.String())
	assert.Equal(t, "0.00049", p.GuaranteedPrice.String())
	assert.True(t, p.GuaranteedPrice.LessThanOrEqual(p.Price))
}

func TestCalculate_SellRoundsDown(t *testing.T) {
	in := Input{
		Side:               types.Sell,
		BestCase:           Amounts{MakerAmount: big.NewInt(20000), TotalTakerAmount: big.NewInt(3)},
		WorstCase:          Amounts{MakerAmount: big.NewInt(20000), TotalTakerAmount: big.NewInt(3)},
		MakerTokenDecimals: 4,
		TakerTokenDecimals: 0,
	}
	p, err := Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, "0.6666", p.Price.String())
}

func TestCalculate_BuyRoundsUp(t *testing.T) {
	in := Input{
		Side:               types.Buy,
		BestCase:           Amounts{MakerAmount: big.NewInt(3), TotalTakerAmount: big.NewInt(20000)},
		WorstCase:          Amounts{MakerAmount: big.NewInt(3), TotalTakerAmount: big.NewInt(21000)},
		MakerTokenDecimals: 0,
		TakerTokenDecimals: 4,
	}
	p, err := Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, "0.6667", p.Price.String())
	assert.Equal(t, "0.7", p.GuaranteedPrice.String())
	assert.True(t, p.GuaranteedPrice.GreaterThanOrEqual(p.Price))
}

func TestCalculate_FeeReducesSellPrice(t *testing.T) {
	base := Input{
		Side:               types.Sell,
		BestCase:           Amounts{MakerAmount: mul(100, exp10(18)), TotalTakerAmount: exp10(18)},
		WorstCase:          Amounts{MakerAmount: mul(99, exp10(18)), TotalTakerAmount: exp10(18)},
		MakerTokenDecimals: 18,
		TakerTokenDecimals: 18,
	}
	noFee, err := Calculate(base)
	require.NoError(t, err)

	base.BuyTokenPercentageFee = decimal.RequireFromString("0.01")
	withFee, err := Calculate(base)
	require.NoError(t, err)

	// fee is 1% of the worst case maker amount (0.99) on both prices
	assert.Equal(t, "99.01", withFee.Price.String())
	assert.Equal(t, "98.01", withFee.GuaranteedPrice.String())
	assert.True(t, withFee.Price.LessThan(noFee.Price))
}

func TestCalculate_ZeroAmount(t *testing.T) {
	_, err := Calculate(Input{
		Side:      types.Sell,
		BestCase:  Amounts{MakerAmount: big.NewInt(1), TotalTakerAmount: big.NewInt(0)},
		WorstCase: Amounts{MakerAmount: big.NewInt(1), TotalTakerAmount: big.NewInt(1)},
	})
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestDivCeilExact(t *testing.T) {
	assert.Equal(t, "2", DivCeil(decimal.NewFromInt(4), decimal.NewFromInt(2), 3).String())
	assert.Equal(t, "1.334", DivCeil(decimal.NewFromInt(4), decimal.NewFromInt(3), 3).String())
	assert.Equal(t, "1.333", DivFloor(decimal.NewFromInt(4), decimal.NewFromInt(3), 3).String())
}
