package sources

import "github.com/itsib/0x-swap-api/internal/chain"

const (
	txBaseGas = 21_000
	// FillQuoteTransformerGas is the overhead of a route that goes through
	// the generic transformer pipeline.
	FillQuoteTransformerGas = 150_000
)

var (
	batchFillFlags    = FlagsOf(UniswapV2, SushiSwap, LiquidityProvider, Native, UniswapV3)
	multiHopFillFlags = FlagsOf(UniswapV2, SushiSwap, LiquidityProvider, UniswapV3)
	bscForks          = []Source{SushiSwap, PancakeSwap, PancakeSwapV2, BakerySwap, ApeSwap, CafeSwap, CheeseSwap, JulSwap}
)

// OverheadTable maps a route's source fingerprint to the exchange proxy
// overhead it pays. It is built once per chain and never mutated.
type OverheadTable struct {
	exact map[Flags]uint64
}

func NewOverheadTable(id chain.ID) *OverheadTable {
	exact := map[Flags]uint64{
		UniswapV2.Flag():         txBaseGas,
		SushiSwap.Flag():         txBaseGas,
		UniswapV3.Flag():         txBaseGas + 5_000,
		Curve.Flag():             txBaseGas + 40_000,
		LiquidityProvider.Flag(): txBaseGas + 10_000,
	}
	if id == chain.BSC {
		for _, s := range bscForks {
			exact[s.Flag()] = txBaseGas
		}
	}
	return &OverheadTable{exact: exact}
}

// Overhead returns the gas a route with the given sources adds on top of
// its fills. Without VIP every route pays the transformer overhead.
func (t *OverheadTable) Overhead(f Flags, vip bool) uint64 {
	if !vip {
		return FillQuoteTransformerGas
	}
	if gas, ok := t.exact[f]; ok {
		return gas
	}
	switch {
	case f.SubsetOf(batchFillFlags):
		return txBaseGas + 15_000
	case f|multiHopFillFlags == multiHopFillFlags|MultiHop.Flag():
		return txBaseGas + 25_000
	default:
		return FillQuoteTransformerGas
	}
}
