package sources

import (
	"sort"

	"github.com/itsib/0x-swap-api/internal/chain"
)

// Excluded returns the sources that are never routed through on a chain.
func Excluded(id chain.ID) []Source {
	switch id {
	case chain.Mainnet:
		return []Source{MultiBridge}
	case chain.Kovan:
		return except(Native, UniswapV2)
	case chain.Ropsten:
		return except(Kyber, Native, SushiSwap, Uniswap, UniswapV2, UniswapV3, Curve, Mooniswap)
	case chain.BSC, chain.Matic, chain.Avalanche, chain.Fantom:
		return []Source{MultiBridge, Native}
	default:
		return except(Native)
	}
}

// ExcludedFee returns sources that cannot be used to value protocol fees.
func ExcludedFee(id chain.ID) []Source {
	switch id {
	case chain.Mainnet, chain.Ropsten, chain.Matic:
		return nil
	case chain.Kovan, chain.BSC:
		return []Source{Uniswap}
	default:
		return []Source{Uniswap, UniswapV2}
	}
}

// Enabled returns the sources available on a chain, i.e. everything not excluded.
func Enabled(id chain.ID) []Source {
	excluded := FlagsOf(Excluded(id)...)
	out := make([]Source, 0, len(all))
	for _, s := range all {
		if !excluded.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Names lists the display names of sources sorted alphabetically.
func Names(srcs []Source) []string {
	out := make([]string, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, s.DisplayName())
	}
	sort.Strings(out)
	return out
}

func except(keep ...Source) []Source {
	k := FlagsOf(keep...)
	out := make([]Source, 0, len(all))
	for _, s := range all {
		if !k.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
