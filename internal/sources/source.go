package sources

import (
	"fmt"
	"strings"
)

// Source identifies a liquidity source the routing engine can fill from.
type Source string

const (
	Native            Source = "Native"
	Uniswap           Source = "Uniswap"
	UniswapV2         Source = "Uniswap_V2"
	UniswapV3         Source = "Uniswap_V3"
	SushiSwap         Source = "SushiSwap"
	Curve             Source = "Curve"
	Balancer          Source = "Balancer"
	BalancerV2        Source = "Balancer_V2"
	Bancor            Source = "Bancor"
	Kyber             Source = "Kyber"
	Mooniswap         Source = "Mooniswap"
	DODO              Source = "DODO"
	MultiBridge       Source = "MultiBridge"
	MultiHop          Source = "MultiHop"
	LiquidityProvider Source = "LiquidityProvider"
	PancakeSwap       Source = "PancakeSwap"
	PancakeSwapV2     Source = "PancakeSwap_V2"
	BakerySwap        Source = "BakerySwap"
	ApeSwap           Source = "ApeSwap"
	CafeSwap          Source = "CafeSwap"
	CheeseSwap        Source = "CheeseSwap"
	JulSwap           Source = "JulSwap"
	QuickSwap         Source = "QuickSwap"
	SpiritSwap        Source = "SpiritSwap"
	SpookySwap        Source = "SpookySwap"
)

// nativeDisplayName is how native (off-chain order) liquidity is shown to API users.
const nativeDisplayName = "0x"

// all is ordered; a source's index is its bit in Flags.
var all = []Source{
	Native, Uniswap, UniswapV2, UniswapV3, SushiSwap, Curve, Balancer, BalancerV2,
	Bancor, Kyber, Mooniswap, DODO, MultiBridge, MultiHop, LiquidityProvider,
	PancakeSwap, PancakeSwapV2, BakerySwap, ApeSwap, CafeSwap, CheeseSwap, JulSwap,
	QuickSwap, SpiritSwap, SpookySwap,
}

var index = func() map[Source]int {
	m := make(map[Source]int, len(all))
	for i, s := range all {
		m[s] = i
	}
	return m
}()

// All returns every known source in flag order.
func All() []Source {
	out := make([]Source, len(all))
	copy(out, all)
	return out
}

// Parse accepts a source name as used in API requests. Matching is
// case-insensitive and "0x" is an alias for Native.
func Parse(name string) (Source, error) {
	n := strings.TrimSpace(name)
	if n == nativeDisplayName {
		return Native, nil
	}
	for _, s := range all {
		if strings.EqualFold(string(s), n) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown liquidity source %q", name)
}

// ParseList parses a comma separated list, skipping empty entries.
func ParseList(csv string) ([]Source, error) {
	var out []Source
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// DisplayName is the name reported in API responses.
func (s Source) DisplayName() string {
	if s == Native {
		return nativeDisplayName
	}
	return string(s)
}

// Flags is a bitset of sources; a route's fingerprint is the union of
// the flags of every source it fills from.
type Flags uint64

func (s Source) Flag() Flags {
	i, ok := index[s]
	if !ok {
		return 0
	}
	return Flags(1) << uint(i)
}

func FlagsOf(srcs ...Source) Flags {
	var f Flags
	for _, s := range srcs {
		f |= s.Flag()
	}
	return f
}

func (f Flags) Has(s Source) bool { return f&s.Flag() != 0 }

// SubsetOf reports whether every source in f is also in other.
func (f Flags) SubsetOf(other Flags) bool { return f|other == other }

func (f Flags) Sources() []Source {
	var out []Source
	for _, s := range all {
		if f.Has(s) {
			out = append(out, s)
		}
	}
	return out
}
