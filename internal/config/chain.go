package config

import (
	"github.com/itsib/0x-swap-api/internal/chain"
	"github.com/itsib/0x-swap-api/internal/sources"
)

const txBaseGas = 21_000

// ChainParams holds every chain-keyed constant the quote pipeline needs.
// It is resolved once at startup and shared read-only.
type ChainParams struct {
	ChainID            chain.ID
	NativeSymbol       string
	WrappedSymbol      string
	ExcludedSources    []sources.Source
	ExcludedFeeSources []sources.Source
	EnabledSources     []sources.Source
	WrapGas            uint64
	UnwrapGas          uint64
	WrapQuoteGas       uint64
	UnwrapQuoteGas     uint64
	Overhead           *sources.OverheadTable
	SupportsOverrides  bool
}

func (c *Config) ResolveChain() *ChainParams {
	id := chain.ID(c.Chain.ID)

	var unwrapGas uint64 = 25_000
	if id == chain.Fantom {
		// WFTM is not a WETH9 clone and burns more gas on withdraw
		unwrapGas = 37_000
	}

	overrides := id != chain.Ganache
	if c.Chain.StateOverrides != nil {
		overrides = *c.Chain.StateOverrides
	}

	return &ChainParams{
		ChainID:            id,
		NativeSymbol:       id.NativeSymbol(),
		WrappedSymbol:      id.WrappedNativeSymbol(),
		ExcludedSources:    sources.Excluded(id),
		ExcludedFeeSources: sources.ExcludedFee(id),
		EnabledSources:     sources.Enabled(id),
		WrapGas:            unwrapGas,
		UnwrapGas:          unwrapGas,
		WrapQuoteGas:       txBaseGas + unwrapGas,
		UnwrapQuoteGas:     txBaseGas + unwrapGas,
		Overhead:           sources.NewOverheadTable(id),
		SupportsOverrides:  overrides,
	}
}
