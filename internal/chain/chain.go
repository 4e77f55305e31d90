package chain

import "fmt"

// ID is an EVM chain identifier.
type ID uint64

const (
	Mainnet   ID = 1
	Ropsten   ID = 3
	Rinkeby   ID = 4
	Optimism  ID = 10
	Kovan     ID = 42
	BSC       ID = 56
	Matic     ID = 137
	Fantom    ID = 250
	Celo      ID = 42220
	Avalanche ID = 43114
	Ganache   ID = 1337
)

var supported = []ID{Mainnet, Ropsten, Rinkeby, Optimism, Kovan, BSC, Matic, Fantom, Celo, Avalanche, Ganache}

// Supported lists every chain the service can be started on.
func Supported() []ID {
	out := make([]ID, len(supported))
	copy(out, supported)
	return out
}

func (id ID) IsSupported() bool {
	for _, s := range supported {
		if s == id {
			return true
		}
	}
	return false
}

// NativeSymbol is the symbol of the asset gas is paid in.
func (id ID) NativeSymbol() string {
	switch id {
	case BSC:
		return "BNB"
	case Matic:
		return "MATIC"
	case Avalanche:
		return "AVAX"
	case Fantom:
		return "FTM"
	case Celo:
		return "CELO"
	default:
		return "ETH"
	}
}

// WrappedNativeSymbol is the symbol of the ERC-20 wrapper of the native asset.
func (id ID) WrappedNativeSymbol() string {
	switch id {
	case BSC:
		return "WBNB"
	case Matic:
		return "WMATIC"
	case Avalanche:
		return "WAVAX"
	case Fantom:
		return "WFTM"
	case Celo:
		return "CELO"
	default:
		return "WETH"
	}
}

func (id ID) String() string {
	switch id {
	case Mainnet:
		return "mainnet"
	case Ropsten:
		return "ropsten"
	case Rinkeby:
		return "rinkeby"
	case Optimism:
		return "optimism"
	case Kovan:
		return "kovan"
	case BSC:
		return "bsc"
	case Matic:
		return "matic"
	case Fantom:
		return "fantom"
	case Celo:
		return "celo"
	case Avalanche:
		return "avalanche"
	case Ganache:
		return "ganache"
	default:
		return fmt.Sprintf("chain-%d", uint64(id))
	}
}
