// Package tokens resolves the token symbols and addresses accepted by the
// API to on-chain token metadata.
package tokens

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/config"
)

var ErrNotFound = errors.New("token not found")

// NotFoundError names the input that could not be resolved.
type NotFoundError struct {
	Input string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("Could not find token `%s`", e.Input) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type Token struct {
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Address  common.Address `json:"address"`
	Decimals int32          `json:"decimals"`
}

// DecimalsReader reads decimals() for a batch of tokens. Tokens that do
// not answer are absent from the result.
type DecimalsReader interface {
	Decimals(ctx context.Context, tokens []common.Address) (map[common.Address]int32, error)
}

type Registry struct {
	log      *zap.Logger
	reader   DecimalsReader
	native   string
	wrapped  Token
	sentinel common.Address

	bySymbol  map[string]Token
	byAddress map[common.Address]Token
	listed    []Token

	// addresses learned from the chain
	fetched sync.Map // common.Address -> int32
}

func NewRegistry(params *config.ChainParams, cfg *config.Config, reader DecimalsReader, log *zap.Logger) (*Registry, error) {
	r := &Registry{
		log:       log,
		reader:    reader,
		native:    strings.ToUpper(params.NativeSymbol),
		sentinel:  common.HexToAddress(cfg.Contracts.NativeTokenSentinel),
		bySymbol:  make(map[string]Token),
		byAddress: make(map[common.Address]Token),
	}
	r.wrapped = Token{
		Symbol:   params.WrappedSymbol,
		Name:     "Wrapped " + params.NativeSymbol,
		Address:  common.HexToAddress(cfg.Contracts.WrappedNativeToken),
		Decimals: 18,
	}
	r.add(r.wrapped)
	for _, t := range cfg.Tokens {
		if err := ValidAddress(t.Address); err != nil {
			return nil, fmt.Errorf("token %s: %w", t.Symbol, err)
		}
		r.add(Token{Symbol: t.Symbol, Name: t.Name, Address: common.HexToAddress(t.Address), Decimals: t.Decimals})
	}
	sort.Slice(r.listed, func(i, j int) bool { return r.listed[i].Symbol < r.listed[j].Symbol })
	return r, nil
}

func (r *Registry) add(t Token) {
	key := strings.ToUpper(t.Symbol)
	if _, dup := r.bySymbol[key]; dup {
		return
	}
	r.bySymbol[key] = t
	r.byAddress[t.Address] = t
	if t.Address != (common.Address{}) {
		r.listed = append(r.listed, t)
	}
}

// List returns the configured tokens with a non-null address, by symbol.
func (r *Registry) List() []Token {
	out := make([]Token, len(r.listed))
	copy(out, r.listed)
	return out
}

func (r *Registry) Wrapped() Token { return r.wrapped }

func (r *Registry) NativeSentinel() common.Address { return r.sentinel }

// IsNative reports whether s names the chain's native asset, by symbol or
// by the sentinel address.
func (r *Registry) IsNative(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, r.native) {
		return true
	}
	return common.IsHexAddress(s) && common.HexToAddress(s) == r.sentinel
}

// IsWrappedNative reports whether s names the wrapped native token.
func (r *Registry) IsWrappedNative(s string) bool {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, r.wrapped.Symbol) {
		return true
	}
	return common.IsHexAddress(s) && common.HexToAddress(s) == r.wrapped.Address
}

// Resolve maps a symbol or address to a token. The native symbol resolves
// to the wrapped token.
func (r *Registry) Resolve(ctx context.Context, s string) (Token, error) {
	out, err := r.ResolveMany(ctx, s)
	if err != nil {
		return Token{}, err
	}
	return out[0], nil
}

// ResolveMany resolves every input. Addresses that are neither configured
// nor cached get their decimals in a single batched read.
func (r *Registry) ResolveMany(ctx context.Context, inputs ...string) ([]Token, error) {
	out := make([]Token, len(inputs))
	var missing []common.Address
	var pending []int
	for i, raw := range inputs {
		s := strings.TrimSpace(raw)
		if r.IsNative(s) {
			out[i] = r.wrapped
			continue
		}
		if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
			t, ok := r.bySymbol[strings.ToUpper(s)]
			if !ok {
				return nil, &NotFoundError{Input: raw}
			}
			out[i] = t
			continue
		}
		if err := ValidAddress(s); err != nil {
			return nil, &NotFoundError{Input: raw}
		}
		addr := common.HexToAddress(s)
		if t, ok := r.byAddress[addr]; ok {
			out[i] = t
			continue
		}
		if d, ok := r.fetched.Load(addr); ok {
			out[i] = Token{Address: addr, Decimals: d.(int32)}
			continue
		}
		if addr == (common.Address{}) {
			out[i] = Token{Address: addr}
			continue
		}
		pending = append(pending, i)
		missing = append(missing, addr)
	}
	if len(missing) == 0 {
		return out, nil
	}
	if r.reader == nil {
		return nil, &NotFoundError{Input: inputs[pending[0]]}
	}

	decimals, err := r.reader.Decimals(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("read decimals: %w", err)
	}
	for k, i := range pending {
		addr := missing[k]
		d, ok := decimals[addr]
		if !ok {
			return nil, &NotFoundError{Input: inputs[i]}
		}
		r.fetched.Store(addr, d)
		out[i] = Token{Address: addr, Decimals: d}
	}
	r.log.Debug("token decimals fetched", zap.Int("count", len(missing)))
	return out, nil
}
