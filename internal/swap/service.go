// Package swap assembles routed quotes into ready-to-submit swap
// transactions and computes market depth.
package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/apierrors"
	"github.com/itsib/0x-swap-api/internal/calldata"
	"github.com/itsib/0x-swap-api/internal/config"
	"github.com/itsib/0x-swap-api/internal/gasest"
	"github.com/itsib/0x-swap-api/internal/pricing"
	"github.com/itsib/0x-swap-api/internal/routing"
	"github.com/itsib/0x-swap-api/internal/types"
)

const weth9ABI = `[
  {"constant":false,"inputs":[],"name":"deposit","outputs":[],"payable":true,"stateMutability":"payable","type":"function"},
  {"constant":false,"inputs":[{"name":"wad","type":"uint256"}],"name":"withdraw","outputs":[],"payable":false,"stateMutability":"nonpayable","type":"function"}
]`

// native asset decimals, the unit of the per-ETH rates
const ethDecimals = 18

type GasEstimator interface {
	Estimate(ctx context.Context, tx gasest.Tx) (uint64, error)
}

type GasPricer interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

type Config struct {
	ExchangeProxy           common.Address
	WrappedNativeToken      common.Address
	NativeSentinel          common.Address
	GasBufferMultiplier     decimal.Decimal
	DepthMaxEndSlippagePerc decimal.Decimal
}

// ConfigFrom picks the assembler settings out of the service config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		ExchangeProxy:           common.HexToAddress(c.Contracts.ExchangeProxy),
		WrappedNativeToken:      common.HexToAddress(c.Contracts.WrappedNativeToken),
		NativeSentinel:          common.HexToAddress(c.Contracts.NativeTokenSentinel),
		GasBufferMultiplier:     c.GasEstimation.BufferMultiplier,
		DepthMaxEndSlippagePerc: c.Quote.DepthMaxEndSlippagePerc,
	}
}

type Service struct {
	chain     *config.ChainParams
	cfg       Config
	engine    routing.Engine
	patcher   *calldata.Patcher
	estimator GasEstimator
	pricer    GasPricer
	weth      abi.ABI
	log       *zap.Logger
}

func NewService(chain *config.ChainParams, cfg Config, engine routing.Engine, patcher *calldata.Patcher, estimator GasEstimator, pricer GasPricer, log *zap.Logger) (*Service, error) {
	weth, err := abi.JSON(strings.NewReader(weth9ABI))
	if err != nil {
		return nil, fmt.Errorf("bad abi: %w", err)
	}
	if cfg.GasBufferMultiplier.IsZero() {
		cfg.GasBufferMultiplier = decimal.RequireFromString("1.2")
	}
	if cfg.DepthMaxEndSlippagePerc.IsZero() {
		cfg.DepthMaxEndSlippagePerc = decimal.NewFromInt(20)
	}
	return &Service{
		chain:     chain,
		cfg:       cfg,
		engine:    engine,
		patcher:   patcher,
		estimator: estimator,
		pricer:    pricer,
		weth:      weth,
		log:       log,
	}, nil
}

// Quote serves a firm quote. Wraps and unwraps bypass routing entirely.
// Errors are always typed API errors.
func (s *Service) Quote(ctx context.Context, p *types.SwapParams) (*types.QuoteResponse, error) {
	var (
		resp *types.QuoteResponse
		err  error
	)
	switch {
	case p.IsUnwrap:
		resp, err = s.UnwrapQuote(ctx, p)
	case p.IsWrap:
		resp, err = s.WrapQuote(ctx, p)
	default:
		resp, err = s.SwapQuote(ctx, p)
	}
	if err != nil {
		return nil, s.reclassify(err, p)
	}
	return resp, nil
}

// Price serves an indicative quote: the same route without simulation.
func (s *Service) Price(ctx context.Context, p *types.SwapParams) (*types.PriceResponse, error) {
	indicative := *p
	indicative.SkipValidation = true
	q, err := s.Quote(ctx, &indicative)
	if err != nil {
		return nil, err
	}
	return &q.PriceResponse, nil
}

// reclassify turns routing failures the taker can act on into validation
// errors and everything unknown into an internal error.
func (s *Service) reclassify(err error, p *types.SwapParams) error {
	if _, ok := apierrors.AsAPIError(err); ok {
		return err
	}
	amountField := "buyAmount"
	if p.Side() == types.Sell {
		amountField = "sellAmount"
	}
	// a route that leaves nothing after fees is not tradable at this size
	if errors.Is(err, pricing.ErrZeroAmount) {
		return apierrors.Field(amountField, apierrors.ValueOutOfRange, apierrors.ReasonInsufficientAssetLiquidity)
	}
	// codes are matched on the innermost error, below our own wrapping
	root := err
	for next := errors.Unwrap(root); next != nil; next = errors.Unwrap(root) {
		root = next
	}
	msg := root.Error()
	switch {
	case strings.HasPrefix(msg, routing.CodeInsufficientAssetLiquidity), strings.HasPrefix(msg, routing.CodeNoOptimalPath):
		return apierrors.Field(amountField, apierrors.ValueOutOfRange, apierrors.ReasonInsufficientAssetLiquidity)
	case strings.HasPrefix(msg, routing.CodeAssetUnavailable):
		return apierrors.Field("token", apierrors.ValueOutOfRange, msg)
	}
	s.log.Error("uncaught quote error", zap.Error(err), zap.Stack("stack"))
	return &apierrors.InternalServerError{Message: msg}
}

func (s *Service) gasPrice(ctx context.Context, provided *big.Int) (*big.Int, error) {
	if provided != nil {
		return provided, nil
	}
	gp, err := s.pricer.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	return gp, nil
}

func (s *Service) bufferGas(gas uint64) uint64 {
	return decimal.NewFromUint64(gas).Mul(s.cfg.GasBufferMultiplier).Round(0).BigInt().Uint64()
}

func unitDecimal(x *big.Int) decimal.Decimal {
	if x == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(x, 0)
}
