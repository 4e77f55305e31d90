// Package gasest produces conservative gas limits for swap transactions by
// simulating them against a node.
package gasest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/itsib/0x-swap-api/internal/apierrors"
	"github.com/itsib/0x-swap-api/internal/metrics"
)

// Node is the subset of JSON-RPC the estimator needs.
type Node interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error)
}

type Config struct {
	EstimateMultiplier decimal.Decimal
	BalanceMultiplier  decimal.Decimal
	DefaultGasLimit    uint64
	ValidationGasLimit uint64
	FakeTakerCode      []byte
}

// Tx is the unsigned transaction to validate.
type Tx struct {
	From     common.Address
	To       common.Address
	Data     []byte
	Value    *big.Int
	GasPrice *big.Int
}

type Estimator struct {
	node    Node
	sim     Simulator
	cfg     Config
	reverts *RevertDecoder
	log     *zap.Logger
}

// NewEstimator builds an estimator. A nil sim selects the plain eth_call
// path for nodes without state override support.
func NewEstimator(node Node, sim Simulator, cfg Config, log *zap.Logger) (*Estimator, error) {
	reverts, err := NewRevertDecoder()
	if err != nil {
		return nil, fmt.Errorf("revert decoder: %w", err)
	}
	return &Estimator{node: node, sim: sim, cfg: cfg, reverts: reverts, log: log}, nil
}

// Estimate returns the gas tx uses including calldata cost, or a typed
// API error explaining why it would fail. There is exactly one simulation
// attempt per call.
func (e *Estimator) Estimate(ctx context.Context, tx Tx) (uint64, error) {
	if e.sim == nil {
		return e.estimateWithoutOverrides(ctx, tx)
	}
	return e.estimateWithOverrides(ctx, tx)
}

func (e *Estimator) estimateWithOverrides(ctx context.Context, tx Tx) (uint64, error) {
	msg := tx.callMsg()

	var gas uint64
	var gasPrice *big.Int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		est, err := e.node.EstimateGas(gctx, msg)
		if err != nil {
			e.log.Debug("eth_estimateGas failed, using default", zap.Error(err))
			gas = e.cfg.DefaultGasLimit
			return nil
		}
		gas = decimal.NewFromInt(int64(est)).Mul(e.cfg.EstimateMultiplier).Round(0).BigInt().Uint64()
		return nil
	})
	g.Go(func() error {
		gp, err := e.node.SuggestGasPrice(gctx)
		if err != nil {
			return fmt.Errorf("gas price: %w", err)
		}
		gasPrice = gp
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.GasEstimationFailures.WithLabelValues("transport").Inc()
		return 0, err
	}

	balance := e.syntheticBalance(tx.Value, gasPrice, gas)
	msg.Gas = gas
	msg.GasPrice = gasPrice
	res, err := e.sim.SimulateWithOverrides(ctx, msg, map[common.Address]Override{
		tx.From: {Code: e.cfg.FakeTakerCode, Balance: balance},
	})
	if err != nil {
		if classified := e.classify(err); classified != nil {
			return 0, classified
		}
		metrics.GasEstimationFailures.WithLabelValues("transport").Inc()
		return 0, fmt.Errorf("simulate: %w", err)
	}
	if !res.Success {
		if rev, ok := e.reverts.Decode(res.RevertReason); ok {
			metrics.GasEstimationFailures.WithLabelValues("revert").Inc()
			return 0, rev
		}
		metrics.GasEstimationFailures.WithLabelValues("undecodable").Inc()
		return 0, &apierrors.GasEstimationError{}
	}
	return res.GasUsed + CalldataGas(tx.Data), nil
}

// estimateWithoutOverrides serves nodes that cannot patch state. A failed
// eth_estimateGas marks the transaction as failing; a plain eth_call error
// that carries no decodable revert does not.
func (e *Estimator) estimateWithoutOverrides(ctx context.Context, tx Tx) (uint64, error) {
	msg := tx.callMsg()
	msg.GasPrice = tx.GasPrice

	success := true
	gas, err := e.node.EstimateGas(ctx, msg)
	if err != nil {
		success = false
		gas = e.cfg.ValidationGasLimit
	}
	msg.Gas = gas

	raw, err := e.node.CallContract(ctx, msg)
	if err != nil {
		if classified := e.classify(err); classified != nil {
			return 0, classified
		}
		e.log.Debug("eth_call failed without decodable revert", zap.Error(err))
	} else if rev, ok := e.reverts.Decode(raw); ok {
		metrics.GasEstimationFailures.WithLabelValues("revert").Inc()
		return 0, rev
	}
	if !success {
		metrics.GasEstimationFailures.WithLabelValues("undecodable").Inc()
		return 0, &apierrors.GasEstimationError{}
	}
	return gas + CalldataGas(tx.Data), nil
}

// classify maps a node error to an API error. Revert data that cannot be
// decoded becomes a hard error. nil means err carries nothing to act on.
func (e *Estimator) classify(err error) error {
	if strings.Contains(err.Error(), "insufficient funds") {
		metrics.GasEstimationFailures.WithLabelValues("insufficient_funds").Inc()
		return &apierrors.InsufficientFundsError{}
	}
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return nil
	}
	hexData, ok := dataErr.ErrorData().(string)
	if !ok || hexData == "" {
		return nil
	}
	data, decErr := hexutil.Decode(hexData)
	if decErr != nil {
		return nil
	}
	if rev, ok := e.reverts.Decode(data); ok {
		metrics.GasEstimationFailures.WithLabelValues("revert").Inc()
		return rev
	}
	// a node that says it reverted but returns garbage is not trusted
	e.log.Error("could not decode revert data", zap.String("data", hexData), zap.Error(err))
	metrics.GasEstimationFailures.WithLabelValues("undecodable").Inc()
	return fmt.Errorf("undecodable revert: %w", err)
}

func (e *Estimator) syntheticBalance(value, gasPrice *big.Int, gas uint64) *big.Int {
	v := decimal.Zero
	if value != nil {
		v = decimal.NewFromBigInt(value, 0)
	}
	cost := decimal.NewFromBigInt(gasPrice, 0).Mul(decimal.NewFromInt(int64(gas)))
	return v.Add(cost).Mul(e.cfg.BalanceMultiplier).Floor().BigInt()
}

func (tx Tx) callMsg() ethereum.CallMsg {
	to := tx.To
	return ethereum.CallMsg{From: tx.From, To: &to, Data: tx.Data, Value: tx.Value}
}

// CalldataGas is the intrinsic gas charged for the bytes of data.
func CalldataGas(data []byte) uint64 {
	var gas uint64
	for _, b := range data {
		if b == 0 {
			gas += params.TxDataZeroGas
		} else {
			gas += params.TxDataNonZeroGasEIP2028
		}
	}
	return gas
}
