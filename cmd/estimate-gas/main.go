// Command estimate-gas validates a single transaction through the same
// gas estimation path the swap API uses and prints the result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/apierrors"
	"github.com/itsib/0x-swap-api/internal/config"
	"github.com/itsib/0x-swap-api/internal/gasest"
	"github.com/itsib/0x-swap-api/internal/node"
)

func main() {
	cfgPath := flag.String("config", "", "path to config")
	from := flag.String("from", "", "sender address")
	to := flag.String("to", "", "target contract")
	data := flag.String("data", "0x", "calldata, 0x-prefixed hex")
	value := flag.String("value", "0", "value in wei")
	gasPrice := flag.String("gas-price", "", "gas price in wei; node price when empty")
	flag.Parse()

	tx, err := parseTx(*from, *to, *data, *value, *gasPrice)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	ctx := context.Background()

	var multicallAddr common.Address
	nodeClient, err := node.Dial(ctx, cfg.Chain.RPCURL, cfg.RPCTimeout(), multicallAddr, zap.NewNop())
	if err != nil {
		panic(err)
	}
	defer nodeClient.Close()

	if tx.GasPrice == nil {
		if tx.GasPrice, err = nodeClient.SuggestGasPrice(ctx); err != nil {
			panic(err)
		}
	}

	g := cfg.GasEstimation
	estCfg := gasest.Config{
		EstimateMultiplier: g.EstimateMultiplier,
		BalanceMultiplier:  g.BalanceMultiplier,
		DefaultGasLimit:    g.DefaultGasLimit,
		ValidationGasLimit: g.ValidationGasLimit,
	}
	var sim gasest.Simulator
	if cfg.ResolveChain().SupportsOverrides && g.FakeTakerBytecode != "" {
		if estCfg.FakeTakerCode, err = hexutil.Decode(g.FakeTakerBytecode); err != nil {
			panic(err)
		}
		if sim, err = gasest.NewFakeTakerSimulator(nodeClient); err != nil {
			panic(err)
		}
	}
	est, err := gasest.NewEstimator(nodeClient, sim, estCfg, zap.NewNop())
	if err != nil {
		panic(err)
	}

	fmt.Printf("RPC: %s\n", cfg.Chain.RPCURL)
	fmt.Printf("Overrides: %v\n\n", sim != nil)

	gas, err := est.Estimate(ctx, tx)
	if err != nil {
		var rev *apierrors.RevertError
		if errors.As(err, &rev) {
			fmt.Printf("reverted: %s\n", rev.Error())
			for k, v := range rev.Values {
				fmt.Printf("  %s = %v\n", k, v)
			}
			os.Exit(1)
		}
		fmt.Printf("failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("gas: %d\n", gas)
}

func parseTx(from, to, data, value, gasPrice string) (gasest.Tx, error) {
	var tx gasest.Tx
	if !common.IsHexAddress(from) || !common.IsHexAddress(to) {
		return tx, errors.New("-from and -to must be addresses")
	}
	tx.From = common.HexToAddress(from)
	tx.To = common.HexToAddress(to)

	var err error
	if tx.Data, err = hexutil.Decode(data); err != nil && data != "0x" {
		return tx, fmt.Errorf("-data: %w", err)
	}
	v, ok := new(big.Int).SetString(value, 10)
	if !ok || v.Sign() < 0 {
		return tx, fmt.Errorf("-value: %q is not a wei amount", value)
	}
	tx.Value = v
	if gasPrice != "" {
		gp, ok := new(big.Int).SetString(gasPrice, 10)
		if !ok || gp.Sign() <= 0 {
			return tx, fmt.Errorf("-gas-price: %q is not a wei amount", gasPrice)
		}
		tx.GasPrice = gp
	}
	return tx, nil
}
