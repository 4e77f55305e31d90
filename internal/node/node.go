// Package node is the JSON-RPC client for the chain node: gas estimation,
// gas price, eth_call with state overrides and ERC-20 metadata reads.
package node

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/gasest"
	"github.com/itsib/0x-swap-api/internal/multicall"
)

const erc20ABI = `[
  {"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

type Client struct {
	log  *zap.Logger
	rc   *rpc.Client
	ec   *ethclient.Client
	gc   *gethclient.Client
	mc   multicall.IClient
	eabi abi.ABI
}

// Dial connects to rpcURL. A zero multicallAddr makes Decimals fall back
// to one eth_call per token.
func Dial(ctx context.Context, rpcURL string, timeout time.Duration, multicallAddr common.Address, log *zap.Logger) (*Client, error) {
	rc, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", rpcURL, err)
	}
	eabi, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		rc.Close()
		return nil, fmt.Errorf("bad abi: %w", err)
	}
	c := &Client{
		log:  log,
		rc:   rc,
		ec:   ethclient.NewClient(rc),
		gc:   gethclient.New(rc),
		eabi: eabi,
	}
	if multicallAddr != (common.Address{}) {
		mc, err := multicall.New(c.ec, multicallAddr)
		if err != nil {
			rc.Close()
			return nil, err
		}
		c.mc = mc
	}
	return c, nil
}

func (c *Client) Close() { c.rc.Close() }

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ec.ChainID(ctx)
}

func (c *Client) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.ec.EstimateGas(ctx, msg)
}

func (c *Client) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.ec.SuggestGasPrice(ctx)
}

func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	return c.ec.CallContract(ctx, msg, nil)
}

// CallWithOverrides runs eth_call against the latest block with account
// code and balance replaced.
func (c *Client) CallWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides map[common.Address]gasest.Override) ([]byte, error) {
	set := make(map[common.Address]gethclient.OverrideAccount, len(overrides))
	for addr, o := range overrides {
		set[addr] = gethclient.OverrideAccount{Code: o.Code, Balance: o.Balance}
	}
	return c.gc.CallContract(ctx, msg, nil, &set)
}

// Decimals reads decimals() for every token. Tokens that fail to answer
// are left out of the result.
func (c *Client) Decimals(ctx context.Context, tokens []common.Address) (map[common.Address]int32, error) {
	input, err := c.eabi.Pack("decimals")
	if err != nil {
		return nil, fmt.Errorf("pack decimals: %w", err)
	}
	out := make(map[common.Address]int32, len(tokens))
	if c.mc == nil {
		for _, token := range tokens {
			res, err := c.ec.CallContract(ctx, ethereum.CallMsg{To: &token, Data: input}, nil)
			if err != nil {
				c.log.Debug("decimals call failed", zap.Stringer("token", token), zap.Error(err))
				continue
			}
			if d, err := c.decodeDecimals(res); err == nil {
				out[token] = d
			}
		}
		return out, nil
	}

	calls := make([]multicall.Call, len(tokens))
	for i, token := range tokens {
		calls[i] = multicall.Call{Target: token, CallData: input}
	}
	results, err := c.mc.Aggregate(ctx, calls)
	if err != nil {
		return nil, fmt.Errorf("decimals multicall: %w", err)
	}
	for i, r := range results {
		if !r.Success {
			continue
		}
		d, err := c.decodeDecimals(r.Data)
		if err != nil {
			c.log.Debug("decode decimals", zap.Stringer("token", tokens[i]), zap.Error(err))
			continue
		}
		out[tokens[i]] = d
	}
	return out, nil
}

func (c *Client) decodeDecimals(res []byte) (int32, error) {
	outs, err := c.eabi.Methods["decimals"].Outputs.Unpack(res)
	if err != nil || len(outs) == 0 {
		if err == nil {
			err = fmt.Errorf("empty decimals output")
		}
		return 0, fmt.Errorf("decode decimals: %w", err)
	}
	switch v := outs[0].(type) {
	case uint8:
		return int32(v), nil
	case *big.Int:
		return int32(v.Int64()), nil
	default:
		return 0, fmt.Errorf("unexpected decimals type %T", v)
	}
}
