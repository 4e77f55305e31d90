package gasest

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/itsib/0x-swap-api/internal/types"
)

const fakeTakerABI = `[{"type":"function","name":"execute","stateMutability":"payable",
 "inputs":[{"name":"to","type":"address"},{"name":"data","type":"bytes"}],
 "outputs":[{"name":"success","type":"bool"},{"name":"resultData","type":"bytes"},{"name":"gasUsed","type":"uint256"}]}]`

// Override replaces an account's code and balance for a single call.
type Override struct {
	Code    []byte
	Balance *big.Int
}

// Simulator runs a call against node state patched with overrides.
type Simulator interface {
	SimulateWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides map[common.Address]Override) (*types.GasEstimationResult, error)
}

// OverrideCaller is an eth_call with a state override set.
type OverrideCaller interface {
	CallWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides map[common.Address]Override) ([]byte, error)
}

// FakeTakerSimulator expects the taker account to be overridden with the
// FakeTaker contract. It calls the taker with execute(to, data) so the
// swap runs with the taker as msg.sender and reports its own outcome.
type FakeTakerSimulator struct {
	caller OverrideCaller
	abi    abi.ABI
}

func NewFakeTakerSimulator(caller OverrideCaller) (*FakeTakerSimulator, error) {
	parsed, err := abi.JSON(strings.NewReader(fakeTakerABI))
	if err != nil {
		return nil, err
	}
	return &FakeTakerSimulator{caller: caller, abi: parsed}, nil
}

func (s *FakeTakerSimulator) SimulateWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides map[common.Address]Override) (*types.GasEstimationResult, error) {
	if msg.To == nil {
		return nil, fmt.Errorf("simulate: missing target")
	}
	input, err := s.abi.Pack("execute", *msg.To, msg.Data)
	if err != nil {
		return nil, fmt.Errorf("pack execute: %w", err)
	}
	from := msg.From
	call := msg
	call.To = &from
	call.Data = input

	out, err := s.caller.CallWithOverrides(ctx, call, overrides)
	if err != nil {
		return nil, fmt.Errorf("fake taker call: %w", err)
	}
	vals, err := s.abi.Unpack("execute", out)
	if err != nil {
		return nil, fmt.Errorf("unpack execute: %w", err)
	}
	success, _ := vals[0].(bool)
	resultData, _ := vals[1].([]byte)
	gasUsed, _ := vals[2].(*big.Int)
	res := &types.GasEstimationResult{Success: success, RevertReason: resultData}
	if gasUsed != nil && gasUsed.IsUint64() {
		res.GasUsed = gasUsed.Uint64()
	}
	return res, nil
}
