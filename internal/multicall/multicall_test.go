package multicall

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const erc20ABI = `[{"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}]`

// mockCaller answers every CallContract with a canned response.
type mockCaller struct {
	resp []byte
	err  error
	last ethereum.CallMsg
}

func (m *mockCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.last = msg
	return m.resp, m.err
}

func packResults(t *testing.T, results []tryResult) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(multicallABI))
	require.NoError(t, err)
	type ret struct {
		Success    bool   `abi:"success"`
		ReturnData []byte `abi:"returnData"`
	}
	vals := make([]ret, len(results))
	for i, r := range results {
		vals[i] = ret{Success: r.Success, ReturnData: r.ReturnData}
	}
	out, err := parsed.Methods["tryAggregate"].Outputs.Pack(vals)
	require.NoError(t, err)
	return out
}

func TestAggregate(t *testing.T) {
	erc20, err := abi.JSON(strings.NewReader(erc20ABI))
	require.NoError(t, err)
	callData, err := erc20.Pack("decimals")
	require.NoError(t, err)
	decimals, err := erc20.Methods["decimals"].Outputs.Pack(uint8(6))
	require.NoError(t, err)

	caller := &mockCaller{resp: packResults(t, []tryResult{
		{Success: true, ReturnData: decimals},
		{Success: false, ReturnData: nil},
	})}
	addr := common.HexToAddress("0x5BA1e12693Dc8F9c48aAD8770482f4739bEeD696")
	mc, err := New(caller, addr)
	require.NoError(t, err)

	res, err := mc.Aggregate(context.Background(), []Call{
		{Target: common.HexToAddress("0x01"), CallData: callData},
		{Target: common.HexToAddress("0x02"), CallData: callData},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, addr, *caller.last.To)

	assert.True(t, res[0].Success)
	outs, err := erc20.Methods["decimals"].Outputs.Unpack(res[0].Data)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), outs[0])
	assert.False(t, res[1].Success)
}

func TestAggregate_CallError(t *testing.T) {
	mc, err := New(&mockCaller{err: errors.New("boom")}, common.Address{})
	require.NoError(t, err)
	_, err = mc.Aggregate(context.Background(), []Call{{Target: common.HexToAddress("0x01")}})
	assert.ErrorContains(t, err, "call tryAggregate")
}

func TestAggregate_Empty(t *testing.T) {
	caller := &mockCaller{}
	mc, err := New(caller, common.Address{})
	require.NoError(t, err)
	res, err := mc.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Nil(t, caller.last.To)
}
