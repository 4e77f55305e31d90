package gasest

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCaller struct {
	fn func(ctx context.Context, msg ethereum.CallMsg, overrides map[common.Address]Override) ([]byte, error)
}

func (m *mockCaller) CallWithOverrides(ctx context.Context, msg ethereum.CallMsg, overrides map[common.Address]Override) ([]byte, error) {
	return m.fn(ctx, msg, overrides)
}

func TestFakeTakerSimulator(t *testing.T) {
	var sim *FakeTakerSimulator
	caller := &mockCaller{fn: func(_ context.Context, msg ethereum.CallMsg, ov map[common.Address]Override) ([]byte, error) {
		assert.Equal(t, taker, msg.From)
		assert.Equal(t, taker, *msg.To)
		assert.Contains(t, ov, taker)

		args, err := sim.abi.Methods["execute"].Inputs.Unpack(msg.Data[4:])
		require.NoError(t, err)
		assert.Equal(t, proxy, args[0])
		assert.Equal(t, []byte{0xaa}, args[1])

		return sim.abi.Methods["execute"].Outputs.Pack(false, []byte{0x01, 0x02}, big.NewInt(42_000))
	}}
	sim, err := NewFakeTakerSimulator(caller)
	require.NoError(t, err)

	res, err := sim.SimulateWithOverrides(context.Background(),
		ethereum.CallMsg{From: taker, To: &proxy, Data: []byte{0xaa}},
		map[common.Address]Override{taker: {Code: fakeCode, Balance: big.NewInt(1)}})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, uint64(42_000), res.GasUsed)
	assert.Equal(t, []byte{0x01, 0x02}, res.RevertReason)
}
