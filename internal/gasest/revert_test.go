package gasest

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevertDecoder_ErrorString(t *testing.T) {
	d, err := NewRevertDecoder()
	require.NoError(t, err)

	rev, ok := d.Decode(revertPayload(t, "INSUFFICIENT_OUTPUT"))
	require.True(t, ok)
	assert.Equal(t, "Error", rev.Name)
	assert.Equal(t, "INSUFFICIENT_OUTPUT", rev.Reason)
}

func TestRevertDecoder_CustomError(t *testing.T) {
	d, err := NewRevertDecoder()
	require.NoError(t, err)

	e := d.custom["IncompleteTransformERC20Error"]
	token := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	args, err := e.Inputs.Pack(token, big.NewInt(90), big.NewInt(100))
	require.NoError(t, err)
	payload := append(append([]byte{}, e.ID[:4]...), args...)

	rev, ok := d.Decode(payload)
	require.True(t, ok)
	assert.Equal(t, "IncompleteTransformERC20Error", rev.Name)
	assert.Equal(t, token, rev.Values["outputToken"])
	assert.Equal(t, big.NewInt(100), rev.Values["minOutputTokenAmount"])
}

func TestRevertDecoder_Rejects(t *testing.T) {
	d, err := NewRevertDecoder()
	require.NoError(t, err)

	for _, data := range [][]byte{nil, {0x01}, {0xde, 0xad, 0xbe, 0xef}, append([]byte{}, errorStringSelector...)} {
		_, ok := d.Decode(data)
		assert.False(t, ok)
	}
}
