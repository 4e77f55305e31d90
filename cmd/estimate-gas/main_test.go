package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTx(t *testing.T) {
	tx, err := parseTx(
		"0x70a9f34f9b34c64957b9c401a97bfed35b95049e",
		"0xdef1c0ded9bec7f1a1670819833240f027b25eff",
		"0xd0e30db0", "1000", "")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xd0, 0xe3, 0x0d, 0xb0}, tx.Data)
	assert.Equal(t, "1000", tx.Value.String())
	assert.Nil(t, tx.GasPrice)

	tx, err = parseTx(
		"0x70a9f34f9b34c64957b9c401a97bfed35b95049e",
		"0xdef1c0ded9bec7f1a1670819833240f027b25eff",
		"0x", "0", "30000000000")
	require.NoError(t, err)
	assert.Empty(t, tx.Data)
	assert.Equal(t, "30000000000", tx.GasPrice.String())
}

func TestParseTx_Invalid(t *testing.T) {
	valid := "0x70a9f34f9b34c64957b9c401a97bfed35b95049e"
	cases := map[string][5]string{
		"bad from":  {"nope", valid, "0x", "0", ""},
		"bad data":  {valid, valid, "0xzz", "0", ""},
		"neg value": {valid, valid, "0x", "-1", ""},
		"zero gas":  {valid, valid, "0x", "0", "0"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseTx(in[0], in[1], in[2], in[3], in[4])
			assert.Error(t, err)
		})
	}
}
