package node

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/gasest"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers JSON-RPC calls from a per-method handler and records requests.
type fakeNode struct {
	mu       sync.Mutex
	calls    []rpcRequest
	handlers map[string]func(params []json.RawMessage) (any, bool)
}

func (f *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	h, ok := f.handlers[req.Method]
	if !ok {
		resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
	} else if res, ok := h(req.Params); ok {
		resp["result"] = res
	} else {
		resp["error"] = map[string]any{"code": -32000, "message": "execution reverted"}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func dialFake(t *testing.T, f *fakeNode) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := Dial(context.Background(), srv.URL, 2*time.Second, common.Address{}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestSuggestGasPrice(t *testing.T) {
	c := dialFake(t, &fakeNode{handlers: map[string]func([]json.RawMessage) (any, bool){
		"eth_gasPrice": func([]json.RawMessage) (any, bool) { return "0x3b9aca00", true },
	}})
	gp, err := c.SuggestGasPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000_000), gp)
}

func TestCallWithOverrides_SendsOverrideSet(t *testing.T) {
	f := &fakeNode{handlers: map[string]func([]json.RawMessage) (any, bool){
		"eth_call": func([]json.RawMessage) (any, bool) { return "0x01", true },
	}}
	c := dialFake(t, f)

	taker := common.HexToAddress("0x70a9f34f9b34c64957b9c401a97bfed35b95049e")
	to := common.HexToAddress("0xdef1c0ded9bec7f1a1670819833240f027b25eff")
	res, err := c.CallWithOverrides(context.Background(), ethereum.CallMsg{From: taker, To: &to, Data: []byte{0xaa}},
		map[common.Address]gasest.Override{taker: {Code: []byte{0x60, 0x00}, Balance: big.NewInt(5)}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, res)

	require.Len(t, f.calls, 1)
	params := f.calls[0].Params
	require.Len(t, params, 3)

	var overrides map[string]struct {
		Code    hexutil.Bytes `json:"code"`
		Balance *hexutil.Big  `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(params[2], &overrides))
	require.Len(t, overrides, 1)
	for addr, o := range overrides {
		assert.True(t, strings.EqualFold(taker.Hex(), addr))
		assert.Equal(t, hexutil.Bytes{0x60, 0x00}, o.Code)
		assert.Equal(t, int64(5), o.Balance.ToInt().Int64())
	}
}

func TestDecimals_WithoutMulticall(t *testing.T) {
	usdc := common.HexToAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	broken := common.HexToAddress("0x0000000000000000000000000000000000000bad")
	f := &fakeNode{handlers: map[string]func([]json.RawMessage) (any, bool){
		"eth_call": func(params []json.RawMessage) (any, bool) {
			var msg struct {
				To common.Address `json:"to"`
			}
			_ = json.Unmarshal(params[0], &msg)
			if msg.To == broken {
				return nil, false
			}
			return hexutil.Encode(common.LeftPadBytes([]byte{6}, 32)), true
		},
	}}
	c := dialFake(t, f)

	got, err := c.Decimals(context.Background(), []common.Address{usdc, broken})
	require.NoError(t, err)
	assert.Equal(t, map[common.Address]int32{usdc: 6}, got)
}
