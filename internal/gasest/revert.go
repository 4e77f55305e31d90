package gasest

import (
	"bytes"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/itsib/0x-swap-api/internal/apierrors"
)

// Rich revert errors raised by the exchange proxy and its features.
const exchangeProxyErrorsABI = `[
 {"type":"error","name":"IncompleteTransformERC20Error","inputs":[{"name":"outputToken","type":"address"},{"name":"outputTokenAmount","type":"uint256"},{"name":"minOutputTokenAmount","type":"uint256"}]},
 {"type":"error","name":"NegativeTransformERC20OutputError","inputs":[{"name":"outputToken","type":"address"},{"name":"outputTokenLostAmount","type":"uint256"}]},
 {"type":"error","name":"TransformerFailedError","inputs":[{"name":"transformer","type":"address"},{"name":"transformerData","type":"bytes"},{"name":"resultData","type":"bytes"}]},
 {"type":"error","name":"InsufficientEthAttachedError","inputs":[{"name":"ethAttached","type":"uint256"},{"name":"ethNeeded","type":"uint256"}]},
 {"type":"error","name":"SpenderERC20TransferFromFailedError","inputs":[{"name":"token","type":"address"},{"name":"owner","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},{"name":"errorData","type":"bytes"}]},
 {"type":"error","name":"WalletExecuteCallFailedError","inputs":[{"name":"wallet","type":"address"},{"name":"callTarget","type":"address"},{"name":"callData","type":"bytes"},{"name":"callValue","type":"uint256"},{"name":"errorData","type":"bytes"}]},
 {"type":"error","name":"OnlyOwnerError","inputs":[{"name":"sender","type":"address"},{"name":"owner","type":"address"}]}
]`

var (
	errorStringSelector = []byte{0x08, 0xc3, 0x79, 0xa0}
	panicSelector       = []byte{0x4e, 0x48, 0x7b, 0x71}
)

// RevertDecoder turns revert payloads into typed API errors.
type RevertDecoder struct {
	custom map[string]abi.Error
}

func NewRevertDecoder() (*RevertDecoder, error) {
	parsed, err := abi.JSON(strings.NewReader(exchangeProxyErrorsABI))
	if err != nil {
		return nil, err
	}
	return &RevertDecoder{custom: parsed.Errors}, nil
}

// Decode reports false when data is not a revert payload it understands.
func (d *RevertDecoder) Decode(data []byte) (*apierrors.RevertError, bool) {
	if len(data) < 4 {
		return nil, false
	}
	sel := data[:4]
	if bytes.Equal(sel, errorStringSelector) || bytes.Equal(sel, panicSelector) {
		reason, err := abi.UnpackRevert(data)
		if err != nil {
			return nil, false
		}
		name := "Error"
		if bytes.Equal(sel, panicSelector) {
			name = "Panic"
		}
		return &apierrors.RevertError{Name: name, Reason: reason, Data: data}, true
	}
	for _, e := range d.custom {
		if !bytes.Equal(sel, e.ID[:4]) {
			continue
		}
		vals, err := e.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, false
		}
		values := make(map[string]any, len(vals))
		for i, in := range e.Inputs {
			values[in.Name] = vals[i]
		}
		return &apierrors.RevertError{Name: e.Name, Values: values, Data: data}, true
	}
	return nil, false
}
