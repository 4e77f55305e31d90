// Package calldata post-processes swap calldata before it is returned or simulated.
package calldata

import (
	"bytes"
	"fmt"
	"math/big"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/itsib/0x-swap-api/internal/metrics"
)

// TrailerLength is the size of the attribution appended to calldata.
const TrailerLength = 4 + 32 + 32

const nonceNibbles = 10

type Patcher struct {
	feeRecipient   common.Address
	payTakerNonce  uint32
	nativeSentinel common.Address
	log            *zap.Logger

	now  func() time.Time
	intn func(n int) int
}

func NewPatcher(feeRecipient, nativeSentinel common.Address, payTakerNonce uint32, log *zap.Logger) *Patcher {
	return &Patcher{
		feeRecipient:   feeRecipient,
		payTakerNonce:  payTakerNonce,
		nativeSentinel: nativeSentinel,
		log:            log,
		now:            time.Now,
		intn:           rand.Intn,
	}
}

// Attribute appends an affiliate tag to data. The tag is a call-shaped
// ABI blob (selector, affiliate, id) that contracts ignore. The id packs a
// random 10 nibble nonce in front of the hex unix timestamp; the returned
// string is "<nonce>-<seconds>". A nil affiliate falls back to the fee recipient.
func (p *Patcher) Attribute(data []byte, affiliate *common.Address) ([]byte, string, error) {
	addr := p.feeRecipient
	if affiliate != nil {
		addr = *affiliate
	}

	secs := p.now().Unix()
	var nonce strings.Builder
	for i := 0; i < nonceNibbles; i++ {
		nonce.WriteString(strconv.FormatInt(int64(p.intn(15)+1), 16))
	}
	id, ok := new(big.Int).SetString(nonce.String()+strconv.FormatInt(secs, 16), 16)
	if !ok {
		return nil, "", fmt.Errorf("build attribution id from %s", nonce.String())
	}

	args, err := affiliateTag.Inputs.Pack(addr, id)
	if err != nil {
		return nil, "", fmt.Errorf("pack attribution: %w", err)
	}
	out := make([]byte, 0, len(data)+TrailerLength)
	out = append(out, data...)
	out = append(out, affiliateTag.ID...)
	out = append(out, args...)
	return out, fmt.Sprintf("%s-%d", nonce.String(), secs), nil
}

// DecodeAttribution reads back the trailer written by Attribute.
func DecodeAttribution(data []byte) (common.Address, *big.Int, bool) {
	if len(data) < TrailerLength {
		return common.Address{}, nil, false
	}
	tail := data[len(data)-TrailerLength:]
	if !bytes.Equal(tail[:4], affiliateTag.ID) {
		return common.Address{}, nil, false
	}
	vals, err := affiliateTag.Inputs.Unpack(tail[4:])
	if err != nil || len(vals) != 2 {
		return common.Address{}, nil, false
	}
	addr, _ := vals[0].(common.Address)
	id, _ := vals[1].(*big.Int)
	return addr, id, id != nil
}

// FixPayTakerTokens fills in the token list of a PayTakerTransformer step
// that was encoded with a single placeholder token. The result always
// sweeps both trade tokens and the native asset back to the taker. Calldata
// that is not a transformERC20 call, or whose pay-taker step is already
// complete, is returned unchanged.
func (p *Patcher) FixPayTakerTokens(data []byte, takerToken, makerToken common.Address) []byte {
	if len(data) < 4 || !bytes.Equal(data[:4], transformERC20.ID) {
		return data
	}
	vals, err := transformERC20.Inputs.Unpack(data[4:])
	if err != nil || len(vals) != 5 {
		return data
	}
	steps := *abi.ConvertType(vals[4], new([]Transformation)).(*[]Transformation)

	// bytes past the ABI arguments (e.g. an attribution trailer) are kept
	orig, err := transformERC20.Inputs.Pack(vals[0], vals[1], vals[2], vals[3], steps)
	if err != nil || !bytes.HasPrefix(data[4:], orig) {
		return data
	}
	tail := data[4+len(orig):]

	changed := false
	for i, step := range steps {
		if step.DeploymentNonce != p.payTakerNonce {
			continue
		}
		fixed, ok := p.fixPayTakerStep(step.Data, takerToken, makerToken)
		if !ok {
			continue
		}
		steps[i].Data = fixed
		changed = true
	}
	if !changed {
		return data
	}

	args, err := transformERC20.Inputs.Pack(vals[0], vals[1], vals[2], vals[3], steps)
	if err != nil {
		p.log.Warn("re-encode transformERC20 failed", zap.Error(err))
		return data
	}
	metrics.CalldataFixups.Inc()
	out := make([]byte, 0, 4+len(args)+len(tail))
	out = append(out, transformERC20.ID...)
	out = append(out, args...)
	return append(out, tail...)
}

func (p *Patcher) fixPayTakerStep(data []byte, takerToken, makerToken common.Address) ([]byte, bool) {
	vals, err := payTakerArgs.Unpack(data)
	if err != nil || len(vals) != 1 {
		return nil, false
	}
	cfg := *abi.ConvertType(vals[0], new(payTakerData)).(*payTakerData)
	if len(cfg.Amounts) != 0 {
		return nil, false
	}

	placeholder := len(cfg.Tokens) == 1 ||
		(len(cfg.Tokens) == 2 && cfg.Tokens[1] == p.nativeSentinel)
	if !placeholder {
		return nil, false
	}
	detected := cfg.Tokens[0]
	var other common.Address
	switch detected {
	case makerToken:
		other = takerToken
	case takerToken:
		other = makerToken
	default:
		return nil, false
	}

	cfg.Tokens = []common.Address{detected, other, p.nativeSentinel}
	out, err := payTakerArgs.Pack(cfg)
	if err != nil {
		return nil, false
	}
	return out, true
}
