package calldata

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const transformERC20ABI = `[{"type":"function","name":"transformERC20","stateMutability":"payable","inputs":[
 {"name":"inputToken","type":"address"},
 {"name":"outputToken","type":"address"},
 {"name":"inputTokenAmount","type":"uint256"},
 {"name":"minOutputTokenAmount","type":"uint256"},
 {"name":"transformations","type":"tuple[]","components":[
  {"name":"deploymentNonce","type":"uint32"},
  {"name":"data","type":"bytes"}]}],
 "outputs":[{"name":"outputTokenAmount","type":"uint256"}]}]`

// Transformation is one step of a transformERC20 call.
type Transformation struct {
	DeploymentNonce uint32
	Data            []byte
}

// payTakerData is the PayTakerTransformer's config: tokens to sweep to the
// taker and how much of each (empty means entire balance).
type payTakerData struct {
	Tokens  []common.Address
	Amounts []*big.Int
}

var (
	transformERC20 abi.Method
	payTakerArgs   abi.Arguments
	affiliateTag   abi.Method
)

func init() {
	parsed, err := abi.JSON(strings.NewReader(transformERC20ABI))
	if err != nil {
		panic(err)
	}
	transformERC20 = parsed.Methods["transformERC20"]

	tuple, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "tokens", Type: "address[]"},
		{Name: "amounts", Type: "uint256[]"},
	})
	if err != nil {
		panic(err)
	}
	payTakerArgs = abi.Arguments{{Name: "data", Type: tuple}}

	addrT, _ := abi.NewType("address", "", nil)
	uintT, _ := abi.NewType("uint256", "", nil)
	affiliateTag = abi.NewMethod("ZeroExAPIAffiliate", "ZeroExAPIAffiliate", abi.Function, "view", true, false,
		abi.Arguments{{Name: "affiliate", Type: addrT}, {Name: "timestamp", Type: uintT}}, nil)
}
