package venue

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ecommon "github.com/ethereum/go-ethereum/common"
)

// ContractCaller is the read-only RPC surface venues need for quoting.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const vaultABIJSON = `[
	{"name":"mint","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_asset","type":"address"},{"name":"_amount","type":"uint256"},{"name":"_minimumOusdAmount","type":"uint256"}],"outputs":[]},
	{"name":"redeem","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_amount","type":"uint256"},{"name":"_minimumUnitAmount","type":"uint256"}],"outputs":[]}
]`

const flipperABIJSON = `[
	{"name":"buyOusdWithDai","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"sellOusdForDai","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"buyOusdWithUsdt","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"sellOusdForUsdt","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"buyOusdWithUsdc","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
	{"name":"sellOusdForUsdc","type":"function","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const uniswapV3RouterABIJSON = `[
	{"name":"exactInputSingle","type":"function","stateMutability":"payable","inputs":[{"name":"params","type":"tuple","components":[
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"fee","type":"uint24"},
		{"name":"recipient","type":"address"},
		{"name":"deadline","type":"uint256"},
		{"name":"amountIn","type":"uint256"},
		{"name":"amountOutMinimum","type":"uint256"},
		{"name":"sqrtPriceLimitX96","type":"uint160"}
	]}],"outputs":[{"name":"amountOut","type":"uint256"}]}
]`

const uniswapV3QuoterABIJSON = `[
	{"name":"quoteExactInputSingle","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"fee","type":"uint24"},
		{"name":"amountIn","type":"uint256"},
		{"name":"sqrtPriceLimitX96","type":"uint160"}
	],"outputs":[{"name":"amountOut","type":"uint256"}]}
]`

const uniswapV2RouterABIJSON = `[
	{"name":"getAmountsOut","type":"function","stateMutability":"view","inputs":[{"name":"amountIn","type":"uint256"},{"name":"path","type":"address[]"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
	{"name":"swapExactTokensForTokens","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"amountIn","type":"uint256"},
		{"name":"amountOutMin","type":"uint256"},
		{"name":"path","type":"address[]"},
		{"name":"to","type":"address"},
		{"name":"deadline","type":"uint256"}
	],"outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

const curveMetapoolABIJSON = `[
	{"name":"get_dy_underlying","type":"function","stateMutability":"view","inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"exchange_underlying","type":"function","stateMutability":"nonpayable","inputs":[{"name":"i","type":"int128"},{"name":"j","type":"int128"},{"name":"dx","type":"uint256"},{"name":"min_dy","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	vaultABI           = mustParseABI(vaultABIJSON)
	flipperABI         = mustParseABI(flipperABIJSON)
	uniswapV3RouterABI = mustParseABI(uniswapV3RouterABIJSON)
	uniswapV3QuoterABI = mustParseABI(uniswapV3QuoterABIJSON)
	uniswapV2RouterABI = mustParseABI(uniswapV2RouterABIJSON)
	curveMetapoolABI   = mustParseABI(curveMetapoolABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

func callReadonly(
	ctx context.Context,
	caller ContractCaller,
	to ecommon.Address,
	parsed abi.ABI,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	raw, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	out, err := parsed.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return out, nil
}
