// Package erc20 builds and reads the token-contract calls the account
// layer needs: approvals, allowances and balances.
package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// ContractCaller is the read-only RPC surface needed for token reads.
// *ethclient.Client satisfies it.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

const erc20ABIJSON = `[
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid erc20 abi: %v", err))
	}
	return parsed
}()

// BuildApprove builds an unsigned approve(spender, amount) call against
// the token contract.
func BuildApprove(token, spender ecommon.Address, amount *big.Int) (wallet.ContractCall, error) {
	data, err := erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return wallet.ContractCall{}, fmt.Errorf("failed to pack approve: %w", err)
	}
	return wallet.ContractCall{To: token, Data: data, Value: big.NewInt(0)}, nil
}

// Allowance reads allowance(owner, spender) from the token contract.
func Allowance(ctx context.Context, rpc ContractCaller, token, owner, spender ecommon.Address) (*big.Int, error) {
	return readUint(ctx, rpc, token, "allowance", owner, spender)
}

// BalanceOf reads balanceOf(account) from the token contract.
func BalanceOf(ctx context.Context, rpc ContractCaller, token, account ecommon.Address) (*big.Int, error) {
	return readUint(ctx, rpc, token, "balanceOf", account)
}

func readUint(ctx context.Context, rpc ContractCaller, token ecommon.Address, method string, args ...any) (*big.Int, error) {
	data, err := erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	raw, err := rpc.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, token.Hex(), err)
	}

	out, err := erc20ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output type %T", method, out[0])
	}
	return value, nil
}
