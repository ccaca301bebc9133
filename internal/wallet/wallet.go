// Package wallet defines the signer/provider capability the orchestration
// core consumes. Submitting a call prompts the connected wallet for a
// signature; the wallet may reject with a recognizable user-rejection code.
package wallet

import (
	"context"
	"math/big"

	ecommon "github.com/ethereum/go-ethereum/common"
)

// ContractCall is one unsigned contract invocation.
type ContractCall struct {
	To    ecommon.Address
	Data  []byte
	Value *big.Int
}

// Receipt is the confirmation result for a submitted transaction.
type Receipt struct {
	TxHash      ecommon.Hash
	BlockNumber *big.Int
	Success     bool
}

// Provider is the wallet capability: an account, a way to submit a signed
// call, and a way to await its confirmation. WaitForConfirmation may take
// unbounded time or never resolve for a dropped transaction; callers must
// not block UI state on it.
type Provider interface {
	ConnectedAccount() ecommon.Address
	Submit(ctx context.Context, call ContractCall) (ecommon.Hash, error)
	WaitForConfirmation(ctx context.Context, txHash ecommon.Hash) (*Receipt, error)
}
