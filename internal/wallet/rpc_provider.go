package wallet

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// SignerFn signs an unsigned transaction. Implementations wrap the actual
// wallet (browser extension bridge, hardware wallet, test key); the engine
// never touches key material itself. A user declining the prompt must
// surface as an *Error with CodeUserRejected.
type SignerFn func(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)

// RPCProvider implements Provider over an Ethereum JSON-RPC endpoint with
// signing delegated to a SignerFn.
type RPCProvider struct {
	rpc     *ethclient.Client
	chainID *big.Int
	account ecommon.Address
	sign    SignerFn

	pollInterval time.Duration
}

func NewRPCProvider(ctx context.Context, rpcURL string, account ecommon.Address, sign SignerFn) (*RPCProvider, error) {
	rpc, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	return &RPCProvider{
		rpc:          rpc,
		chainID:      chainID,
		account:      account,
		sign:         sign,
		pollInterval: time.Second,
	}, nil
}

func (p *RPCProvider) ConnectedAccount() ecommon.Address {
	return p.account
}

// Client exposes the underlying RPC client for read-only collaborators
// (venue quoting, balance refresh).
func (p *RPCProvider) Client() *ethclient.Client {
	return p.rpc
}

func (p *RPCProvider) Submit(ctx context.Context, call ContractCall) (ecommon.Hash, error) {
	nonce, err := p.rpc.PendingNonceAt(ctx, p.account)
	if err != nil {
		return ecommon.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := p.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return ecommon.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
	}

	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit, err := p.rpc.EstimateGas(ctx, ethereum.CallMsg{
		From:  p.account,
		To:    &call.To,
		Value: value,
		Data:  call.Data,
	})
	if err != nil {
		return ecommon.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}

	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     call.Data,
	})

	signed, err := p.sign(ctx, unsigned)
	if err != nil {
		// Rejections pass through unwrapped so IsRejection keeps working
		if IsRejection(err) {
			return ecommon.Hash{}, err
		}
		return ecommon.Hash{}, fmt.Errorf("failed to sign tx: %w", err)
	}

	if err := p.rpc.SendTransaction(ctx, signed); err != nil {
		return ecommon.Hash{}, fmt.Errorf("failed to broadcast tx: %w", err)
	}
	return signed.Hash(), nil
}

func (p *RPCProvider) WaitForConfirmation(ctx context.Context, txHash ecommon.Hash) (*Receipt, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			receipt, err := p.rpc.TransactionReceipt(ctx, txHash)
			if err != nil {
				// Not mined yet
				continue
			}
			return &Receipt{
				TxHash:      txHash,
				BlockNumber: receipt.BlockNumber,
				Success:     receipt.Status == types.ReceiptStatusSuccessful,
			}, nil
		}
	}
}
