package wallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// NewKeySigner builds a SignerFn over a raw hex private key, for
// headless deployments where no interactive wallet is attached. Returns
// the signer and the account it controls.
func NewKeySigner(hexKey string, chainID *big.Int) (SignerFn, ecommon.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, ecommon.Address{}, fmt.Errorf("failed to parse private key: %w", err)
	}

	account := crypto.PubkeyToAddress(key.PublicKey)
	signer := types.LatestSignerForChainID(chainID)

	return func(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
		signed, err := types.SignTx(tx, signer, key)
		if err != nil {
			return nil, fmt.Errorf("failed to sign transaction: %w", err)
		}
		return signed, nil
	}, account, nil
}
