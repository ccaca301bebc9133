package venue

import (
	"context"
	"fmt"
	"math/big"

	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// Vault is the protocol's own mint/redeem venue. It mints OUSD at one
// dollar per unit and redeems back at the same rate, so quoting is a
// decimal conversion rather than an RPC round trip.
type Vault struct {
	addr   ecommon.Address
	tokens map[coin.Coin]ecommon.Address
}

func NewVault(addr ecommon.Address, tokens map[coin.Coin]ecommon.Address) *Vault {
	return &Vault{
		addr:   addr,
		tokens: tokens,
	}
}

func (v *Vault) Name() route.Venue {
	return route.VenueVault
}

func (v *Vault) Spender() ecommon.Address {
	return v.addr
}

func (v *Vault) Supports(_ route.Direction, stablecoin coin.Coin) bool {
	_, ok := v.tokens[stablecoin]
	return ok && stablecoin.IsStablecoin()
}

func (v *Vault) EstimateOut(_ context.Context, dir route.Direction, stablecoin coin.Coin, amountIn *big.Int) (*big.Int, error) {
	if !v.Supports(dir, stablecoin) {
		return nil, fmt.Errorf("vault does not support %s", stablecoin)
	}

	var from, to coin.Coin
	if dir == route.Mint {
		from, to = stablecoin, coin.OUSD
	} else {
		from, to = coin.OUSD, stablecoin
	}
	return convertDecimals(amountIn, from, to)
}

func (v *Vault) BuildSwap(_ context.Context, trade Trade) (wallet.ContractCall, error) {
	asset, ok := v.tokens[trade.Stablecoin]
	if !ok {
		return wallet.ContractCall{}, fmt.Errorf("vault does not support %s", trade.Stablecoin)
	}

	var data []byte
	var err error
	if trade.Direction == route.Mint {
		data, err = vaultABI.Pack("mint", asset, trade.AmountIn, trade.MinOut)
	} else {
		data, err = vaultABI.Pack("redeem", trade.AmountIn, trade.MinOut)
	}
	if err != nil {
		return wallet.ContractCall{}, fmt.Errorf("failed to pack vault call: %w", err)
	}

	return wallet.ContractCall{To: v.addr, Data: data, Value: big.NewInt(0)}, nil
}

// convertDecimals rescales a 1:1 quote between coins of differing precision.
func convertDecimals(amount *big.Int, from, to coin.Coin) (*big.Int, error) {
	fromDec, err := from.Decimals()
	if err != nil {
		return nil, err
	}
	toDec, err := to.Decimals()
	if err != nil {
		return nil, err
	}

	out := new(big.Int).Set(amount)
	switch {
	case toDec > fromDec:
		out.Mul(out, pow10(toDec-fromDec))
	case toDec < fromDec:
		out.Div(out, pow10(fromDec-toDec))
	}
	return out, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
