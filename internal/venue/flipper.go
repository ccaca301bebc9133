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

// flipperMethods maps (direction, stablecoin) to the Flipper's fixed-rate
// swap entrypoint. The amount argument is always denominated in OUSD units.
var flipperMethods = map[route.Direction]map[coin.Coin]string{
	route.Mint: {
		coin.DAI:  "buyOusdWithDai",
		coin.USDT: "buyOusdWithUsdt",
		coin.USDC: "buyOusdWithUsdc",
	},
	route.Redeem: {
		coin.DAI:  "sellOusdForDai",
		coin.USDT: "sellOusdForUsdt",
		coin.USDC: "sellOusdForUsdc",
	},
}

// Flipper swaps stablecoins and OUSD at exactly one-to-one, within the
// contract's float. Quotes are a pure decimal conversion.
type Flipper struct {
	addr ecommon.Address
}

func NewFlipper(addr ecommon.Address) *Flipper {
	return &Flipper{addr: addr}
}

func (f *Flipper) Name() route.Venue {
	return route.VenueFlipper
}

func (f *Flipper) Spender() ecommon.Address {
	return f.addr
}

func (f *Flipper) Supports(dir route.Direction, stablecoin coin.Coin) bool {
	_, ok := flipperMethods[dir][stablecoin]
	return ok
}

func (f *Flipper) EstimateOut(_ context.Context, dir route.Direction, stablecoin coin.Coin, amountIn *big.Int) (*big.Int, error) {
	if !f.Supports(dir, stablecoin) {
		return nil, fmt.Errorf("flipper does not support %s %s", dir, stablecoin)
	}

	var from, to coin.Coin
	if dir == route.Mint {
		from, to = stablecoin, coin.OUSD
	} else {
		from, to = coin.OUSD, stablecoin
	}
	return convertDecimals(amountIn, from, to)
}

func (f *Flipper) BuildSwap(_ context.Context, trade Trade) (wallet.ContractCall, error) {
	method, ok := flipperMethods[trade.Direction][trade.Stablecoin]
	if !ok {
		return wallet.ContractCall{}, fmt.Errorf("flipper does not support %s %s", trade.Direction, trade.Stablecoin)
	}

	// The Flipper trades at a fixed rate, so the amount is the slippage
	// bound: pass the OUSD-denominated side.
	amount := trade.AmountIn
	if trade.Direction == route.Mint {
		converted, err := convertDecimals(trade.AmountIn, trade.Stablecoin, coin.OUSD)
		if err != nil {
			return wallet.ContractCall{}, err
		}
		amount = converted
	}

	data, err := flipperABI.Pack(method, amount)
	if err != nil {
		return wallet.ContractCall{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	return wallet.ContractCall{To: f.addr, Data: data, Value: big.NewInt(0)}, nil
}
