package venue

import (
	"context"
	"fmt"
	"math/big"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// UniswapV2 routes swaps through a v2-style router. SushiSwap shares the
// router interface, so both venues are this type with different names.
type UniswapV2 struct {
	name   route.Venue
	rpc    ContractCaller
	router ecommon.Address
	tokens map[coin.Coin]ecommon.Address
}

func NewUniswapV2(rpc ContractCaller, router ecommon.Address, tokens map[coin.Coin]ecommon.Address) *UniswapV2 {
	return &UniswapV2{
		name:   route.VenueUniswapV2,
		rpc:    rpc,
		router: router,
		tokens: tokens,
	}
}

func NewSushiSwap(rpc ContractCaller, router ecommon.Address, tokens map[coin.Coin]ecommon.Address) *UniswapV2 {
	return &UniswapV2{
		name:   route.VenueSushiSwap,
		rpc:    rpc,
		router: router,
		tokens: tokens,
	}
}

func (u *UniswapV2) Name() route.Venue {
	return u.name
}

func (u *UniswapV2) Spender() ecommon.Address {
	return u.router
}

func (u *UniswapV2) Supports(_ route.Direction, stablecoin coin.Coin) bool {
	_, ok := u.tokens[stablecoin]
	if !ok {
		return false
	}
	_, ok = u.tokens[coin.OUSD]
	return ok
}

func (u *UniswapV2) path(dir route.Direction, stablecoin coin.Coin) ([]ecommon.Address, error) {
	stable, ok := u.tokens[stablecoin]
	if !ok {
		return nil, fmt.Errorf("%s has no token address for %s", u.name, stablecoin)
	}
	ousd, ok := u.tokens[coin.OUSD]
	if !ok {
		return nil, fmt.Errorf("%s has no token address for ousd", u.name)
	}

	if dir == route.Mint {
		return []ecommon.Address{stable, ousd}, nil
	}
	return []ecommon.Address{ousd, stable}, nil
}

func (u *UniswapV2) EstimateOut(ctx context.Context, dir route.Direction, stablecoin coin.Coin, amountIn *big.Int) (*big.Int, error) {
	path, err := u.path(dir, stablecoin)
	if err != nil {
		return nil, err
	}

	out, err := callReadonly(ctx, u.rpc, u.router, uniswapV2RouterABI, "getAmountsOut", amountIn, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get amounts out: %w", err)
	}

	amounts, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getAmountsOut output type %T", out[0])
	}
	if len(amounts) == 0 {
		return nil, fmt.Errorf("unexpected empty amountsOut")
	}
	return amounts[len(amounts)-1], nil
}

func (u *UniswapV2) BuildSwap(_ context.Context, trade Trade) (wallet.ContractCall, error) {
	path, err := u.path(trade.Direction, trade.Stablecoin)
	if err != nil {
		return wallet.ContractCall{}, err
	}

	deadline := big.NewInt(time.Now().Add(txDeadline).Unix())
	data, err := uniswapV2RouterABI.Pack(
		"swapExactTokensForTokens",
		trade.AmountIn,
		trade.MinOut,
		path,
		trade.Recipient,
		deadline,
	)
	if err != nil {
		return wallet.ContractCall{}, fmt.Errorf("failed to pack swapExactTokensForTokens: %w", err)
	}

	return wallet.ContractCall{To: u.router, Data: data, Value: big.NewInt(0)}, nil
}
