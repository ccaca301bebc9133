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

const (
	// The OUSD/USDT pool is 0.05%; stable pairs don't need more.
	uniswapV3PoolFee = 500

	txDeadline = 10 * time.Minute
)

// UniswapV3 routes single-hop swaps through the v3 SwapRouter, quoting
// through the on-chain Quoter.
type UniswapV3 struct {
	rpc    ContractCaller
	router ecommon.Address
	quoter ecommon.Address
	tokens map[coin.Coin]ecommon.Address
}

func NewUniswapV3(rpc ContractCaller, router, quoter ecommon.Address, tokens map[coin.Coin]ecommon.Address) *UniswapV3 {
	return &UniswapV3{
		rpc:    rpc,
		router: router,
		quoter: quoter,
		tokens: tokens,
	}
}

func (u *UniswapV3) Name() route.Venue {
	return route.VenueUniswap
}

func (u *UniswapV3) Spender() ecommon.Address {
	return u.router
}

func (u *UniswapV3) Supports(_ route.Direction, stablecoin coin.Coin) bool {
	_, ok := u.tokens[stablecoin]
	if !ok {
		return false
	}
	_, ok = u.tokens[coin.OUSD]
	return ok
}

func (u *UniswapV3) pair(dir route.Direction, stablecoin coin.Coin) (tokenIn, tokenOut ecommon.Address, err error) {
	stable, ok := u.tokens[stablecoin]
	if !ok {
		return ecommon.Address{}, ecommon.Address{}, fmt.Errorf("uniswap has no token address for %s", stablecoin)
	}
	ousd, ok := u.tokens[coin.OUSD]
	if !ok {
		return ecommon.Address{}, ecommon.Address{}, fmt.Errorf("uniswap has no token address for ousd")
	}

	if dir == route.Mint {
		return stable, ousd, nil
	}
	return ousd, stable, nil
}

func (u *UniswapV3) EstimateOut(ctx context.Context, dir route.Direction, stablecoin coin.Coin, amountIn *big.Int) (*big.Int, error) {
	tokenIn, tokenOut, err := u.pair(dir, stablecoin)
	if err != nil {
		return nil, err
	}

	out, err := callReadonly(
		ctx,
		u.rpc,
		u.quoter,
		uniswapV3QuoterABI,
		"quoteExactInputSingle",
		tokenIn,
		tokenOut,
		big.NewInt(uniswapV3PoolFee),
		amountIn,
		big.NewInt(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to quote uniswap v3: %w", err)
	}

	amountOut, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected quoter output type %T", out[0])
	}
	return amountOut, nil
}

func (u *UniswapV3) BuildSwap(_ context.Context, trade Trade) (wallet.ContractCall, error) {
	tokenIn, tokenOut, err := u.pair(trade.Direction, trade.Stablecoin)
	if err != nil {
		return wallet.ContractCall{}, err
	}

	params := struct {
		TokenIn           ecommon.Address
		TokenOut          ecommon.Address
		Fee               *big.Int
		Recipient         ecommon.Address
		Deadline          *big.Int
		AmountIn          *big.Int
		AmountOutMinimum  *big.Int
		SqrtPriceLimitX96 *big.Int
	}{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               big.NewInt(uniswapV3PoolFee),
		Recipient:         trade.Recipient,
		Deadline:          big.NewInt(time.Now().Add(txDeadline).Unix()),
		AmountIn:          trade.AmountIn,
		AmountOutMinimum:  trade.MinOut,
		SqrtPriceLimitX96: big.NewInt(0),
	}

	data, err := uniswapV3RouterABI.Pack("exactInputSingle", params)
	if err != nil {
		return wallet.ContractCall{}, fmt.Errorf("failed to pack exactInputSingle: %w", err)
	}

	return wallet.ContractCall{To: u.router, Data: data, Value: big.NewInt(0)}, nil
}
