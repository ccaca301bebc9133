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

// curveCoinIndex maps coins to their index in the OUSD metapool's
// underlying coin list (0 = OUSD, then the 3pool coins).
var curveCoinIndex = map[coin.Coin]int64{
	coin.OUSD: 0,
	coin.DAI:  1,
	coin.USDC: 2,
	coin.USDT: 3,
}

// Curve swaps through the OUSD metapool's underlying-coin interface.
type Curve struct {
	rpc  ContractCaller
	pool ecommon.Address
}

func NewCurve(rpc ContractCaller, pool ecommon.Address) *Curve {
	return &Curve{
		rpc:  rpc,
		pool: pool,
	}
}

func (c *Curve) Name() route.Venue {
	return route.VenueCurve
}

func (c *Curve) Spender() ecommon.Address {
	return c.pool
}

func (c *Curve) Supports(_ route.Direction, stablecoin coin.Coin) bool {
	_, ok := curveCoinIndex[stablecoin]
	return ok && stablecoin.IsStablecoin()
}

func (c *Curve) indexes(dir route.Direction, stablecoin coin.Coin) (i, j *big.Int, err error) {
	stableIdx, ok := curveCoinIndex[stablecoin]
	if !ok {
		return nil, nil, fmt.Errorf("curve pool does not hold %s", stablecoin)
	}

	if dir == route.Mint {
		return big.NewInt(stableIdx), big.NewInt(curveCoinIndex[coin.OUSD]), nil
	}
	return big.NewInt(curveCoinIndex[coin.OUSD]), big.NewInt(stableIdx), nil
}

func (c *Curve) EstimateOut(ctx context.Context, dir route.Direction, stablecoin coin.Coin, amountIn *big.Int) (*big.Int, error) {
	i, j, err := c.indexes(dir, stablecoin)
	if err != nil {
		return nil, err
	}

	out, err := callReadonly(ctx, c.rpc, c.pool, curveMetapoolABI, "get_dy_underlying", i, j, amountIn)
	if err != nil {
		return nil, fmt.Errorf("failed to quote curve: %w", err)
	}

	dy, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected get_dy_underlying output type %T", out[0])
	}
	return dy, nil
}

func (c *Curve) BuildSwap(_ context.Context, trade Trade) (wallet.ContractCall, error) {
	i, j, err := c.indexes(trade.Direction, trade.Stablecoin)
	if err != nil {
		return wallet.ContractCall{}, err
	}

	data, err := curveMetapoolABI.Pack("exchange_underlying", i, j, trade.AmountIn, trade.MinOut)
	if err != nil {
		return wallet.ContractCall{}, fmt.Errorf("failed to pack exchange_underlying: %w", err)
	}

	return wallet.ContractCall{To: c.pool, Data: data, Value: big.NewInt(0)}, nil
}
