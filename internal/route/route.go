package route

import (
	"math/big"

	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/pedrotmr/origin-dollar/internal/coin"
)

// Venue identifies a liquidity source capable of executing a swap.
type Venue string

const (
	VenueVault     Venue = "vault"
	VenueFlipper   Venue = "flipper"
	VenueUniswap   Venue = "uniswap"
	VenueUniswapV2 Venue = "uniswapV2"
	VenueSushiSwap Venue = "sushiswap"
	VenueCurve     Venue = "curve"
)

// Priority is the fixed tie-break order between venues quoting the same
// output. It must match the venue configuration in cmd/worker/main.go.
var Priority = []Venue{
	VenueVault,
	VenueFlipper,
	VenueUniswap,
	VenueCurve,
	VenueUniswapV2,
	VenueSushiSwap,
}

func (v Venue) String() string {
	return string(v)
}

// Direction of a swap: minting OUSD from a stablecoin, or redeeming
// OUSD back into one.
type Direction string

const (
	Mint   Direction = "mint"
	Redeem Direction = "redeem"
)

func (d Direction) String() string {
	return string(d)
}

// Route is one venue's concrete offer for a trade: the estimated output,
// the guaranteed minimum after slippage tolerance, and the contract that
// must hold an allowance before the route can execute.
type Route struct {
	Venue       Venue
	InputCoin   coin.Coin
	OutputCoin  coin.Coin
	AmountIn    *big.Int
	AmountOut   *big.Int
	MinReceived *big.Int
	Spender     ecommon.Address
}

// Usable reports whether the quote can be considered for selection.
// Failed fetches are represented as routes with a nil or zero output.
func (r Route) Usable() bool {
	return r.AmountOut != nil && r.AmountOut.Sign() > 0
}
