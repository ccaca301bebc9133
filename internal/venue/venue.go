// Package venue holds one capability object per liquidity venue. Each
// capability knows its spender contract, can estimate the output for a
// trade, and can build the route-specific execution call. Venue dispatch
// is a registry lookup, not a conditional chain.
package venue

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// ErrUnknownVenue is returned when a selected route names a venue the
// registry does not hold. The source this replaces silently no-opped here.
var ErrUnknownVenue = errors.New("unknown venue")

// Trade is the venue-independent description of one execution:
// the stablecoin side of the pair, the direction, the exact input and
// the minimum acceptable output in the output coin's base units.
type Trade struct {
	Direction  route.Direction
	Stablecoin coin.Coin
	AmountIn   *big.Int
	MinOut     *big.Int
	Recipient  ecommon.Address
}

// InputCoin returns the coin being spent: the stablecoin when minting,
// OUSD when redeeming.
func (t Trade) InputCoin() coin.Coin {
	if t.Direction == route.Mint {
		return t.Stablecoin
	}
	return coin.OUSD
}

// OutputCoin returns the coin being received.
func (t Trade) OutputCoin() coin.Coin {
	if t.Direction == route.Mint {
		return coin.OUSD
	}
	return t.Stablecoin
}

// Capability is one venue's contract surface.
type Capability interface {
	Name() route.Venue

	// Spender is the contract that must hold an allowance on the trade's
	// input coin before BuildSwap's call can execute.
	Spender() ecommon.Address

	// Supports reports whether the venue can execute the pair at all.
	Supports(dir route.Direction, stablecoin coin.Coin) bool

	// EstimateOut returns the expected output for the trade's input amount.
	EstimateOut(ctx context.Context, dir route.Direction, stablecoin coin.Coin, amountIn *big.Int) (*big.Int, error)

	// BuildSwap builds the unsigned execution call, with the min-received
	// bound baked in so underpriced execution fails on-chain.
	BuildSwap(ctx context.Context, trade Trade) (wallet.ContractCall, error)
}

// Registry maps venue names to capabilities.
type Registry struct {
	byName map[route.Venue]Capability
}

func NewRegistry(caps ...Capability) *Registry {
	byName := make(map[route.Venue]Capability, len(caps))
	for _, c := range caps {
		byName[c.Name()] = c
	}
	return &Registry{byName: byName}
}

func (r *Registry) Get(name route.Venue) (Capability, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVenue, name)
	}
	return c, nil
}

// All returns every registered capability in priority order.
func (r *Registry) All() []Capability {
	out := make([]Capability, 0, len(r.byName))
	for _, name := range route.Priority {
		if c, ok := r.byName[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// CheckCoverage verifies that every direction and stablecoin pair is
// executable by at least one registered venue.
func (r *Registry) CheckCoverage() error {
	for _, dir := range []route.Direction{route.Mint, route.Redeem} {
		for _, c := range coin.Stablecoins {
			covered := false
			for _, v := range r.byName {
				if v.Supports(dir, c) {
					covered = true
					break
				}
			}
			if !covered {
				return fmt.Errorf("no venue supports %s %s", dir, c)
			}
		}
	}
	return nil
}
