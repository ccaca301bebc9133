// Package allowance caches per (coin, spender) ERC-20 allowances and
// answers whether a pending swap needs an approval transaction first.
//
// The cache is written only by the account-data refresher in response to
// confirmed transactions or periodic refresh; the orchestration core only
// reads it. Reads between a confirmation and the refresh that follows it
// may be stale, which callers tolerate.
package allowance

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	ecommon "github.com/ethereum/go-ethereum/common"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/route"
)

// ErrNotLoaded is returned while allowance data has not been fetched yet.
// Callers must block the swap action instead of assuming sufficiency.
var ErrNotLoaded = errors.New("allowances not loaded")

// Unlimited marks an allowance that never needs to be re-raised
// (the result of a MaxUint256 approval).
var Unlimited = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

type key struct {
	coin    coin.Coin
	spender ecommon.Address
}

type Tracker struct {
	mu     sync.RWMutex
	loaded bool
	cache  map[key]*big.Int
}

func NewTracker() *Tracker {
	return &Tracker{
		cache: make(map[key]*big.Int),
	}
}

// Set records the current allowance for (coin, spender). Called by the
// account-data refresher, never by the flows.
func (t *Tracker) Set(c coin.Coin, spender ecommon.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[key{coin: c, spender: spender}] = new(big.Int).Set(amount)
	t.loaded = true
}

// SetUnlimited records a MaxUint256 approval for (coin, spender).
func (t *Tracker) SetUnlimited(c coin.Coin, spender ecommon.Address) {
	t.Set(c, spender, Unlimited)
}

// Get returns the cached allowance for (coin, spender).
func (t *Tracker) Get(c coin.Coin, spender ecommon.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.loaded {
		return nil, ErrNotLoaded
	}
	amount, ok := t.cache[key{coin: c, spender: spender}]
	if !ok {
		return nil, fmt.Errorf("no allowance for %s spender %s: %w", c, spender.Hex(), ErrNotLoaded)
	}
	return new(big.Int).Set(amount), nil
}

// NeedsApproval returns the spender address that must be approved before
// the route can spend amount of its input coin, or nil when the cached
// allowance already covers it. Unlimited is always sufficient.
func (t *Tracker) NeedsApproval(r route.Route, amount *big.Int) (*ecommon.Address, error) {
	current, err := t.Get(r.InputCoin, r.Spender)
	if err != nil {
		return nil, err
	}

	if current.Cmp(Unlimited) >= 0 {
		return nil, nil
	}
	if current.Cmp(amount) >= 0 {
		return nil, nil
	}

	spender := r.Spender
	return &spender, nil
}

// Loaded reports whether any allowance data has arrived yet.
func (t *Tracker) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaded
}
