// Package account owns the per-account snapshot: token balances and the
// allowance cache. It is the only writer of both; the orchestration core
// reads them and tolerates staleness between a confirmation and the
// refresh that follows it.
package account

import (
	"context"
	"math/big"
	"sync"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/allowance"
	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/erc20"
	"github.com/pedrotmr/origin-dollar/internal/venue"
)

// Refresher re-reads every token balance and every (coin, spender)
// allowance for the connected account.
type Refresher struct {
	logger     *logrus.Logger
	rpc        erc20.ContractCaller
	account    ecommon.Address
	tokens     map[coin.Coin]ecommon.Address
	registry   *venue.Registry
	allowances *allowance.Tracker

	mu       sync.RWMutex
	balances map[coin.Coin]*big.Int
}

func NewRefresher(
	logger *logrus.Logger,
	rpc erc20.ContractCaller,
	account ecommon.Address,
	tokens map[coin.Coin]ecommon.Address,
	registry *venue.Registry,
	allowances *allowance.Tracker,
) *Refresher {
	return &Refresher{
		logger:     logger.WithField("pkg", "account.Refresher").Logger,
		rpc:        rpc,
		account:    account,
		tokens:     tokens,
		registry:   registry,
		allowances: allowances,
		balances:   make(map[coin.Coin]*big.Int),
	}
}

// Refresh re-reads all balances and allowances. Individual read failures
// are logged and skipped so one flaky token contract cannot block the
// rest of the snapshot.
func (r *Refresher) Refresh(ctx context.Context) {
	for c, token := range r.tokens {
		balance, err := erc20.BalanceOf(ctx, r.rpc, token, r.account)
		if err != nil {
			r.logger.WithError(err).WithField("coin", c.String()).Warn("failed to read balance")
		} else {
			r.mu.Lock()
			r.balances[c] = balance
			r.mu.Unlock()
		}

		for _, v := range r.registry.All() {
			spender := v.Spender()
			amount, err := erc20.Allowance(ctx, r.rpc, token, r.account, spender)
			if err != nil {
				r.logger.WithError(err).WithFields(logrus.Fields{
					"coin":    c.String(),
					"spender": spender.Hex(),
				}).Warn("failed to read allowance")
				continue
			}
			r.allowances.Set(c, spender, amount)
		}
	}
}

// Balance returns the cached balance for a coin, or nil before the first
// successful refresh of that coin.
func (r *Refresher) Balance(c coin.Coin) *big.Int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.balances[c]
	if !ok {
		return nil
	}
	return new(big.Int).Set(b)
}

// Run refreshes immediately and then on the given interval until the
// context is cancelled.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	r.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}
