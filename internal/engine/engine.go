// Package engine orchestrates one trade end to end: quote, select,
// approve if needed, execute, confirm.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/allowance"
	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/flow"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/prefs"
	"github.com/pedrotmr/origin-dollar/internal/quote"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/txtracker"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// ErrSwapsDisabled is returned while the global kill switch is on. The
// configured message accompanies it for display.
var ErrSwapsDisabled = errors.New("swaps are disabled")

// TolerancePresets are the selectable price tolerances: 0.1%, 0.5%, 1%
// and 2%. Free-form values are also accepted within [0, 1).
var TolerancePresets = []decimal.Decimal{
	decimal.NewFromFloat(0.001),
	decimal.NewFromFloat(0.005),
	decimal.NewFromFloat(0.01),
	decimal.NewFromFloat(0.02),
}

// Intent is the immutable description of one user-initiated trade.
type Intent struct {
	ID         uuid.UUID
	Direction  route.Direction
	Stablecoin coin.Coin
	AmountIn   *big.Int
	Tolerance  decimal.Decimal
}

// Result is the terminal outcome of one intent.
type Result struct {
	Intent Intent
	Route  route.Route

	// Cancelled is set when the user rejected a signature prompt at any
	// step. Cancellation is silent: no ledger entry, no error.
	Cancelled bool

	Hash  ecommon.Hash
	Mined bool

	// ShowAddNotice is set on the first confirmed mint only.
	ShowAddNotice bool
}

// Engine wires the orchestration core together. One engine serves one
// connected account; user actions are serialized by the caller.
type Engine struct {
	logger          *logrus.Logger
	disabled        bool
	disabledMessage string
	quoter          quote.Quoter
	allowances      *allowance.Tracker
	tokens          map[coin.Coin]ecommon.Address
	approval        *flow.Approval
	swap            *flow.Swap
	tracker         *txtracker.Tracker
	prefs           prefs.Store
}

func New(
	logger *logrus.Logger,
	disabled bool,
	disabledMessage string,
	quoter quote.Quoter,
	allowances *allowance.Tracker,
	tokens map[coin.Coin]ecommon.Address,
	approval *flow.Approval,
	swapFlow *flow.Swap,
	tracker *txtracker.Tracker,
	prefStore prefs.Store,
) *Engine {
	return &Engine{
		logger:          logger.WithField("pkg", "engine.Engine").Logger,
		disabled:        disabled,
		disabledMessage: disabledMessage,
		quoter:          quoter,
		allowances:      allowances,
		tokens:          tokens,
		approval:        approval,
		swap:            swapFlow,
		tracker:         tracker,
		prefs:           prefStore,
	}
}

// DisabledMessage returns the user-facing text for the kill switch.
func (e *Engine) DisabledMessage() string {
	return e.disabledMessage
}

// BestRoute fetches fresh quotes for the intent and selects the best
// one. route.ErrNoRoute means the swap action should be disabled, not
// surfaced as an error banner.
func (e *Engine) BestRoute(ctx context.Context, intent Intent) (route.Route, error) {
	quotes, err := e.quoter.GetQuotes(ctx, intent.Direction, intent.Stablecoin, intent.AmountIn, intent.Tolerance)
	if err != nil {
		return route.Route{}, fmt.Errorf("failed to fetch quotes: %w", err)
	}
	return route.SelectBest(quotes)
}

// Swap drives the intent to a terminal state: select a route, raise the
// allowance if the tracker says one is needed, execute and await
// confirmation. Approval confirmation is strictly ordered before swap
// submission.
func (e *Engine) Swap(ctx context.Context, intent Intent) (*Result, error) {
	if e.disabled {
		return nil, fmt.Errorf("%w: %s", ErrSwapsDisabled, e.disabledMessage)
	}

	best, err := e.BestRoute(ctx, intent)
	if err != nil {
		return nil, err
	}

	log := e.logger.WithFields(logrus.Fields{
		"intent":    intent.ID.String(),
		"direction": intent.Direction.String(),
		"coin":      intent.Stablecoin.String(),
		"venue":     best.Venue.String(),
	})

	spender, err := e.allowances.NeedsApproval(best, intent.AmountIn)
	if err != nil {
		// Covers the not-loaded condition: block the action rather than
		// assume the allowance is sufficient.
		return nil, fmt.Errorf("cannot determine approval need: %w", err)
	}

	result := &Result{Intent: intent, Route: best}

	if spender != nil {
		token, ok := e.tokens[best.InputCoin]
		if !ok {
			return nil, fmt.Errorf("no token address for %s", best.InputCoin)
		}

		log.WithField("spender", spender.Hex()).Info("allowance too low, approval required")
		confirmed, err := e.approval.Approve(ctx, best.InputCoin, token, *spender)
		e.approval.Reset()
		if err != nil {
			return nil, err
		}
		if !confirmed {
			result.Cancelled = true
			return result, nil
		}
	}

	sub, err := e.swap.Execute(ctx, best)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		result.Cancelled = true
		return result, nil
	}

	result.Hash = sub.Hash
	e.rememberSelection(intent)

	confirm, err := e.swap.AwaitConfirmation(ctx, *sub)
	if err != nil {
		return nil, err
	}

	result.Mined = confirm.Mined
	result.ShowAddNotice = confirm.ShowAddNotice
	log.WithField("hash", sub.Hash.Hex()).Info("swap complete")
	return result, nil
}

// ExplainFailure maps a flow error to the banner text shown to the user.
func (e *Engine) ExplainFailure(err error) string {
	return wallet.Explain(err)
}

// PendingMintTotal sums the synthetic-token amounts of unmined mints, so
// the caller can warn that the displayed balance excludes them.
func (e *Engine) PendingMintTotal() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range e.tracker.Pending(ledger.TxMint) {
		amount, ok := tx.Amounts[coin.OUSD]
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			continue
		}
		total = total.Add(d)
	}
	return total
}

// rememberSelection persists the last used coin and mode so the next
// session opens where this one left off.
func (e *Engine) rememberSelection(intent Intent) {
	if err := e.prefs.Set(prefs.KeyLastCoin, intent.Stablecoin.String()); err != nil {
		e.logger.WithError(err).Warn("failed to persist coin preference")
	}
	if err := e.prefs.Set(prefs.KeyLastMode, intent.Direction.String()); err != nil {
		e.logger.WithError(err).Warn("failed to persist mode preference")
	}
}

// ApplySelection resolves the user picking a coin on the input side.
// Picking OUSD flips the mode instead of changing the stablecoin side;
// picking a stablecoin keeps the mode and changes the pair.
func ApplySelection(dir route.Direction, stablecoin, picked coin.Coin) (route.Direction, coin.Coin) {
	if picked == coin.OUSD {
		if dir == route.Mint {
			return route.Redeem, stablecoin
		}
		return route.Mint, stablecoin
	}
	return dir, picked
}

// LastSelection returns the persisted coin and mode, with mint/DAI
// defaults for a first session.
func (e *Engine) LastSelection() (coin.Coin, route.Direction) {
	c := coin.DAI
	if v, ok := e.prefs.Get(prefs.KeyLastCoin); ok {
		if parsed, err := coin.FromString(v); err == nil && parsed.IsStablecoin() {
			c = parsed
		}
	}

	dir := route.Mint
	if v, ok := e.prefs.Get(prefs.KeyLastMode); ok && route.Direction(v) == route.Redeem {
		dir = route.Redeem
	}
	return c, dir
}
