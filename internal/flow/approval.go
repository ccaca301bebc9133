package flow

import (
	"context"
	"fmt"
	"sync"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/allowance"
	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/erc20"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/telemetry"
	"github.com/pedrotmr/origin-dollar/internal/txtracker"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// Approval drives one allowance-raising transaction to completion.
// The requested amount is always the maximum representable value, so one
// approval covers every later trade against the same spender.
type Approval struct {
	logger    *logrus.Logger
	provider  wallet.Provider
	tracker   *txtracker.Tracker
	telemetry telemetry.Emitter

	mu    sync.Mutex
	state State
}

func NewApproval(
	logger *logrus.Logger,
	provider wallet.Provider,
	tracker *txtracker.Tracker,
	emitter telemetry.Emitter,
) *Approval {
	return &Approval{
		logger:    logger.WithField("pkg", "flow.Approval").Logger,
		provider:  provider,
		tracker:   tracker,
		telemetry: emitter,
		state:     StateIdle,
	}
}

func (a *Approval) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Approval) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// Approve submits a max-allowance approval of spender on the coin's
// token contract and blocks until it confirms. It returns true only when
// the approval reached confirmed; a user rejection returns (false, nil)
// silently, any other failure returns (false, err) after recording a
// failed transaction.
func (a *Approval) Approve(ctx context.Context, c coin.Coin, token, spender ecommon.Address) (bool, error) {
	if a.State() != StateIdle {
		return false, fmt.Errorf("approval already in progress (state %s)", a.State())
	}

	a.setState(StateSubmitting)
	a.telemetry.Emit(telemetry.CategoryApproval, "submit", c.String(), 1)

	call, err := erc20.BuildApprove(token, spender, allowance.Unlimited)
	if err != nil {
		a.setState(StateIdle)
		return false, fmt.Errorf("failed to build approve call: %w", err)
	}

	hash, err := a.provider.Submit(ctx, call)
	if err != nil {
		a.setState(StateIdle)

		if wallet.IsRejection(err) {
			a.telemetry.Emit(telemetry.CategoryApproval, "rejected", c.String(), 1)
			a.logger.WithField("coin", c.String()).Info("user rejected approval")
			return false, nil
		}

		a.telemetry.Emit(telemetry.CategoryApproval, "failed", c.String(), 1)
		if rerr := a.tracker.RecordFailure(ctx, ledger.TxApprove, c, nil); rerr != nil {
			a.logger.WithError(rerr).Error("failed to record approval failure")
		}
		return false, fmt.Errorf("failed to submit approval: %w", err)
	}

	a.setState(StateAwaitingConfirmation)
	if err := a.tracker.Record(ctx, hash, ledger.TxApprove, c, nil); err != nil {
		a.logger.WithError(err).Error("failed to record pending approval")
	}

	if err := a.tracker.Watch(ctx, hash); err != nil {
		a.setState(StateIdle)
		a.telemetry.Emit(telemetry.CategoryApproval, "failed", c.String(), 1)
		return false, fmt.Errorf("failed to confirm approval: %w", err)
	}

	a.setState(StateConfirmed)
	a.telemetry.Emit(telemetry.CategoryApproval, "confirmed", c.String(), 1)
	a.logger.WithFields(logrus.Fields{
		"coin":    c.String(),
		"spender": spender.Hex(),
		"hash":    hash.Hex(),
	}).Info("approval confirmed")
	return true, nil
}

// Reset returns a confirmed or idle approval to idle so the instance can
// serve the next user action.
func (a *Approval) Reset() {
	a.setState(StateIdle)
}
