package flow

import (
	"context"
	"fmt"
	"sync"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/prefs"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/telemetry"
	"github.com/pedrotmr/origin-dollar/internal/txtracker"
	"github.com/pedrotmr/origin-dollar/internal/venue"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// Submission is the outcome of a successful swap submission.
type Submission struct {
	Hash      ecommon.Hash
	Type      ledger.TxType
	Direction route.Direction
}

// ConfirmResult reports how a submitted swap resolved on-chain.
type ConfirmResult struct {
	Mined bool

	// ShowAddNotice is set the first time one of this user's mints
	// confirms, and never again.
	ShowAddNotice bool
}

// Swap drives one trade through signing and submission. Confirmation is
// awaited separately so a dropped transaction never wedges the flow.
type Swap struct {
	logger    *logrus.Logger
	provider  wallet.Provider
	registry  *venue.Registry
	tracker   *txtracker.Tracker
	prefs     prefs.Store
	telemetry telemetry.Emitter
	reset     ResetPolicy

	mu    sync.Mutex
	state State
}

func NewSwap(
	logger *logrus.Logger,
	provider wallet.Provider,
	registry *venue.Registry,
	tracker *txtracker.Tracker,
	prefStore prefs.Store,
	emitter telemetry.Emitter,
	reset ResetPolicy,
) *Swap {
	return &Swap{
		logger:    logger.WithField("pkg", "flow.Swap").Logger,
		provider:  provider,
		registry:  registry,
		tracker:   tracker,
		prefs:     prefStore,
		telemetry: emitter,
		reset:     reset,
		state:     StateIdle,
	}
}

func (s *Swap) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Swap) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// forceIdle resets a flow stuck awaiting a signature. Signers that
// swallow their rejection signal never resolve the Submit call.
func (s *Swap) forceIdle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAwaitingSignature {
		s.state = StateIdle
		s.logger.Warn("signature wait exceeded reset deadline, forcing flow back to idle")
	}
}

// Execute signs and submits the selected route. A user rejection returns
// (nil, nil) with no ledger entry; any other failure records a failed
// transaction and returns the error. On success the pending transaction
// carries both the input and output amounts and the flow is left
// awaiting network confirmation.
func (s *Swap) Execute(ctx context.Context, r route.Route) (*Submission, error) {
	if s.State() != StateIdle {
		return nil, fmt.Errorf("swap already in progress (state %s)", s.State())
	}

	dir := route.Mint
	stablecoin := r.InputCoin
	if r.InputCoin == coin.OUSD {
		dir = route.Redeem
		stablecoin = r.OutputCoin
	}
	txType := swapTxType(r.Venue, dir)

	c, err := s.registry.Get(r.Venue)
	if err != nil {
		return nil, err
	}

	call, err := c.BuildSwap(ctx, venue.Trade{
		Direction:  dir,
		Stablecoin: stablecoin,
		AmountIn:   r.AmountIn,
		MinOut:     r.MinReceived,
		Recipient:  s.provider.ConnectedAccount(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build swap call: %w", err)
	}

	s.setState(StateAwaitingSignature)
	s.telemetry.Emit(telemetry.CategorySwap, "submit", r.Venue.String(), 1)

	var resetTimer *time.Timer
	if s.reset.ForceResetAfter > 0 {
		resetTimer = time.AfterFunc(s.reset.ForceResetAfter, s.forceIdle)
	}

	hash, err := s.provider.Submit(ctx, call)
	if resetTimer != nil {
		resetTimer.Stop()
	}

	if err != nil {
		s.setState(StateIdle)

		if wallet.IsRejection(err) {
			s.telemetry.Emit(telemetry.CategorySwap, "rejected", r.Venue.String(), 1)
			s.logger.WithField("venue", r.Venue.String()).Info("user rejected swap")
			return nil, nil
		}

		s.telemetry.Emit(telemetry.CategorySwap, "failed", r.Venue.String(), 1)
		if rerr := s.tracker.RecordFailure(ctx, txType, r.InputCoin, amounts(r)); rerr != nil {
			s.logger.WithError(rerr).Error("failed to record swap failure")
		}
		return nil, fmt.Errorf("failed to submit swap: %w", err)
	}

	s.setState(StateAwaitingConfirmation)
	if err := s.tracker.Record(ctx, hash, txType, r.InputCoin, amounts(r)); err != nil {
		s.logger.WithError(err).Error("failed to record pending swap")
	}

	s.telemetry.Emit(telemetry.CategorySwap, "submitted", r.Venue.String(), 1)
	s.logger.WithFields(logrus.Fields{
		"venue": r.Venue.String(),
		"type":  txType.String(),
		"hash":  hash.Hex(),
	}).Info("swap submitted")

	return &Submission{Hash: hash, Type: txType, Direction: dir}, nil
}

// AwaitConfirmation blocks until the submitted swap resolves, returns
// the flow to idle and reports whether the one-time post-mint notice is
// due. Callers run it in a goroutine; the wait may never resolve for a
// dropped transaction.
func (s *Swap) AwaitConfirmation(ctx context.Context, sub Submission) (*ConfirmResult, error) {
	defer s.setState(StateIdle)

	if err := s.tracker.Watch(ctx, sub.Hash); err != nil {
		s.telemetry.Emit(telemetry.CategorySwap, "confirm_failed", sub.Type.String(), 1)
		return nil, fmt.Errorf("failed to confirm swap: %w", err)
	}

	s.telemetry.Emit(telemetry.CategorySwap, "confirmed", sub.Type.String(), 1)

	result := &ConfirmResult{Mined: true}
	if sub.Direction == route.Mint {
		if _, shown := s.prefs.Get(prefs.KeyOUSDNoticeShown); !shown {
			result.ShowAddNotice = true
			if err := s.prefs.Set(prefs.KeyOUSDNoticeShown, "true"); err != nil {
				s.logger.WithError(err).Warn("failed to persist notice preference")
			}
		}
	}
	return result, nil
}

func swapTxType(v route.Venue, dir route.Direction) ledger.TxType {
	if v == route.VenueVault {
		if dir == route.Mint {
			return ledger.TxMint
		}
		return ledger.TxRedeem
	}
	return ledger.TxSwap
}

// amounts renders both sides of the trade in human units for the ledger.
func amounts(r route.Route) map[coin.Coin]string {
	out := make(map[coin.Coin]string, 2)

	if dec, err := r.InputCoin.Decimals(); err == nil {
		out[r.InputCoin] = coin.FromBaseUnits(r.AmountIn, dec)
	}
	if dec, err := r.OutputCoin.Decimals(); err == nil && r.AmountOut != nil {
		out[r.OutputCoin] = coin.FromBaseUnits(r.AmountOut, dec)
	}
	return out
}
