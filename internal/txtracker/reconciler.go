package txtracker

import (
	"context"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/metrics"
)

// ReceiptFetcher is the RPC surface reconciliation needs.
// *ethclient.Client satisfies it.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash ecommon.Hash) (*types.Receipt, error)
}

// Reconciler sweeps pending ledger entries against the chain. It covers
// transactions whose submitting process went away before confirmation:
// mined entries are finalized, entries unseen past the lost deadline are
// marked lost.
type Reconciler struct {
	logger        *logrus.Logger
	store         ledger.Store
	rpc           ReceiptFetcher
	metrics       *metrics.TrackerMetrics
	markLostAfter time.Duration
}

func NewReconciler(
	logger *logrus.Logger,
	store ledger.Store,
	rpc ReceiptFetcher,
	m *metrics.TrackerMetrics,
	markLostAfter time.Duration,
) *Reconciler {
	return &Reconciler{
		logger:        logger.WithField("pkg", "txtracker.Reconciler").Logger,
		store:         store,
		rpc:           rpc,
		metrics:       m,
		markLostAfter: markLostAfter,
	}
}

// Sweep resolves every pending entry it can and reports status counts.
func (r *Reconciler) Sweep(ctx context.Context) error {
	start := time.Now()

	pending, err := r.store.Pending(ctx)
	if err != nil {
		return err
	}

	for _, e := range pending {
		if e.Hash == "" {
			continue
		}

		receipt, err := r.rpc.TransactionReceipt(ctx, ecommon.HexToHash(e.Hash))
		if err != nil {
			// Not mined yet. Past the deadline it is considered dropped.
			if r.markLostAfter > 0 && time.Since(e.CreatedAt) > r.markLostAfter {
				r.logger.WithFields(logrus.Fields{
					"hash": e.Hash,
					"age":  time.Since(e.CreatedAt).String(),
				}).Warn("transaction not seen on chain, marking lost")

				if serr := r.store.SetStatus(ctx, e.Hash, ledger.StatusLost); serr != nil {
					r.logger.WithError(serr).Error("failed to mark transaction lost")
					continue
				}
				r.metrics.RecordLostTransaction()
			}
			continue
		}

		status := ledger.StatusMined
		if receipt.Status != types.ReceiptStatusSuccessful {
			status = ledger.StatusFailed
		}
		if err := r.store.SetStatus(ctx, e.Hash, status); err != nil {
			r.logger.WithError(err).Error("failed to update transaction status")
			continue
		}
		r.logger.WithFields(logrus.Fields{
			"hash":   e.Hash,
			"status": string(status),
		}).Info("reconciled transaction")
	}

	r.updateStatusCounts(ctx)
	r.metrics.RecordProcessingIteration(time.Since(start))
	return nil
}

func (r *Reconciler) updateStatusCounts(ctx context.Context) {
	entries, err := r.store.List(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("failed to list ledger for status counts")
		return
	}

	counts := make(map[ledger.Status]int)
	for _, e := range entries {
		counts[e.Status]++
	}
	for _, s := range []ledger.Status{ledger.StatusPending, ledger.StatusMined, ledger.StatusFailed, ledger.StatusLost} {
		r.metrics.UpdateLedgerStatus(string(s), counts[s])
	}
}

// Run sweeps on the given interval until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.logger.WithError(err).Error("reconciliation sweep failed")
			}
		}
	}
}
