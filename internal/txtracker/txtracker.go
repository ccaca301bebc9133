// Package txtracker keeps the in-session list of submitted transactions
// and reconciles each one against the chain. Entries are marked mined or
// failed but never removed, so pending-mint warnings and history stay
// accurate for the life of the session.
package txtracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

// PendingTransaction is one submitted (or failed-to-submit) transaction.
type PendingTransaction struct {
	Hash      ecommon.Hash
	Type      ledger.TxType
	Coin      coin.Coin
	Amounts   map[coin.Coin]string
	Mined     bool
	Failed    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RefreshFunc re-fetches account data (balances, allowances) after a
// transaction confirms. Stale reads between confirmation and refresh are
// tolerated by consumers.
type RefreshFunc func(ctx context.Context)

// Tracker owns the session transaction list, mirrors it into the
// persistent ledger and watches submissions to confirmation.
type Tracker struct {
	logger   *logrus.Logger
	provider wallet.Provider
	store    ledger.Store
	refresh  RefreshFunc

	mu  sync.RWMutex
	txs []*PendingTransaction
}

func NewTracker(logger *logrus.Logger, provider wallet.Provider, store ledger.Store, refresh RefreshFunc) *Tracker {
	return &Tracker{
		logger:   logger.WithField("pkg", "txtracker.Tracker").Logger,
		provider: provider,
		store:    store,
		refresh:  refresh,
	}
}

// Record registers a freshly submitted transaction as pending and
// persists it to the ledger.
func (t *Tracker) Record(
	ctx context.Context,
	hash ecommon.Hash,
	txType ledger.TxType,
	c coin.Coin,
	amounts map[coin.Coin]string,
) error {
	now := time.Now()
	tx := &PendingTransaction{
		Hash:      hash,
		Type:      txType,
		Coin:      c,
		Amounts:   amounts,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.txs = append(t.txs, tx)
	t.mu.Unlock()

	err := t.store.Insert(ctx, ledger.Entry{
		ID:      uuid.New(),
		Hash:    hash.Hex(),
		Type:    txType,
		Coin:    c,
		Amounts: amounts,
		Status:  ledger.StatusPending,
	})
	if err != nil {
		return fmt.Errorf("failed to persist pending transaction: %w", err)
	}
	return nil
}

// RecordFailure registers a transaction that errored before or at
// submission. Failed entries carry no hash and are never watched.
func (t *Tracker) RecordFailure(
	ctx context.Context,
	txType ledger.TxType,
	c coin.Coin,
	amounts map[coin.Coin]string,
) error {
	now := time.Now()
	tx := &PendingTransaction{
		Type:      txType,
		Coin:      c,
		Amounts:   amounts,
		Failed:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	t.mu.Lock()
	t.txs = append(t.txs, tx)
	t.mu.Unlock()

	err := t.store.Insert(ctx, ledger.Entry{
		ID:      uuid.New(),
		Type:    txType,
		Coin:    c,
		Amounts: amounts,
		Status:  ledger.StatusFailed,
	})
	if err != nil {
		return fmt.Errorf("failed to persist failed transaction: %w", err)
	}
	return nil
}

// Pending returns the unmined, unfailed transactions, optionally filtered
// by type. A zero-value filter matches everything.
func (t *Tracker) Pending(filter ledger.TxType) []PendingTransaction {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []PendingTransaction
	for _, tx := range t.txs {
		if tx.Mined || tx.Failed {
			continue
		}
		if filter != "" && tx.Type != filter {
			continue
		}
		out = append(out, *tx)
	}
	return out
}

// All returns a snapshot of every tracked transaction.
func (t *Tracker) All() []PendingTransaction {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]PendingTransaction, 0, len(t.txs))
	for _, tx := range t.txs {
		out = append(out, *tx)
	}
	return out
}

// MarkMined flips a tracked transaction to mined and persists the status.
func (t *Tracker) MarkMined(ctx context.Context, hash ecommon.Hash) error {
	t.mu.Lock()
	found := false
	for _, tx := range t.txs {
		if tx.Hash == hash {
			tx.Mined = true
			tx.UpdatedAt = time.Now()
			found = true
			break
		}
	}
	t.mu.Unlock()

	if !found {
		return fmt.Errorf("no tracked transaction for hash %s", hash.Hex())
	}
	if err := t.store.SetStatus(ctx, hash.Hex(), ledger.StatusMined); err != nil {
		return fmt.Errorf("failed to persist mined status: %w", err)
	}
	return nil
}

// MarkFailed flips a tracked transaction to failed (reverted on-chain)
// and persists the status.
func (t *Tracker) MarkFailed(ctx context.Context, hash ecommon.Hash) error {
	t.mu.Lock()
	found := false
	for _, tx := range t.txs {
		if tx.Hash == hash {
			tx.Failed = true
			tx.UpdatedAt = time.Now()
			found = true
			break
		}
	}
	t.mu.Unlock()

	if !found {
		return fmt.Errorf("no tracked transaction for hash %s", hash.Hex())
	}
	if err := t.store.SetStatus(ctx, hash.Hex(), ledger.StatusFailed); err != nil {
		return fmt.Errorf("failed to persist failed status: %w", err)
	}
	return nil
}

// Watch blocks until the transaction confirms, then updates the tracked
// entry and the ledger and triggers an account-data refresh. Callers run
// it in a goroutine; flow state must not depend on its completion.
func (t *Tracker) Watch(ctx context.Context, hash ecommon.Hash) error {
	receipt, err := t.provider.WaitForConfirmation(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to await confirmation for %s: %w", hash.Hex(), err)
	}

	if receipt.Success {
		if err := t.MarkMined(ctx, hash); err != nil {
			return err
		}
	} else {
		if err := t.MarkFailed(ctx, hash); err != nil {
			return err
		}
	}

	t.logger.WithFields(logrus.Fields{
		"hash":    hash.Hex(),
		"success": receipt.Success,
	}).Info("transaction confirmed")

	if t.refresh != nil {
		t.refresh(ctx)
	}
	return nil
}
