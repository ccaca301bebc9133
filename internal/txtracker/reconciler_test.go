package txtracker

import (
	"context"
	"errors"
	"testing"
	"time"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/metrics"
)

type stubReceipts struct {
	receipts map[ecommon.Hash]*types.Receipt
}

func (s *stubReceipts) TransactionReceipt(_ context.Context, h ecommon.Hash) (*types.Receipt, error) {
	r, ok := s.receipts[h]
	if !ok {
		return nil, errors.New("not found")
	}
	return r, nil
}

func insertPending(t *testing.T, store ledger.Store, hash string) {
	t.Helper()
	require.NoError(t, store.Insert(context.Background(), ledger.Entry{
		Hash:   hash,
		Type:   ledger.TxMint,
		Coin:   coin.DAI,
		Status: ledger.StatusPending,
	}))
}

func TestSweep_FinalizesMinedAndReverted(t *testing.T) {
	store := ledger.NewMemory()
	minedHash := ecommon.HexToHash("0x01")
	revertedHash := ecommon.HexToHash("0x02")
	insertPending(t, store, minedHash.Hex())
	insertPending(t, store, revertedHash.Hex())

	rpc := &stubReceipts{receipts: map[ecommon.Hash]*types.Receipt{
		minedHash:    {Status: types.ReceiptStatusSuccessful},
		revertedHash: {Status: types.ReceiptStatusFailed},
	}}

	rec := NewReconciler(logrus.New(), store, rpc, metrics.NewTrackerMetrics(), time.Hour)
	require.NoError(t, rec.Sweep(context.Background()))

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	byHash := map[string]ledger.Status{}
	for _, e := range entries {
		byHash[e.Hash] = e.Status
	}
	assert.Equal(t, ledger.StatusMined, byHash[minedHash.Hex()])
	assert.Equal(t, ledger.StatusFailed, byHash[revertedHash.Hex()])
}

func TestSweep_MarksOldUnseenLost(t *testing.T) {
	store := ledger.NewMemory()
	hash := ecommon.HexToHash("0x03")
	insertPending(t, store, hash.Hex())

	// Unseen by the RPC and a zero-length deadline: lost immediately.
	rec := NewReconciler(logrus.New(), store, &stubReceipts{}, metrics.NewTrackerMetrics(), time.Nanosecond)
	time.Sleep(time.Millisecond)
	require.NoError(t, rec.Sweep(context.Background()))

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusLost, entries[0].Status)
}

func TestSweep_FreshUnseenStaysPending(t *testing.T) {
	store := ledger.NewMemory()
	hash := ecommon.HexToHash("0x04")
	insertPending(t, store, hash.Hex())

	rec := NewReconciler(logrus.New(), store, &stubReceipts{}, metrics.NewTrackerMetrics(), time.Hour)
	require.NoError(t, rec.Sweep(context.Background()))

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPending, entries[0].Status)
}
