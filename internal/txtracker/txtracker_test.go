package txtracker

import (
	"context"
	"math/big"
	"testing"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

type stubProvider struct {
	receipt *wallet.Receipt
	err     error
}

func (s *stubProvider) ConnectedAccount() ecommon.Address { return ecommon.Address{} }

func (s *stubProvider) Submit(context.Context, wallet.ContractCall) (ecommon.Hash, error) {
	return ecommon.Hash{}, nil
}

func (s *stubProvider) WaitForConfirmation(context.Context, ecommon.Hash) (*wallet.Receipt, error) {
	return s.receipt, s.err
}

func TestRecordAndPendingFilter(t *testing.T) {
	store := ledger.NewMemory()
	tr := NewTracker(logrus.New(), &stubProvider{}, store, nil)
	ctx := context.Background()

	mintHash := ecommon.HexToHash("0x01")
	approveHash := ecommon.HexToHash("0x02")

	require.NoError(t, tr.Record(ctx, mintHash, ledger.TxMint, coin.USDC, map[coin.Coin]string{
		coin.USDC: "100",
		coin.OUSD: "99.8",
	}))
	require.NoError(t, tr.Record(ctx, approveHash, ledger.TxApprove, coin.USDC, nil))

	assert.Len(t, tr.Pending(""), 2)

	mints := tr.Pending(ledger.TxMint)
	require.Len(t, mints, 1)
	assert.Equal(t, mintHash, mints[0].Hash)
	assert.Equal(t, "99.8", mints[0].Amounts[coin.OUSD])

	entries, err := store.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecordFailure_NeverPending(t *testing.T) {
	store := ledger.NewMemory()
	tr := NewTracker(logrus.New(), &stubProvider{}, store, nil)
	ctx := context.Background()

	require.NoError(t, tr.RecordFailure(ctx, ledger.TxRedeem, coin.DAI, nil))

	assert.Empty(t, tr.Pending(""))
	require.Len(t, tr.All(), 1)
	assert.True(t, tr.All()[0].Failed)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusFailed, entries[0].Status)
	assert.Empty(t, entries[0].Hash)
}

func TestWatch_MinedAndRefresh(t *testing.T) {
	store := ledger.NewMemory()
	hash := ecommon.HexToHash("0x03")
	provider := &stubProvider{
		receipt: &wallet.Receipt{TxHash: hash, BlockNumber: big.NewInt(1), Success: true},
	}

	refreshed := false
	tr := NewTracker(logrus.New(), provider, store, func(context.Context) { refreshed = true })
	ctx := context.Background()

	require.NoError(t, tr.Record(ctx, hash, ledger.TxMint, coin.DAI, nil))
	require.NoError(t, tr.Watch(ctx, hash))

	assert.True(t, refreshed)
	assert.Empty(t, tr.Pending(""))
	require.Len(t, tr.All(), 1)
	assert.True(t, tr.All()[0].Mined)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusMined, entries[0].Status)
}

func TestWatch_RevertedMarksFailed(t *testing.T) {
	store := ledger.NewMemory()
	hash := ecommon.HexToHash("0x04")
	provider := &stubProvider{
		receipt: &wallet.Receipt{TxHash: hash, BlockNumber: big.NewInt(2), Success: false},
	}

	tr := NewTracker(logrus.New(), provider, store, nil)
	ctx := context.Background()

	require.NoError(t, tr.Record(ctx, hash, ledger.TxSwap, coin.USDT, nil))
	require.NoError(t, tr.Watch(ctx, hash))

	require.Len(t, tr.All(), 1)
	assert.True(t, tr.All()[0].Failed)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFailed, entries[0].Status)
}

func TestMarkMined_UnknownHash(t *testing.T) {
	tr := NewTracker(logrus.New(), &stubProvider{}, ledger.NewMemory(), nil)
	err := tr.MarkMined(context.Background(), ecommon.HexToHash("0xff"))
	assert.Error(t, err)
}
