package engine

import (
	"context"
	"math/big"
	"testing"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrotmr/origin-dollar/internal/allowance"
	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/flow"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/prefs"
	"github.com/pedrotmr/origin-dollar/internal/quote"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/telemetry"
	"github.com/pedrotmr/origin-dollar/internal/txtracker"
	"github.com/pedrotmr/origin-dollar/internal/venue"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

var (
	vaultSpender = ecommon.HexToAddress("0xaa")
	usdcToken    = ecommon.HexToAddress("0xbb")
)

type scriptedProvider struct {
	hashes    []ecommon.Hash
	rejectAll bool
	submitted int
}

func (p *scriptedProvider) ConnectedAccount() ecommon.Address { return ecommon.Address{} }

func (p *scriptedProvider) Submit(context.Context, wallet.ContractCall) (ecommon.Hash, error) {
	if p.rejectAll {
		return ecommon.Hash{}, wallet.NewRejection()
	}
	h := p.hashes[p.submitted]
	p.submitted++
	return h, nil
}

func (p *scriptedProvider) WaitForConfirmation(_ context.Context, h ecommon.Hash) (*wallet.Receipt, error) {
	return &wallet.Receipt{TxHash: h, Success: true}, nil
}

type vaultStub struct{}

func (vaultStub) Name() route.Venue        { return route.VenueVault }
func (vaultStub) Spender() ecommon.Address { return vaultSpender }

func (vaultStub) Supports(route.Direction, coin.Coin) bool { return true }

func (vaultStub) EstimateOut(_ context.Context, _ route.Direction, _ coin.Coin, in *big.Int) (*big.Int, error) {
	return new(big.Int).Set(in), nil
}

func (vaultStub) BuildSwap(context.Context, venue.Trade) (wallet.ContractCall, error) {
	return wallet.ContractCall{To: vaultSpender}, nil
}

type fixture struct {
	engine     *Engine
	store      *ledger.Memory
	allowances *allowance.Tracker
	provider   *scriptedProvider
	prefs      prefs.Store
}

func newFixture(t *testing.T, provider *scriptedProvider, disabled bool) *fixture {
	t.Helper()

	logger := logrus.New()
	store := ledger.NewMemory()
	allowances := allowance.NewTracker()
	registry := venue.NewRegistry(vaultStub{})

	// Confirmed transactions bump the allowance like a chain re-read would.
	tracker := txtracker.NewTracker(logger, provider, store, func(context.Context) {
		allowances.SetUnlimited(coin.USDC, vaultSpender)
	})

	pstore := prefs.NewMemoryStore()
	emitter := &telemetry.Recorder{}
	approval := flow.NewApproval(logger, provider, tracker, emitter)
	swapFlow := flow.NewSwap(logger, provider, registry, tracker, pstore, emitter, flow.ResetPolicy{})

	quoter := quote.NewAggregator(logger, registry)
	eng := New(
		logger,
		disabled,
		"Swaps are temporarily unavailable.",
		quoter,
		allowances,
		map[coin.Coin]ecommon.Address{coin.USDC: usdcToken, coin.OUSD: usdcToken},
		approval,
		swapFlow,
		tracker,
		pstore,
	)
	return &fixture{engine: eng, store: store, allowances: allowances, provider: provider, prefs: pstore}
}

func usdcIntent() Intent {
	return Intent{
		ID:         uuid.New(),
		Direction:  route.Mint,
		Stablecoin: coin.USDC,
		AmountIn:   big.NewInt(100_000_000),
		Tolerance:  decimal.NewFromFloat(0.005),
	}
}

func TestSwap_DisabledFlag(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, true)

	_, err := f.engine.Swap(context.Background(), usdcIntent())
	require.ErrorIs(t, err, ErrSwapsDisabled)
	assert.Contains(t, err.Error(), "temporarily unavailable")
}

func TestSwap_BlocksUntilAllowancesLoad(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, false)

	_, err := f.engine.Swap(context.Background(), usdcIntent())
	require.ErrorIs(t, err, allowance.ErrNotLoaded)
}

func TestSwap_ApprovalThenSwapSequenced(t *testing.T) {
	approveHash := ecommon.HexToHash("0x01")
	mintHash := ecommon.HexToHash("0x02")
	f := newFixture(t, &scriptedProvider{hashes: []ecommon.Hash{approveHash, mintHash}}, false)
	f.allowances.Set(coin.USDC, vaultSpender, big.NewInt(0))

	result, err := f.engine.Swap(context.Background(), usdcIntent())
	require.NoError(t, err)
	assert.False(t, result.Cancelled)
	assert.True(t, result.Mined)
	assert.Equal(t, mintHash, result.Hash)

	entries, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.TxApprove, entries[0].Type)
	assert.Equal(t, ledger.TxMint, entries[1].Type)
	assert.Equal(t, ledger.StatusMined, entries[0].Status)
	assert.Equal(t, ledger.StatusMined, entries[1].Status)

	// The refresh after approval made the allowance unlimited; the next
	// identical intent must not approve again.
	need, err := f.allowances.NeedsApproval(result.Route, usdcIntent().AmountIn)
	require.NoError(t, err)
	assert.Nil(t, need)
}

func TestSwap_SkipsApprovalWhenAllowanceCovers(t *testing.T) {
	mintHash := ecommon.HexToHash("0x03")
	f := newFixture(t, &scriptedProvider{hashes: []ecommon.Hash{mintHash}}, false)
	f.allowances.Set(coin.USDC, vaultSpender, big.NewInt(200_000_000))

	result, err := f.engine.Swap(context.Background(), usdcIntent())
	require.NoError(t, err)
	assert.Equal(t, mintHash, result.Hash)

	entries, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.TxMint, entries[0].Type)
}

func TestSwap_RejectionCancelsSilently(t *testing.T) {
	f := newFixture(t, &scriptedProvider{rejectAll: true}, false)
	f.allowances.Set(coin.USDC, vaultSpender, big.NewInt(0))

	result, err := f.engine.Swap(context.Background(), usdcIntent())
	require.NoError(t, err)
	assert.True(t, result.Cancelled)

	entries, err := f.store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSwap_PersistsLastSelection(t *testing.T) {
	mintHash := ecommon.HexToHash("0x04")
	f := newFixture(t, &scriptedProvider{hashes: []ecommon.Hash{mintHash}}, false)
	f.allowances.SetUnlimited(coin.USDC, vaultSpender)

	_, err := f.engine.Swap(context.Background(), usdcIntent())
	require.NoError(t, err)

	c, dir := f.engine.LastSelection()
	assert.Equal(t, coin.USDC, c)
	assert.Equal(t, route.Mint, dir)
}

func TestLastSelection_Defaults(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, false)

	c, dir := f.engine.LastSelection()
	assert.Equal(t, coin.DAI, c)
	assert.Equal(t, route.Mint, dir)
}

func TestApplySelection(t *testing.T) {
	tests := []struct {
		name     string
		dir      route.Direction
		current  coin.Coin
		picked   coin.Coin
		wantDir  route.Direction
		wantCoin coin.Coin
	}{
		{name: "pick stablecoin keeps mode", dir: route.Mint, current: coin.DAI, picked: coin.USDT, wantDir: route.Mint, wantCoin: coin.USDT},
		{name: "pick ousd while minting flips to redeem", dir: route.Mint, current: coin.USDC, picked: coin.OUSD, wantDir: route.Redeem, wantCoin: coin.USDC},
		{name: "pick ousd while redeeming flips to mint", dir: route.Redeem, current: coin.DAI, picked: coin.OUSD, wantDir: route.Mint, wantCoin: coin.DAI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, c := ApplySelection(tt.dir, tt.current, tt.picked)
			assert.Equal(t, tt.wantDir, dir)
			assert.Equal(t, tt.wantCoin, c)
		})
	}
}

func TestPendingMintTotal(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, false)

	tracker := txtracker.NewTracker(logrus.New(), f.provider, f.store, nil)
	require.NoError(t, tracker.Record(context.Background(), ecommon.HexToHash("0x05"), ledger.TxMint, coin.DAI, map[coin.Coin]string{
		coin.DAI:  "50",
		coin.OUSD: "49.9",
	}))
	require.NoError(t, tracker.Record(context.Background(), ecommon.HexToHash("0x06"), ledger.TxMint, coin.USDT, map[coin.Coin]string{
		coin.USDT: "10",
		coin.OUSD: "10.05",
	}))

	eng := New(logrus.New(), false, "", nil, f.allowances, nil, nil, nil, tracker, f.prefs)
	total := eng.PendingMintTotal()
	assert.Equal(t, "59.95", total.String())
}
