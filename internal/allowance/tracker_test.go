package allowance

import (
	"math/big"
	"testing"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/route"
)

var vaultAddr = ecommon.HexToAddress("0xE75D77B1865Ae93c7eaa3040B038D7aA7BC02F70")

func testRoute() route.Route {
	return route.Route{
		Venue:     route.VenueVault,
		InputCoin: coin.DAI,
		Spender:   vaultAddr,
	}
}

func TestNeedsApproval_NotLoaded(t *testing.T) {
	tr := NewTracker()

	_, err := tr.NeedsApproval(testRoute(), big.NewInt(100))
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestNeedsApproval_Boundary(t *testing.T) {
	tests := []struct {
		name      string
		allowance int64
		request   int64
		want      bool
	}{
		{name: "zero allowance", allowance: 0, request: 100, want: true},
		{name: "allowance below request", allowance: 99, request: 100, want: true},
		{name: "allowance equals request", allowance: 100, request: 100, want: false},
		{name: "allowance above request", allowance: 101, request: 100, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.Set(coin.DAI, vaultAddr, big.NewInt(tt.allowance))

			spender, err := tr.NeedsApproval(testRoute(), big.NewInt(tt.request))
			require.NoError(t, err)
			if tt.want {
				require.NotNil(t, spender)
				assert.Equal(t, vaultAddr, *spender)
			} else {
				assert.Nil(t, spender)
			}
		})
	}
}

func TestNeedsApproval_UnlimitedAlwaysSufficient(t *testing.T) {
	tr := NewTracker()
	tr.SetUnlimited(coin.DAI, vaultAddr)

	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	spender, err := tr.NeedsApproval(testRoute(), huge)
	require.NoError(t, err)
	assert.Nil(t, spender)
}

func TestNeedsApproval_ApproveThenRecheck(t *testing.T) {
	// Allowance 0, request 100 -> approval needed; after the
	// approval confirms and the cache refreshes to unlimited, the same
	// request needs nothing.
	tr := NewTracker()
	tr.Set(coin.DAI, vaultAddr, big.NewInt(0))

	spender, err := tr.NeedsApproval(testRoute(), big.NewInt(100))
	require.NoError(t, err)
	require.NotNil(t, spender)
	assert.Equal(t, vaultAddr, *spender)

	tr.SetUnlimited(coin.DAI, vaultAddr)

	spender, err = tr.NeedsApproval(testRoute(), big.NewInt(100))
	require.NoError(t, err)
	assert.Nil(t, spender)
}

func TestGet_UnknownPairAfterLoad(t *testing.T) {
	tr := NewTracker()
	tr.Set(coin.DAI, vaultAddr, big.NewInt(5))

	other := ecommon.HexToAddress("0xcB1aDE313dE16b2a86cD6A7FD4a095FC75EF7E8c")
	_, err := tr.Get(coin.USDT, other)
	assert.ErrorIs(t, err, ErrNotLoaded)
}
