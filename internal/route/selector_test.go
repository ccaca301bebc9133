package route

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrotmr/origin-dollar/internal/coin"
)

func quote(v Venue, out int64) Route {
	return Route{
		Venue:      v,
		InputCoin:  coin.DAI,
		OutputCoin: coin.OUSD,
		AmountIn:   big.NewInt(100),
		AmountOut:  big.NewInt(out),
	}
}

func TestSelectBest_MaximalOutput(t *testing.T) {
	got, err := SelectBest([]Route{
		quote(VenueUniswap, 98),
		quote(VenueVault, 101),
		quote(VenueCurve, 99),
	})
	require.NoError(t, err)
	assert.Equal(t, VenueVault, got.Venue)
	assert.Equal(t, int64(101), got.AmountOut.Int64())
}

func TestSelectBest_TieResolvesByPriority(t *testing.T) {
	// Two venues tied at 101: the earlier one in Priority must win,
	// regardless of input order.
	quotes := []Route{
		quote(VenueSushiSwap, 101),
		quote(VenueUniswap, 98),
		quote(VenueCurve, 101),
	}

	got, err := SelectBest(quotes)
	require.NoError(t, err)
	assert.Equal(t, VenueCurve, got.Venue)

	// Reversed input order, same result.
	reversed := []Route{quotes[2], quotes[1], quotes[0]}
	got, err = SelectBest(reversed)
	require.NoError(t, err)
	assert.Equal(t, VenueCurve, got.Venue)
}

func TestSelectBest_Deterministic(t *testing.T) {
	quotes := []Route{
		quote(VenueVault, 100),
		quote(VenueFlipper, 100),
		quote(VenueUniswapV2, 100),
	}

	first, err := SelectBest(quotes)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := SelectBest(quotes)
		require.NoError(t, err)
		assert.Equal(t, first.Venue, again.Venue)
	}
	assert.Equal(t, VenueVault, first.Venue)
}

func TestSelectBest_ExcludesUnusableQuotes(t *testing.T) {
	failed := Route{Venue: VenueVault} // nil AmountOut = fetch failed
	zero := quote(VenueFlipper, 0)     // zero liquidity

	got, err := SelectBest([]Route{failed, zero, quote(VenueUniswap, 97)})
	require.NoError(t, err)
	assert.Equal(t, VenueUniswap, got.Venue)
}

func TestSelectBest_NoUsableQuote(t *testing.T) {
	_, err := SelectBest([]Route{
		{Venue: VenueVault},
		quote(VenueCurve, 0),
	})
	assert.ErrorIs(t, err, ErrNoRoute)

	_, err = SelectBest(nil)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestPriorityCoversAllVenues(t *testing.T) {
	// Every venue constant must have a deterministic rank.
	for _, v := range []Venue{VenueVault, VenueFlipper, VenueUniswap, VenueUniswapV2, VenueSushiSwap, VenueCurve} {
		_, ok := priorityRank[v]
		assert.True(t, ok, "venue %s should have a priority rank", v)
	}
}
