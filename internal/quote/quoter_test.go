package quote

import (
	"context"
	"errors"
	"math/big"
	"testing"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/venue"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

type stubVenue struct {
	name    route.Venue
	spender ecommon.Address
	out     *big.Int
	err     error
}

func (s *stubVenue) Name() route.Venue          { return s.name }
func (s *stubVenue) Spender() ecommon.Address   { return s.spender }
func (s *stubVenue) Supports(route.Direction, coin.Coin) bool { return true }

func (s *stubVenue) EstimateOut(context.Context, route.Direction, coin.Coin, *big.Int) (*big.Int, error) {
	return s.out, s.err
}

func (s *stubVenue) BuildSwap(context.Context, venue.Trade) (wallet.ContractCall, error) {
	return wallet.ContractCall{To: s.spender}, nil
}

func TestGetQuotes_PartialFailure(t *testing.T) {
	reg := venue.NewRegistry(
		&stubVenue{name: route.VenueVault, out: big.NewInt(100)},
		&stubVenue{name: route.VenueCurve, err: errors.New("rpc down")},
		&stubVenue{name: route.VenueFlipper, out: big.NewInt(101)},
	)

	agg := NewAggregator(logrus.New(), reg)
	quotes, err := agg.GetQuotes(context.Background(), route.Mint, coin.DAI, big.NewInt(100), decimal.Zero)
	require.NoError(t, err)
	require.Len(t, quotes, 3)

	usable := 0
	for _, q := range quotes {
		if q.Usable() {
			usable++
		} else {
			assert.Equal(t, route.VenueCurve, q.Venue)
		}
	}
	assert.Equal(t, 2, usable)

	// The failed quote still feeds into selection and loses.
	best, err := route.SelectBest(quotes)
	require.NoError(t, err)
	assert.Equal(t, route.VenueFlipper, best.Venue)
}

func TestGetQuotes_CoinsSetByDirection(t *testing.T) {
	reg := venue.NewRegistry(&stubVenue{name: route.VenueVault, out: big.NewInt(5)})
	agg := NewAggregator(logrus.New(), reg)

	quotes, err := agg.GetQuotes(context.Background(), route.Mint, coin.USDC, big.NewInt(5), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, coin.USDC, quotes[0].InputCoin)
	assert.Equal(t, coin.OUSD, quotes[0].OutputCoin)

	quotes, err = agg.GetQuotes(context.Background(), route.Redeem, coin.USDC, big.NewInt(5), decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, coin.OUSD, quotes[0].InputCoin)
	assert.Equal(t, coin.USDC, quotes[0].OutputCoin)
}

func TestMinReceived(t *testing.T) {
	tests := []struct {
		name      string
		amountOut int64
		tolerance string
		want      string
	}{
		{name: "no tolerance", amountOut: 1000, tolerance: "0", want: "1000"},
		{name: "half percent", amountOut: 1000, tolerance: "0.005", want: "995"},
		{name: "one percent floors", amountOut: 999, tolerance: "0.01", want: "989"},
		{name: "zero amount", amountOut: 0, tolerance: "0.01", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tol, err := decimal.NewFromString(tt.tolerance)
			require.NoError(t, err)
			got := MinReceived(big.NewInt(tt.amountOut), tol)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
