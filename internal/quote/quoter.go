// Package quote fetches comparable quotes from every venue for one trade.
package quote

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/venue"
)

// Quoter is the collaborator the engine consumes: given a direction, the
// stablecoin side of the pair and an input amount, return one quote per
// venue. Partial results are expected when some venues fail.
type Quoter interface {
	GetQuotes(ctx context.Context, dir route.Direction, stablecoin coin.Coin, amountIn *big.Int, tolerance decimal.Decimal) ([]route.Route, error)
}

// Aggregator implements Quoter by fanning out to every registered venue
// concurrently. A venue that errors or quotes zero contributes an
// unusable route and is excluded by selection.
type Aggregator struct {
	logger   *logrus.Logger
	registry *venue.Registry
}

func NewAggregator(logger *logrus.Logger, registry *venue.Registry) *Aggregator {
	return &Aggregator{
		logger:   logger.WithField("pkg", "quote.Aggregator").Logger,
		registry: registry,
	}
}

func (a *Aggregator) GetQuotes(
	ctx context.Context,
	dir route.Direction,
	stablecoin coin.Coin,
	amountIn *big.Int,
	tolerance decimal.Decimal,
) ([]route.Route, error) {
	caps := a.registry.All()
	results := make([]route.Route, len(caps))

	g, ctx := errgroup.WithContext(ctx)

	for _i, _c := range caps {
		i, c := _i, _c
		g.Go(func() error {
			results[i] = a.quoteOne(ctx, c, dir, stablecoin, amountIn, tolerance)
			return nil
		})
	}

	// Workers never return errors; failed venues yield unusable routes.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (a *Aggregator) quoteOne(
	ctx context.Context,
	c venue.Capability,
	dir route.Direction,
	stablecoin coin.Coin,
	amountIn *big.Int,
	tolerance decimal.Decimal,
) route.Route {
	inputCoin := stablecoin
	outputCoin := coin.OUSD
	if dir == route.Redeem {
		inputCoin, outputCoin = coin.OUSD, stablecoin
	}

	r := route.Route{
		Venue:      c.Name(),
		InputCoin:  inputCoin,
		OutputCoin: outputCoin,
		AmountIn:   amountIn,
		Spender:    c.Spender(),
	}

	if !c.Supports(dir, stablecoin) {
		return r
	}

	out, err := c.EstimateOut(ctx, dir, stablecoin, amountIn)
	if err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"venue":     c.Name().String(),
			"direction": dir.String(),
			"coin":      stablecoin.String(),
		}).Warn("venue quote failed, excluding from selection")
		return r
	}

	r.AmountOut = out
	r.MinReceived = MinReceived(out, tolerance)
	return r
}

// MinReceived applies the price tolerance to a quoted output:
// amountOut × (1 − tolerance), floored. The execution call carries this
// bound so an underpriced fill reverts on-chain.
func MinReceived(amountOut *big.Int, tolerance decimal.Decimal) *big.Int {
	if amountOut == nil || amountOut.Sign() <= 0 {
		return big.NewInt(0)
	}

	out := decimal.NewFromBigInt(amountOut, 0)
	bound := out.Mul(decimal.NewFromInt(1).Sub(tolerance))
	return bound.Floor().BigInt()
}
