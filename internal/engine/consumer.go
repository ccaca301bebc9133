package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/metrics"
	"github.com/pedrotmr/origin-dollar/internal/route"
	"github.com/pedrotmr/origin-dollar/internal/tasks"
)

// Consumer executes queued swap intents.
type Consumer struct {
	logger  *logrus.Logger
	engine  *Engine
	metrics *metrics.SwapMetrics
}

func NewConsumer(logger *logrus.Logger, engine *Engine, m *metrics.SwapMetrics) *Consumer {
	return &Consumer{
		logger:  logger.WithField("pkg", "engine.Consumer").Logger,
		engine:  engine,
		metrics: m,
	}
}

// Handle runs one queued intent to a terminal state. Malformed payloads
// and the kill switch skip retry; transient failures are retried by the
// queue.
func (c *Consumer) Handle(ctx context.Context, t *asynq.Task) error {
	payload, err := tasks.ParseSwapTask(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	intent, err := intentFromPayload(payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	log := c.logger.WithFields(logrus.Fields{
		"intent":    intent.ID.String(),
		"direction": intent.Direction.String(),
		"coin":      intent.Stablecoin.String(),
	})
	log.Info("executing queued swap")

	start := time.Now()
	result, err := c.engine.Swap(ctx, intent)
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordExecution("", intent.Direction.String(), metrics.StatusError, duration)
		if errors.Is(err, ErrSwapsDisabled) {
			log.Warn("swaps disabled, dropping task")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if errors.Is(err, route.ErrNoRoute) {
			log.Warn("no usable route")
			return fmt.Errorf("no usable route: %w", err)
		}
		log.WithError(err).Error("swap failed")
		return err
	}

	if result.Cancelled {
		c.metrics.RecordExecution(result.Route.Venue.String(), intent.Direction.String(), metrics.StatusCancelled, duration)
		log.Info("swap cancelled by signer")
		return nil
	}

	c.metrics.RecordExecution(result.Route.Venue.String(), intent.Direction.String(), metrics.StatusSuccess, duration)
	log.WithFields(logrus.Fields{
		"venue": result.Route.Venue.String(),
		"hash":  result.Hash.Hex(),
		"mined": result.Mined,
	}).Info("swap executed")
	return nil
}

func intentFromPayload(p tasks.SwapPayload) (Intent, error) {
	c, err := coin.FromString(p.Stablecoin)
	if err != nil {
		return Intent{}, err
	}
	if !c.IsStablecoin() {
		return Intent{}, fmt.Errorf("stablecoin side must not be %s", c)
	}

	dir := route.Direction(p.Direction)
	if dir != route.Mint && dir != route.Redeem {
		return Intent{}, fmt.Errorf("unknown direction: %s", p.Direction)
	}

	amount, ok := new(big.Int).SetString(p.AmountIn, 10)
	if !ok || amount.Sign() <= 0 {
		return Intent{}, fmt.Errorf("invalid amount: %s", p.AmountIn)
	}

	tolerance, err := decimal.NewFromString(p.Tolerance)
	if err != nil {
		return Intent{}, fmt.Errorf("invalid tolerance: %w", err)
	}
	if tolerance.IsNegative() || tolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Intent{}, fmt.Errorf("tolerance out of range: %s", p.Tolerance)
	}

	return Intent{
		ID:         p.ID,
		Direction:  dir,
		Stablecoin: c,
		AmountIn:   amount,
		Tolerance:  tolerance,
	}, nil
}
