package engine

import (
	"context"
	"errors"
	"testing"

	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/metrics"
	"github.com/pedrotmr/origin-dollar/internal/tasks"
)

func validPayload() tasks.SwapPayload {
	return tasks.SwapPayload{
		ID:         uuid.New(),
		Direction:  "mint",
		Stablecoin: "usdc",
		AmountIn:   "100000000",
		Tolerance:  "0.005",
	}
}

func TestConsumer_ExecutesQueuedIntent(t *testing.T) {
	mintHash := ecommon.HexToHash("0x30")
	f := newFixture(t, &scriptedProvider{hashes: []ecommon.Hash{mintHash}}, false)
	f.allowances.SetUnlimited(coin.USDC, vaultSpender)

	consumer := NewConsumer(logrus.New(), f.engine, metrics.NewSwapMetrics())

	task, err := tasks.NewSwapTask(validPayload())
	require.NoError(t, err)
	require.NoError(t, consumer.Handle(context.Background(), task))

	entries, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestConsumer_MalformedPayloadSkipsRetry(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, false)
	consumer := NewConsumer(logrus.New(), f.engine, metrics.NewSwapMetrics())

	task := asynq.NewTask(tasks.TypeSwapExecute, []byte("not json"))
	err := consumer.Handle(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestConsumer_DisabledSkipsRetry(t *testing.T) {
	f := newFixture(t, &scriptedProvider{}, true)
	consumer := NewConsumer(logrus.New(), f.engine, metrics.NewSwapMetrics())

	task, err := tasks.NewSwapTask(validPayload())
	require.NoError(t, err)

	err = consumer.Handle(context.Background(), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestIntentFromPayload_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*tasks.SwapPayload)
	}{
		{name: "ousd as stablecoin", mutate: func(p *tasks.SwapPayload) { p.Stablecoin = "ousd" }},
		{name: "unknown coin", mutate: func(p *tasks.SwapPayload) { p.Stablecoin = "usde" }},
		{name: "unknown direction", mutate: func(p *tasks.SwapPayload) { p.Direction = "buy" }},
		{name: "zero amount", mutate: func(p *tasks.SwapPayload) { p.AmountIn = "0" }},
		{name: "garbage amount", mutate: func(p *tasks.SwapPayload) { p.AmountIn = "1.5" }},
		{name: "negative tolerance", mutate: func(p *tasks.SwapPayload) { p.Tolerance = "-0.1" }},
		{name: "tolerance of one", mutate: func(p *tasks.SwapPayload) { p.Tolerance = "1" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPayload()
			tt.mutate(&p)
			_, err := intentFromPayload(p)
			assert.Error(t, err)
		})
	}

	intent, err := intentFromPayload(validPayload())
	require.NoError(t, err)
	assert.Equal(t, coin.USDC, intent.Stablecoin)
}
