package main

import (
	"context"
	"math/big"
	"net"
	"os"

	"github.com/DataDog/datadog-go/statsd"
	ecommon "github.com/ethereum/go-ethereum/common"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/account"
	"github.com/pedrotmr/origin-dollar/internal/allowance"
	"github.com/pedrotmr/origin-dollar/internal/coin"
	"github.com/pedrotmr/origin-dollar/internal/engine"
	"github.com/pedrotmr/origin-dollar/internal/flow"
	"github.com/pedrotmr/origin-dollar/internal/health"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/metrics"
	"github.com/pedrotmr/origin-dollar/internal/prefs"
	"github.com/pedrotmr/origin-dollar/internal/quote"
	"github.com/pedrotmr/origin-dollar/internal/tasks"
	"github.com/pedrotmr/origin-dollar/internal/telemetry"
	"github.com/pedrotmr/origin-dollar/internal/txtracker"
	"github.com/pedrotmr/origin-dollar/internal/venue"
	"github.com/pedrotmr/origin-dollar/internal/wallet"
)

func main() {
	ctx := context.Background()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := newConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	sdClient, err := statsd.New(cfg.DataDog.Host + ":" + cfg.DataDog.Port)
	if err != nil {
		logger.Fatalf("failed to initialize StatsD client: %v", err)
	}
	emitter := telemetry.NewStatsd(logger, sdClient)

	metricsServer := metrics.StartMetricsServer(cfg.MetricsPort, []string{metrics.ServiceSwap}, logger)
	defer func() {
		if metricsServer != nil {
			if err := metricsServer.Stop(ctx); err != nil {
				logger.Errorf("failed to stop metrics server: %v", err)
			}
		}
	}()

	pgPool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("failed to initialize Postgres pool: %v", err)
	}

	store, err := ledger.NewPg(ctx, pgPool)
	if err != nil {
		logger.Fatalf("failed to initialize ledger storage: %v", err)
	}

	sign, signerAccount, err := wallet.NewKeySigner(cfg.Signer.PrivateKey, big.NewInt(cfg.Rpc.ChainID))
	if err != nil {
		logger.Fatalf("failed to initialize signer: %v", err)
	}

	provider, err := wallet.NewRPCProvider(ctx, cfg.Rpc.URL, signerAccount, sign)
	if err != nil {
		logger.Fatalf("failed to initialize RPC provider: %v", err)
	}
	rpc := provider.Client()

	tokens := map[coin.Coin]ecommon.Address{
		coin.DAI:  ecommon.HexToAddress(cfg.Tokens.DAI),
		coin.USDT: ecommon.HexToAddress(cfg.Tokens.USDT),
		coin.USDC: ecommon.HexToAddress(cfg.Tokens.USDC),
		coin.OUSD: ecommon.HexToAddress(cfg.Tokens.OUSD),
	}

	caps := []venue.Capability{
		venue.NewVault(ecommon.HexToAddress(cfg.Contracts.Vault), tokens),
		venue.NewFlipper(ecommon.HexToAddress(cfg.Contracts.Flipper)),
	}
	if cfg.Contracts.UniswapRouter != "" {
		caps = append(caps, venue.NewUniswapV3(
			rpc,
			ecommon.HexToAddress(cfg.Contracts.UniswapRouter),
			ecommon.HexToAddress(cfg.Contracts.UniswapQuoter),
			tokens,
		))
	}
	if cfg.Contracts.CurveMetapool != "" {
		caps = append(caps, venue.NewCurve(rpc, ecommon.HexToAddress(cfg.Contracts.CurveMetapool)))
	}
	if cfg.Contracts.UniswapV2Router != "" {
		caps = append(caps, venue.NewUniswapV2(rpc, ecommon.HexToAddress(cfg.Contracts.UniswapV2Router), tokens))
	}
	if cfg.Contracts.SushiswapRouter != "" {
		caps = append(caps, venue.NewSushiSwap(rpc, ecommon.HexToAddress(cfg.Contracts.SushiswapRouter), tokens))
	}
	registry := venue.NewRegistry(caps...)
	if err := registry.CheckCoverage(); err != nil {
		logger.Fatalf("incomplete venue configuration: %v", err)
	}

	allowances := allowance.NewTracker()
	refresher := account.NewRefresher(logger, rpc, signerAccount, tokens, registry, allowances)
	go refresher.Run(ctx, cfg.Swap.RefreshInterval)

	tracker := txtracker.NewTracker(logger, provider, store, refresher.Refresh)

	prefStore, err := prefs.NewFileStore(cfg.Swap.PrefsFile)
	if err != nil {
		logger.Fatalf("failed to initialize preference store: %v", err)
	}

	approvalFlow := flow.NewApproval(logger, provider, tracker, emitter)
	swapFlow := flow.NewSwap(
		logger,
		provider,
		registry,
		tracker,
		prefStore,
		emitter,
		flow.ResetPolicy{ForceResetAfter: cfg.Swap.ForceResetAfter},
	)

	eng := engine.New(
		logger,
		cfg.Swap.Disabled,
		cfg.Swap.DisabledMessage,
		quote.NewAggregator(logger, registry),
		allowances,
		tokens,
		approvalFlow,
		swapFlow,
		tracker,
		prefStore,
	)

	healthServer := health.New(cfg.HealthPort)
	go func() {
		er := healthServer.Start(ctx, logger)
		if er != nil {
			logger.Errorf("health server failed: %v", er)
		}
	}()

	consumer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
			Username: cfg.Redis.User,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Logger:      logger,
			Concurrency: 1, // user actions are serialized per account
			Queues: map[string]int{
				tasks.QueueName: 10,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeSwapExecute, engine.NewConsumer(logger, eng, metrics.NewSwapMetrics()).Handle)

	logger.Infof("worker starting, account %s", signerAccount.Hex())
	if err := consumer.Run(mux); err != nil {
		logger.Fatalf("failed to run consumer: %v", err)
	}
}
