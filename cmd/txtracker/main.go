package main

import (
	"context"
	"os"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pedrotmr/origin-dollar/internal/graceful"
	"github.com/pedrotmr/origin-dollar/internal/health"
	"github.com/pedrotmr/origin-dollar/internal/ledger"
	"github.com/pedrotmr/origin-dollar/internal/metrics"
	"github.com/pedrotmr/origin-dollar/internal/txtracker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetLevel(logrus.DebugLevel)

	cfg, err := newConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	metricsServer := metrics.StartMetricsServer(cfg.MetricsPort, []string{metrics.ServiceTracker}, logger)
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

	rpc, err := ethclient.DialContext(ctx, cfg.Rpc.URL)
	if err != nil {
		logger.Fatalf("failed to connect to RPC: %v", err)
	}

	reconciler := txtracker.NewReconciler(
		logger,
		store,
		rpc,
		metrics.NewTrackerMetrics(),
		cfg.MarkLostAfter,
	)
	go reconciler.Run(ctx, cfg.Interval)

	healthServer := health.New(cfg.HealthPort)
	go func() {
		er := healthServer.Start(ctx, logger)
		if er != nil {
			logger.Errorf("health server failed: %v", er)
		}
	}()

	logger.Info("transaction tracker started")
	<-graceful.MakeSigintChan()
	logger.Info("shutting down")
}
