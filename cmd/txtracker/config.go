package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type config struct {
	Postgres      postgres
	Rpc           rpcItem
	Interval      time.Duration `default:"15s"`
	MarkLostAfter time.Duration `default:"24h"`
	HealthPort    int           `default:"8082"`
	MetricsPort   string        `default:"9091"`
}

type postgres struct {
	DSN string `required:"true"`
}

type rpcItem struct {
	URL string `required:"true"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
