package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type config struct {
	Postgres    postgres
	Redis       redis
	Rpc         rpcItem
	Signer      signer
	Contracts   contracts
	Tokens      tokens
	Swap        swapConfig
	DataDog     dataDog
	HealthPort  int    `default:"8081"`
	MetricsPort string `default:"9090"`
}

type postgres struct {
	DSN string `required:"true"`
}

type redis struct {
	Host     string `default:"localhost"`
	Port     string `default:"6379"`
	User     string
	Password string
	DB       int
}

type rpcItem struct {
	URL     string `required:"true"`
	ChainID int64  `default:"1"`
}

type signer struct {
	PrivateKey string `required:"true"`
}

type contracts struct {
	Vault           string `required:"true"`
	Flipper         string `required:"true"`
	UniswapRouter   string
	UniswapQuoter   string
	UniswapV2Router string
	SushiswapRouter string
	CurveMetapool   string
}

type tokens struct {
	DAI  string `required:"true"`
	USDT string `required:"true"`
	USDC string `required:"true"`
	OUSD string `required:"true"`
}

type swapConfig struct {
	Disabled        bool
	DisabledMessage string        `default:"Swaps are temporarily disabled."`
	ForceResetAfter time.Duration `default:"5s"`
	RefreshInterval time.Duration `default:"30s"`
	PrefsFile       string
}

type dataDog struct {
	Host string `default:"localhost"`
	Port string `default:"8125"`
}

func newConfig() (config, error) {
	var cfg config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return config{}, fmt.Errorf("failed to process env var: %w", err)
	}
	return cfg, nil
}
