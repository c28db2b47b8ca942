package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	LoopPeriod        time.Duration `envconfig:"LOOP_PERIOD" default:"30s"`
	Assets            []string      `envconfig:"MONITOR_ASSETS" default:"BTC,ETH,SOL"`
	WalletSeedPath    string        `envconfig:"WALLET_SEED_PATH" default:"wallets.json"`
	ThresholdSeedPath string        `envconfig:"THRESHOLD_SEED_PATH" default:"alert_thresholds.json"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
