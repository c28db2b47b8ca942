package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	defaultRetryAttempts   = 4
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

type Config struct {
	JupiterBaseURL   string        `envconfig:"JUPITER_BASE_URL" default:"https://perps-api.jup.ag"`
	CoinGeckoBaseURL string        `envconfig:"COINGECKO_BASE_URL" default:"https://api.coingecko.com"`
	HTTPTimeout      time.Duration `envconfig:"CONNECTOR_HTTP_TIMEOUT" default:"30s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
