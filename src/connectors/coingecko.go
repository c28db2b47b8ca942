package connectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

const priceSourceName = "coingecko"

var assetToGeckoID = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
}

// CoinGeckoClient reads spot prices from the public simple/price endpoint.
type CoinGeckoClient struct {
	http *resty.Client
}

func NewCoinGeckoClient(baseURL string, cfg Config) *CoinGeckoClient {
	if baseURL == "" {
		baseURL = cfg.CoinGeckoBaseURL
	}
	return &CoinGeckoClient{http: newRestyClient(baseURL, cfg)}
}

// FetchPrices returns one price row per requested asset. Assets without a
// known listing id are skipped with a warning, never an error.
func (c *CoinGeckoClient) FetchPrices(ctx context.Context, assets []string) ([]model.Price, error) {
	ids := make([]string, 0, len(assets))
	idToAsset := make(map[string]string, len(assets))
	for _, asset := range assets {
		id, ok := assetToGeckoID[strings.ToUpper(asset)]
		if !ok {
			logger.WithFields(logger.Fields{"asset": asset}).Warn("no price listing for asset")
			continue
		}
		ids = append(ids, id)
		idToAsset[id] = strings.ToUpper(asset)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var out map[string]map[string]float64
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           strings.Join(ids, ","),
			"vs_currencies": "usd",
		}).
		SetResult(&out).
		Get("/api/v3/simple/price")
	if err != nil {
		return nil, fmt.Errorf("error fetching prices: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("price endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}

	now := time.Now().UTC()
	prices := make([]model.Price, 0, len(ids))
	for id, quote := range out {
		asset, ok := idToAsset[id]
		if !ok {
			continue
		}
		usd, ok := quote["usd"]
		if !ok || usd <= 0 {
			logger.WithFields(logger.Fields{"asset": asset, "usd": usd}).Warn("missing or non-positive quote")
			continue
		}
		prices = append(prices, model.Price{
			Asset:        asset,
			CurrentPrice: usd,
			Source:       priceSourceName,
			Timestamp:    now,
		})
	}

	logger.WithFields(logger.Fields{"requested": len(ids), "returned": len(prices)}).Info("prices fetched")
	return prices, nil
}
