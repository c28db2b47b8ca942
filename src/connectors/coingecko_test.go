package connectors_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"riskwatch/src/connectors"
)

func TestCoinGecko_FetchPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/simple/price", r.URL.Path)
		require.Equal(t, "usd", r.URL.Query().Get("vs_currencies"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin": {"usd": 64250.5},
			"ethereum": {"usd": 3150.25},
			"solana": {"usd": 148.9}
		}`))
	}))
	defer srv.Close()

	c := connectors.NewCoinGeckoClient(srv.URL, testConfig())
	prices, err := c.FetchPrices(context.Background(), []string{"BTC", "ETH", "SOL"})
	require.NoError(t, err)
	require.Len(t, prices, 3)

	byAsset := map[string]float64{}
	for _, p := range prices {
		byAsset[p.Asset] = p.CurrentPrice
		require.Equal(t, "coingecko", p.Source)
		require.False(t, p.Timestamp.IsZero())
	}
	require.InDelta(t, 64250.5, byAsset["BTC"], 1e-9)
	require.InDelta(t, 3150.25, byAsset["ETH"], 1e-9)
	require.InDelta(t, 148.9, byAsset["SOL"], 1e-9)
}

func TestCoinGecko_UnknownAssetSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bitcoin", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 64250.5}}`))
	}))
	defer srv.Close()

	c := connectors.NewCoinGeckoClient(srv.URL, testConfig())
	prices, err := c.FetchPrices(context.Background(), []string{"BTC", "SHIBAX"})
	require.NoError(t, err)
	require.Len(t, prices, 1)
	require.Equal(t, "BTC", prices[0].Asset)
}

func TestCoinGecko_NoKnownAssetsShortCircuits(t *testing.T) {
	c := connectors.NewCoinGeckoClient("http://127.0.0.1:0", testConfig())
	prices, err := c.FetchPrices(context.Background(), []string{"SHIBAX"})
	require.NoError(t, err)
	require.Empty(t, prices)
}

func TestCoinGecko_NonPositiveQuoteDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"bitcoin": {"usd": 0}}`))
	}))
	defer srv.Close()

	c := connectors.NewCoinGeckoClient(srv.URL, testConfig())
	prices, err := c.FetchPrices(context.Background(), []string{"BTC"})
	require.NoError(t, err)
	require.Empty(t, prices)
}
