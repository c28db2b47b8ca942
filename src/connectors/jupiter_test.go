package connectors_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"riskwatch/src/connectors"
	"riskwatch/src/model"
)

func testConfig() connectors.Config {
	return connectors.Config{HTTPTimeout: 5 * time.Second}
}

func TestJupiter_FetchPositionsMapsVenueRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/positions", r.URL.Path)
		require.Equal(t, "wallet-addr-1", r.URL.Query().Get("walletAddress"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 2,
			"dataList": [
				{
					"positionPubkey": "pos-abc",
					"side": "long",
					"marketMint": "3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh",
					"entryPrice": "64000.50",
					"markPrice": "63000.25",
					"liquidationPrice": "32000.00",
					"size": "1500.00",
					"collateral": "150.00",
					"pnlAfterFeesUsd": "-23.44",
					"leverage": "10.0",
					"value": "1476.56"
				},
				{
					"positionPubkey": "pos-def",
					"side": "short",
					"marketMint": "So11111111111111111111111111111111111111112",
					"entryPrice": "150.00",
					"markPrice": "140.00",
					"liquidationPrice": "300.00",
					"size": "not-a-number",
					"collateral": "50.00",
					"pnlAfterFeesUsd": "3.33",
					"leverage": "4.0",
					"value": "53.33"
				}
			]
		}`))
	}))
	defer srv.Close()

	c := connectors.NewJupiterClient(srv.URL, testConfig())
	positions, err := c.FetchPositions(context.Background(), "main", "wallet-addr-1")
	require.NoError(t, err)
	require.Len(t, positions, 2)

	btc := positions[0]
	require.Equal(t, "pos-abc", btc.ID)
	require.Equal(t, "BTC", btc.Asset)
	require.Equal(t, model.SideLong, btc.Side)
	require.Equal(t, "main", btc.WalletName)
	require.InDelta(t, 64000.50, btc.EntryPrice, 1e-9)
	require.InDelta(t, 63000.25, btc.CurrentPrice, 1e-9)
	require.InDelta(t, -23.44, btc.PnlAfterFees, 1e-9)

	sol := positions[1]
	require.Equal(t, "SOL", sol.Asset)
	require.Equal(t, model.SideShort, sol.Side)
	require.Zero(t, sol.Size, "garbage amounts map to zero instead of failing the sync")
}

func TestJupiter_FetchPositionsUnknownMintKeepsRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"count": 1,
			"dataList": [{
				"positionPubkey": "pos-xyz",
				"side": "long",
				"marketMint": "UnknownMint11111111111111111111111111111111",
				"entryPrice": "1.00",
				"markPrice": "1.10",
				"liquidationPrice": "0.50",
				"size": "100",
				"collateral": "10"
			}]
		}`))
	}))
	defer srv.Close()

	c := connectors.NewJupiterClient(srv.URL, testConfig())
	positions, err := c.FetchPositions(context.Background(), "main", "w")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Equal(t, "UnknownM", positions[0].Asset)
}

func TestJupiter_FetchPositionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad wallet", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := connectors.NewJupiterClient(srv.URL, testConfig())
	_, err := c.FetchPositions(context.Background(), "main", "w")
	require.Error(t, err)
}
