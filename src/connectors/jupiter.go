package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// Solana token mints for the markets the venue runs.
var mintToAsset = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh": "BTC",
	"7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs": "ETH",
}

// JupiterPosition is one position row as the perps API returns it. Every
// numeric field arrives as a decimal string.
type JupiterPosition struct {
	PositionPubkey   string `json:"positionPubkey"`
	Side             string `json:"side"`
	MarketMint       string `json:"marketMint"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	LiquidationPrice string `json:"liquidationPrice"`
	Size             string `json:"size"`
	Collateral       string `json:"collateral"`
	PnlAfterFeesUsd  string `json:"pnlAfterFeesUsd"`
	Leverage         string `json:"leverage"`
	Value            string `json:"value"`
	UpdatedTime      int64  `json:"updatedTime"`
}

type jupiterPositionsResponse struct {
	Count    int               `json:"count"`
	DataList []JupiterPosition `json:"dataList"`
}

// JupiterClient reads open perp positions per wallet address.
type JupiterClient struct {
	http *resty.Client
}

func NewJupiterClient(baseURL string, cfg Config) *JupiterClient {
	if baseURL == "" {
		baseURL = cfg.JupiterBaseURL
	}
	return &JupiterClient{http: newRestyClient(baseURL, cfg)}
}

// FetchPositions returns the open positions for one wallet, already mapped
// into storage rows. The wallet name travels with each row so portfolio
// grouping works downstream.
func (c *JupiterClient) FetchPositions(ctx context.Context, walletName, walletAddress string) ([]model.Position, error) {
	var out jupiterPositionsResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("walletAddress", walletAddress).
		SetResult(&out).
		Get("/v1/positions")
	if err != nil {
		return nil, fmt.Errorf("error fetching positions for wallet %s: %w", walletName, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("positions endpoint returned status %d: %s", resp.StatusCode(), resp.String())
	}

	positions := make([]model.Position, 0, len(out.DataList))
	for _, raw := range out.DataList {
		positions = append(positions, raw.toPosition(walletName))
	}

	logger.WithFields(logger.Fields{
		"wallet": walletName,
		"count":  len(positions),
	}).Info("positions fetched")

	return positions, nil
}

func (j JupiterPosition) toPosition(walletName string) model.Position {
	asset, ok := mintToAsset[j.MarketMint]
	if !ok {
		asset = shortMint(j.MarketMint)
		logger.WithFields(logger.Fields{"mint": j.MarketMint}).Warn("unknown market mint")
	}

	return model.Position{
		ID:               j.PositionPubkey,
		Asset:            asset,
		Side:             model.NormalizeSide(j.Side),
		EntryPrice:       parseAmount(j.EntryPrice, "entryPrice"),
		CurrentPrice:     parseAmount(j.MarkPrice, "markPrice"),
		LiquidationPrice: parseAmount(j.LiquidationPrice, "liquidationPrice"),
		Size:             parseAmount(j.Size, "size"),
		Collateral:       parseAmount(j.Collateral, "collateral"),
		PnlAfterFees:     parseAmount(j.PnlAfterFeesUsd, "pnlAfterFeesUsd"),
		Leverage:         parseAmount(j.Leverage, "leverage"),
		Value:            parseAmount(j.Value, "value"),
		WalletName:       walletName,
		LastUpdated:      time.Now().UTC(),
	}
}

// parseAmount turns a venue decimal string into a float, zero on garbage.
// A bad field must not sink the whole sync.
func parseAmount(raw, field string) float64 {
	if raw == "" {
		return 0
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		logger.WithFields(logger.Fields{"field": field, "raw": raw}).Warn("unparseable amount, using zero")
		return 0
	}
	f, _ := d.Float64()
	return f
}

func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:8]
}
