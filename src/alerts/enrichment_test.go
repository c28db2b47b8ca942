package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"riskwatch/src/model"
)

// ---------------------------------------------------
// shared fakes
// ---------------------------------------------------

type fakePositions struct {
	byID map[string]model.Position
}

func (f *fakePositions) FindByID(_ context.Context, id string) (*model.Position, error) {
	p, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakePositions) FindAll(context.Context) ([]model.Position, error) {
	out := make([]model.Position, 0, len(f.byID))
	for _, p := range f.byID {
		out = append(out, p)
	}
	return out, nil
}

type fakePrices struct {
	prices map[string]float64
	err    error
}

func (f *fakePrices) LatestByAsset(_ context.Context, asset string) (*model.Price, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.prices[asset]
	if !ok {
		return nil, nil
	}
	return &model.Price{Asset: asset, CurrentPrice: v, Timestamp: time.Now()}, nil
}

type fakeSnapshots struct {
	latest *model.PortfolioSnapshot
}

func (f *fakeSnapshots) Latest(context.Context) (*model.PortfolioSnapshot, error) {
	return f.latest, nil
}

func marketAlert(asset string) model.Alert {
	return model.Alert{
		ID:         "m-" + asset,
		AlertType:  model.TypePriceThreshold,
		AlertClass: model.ClassMarket,
		Asset:      asset,
		Condition:  model.ConditionAbove,
		Status:     model.StatusActive,
	}
}

func positionAlert(alertType model.AlertType, positionID string) model.Alert {
	return model.Alert{
		ID:         "p-" + positionID + "-" + string(alertType),
		AlertType:  alertType,
		AlertClass: model.ClassPosition,
		Asset:      "BTC",
		Condition:  model.ConditionBelow,
		Status:     model.StatusActive,
		PositionID: &positionID,
	}
}

func portfolioAlert(metricKey string) model.Alert {
	return model.Alert{
		ID:          "pf-" + metricKey,
		AlertType:   model.TypeValueToCollateralRatio,
		AlertClass:  model.ClassPortfolio,
		Asset:       "ALL",
		Condition:   model.ConditionAbove,
		Status:      model.StatusActive,
		Description: metricKey,
	}
}

func testPosition() model.Position {
	return model.Position{
		ID:               "pos-1",
		Asset:            "BTC",
		Side:             model.SideLong,
		EntryPrice:       100,
		CurrentPrice:     90,
		LiquidationPrice: 50,
		Size:             1000,
		Collateral:       100,
		PnlAfterFees:     -120,
		HeatIndex:        42,
	}
}

// ---------------------------------------------------
// tests
// ---------------------------------------------------

func TestEnrich_MarketUsesLatestPrice(t *testing.T) {
	s := NewEnrichmentService(
		&fakePositions{},
		&fakePrices{prices: map[string]float64{"BTC": 64250.5}},
		&fakeSnapshots{},
	)

	a := marketAlert("BTC")
	require.NoError(t, s.Enrich(context.Background(), &a))
	require.NotNil(t, a.EvaluatedValue)
	require.Equal(t, 64250.5, *a.EvaluatedValue)
}

func TestEnrich_MarketMissingPriceLeavesAlertUnchanged(t *testing.T) {
	s := NewEnrichmentService(&fakePositions{}, &fakePrices{}, &fakeSnapshots{})

	a := marketAlert("SOL")
	err := s.Enrich(context.Background(), &a)
	require.ErrorIs(t, err, ErrMissingPrice)
	require.Nil(t, a.EvaluatedValue)
}

func TestEnrich_PositionTravelRecomputesFromFreshPrice(t *testing.T) {
	s := NewEnrichmentService(
		&fakePositions{byID: map[string]model.Position{"pos-1": testPosition()}},
		&fakePrices{prices: map[string]float64{"BTC": 75}}, // fresher than stored 90
		&fakeSnapshots{},
	)

	a := positionAlert(model.TypeTravelPercentLiquid, "pos-1")
	require.NoError(t, s.Enrich(context.Background(), &a))
	require.NotNil(t, a.EvaluatedValue)
	require.InDelta(t, -50.0, *a.EvaluatedValue, 1e-9)
}

func TestEnrich_PositionProfitAndHeat(t *testing.T) {
	s := NewEnrichmentService(
		&fakePositions{byID: map[string]model.Position{"pos-1": testPosition()}},
		&fakePrices{},
		&fakeSnapshots{},
	)

	profit := positionAlert(model.TypeProfit, "pos-1")
	require.NoError(t, s.Enrich(context.Background(), &profit))
	require.Equal(t, -120.0, *profit.EvaluatedValue)

	heat := positionAlert(model.TypeHeatIndex, "pos-1")
	require.NoError(t, s.Enrich(context.Background(), &heat))
	require.Equal(t, 42.0, *heat.EvaluatedValue)
}

func TestEnrich_PositionMissingLeavesAlertUnchanged(t *testing.T) {
	s := NewEnrichmentService(&fakePositions{}, &fakePrices{}, &fakeSnapshots{})

	a := positionAlert(model.TypeProfit, "ghost")
	err := s.Enrich(context.Background(), &a)
	require.ErrorIs(t, err, ErrMissingPosition)
	require.Nil(t, a.EvaluatedValue)
}

func TestEnrich_PortfolioFromSnapshot(t *testing.T) {
	s := NewEnrichmentService(
		&fakePositions{},
		&fakePrices{},
		&fakeSnapshots{latest: &model.PortfolioSnapshot{
			TotalValue:      10000,
			TotalCollateral: 5000,
		}},
	)

	a := portfolioAlert("value_to_collateral_ratio")
	require.NoError(t, s.Enrich(context.Background(), &a))
	require.InDelta(t, 2.0, *a.EvaluatedValue, 1e-9)
}

func TestEnrich_PortfolioComputesOnTheFlyWithoutSnapshot(t *testing.T) {
	p := testPosition()
	p.Value = 4000
	p.Collateral = 2000
	s := NewEnrichmentService(
		&fakePositions{byID: map[string]model.Position{"pos-1": p}},
		&fakePrices{},
		&fakeSnapshots{latest: nil},
	)

	a := portfolioAlert("total_value")
	require.NoError(t, s.Enrich(context.Background(), &a))
	require.InDelta(t, 4000.0, *a.EvaluatedValue, 1e-9)
}

func TestEnrich_PortfolioUnresolvedMetric(t *testing.T) {
	s := NewEnrichmentService(&fakePositions{}, &fakePrices{}, &fakeSnapshots{})

	a := portfolioAlert("number_of_goats")
	err := s.Enrich(context.Background(), &a)
	require.ErrorIs(t, err, ErrUnresolvedMetric)
	require.Nil(t, a.EvaluatedValue)
}

func TestEnrichAll_CapturesFailuresWithoutAbortingBatch(t *testing.T) {
	s := NewEnrichmentService(
		&fakePositions{byID: map[string]model.Position{"pos-1": testPosition()}},
		&fakePrices{prices: map[string]float64{"BTC": 75}},
		&fakeSnapshots{},
	).WithConcurrency(2)

	batch := []model.Alert{
		marketAlert("BTC"),
		marketAlert("DOGE"), // no price -> captured failure
		positionAlert(model.TypeHeatIndex, "pos-1"),
	}

	results := s.EnrichAll(context.Background(), batch)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	require.Equal(t, 75.0, *results[0].Alert.EvaluatedValue)

	require.ErrorIs(t, results[1].Err, ErrMissingPrice)
	require.Nil(t, results[1].Alert.EvaluatedValue)

	require.NoError(t, results[2].Err)
	require.Equal(t, 42.0, *results[2].Alert.EvaluatedValue)
}

func TestEnrichAll_PriceSourceErrorIsPerAlert(t *testing.T) {
	boom := errors.New("price backend down")
	s := NewEnrichmentService(&fakePositions{}, &fakePrices{err: boom}, &fakeSnapshots{})

	results := s.EnrichAll(context.Background(), []model.Alert{marketAlert("BTC")})
	require.Len(t, results, 1)
	require.ErrorIs(t, results[0].Err, boom)
}
