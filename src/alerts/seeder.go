package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
	"riskwatch/src/thresholds"
)

// SeederStore is the slice of the alert repository the seeder writes through.
type SeederStore interface {
	Create(ctx context.Context, alert *model.Alert) error
	ExistsFor(ctx context.Context, alertType model.AlertType, positionID *string, asset string) (bool, error)
}

// Default trigger values for seeded alerts. They only matter when no enabled
// threshold set covers the alert; thresholds win otherwise.
const (
	seedTravelTrigger = -25.0 // percent toward liquidation
	seedProfitTrigger = -50.0 // quote units
	seedHeatTrigger   = 60.0
	seedPriceMargin   = 0.10 // market alerts arm 10% above the current price
)

// Seeder creates the standing alert set: one alert per (position, watched
// field), one price alert per tracked asset, one alert per portfolio metric.
// Seeding is idempotent; existing active alerts are never duplicated.
type Seeder struct {
	alerts    SeederStore
	positions PositionSource
	prices    PriceSource
}

// NewSeeder wires a seeder over explicit collaborators.
func NewSeeder(alerts SeederStore, positions PositionSource, prices PriceSource) *Seeder {
	return &Seeder{alerts: alerts, positions: positions, prices: prices}
}

// SeedPositionAlerts creates travel, profit, and heat alerts for every
// position that does not already have them.
func (s *Seeder) SeedPositionAlerts(ctx context.Context) (int, error) {
	ps, err := s.positions.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, p := range ps {
		specs := []struct {
			alertType model.AlertType
			condition model.Condition
			trigger   float64
		}{
			{model.TypeTravelPercentLiquid, model.ConditionBelow, seedTravelTrigger},
			{model.TypeProfit, model.ConditionBelow, seedProfitTrigger},
			{model.TypeHeatIndex, model.ConditionAbove, seedHeatTrigger},
		}

		for _, spec := range specs {
			id := p.ID
			exists, err := s.alerts.ExistsFor(ctx, spec.alertType, &id, p.Asset)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			side := p.Side
			alert := &model.Alert{
				ID:           uuid.NewString(),
				CreatedAt:    time.Now().UTC(),
				AlertType:    spec.alertType,
				AlertClass:   model.ClassPosition,
				Asset:        p.Asset,
				TriggerValue: spec.trigger,
				Condition:    spec.condition,
				Level:        model.LevelNormal,
				Status:       model.StatusActive,
				Description:  fmt.Sprintf("%s %s %s", p.WalletName, p.Asset, spec.alertType),
				PositionID:   &id,
				PositionType: &side,
			}
			if err := s.alerts.Create(ctx, alert); err != nil {
				return created, err
			}
			created++
		}
	}

	if created > 0 {
		logger.WithField("created", created).Info("Position alerts seeded")
	}

	return created, nil
}

// SeedMarketAlerts creates one price alert per tracked asset, armed a margin
// above the latest price. Assets with no recorded price are skipped.
func (s *Seeder) SeedMarketAlerts(ctx context.Context, assets []string) (int, error) {
	created := 0
	for _, asset := range assets {
		exists, err := s.alerts.ExistsFor(ctx, model.TypePriceThreshold, nil, asset)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		price, err := s.prices.LatestByAsset(ctx, asset)
		if err != nil {
			return created, err
		}
		if price == nil {
			logger.WithField("asset", asset).Warn("No price recorded, skipping market alert seed")
			continue
		}

		starting := price.CurrentPrice
		alert := &model.Alert{
			ID:            uuid.NewString(),
			CreatedAt:     time.Now().UTC(),
			AlertType:     model.TypePriceThreshold,
			AlertClass:    model.ClassMarket,
			Asset:         asset,
			TriggerValue:  price.CurrentPrice * (1 + seedPriceMargin),
			Condition:     model.ConditionAbove,
			Level:         model.LevelNormal,
			Status:        model.StatusActive,
			Description:   fmt.Sprintf("%s price watch", asset),
			StartingValue: &starting,
		}
		if err := s.alerts.Create(ctx, alert); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

// defaultPortfolioMetrics is the standing portfolio watch set.
var defaultPortfolioMetrics = []struct {
	metric    thresholds.MetricKey
	condition model.Condition
	trigger   float64
}{
	{thresholds.MetricTotalValue, model.ConditionBelow, 0},
	{thresholds.MetricValueToCollateralRatio, model.ConditionAbove, 1.8},
	{thresholds.MetricTotalHeat, model.ConditionAbove, 60},
	{thresholds.MetricAvgLeverage, model.ConditionAbove, 20},
}

// SeedPortfolioAlerts creates one alert per default portfolio metric.
func (s *Seeder) SeedPortfolioAlerts(ctx context.Context) (int, error) {
	created := 0
	for _, spec := range defaultPortfolioMetrics {
		alertType := thresholds.MetricAlertType(spec.metric)

		exists, err := s.alerts.ExistsFor(ctx, alertType, nil, "ALL")
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		alert := &model.Alert{
			ID:           uuid.NewString(),
			CreatedAt:    time.Now().UTC(),
			AlertType:    alertType,
			AlertClass:   model.ClassPortfolio,
			Asset:        "ALL",
			TriggerValue: spec.trigger,
			Condition:    spec.condition,
			Level:        model.LevelNormal,
			Status:       model.StatusActive,
			Description:  string(spec.metric),
		}
		if err := s.alerts.Create(ctx, alert); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
