package alerts

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"riskwatch/src/calc"
	"riskwatch/src/model"
	"riskwatch/src/thresholds"
)

// defaultEnrichConcurrency bounds the fan-out over alerts. Cycles evaluate at
// most a few hundred alerts; a small gather is plenty.
const defaultEnrichConcurrency = 8

// PositionSource serves position lookups during enrichment.
type PositionSource interface {
	FindByID(ctx context.Context, id string) (*model.Position, error)
	FindAll(ctx context.Context) ([]model.Position, error)
}

// PriceSource serves the newest recorded price per asset.
type PriceSource interface {
	LatestByAsset(ctx context.Context, asset string) (*model.Price, error)
}

// SnapshotSource serves the latest portfolio snapshot.
type SnapshotSource interface {
	Latest(ctx context.Context) (*model.PortfolioSnapshot, error)
}

// EnrichmentService computes evaluated_value for alerts from the freshest
// source for their class: the latest price row, the referenced position, or
// the current portfolio aggregates.
type EnrichmentService struct {
	positions   PositionSource
	prices      PriceSource
	snapshots   SnapshotSource
	concurrency int
}

// NewEnrichmentService wires an enrichment service over explicit collaborators.
func NewEnrichmentService(positions PositionSource, prices PriceSource, snapshots SnapshotSource) *EnrichmentService {
	return &EnrichmentService{
		positions:   positions,
		prices:      prices,
		snapshots:   snapshots,
		concurrency: defaultEnrichConcurrency,
	}
}

// WithConcurrency overrides the fan-out bound.
func (s *EnrichmentService) WithConcurrency(n int) *EnrichmentService {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// Enrich sets the alert's evaluated value. On failure the alert is left
// untouched so it retains its prior state for this cycle.
func (s *EnrichmentService) Enrich(ctx context.Context, a *model.Alert) error {
	switch a.AlertClass {
	case model.ClassMarket:
		return s.enrichMarket(ctx, a)
	case model.ClassPosition:
		return s.enrichPosition(ctx, a)
	case model.ClassPortfolio:
		return s.enrichPortfolio(ctx, a)
	default:
		return fmt.Errorf("unknown alert class %q", a.AlertClass)
	}
}

func (s *EnrichmentService) enrichMarket(ctx context.Context, a *model.Alert) error {
	price, err := s.prices.LatestByAsset(ctx, a.Asset)
	if err != nil {
		return err
	}
	if price == nil {
		return fmt.Errorf("%w: %s", ErrMissingPrice, a.Asset)
	}

	v := price.CurrentPrice
	a.EvaluatedValue = &v
	return nil
}

func (s *EnrichmentService) enrichPosition(ctx context.Context, a *model.Alert) error {
	if a.PositionID == nil {
		return fmt.Errorf("%w: alert %s carries no position reference", ErrMissingPosition, a.ID)
	}

	p, err := s.positions.FindByID(ctx, *a.PositionID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("%w: %s", ErrMissingPosition, *a.PositionID)
	}

	var v float64
	switch a.AlertType {
	case model.TypeTravelPercentLiquid:
		// Recomputed from the freshest price on purpose; the stored
		// travel_percent may be a whole cycle old.
		current := p.CurrentPrice
		if price, err := s.prices.LatestByAsset(ctx, p.Asset); err == nil && price != nil {
			current = price.CurrentPrice
		}
		v = calc.TravelPercent(p.Side, p.EntryPrice, current, p.LiquidationPrice)

	case model.TypeProfit:
		v = p.PnlAfterFees

	case model.TypeHeatIndex:
		v = p.HeatIndex

	default:
		return fmt.Errorf("%w: %s on position alert", ErrUnsupportedType, a.AlertType)
	}

	a.EvaluatedValue = &v
	return nil
}

func (s *EnrichmentService) enrichPortfolio(ctx context.Context, a *model.Alert) error {
	metric, ok := thresholds.ResolveMetricKey(a.Description)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnresolvedMetric, a.Description)
	}

	snap, err := s.snapshots.Latest(ctx)
	if err != nil {
		return err
	}
	if snap == nil {
		// No snapshot yet; aggregate on the fly from the current positions.
		ps, err := s.positions.FindAll(ctx)
		if err != nil {
			return err
		}
		computed := calc.PortfolioTotals(ps)
		snap = &computed
	}

	var v float64
	switch metric {
	case thresholds.MetricTotalValue:
		v = snap.TotalValue
	case thresholds.MetricTotalCollateral:
		v = snap.TotalCollateral
	case thresholds.MetricTotalSize:
		v = snap.TotalSize
	case thresholds.MetricAvgLeverage:
		v = snap.AvgLeverage
	case thresholds.MetricAvgTravelPercent:
		v = snap.AvgTravelPercent
	case thresholds.MetricValueToCollateralRatio:
		v = snap.ValueToCollateralRatio()
	case thresholds.MetricTotalHeat:
		v = snap.AvgHeatIndex
	default:
		return fmt.Errorf("%w: %q", ErrUnresolvedMetric, a.Description)
	}

	a.EvaluatedValue = &v
	return nil
}

// EnrichResult pairs an alert with the outcome of its enrichment. Failures
// are captured, never thrown; one bad alert must not sink the batch.
type EnrichResult struct {
	Alert model.Alert
	Err   error
}

// EnrichAll fans enrichment out over the batch with bounded concurrency and
// gathers every result before evaluation proceeds.
func (s *EnrichmentService) EnrichAll(ctx context.Context, batch []model.Alert) []EnrichResult {
	results := make([]EnrichResult, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range batch {
		i := i
		g.Go(func() error {
			a := batch[i]
			err := s.Enrich(gctx, &a)
			if err != nil {
				logger.WithFields(map[string]interface{}{
					"alert_id":   a.ID,
					"alert_type": a.AlertType,
					"class":      a.AlertClass,
				}).WithError(err).Warn("Alert enrichment failed, keeping prior state")
			}
			results[i] = EnrichResult{Alert: a, Err: err}
			return nil
		})
	}

	// Workers never return errors; Wait is just the gather point.
	_ = g.Wait()

	return results
}
