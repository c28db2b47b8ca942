package positions

import (
	"context"
	"math"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/calc"
	"riskwatch/src/model"
)

// PriceSource serves the newest recorded price per asset.
type PriceSource interface {
	LatestByAsset(ctx context.Context, asset string) (*model.Price, error)
}

// Store is the slice of the position repository the enricher needs.
type Store interface {
	FindAll(ctx context.Context) ([]model.Position, error)
	UpdateDerived(ctx context.Context, p *model.Position) error
}

// Enricher rewrites the derived fields of positions from the freshest price.
// It never creates or deletes rows; it prepares values the store writes back
// in place.
type Enricher struct {
	store  Store
	prices PriceSource
}

// NewEnricher wires an enricher over explicit collaborators.
func NewEnricher(store Store, prices PriceSource) *Enricher {
	return &Enricher{store: store, prices: prices}
}

// Enrich returns the position with its derived fields recomputed. Bad inputs
// degrade field by field with a warning; enrichment itself never fails.
func (e *Enricher) Enrich(ctx context.Context, p model.Position) model.Position {
	p.Side = model.NormalizeSide(string(p.Side))
	if p.Side == model.SideUnknown {
		logger.WithFields(map[string]interface{}{
			"position": p.ID,
			"asset":    p.Asset,
		}).Warn("Position side did not normalize to LONG/SHORT")
	}

	coerceNumeric(&p)

	if e.prices != nil {
		price, err := e.prices.LatestByAsset(ctx, p.Asset)
		if err != nil {
			logger.WithFields(map[string]interface{}{
				"position": p.ID,
				"asset":    p.Asset,
			}).WithError(err).Warn("Price lookup failed, keeping stored current price")
		} else if price != nil {
			p.CurrentPrice = price.CurrentPrice
		}
	}

	value, err := calc.Value(p.Collateral, p.Size, p.EntryPrice, p.CurrentPrice, p.Side)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"position": p.ID,
			"entry":    p.EntryPrice,
		}).Warn("Position value undefined for inputs, using 0")
		value = 0
	}
	p.Value = value

	p.Leverage = calc.Leverage(p.Size, p.Collateral)
	p.TravelPercent = calc.TravelPercent(p.Side, p.EntryPrice, p.CurrentPrice, p.LiquidationPrice)
	p.LiquidationDistance = calc.LiquidationDistance(p.CurrentPrice, p.LiquidationPrice)

	if heat, ok := calc.CompositeRiskIndex(p); ok {
		p.HeatIndex = heat
	} else {
		p.HeatIndex = 0
	}

	return p
}

// EnrichAll rewrites derived fields for every stored position and returns the
// enriched set. Per-position write failures are logged and skipped; the rest
// of the batch proceeds.
func (e *Enricher) EnrichAll(ctx context.Context) ([]model.Position, error) {
	stored, err := e.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	enriched := make([]model.Position, 0, len(stored))
	for _, p := range stored {
		out := e.Enrich(ctx, p)
		if err := e.store.UpdateDerived(ctx, &out); err != nil {
			logger.WithFields(map[string]interface{}{
				"position": out.ID,
			}).WithError(err).Warn("Skipping position, derived-field write failed")
			continue
		}
		enriched = append(enriched, out)
	}

	return enriched, nil
}

// coerceNumeric replaces non-finite numeric fields with 0 so one corrupt
// venue payload cannot poison downstream math.
func coerceNumeric(p *model.Position) {
	fields := map[string]*float64{
		"entry_price":       &p.EntryPrice,
		"current_price":     &p.CurrentPrice,
		"liquidation_price": &p.LiquidationPrice,
		"size":              &p.Size,
		"collateral":        &p.Collateral,
		"pnl_after_fees":    &p.PnlAfterFees,
	}
	for name, v := range fields {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			logger.WithFields(map[string]interface{}{
				"position": p.ID,
				"field":    name,
			}).Warn("Non-finite numeric field coerced to 0")
			*v = 0
		}
	}
}
