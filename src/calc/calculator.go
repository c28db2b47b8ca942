package calc

import (
	"errors"
	"math"

	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// ErrInvalidInputs is returned when a calculation is asked to work on inputs
// that make the result meaningless (e.g. non-positive entry price).
var ErrInvalidInputs = errors.New("invalid calculation inputs")

// Composite risk design constants. Changing these changes what every stored
// heat index means, so treat them as part of the schema.
const (
	riskDistanceExponent   = 0.45
	riskLeverageExponent   = 0.35
	riskCollateralExponent = 0.20
	riskFloor              = 5.0
	riskCeiling            = 100.0
)

// Value returns collateral plus unrealized PnL for the position legs given.
func Value(collateral, size, entryPrice, currentPrice float64, side model.Side) (float64, error) {
	if entryPrice <= 0 {
		return 0, ErrInvalidInputs
	}

	var pnl float64
	switch side {
	case model.SideLong:
		pnl = (currentPrice - entryPrice) * size / entryPrice
	case model.SideShort:
		pnl = (entryPrice - currentPrice) * size / entryPrice
	default:
		return 0, ErrInvalidInputs
	}

	return collateral + pnl, nil
}

// Leverage is notional size over collateral, 0 when no collateral is posted.
func Leverage(size, collateral float64) float64 {
	if collateral <= 0 {
		return 0
	}
	return size / collateral
}

// LiquidationDistance is the absolute price gap to liquidation.
func LiquidationDistance(currentPrice, liquidationPrice float64) float64 {
	return math.Abs(liquidationPrice - currentPrice)
}

// TravelPercent measures signed progress from entry: 0 at entry, -100 at
// liquidation, +100 at a profit target mirrored the same distance on the
// other side of entry (unbounded beyond it).
//
// Invalid inputs yield 0.0 with a warning rather than an error; a position
// that cannot be measured must not poison the rest of a cycle.
func TravelPercent(side model.Side, entryPrice, currentPrice, liquidationPrice float64) float64 {
	if entryPrice <= 0 || liquidationPrice <= 0 || currentPrice <= 0 || entryPrice == liquidationPrice {
		logger.WithFields(map[string]interface{}{
			"entry":       entryPrice,
			"current":     currentPrice,
			"liquidation": liquidationPrice,
		}).Warn("travel percent: invalid inputs, returning 0")
		return 0
	}

	switch side {
	case model.SideLong:
		if currentPrice <= entryPrice {
			return (currentPrice - entryPrice) / (entryPrice - liquidationPrice) * 100
		}
		profitTarget := entryPrice + (entryPrice - liquidationPrice)
		return (currentPrice - entryPrice) / (profitTarget - entryPrice) * 100

	case model.SideShort:
		if currentPrice >= entryPrice {
			return (entryPrice - currentPrice) / (liquidationPrice - entryPrice) * 100
		}
		profitTarget := entryPrice - (liquidationPrice - entryPrice)
		return (entryPrice - currentPrice) / (entryPrice - profitTarget) * 100

	default:
		logger.WithField("side", side).Warn("travel percent: unknown side, returning 0")
		return 0
	}
}

// CompositeRiskIndex scores a position in [riskFloor, riskCeiling] from
// proximity to liquidation, leverage, and how thin the collateral is.
// The second return is false when the score is undefined for the inputs.
func CompositeRiskIndex(p model.Position) (float64, bool) {
	if p.EntryPrice <= 0 || p.LiquidationPrice <= 0 || p.Collateral <= 0 || p.Size <= 0 {
		return 0, false
	}
	if p.EntryPrice == p.LiquidationPrice {
		return 0, false
	}

	// ndl is 1 at entry and 0 at liquidation, clamped for prices beyond either.
	ndl := (p.CurrentPrice - p.LiquidationPrice) / (p.EntryPrice - p.LiquidationPrice)
	ndl = clamp(ndl, 0, 1)
	distanceFactor := 1 - ndl

	normalizedLeverage := Leverage(p.Size, p.Collateral) / 100

	collateralRatio := math.Min(p.Collateral/p.Size, 1)
	riskCollateralFactor := 1 - collateralRatio

	score := math.Pow(distanceFactor, riskDistanceExponent) *
		math.Pow(normalizedLeverage, riskLeverageExponent) *
		math.Pow(riskCollateralFactor, riskCollateralExponent) *
		100

	score = clamp(score, riskFloor, riskCeiling)
	return score, true
}

// PortfolioTotals aggregates a position set into sums and size-weighted
// averages. avg leverage and avg travel percent weight by notional size over
// positions with positive size; avg heat is a plain mean over positions that
// carry a heat index.
func PortfolioTotals(positions []model.Position) model.PortfolioSnapshot {
	var snap model.PortfolioSnapshot

	var weightedLeverage, weightedTravel, sizeSum float64
	var heatSum float64
	var heatCount int

	for _, p := range positions {
		snap.TotalSize += p.Size
		snap.TotalValue += p.Value
		snap.TotalCollateral += p.Collateral

		if p.Size > 0 {
			weightedLeverage += p.Leverage * p.Size
			weightedTravel += p.TravelPercent * p.Size
			sizeSum += p.Size
		}
		if p.HeatIndex > 0 {
			heatSum += p.HeatIndex
			heatCount++
		}
	}

	if sizeSum > 0 {
		snap.AvgLeverage = weightedLeverage / sizeSum
		snap.AvgTravelPercent = weightedTravel / sizeSum
	}
	if heatCount > 0 {
		snap.AvgHeatIndex = heatSum / float64(heatCount)
	}

	return snap
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
