package model

import "strings"

// Side is the direction of a perpetual position.
type Side string

const (
	SideLong    Side = "LONG"
	SideShort   Side = "SHORT"
	SideUnknown Side = "UNKNOWN"
)

// NormalizeSide maps venue-reported side strings onto the canonical Side values.
// Anything unrecognized becomes SideUnknown; callers decide whether to warn.
func NormalizeSide(raw string) Side {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "LONG", "BUY":
		return SideLong
	case "SHORT", "SELL":
		return SideShort
	default:
		return SideUnknown
	}
}

// AlertClass scopes what an alert evaluates against.
type AlertClass string

const (
	ClassMarket    AlertClass = "MARKET"
	ClassPosition  AlertClass = "POSITION"
	ClassPortfolio AlertClass = "PORTFOLIO"
)

// Condition is the direction of a threshold comparison.
type Condition string

const (
	ConditionAbove Condition = "ABOVE"
	ConditionBelow Condition = "BELOW"
)

// Level is the graded severity assigned by evaluation.
type Level string

const (
	LevelNormal Level = "NORMAL"
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Rank orders levels so monotonicity checks and comparisons stay out of string land.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	default:
		return 0
	}
}

// AlertStatus is the lifecycle state of an alert row.
type AlertStatus string

const (
	StatusActive   AlertStatus = "ACTIVE"
	StatusInactive AlertStatus = "INACTIVE"
)

// AlertType is the canonical kind of measurement an alert watches.
// Inbound strings are parsed once at the boundary (see thresholds.ParseAlertType);
// internal code only ever handles these values.
type AlertType string

const (
	TypePriceThreshold         AlertType = "PRICE_THRESHOLD"
	TypeTravelPercentLiquid    AlertType = "TRAVEL_PERCENT_LIQUID"
	TypeProfit                 AlertType = "PROFIT"
	TypeHeatIndex              AlertType = "HEAT_INDEX"
	TypeTotalValue             AlertType = "TOTAL_VALUE"
	TypeTotalSize              AlertType = "TOTAL_SIZE"
	TypeTotalCollateral        AlertType = "TOTAL_COLLATERAL"
	TypeAvgLeverage            AlertType = "AVG_LEVERAGE"
	TypeAvgTravelPercent       AlertType = "AVG_TRAVEL_PERCENT"
	TypeValueToCollateralRatio AlertType = "VALUE_TO_COLLATERAL_RATIO"
	TypeTotalHeat              AlertType = "TOTAL_HEAT"
	TypeUnknown                AlertType = "UNKNOWN"
)
