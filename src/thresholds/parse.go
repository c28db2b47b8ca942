package thresholds

import (
	"strings"

	"github.com/agnivade/levenshtein"
	logger "github.com/sirupsen/logrus"

	"riskwatch/src/model"
)

// fuzzyAcceptThreshold is the minimum similarity for a non-exact match.
const fuzzyAcceptThreshold = 0.60

// alertTypeAliases maps normalized inbound spellings to canonical types.
// Fuzzy matching only ever runs at this boundary; internal code carries the
// canonical enum.
var alertTypeAliases = map[string]model.AlertType{
	"pricethreshold":         model.TypePriceThreshold,
	"price":                  model.TypePriceThreshold,
	"assetprice":             model.TypePriceThreshold,
	"travelpercentliquid":    model.TypeTravelPercentLiquid,
	"travelpercent":          model.TypeTravelPercentLiquid,
	"travel":                 model.TypeTravelPercentLiquid,
	"profit":                 model.TypeProfit,
	"pnl":                    model.TypeProfit,
	"heatindex":              model.TypeHeatIndex,
	"heat":                   model.TypeHeatIndex,
	"currentheatindex":       model.TypeHeatIndex,
	"totalvalue":             model.TypeTotalValue,
	"totalsize":              model.TypeTotalSize,
	"totalcollateral":        model.TypeTotalCollateral,
	"avgleverage":            model.TypeAvgLeverage,
	"averageleverage":        model.TypeAvgLeverage,
	"avgtravelpercent":       model.TypeAvgTravelPercent,
	"averagetravelpercent":   model.TypeAvgTravelPercent,
	"valuetocollateralratio": model.TypeValueToCollateralRatio,
	"valuecollateralratio":   model.TypeValueToCollateralRatio,
	"totalheat":              model.TypeTotalHeat,
	"avgheatindex":           model.TypeTotalHeat,
}

// normalizeKey strips whitespace, underscores, and dashes and lowercases, so
// "Travel_Percent Liquid" and "travelpercentliquid" compare equal.
func normalizeKey(raw string) string {
	replacer := strings.NewReplacer(" ", "", "_", "", "-", "")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(raw)))
}

// similarity is 1 - normalized levenshtein distance; 1.0 means identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// ParseAlertType resolves an inbound alert-type string to its canonical enum.
// Exact (normalized) alias hits win; otherwise the closest alias at or above
// the similarity cutoff is accepted. A failed parse is a low-confidence match:
// it returns TypeUnknown and the caller falls back to simple-trigger
// evaluation.
func ParseAlertType(raw string) (model.AlertType, bool) {
	key := normalizeKey(raw)
	if key == "" {
		return model.TypeUnknown, false
	}

	if t, ok := alertTypeAliases[key]; ok {
		return t, true
	}

	bestScore := 0.0
	best := model.TypeUnknown
	for alias, t := range alertTypeAliases {
		if score := similarity(key, alias); score > bestScore {
			bestScore = score
			best = t
		}
	}

	if bestScore >= fuzzyAcceptThreshold {
		logger.WithFields(map[string]interface{}{
			"raw":      raw,
			"resolved": best,
			"score":    bestScore,
		}).Debug("Alert type resolved by fuzzy match")
		return best, true
	}

	logger.WithFields(map[string]interface{}{
		"raw":   raw,
		"score": bestScore,
	}).Warn("Low-confidence alert type match, treating as unknown")

	return model.TypeUnknown, false
}

// MetricKey identifies one portfolio aggregate a portfolio-class alert can
// watch. The alert's description field carries the user-authored key.
type MetricKey string

const (
	MetricTotalValue             MetricKey = "total_value"
	MetricTotalCollateral        MetricKey = "total_collateral"
	MetricTotalSize              MetricKey = "total_size"
	MetricAvgLeverage            MetricKey = "avg_leverage"
	MetricAvgTravelPercent       MetricKey = "avg_travel_percent"
	MetricValueToCollateralRatio MetricKey = "value_to_collateral_ratio"
	MetricTotalHeat              MetricKey = "total_heat"
)

var metricAliases = map[string]MetricKey{
	"totalvalue":             MetricTotalValue,
	"totalvaluelimits":       MetricTotalValue,
	"portfoliovalue":         MetricTotalValue,
	"totalcollateral":        MetricTotalCollateral,
	"totalcollaterallimits":  MetricTotalCollateral,
	"totalsize":              MetricTotalSize,
	"totalsizelimits":        MetricTotalSize,
	"avgleverage":            MetricAvgLeverage,
	"averageleverage":        MetricAvgLeverage,
	"avgtravelpercent":       MetricAvgTravelPercent,
	"averagetravelpercent":   MetricAvgTravelPercent,
	"valuetocollateralratio": MetricValueToCollateralRatio,
	"valuecollateralratio":   MetricValueToCollateralRatio,
	"totalheat":              MetricTotalHeat,
	"totalheatlimits":        MetricTotalHeat,
	"avgheatindex":           MetricTotalHeat,
}

// ResolveMetricKey maps a user-authored portfolio metric key (from the
// alert's description) to a canonical MetricKey, via alias map first and
// similarity fallback second.
func ResolveMetricKey(raw string) (MetricKey, bool) {
	key := normalizeKey(raw)
	if key == "" {
		return "", false
	}

	if m, ok := metricAliases[key]; ok {
		return m, true
	}

	bestScore := 0.0
	var best MetricKey
	for alias, m := range metricAliases {
		if score := similarity(key, alias); score > bestScore {
			bestScore = score
			best = m
		}
	}

	if bestScore >= fuzzyAcceptThreshold {
		logger.WithFields(map[string]interface{}{
			"raw":      raw,
			"resolved": best,
			"score":    bestScore,
		}).Debug("Portfolio metric resolved by fuzzy match")
		return best, true
	}

	logger.WithField("raw", raw).Warn("Portfolio metric key did not resolve")

	return "", false
}

// MetricAlertType maps a metric key to the alert type its thresholds are
// configured under.
func MetricAlertType(key MetricKey) model.AlertType {
	switch key {
	case MetricTotalValue:
		return model.TypeTotalValue
	case MetricTotalCollateral:
		return model.TypeTotalCollateral
	case MetricTotalSize:
		return model.TypeTotalSize
	case MetricAvgLeverage:
		return model.TypeAvgLeverage
	case MetricAvgTravelPercent:
		return model.TypeAvgTravelPercent
	case MetricValueToCollateralRatio:
		return model.TypeValueToCollateralRatio
	case MetricTotalHeat:
		return model.TypeTotalHeat
	default:
		return model.TypeUnknown
	}
}
