package model

import "time"

// PortfolioSnapshot is one timestamped row of aggregate totals and
// size-weighted averages over all current positions. Written once per
// successful cycle; the latest row feeds portfolio-class alert enrichment.
type PortfolioSnapshot struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Timestamp        time.Time `gorm:"index" json:"timestamp"`
	TotalSize        float64   `json:"total_size"`
	TotalValue       float64   `json:"total_value"`
	TotalCollateral  float64   `json:"total_collateral"`
	AvgLeverage      float64   `json:"avg_leverage"`
	AvgTravelPercent float64   `json:"avg_travel_percent"`
	AvgHeatIndex     float64   `json:"avg_heat_index"`
}

func (PortfolioSnapshot) TableName() string { return "portfolio_snapshots" }

// ValueToCollateralRatio is total value over total collateral, or 0 when no
// collateral is deployed.
func (s *PortfolioSnapshot) ValueToCollateralRatio() float64 {
	if s.TotalCollateral <= 0 {
		return 0
	}
	return s.TotalValue / s.TotalCollateral
}
