package model

import "time"

// Position is one open perpetual position on an external venue.
// The ID is the venue-assigned key; rows are created and deleted by the
// position sync and mutated in place by the enricher on every cycle.
type Position struct {
	ID               string  `gorm:"primaryKey" json:"id"`
	Asset            string  `gorm:"size:20;index" json:"asset"`
	Side             Side    `gorm:"size:10" json:"side"`
	EntryPrice       float64 `json:"entry_price"`
	CurrentPrice     float64 `json:"current_price"`
	LiquidationPrice float64 `json:"liquidation_price"`
	Size             float64 `json:"size"`
	Collateral       float64 `json:"collateral"`
	WalletName       string  `gorm:"size:100;index" json:"wallet_name"`

	// Derived fields, rewritten by the enricher.
	Leverage            float64 `json:"leverage"`
	Value               float64 `json:"value"`
	PnlAfterFees        float64 `json:"pnl_after_fees"`
	TravelPercent       float64 `json:"travel_percent"`
	LiquidationDistance float64 `json:"liquidation_distance"`
	HeatIndex           float64 `json:"heat_index"`

	HedgePairID *string   `gorm:"size:40;index" json:"hedge_pair_id,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

func (Position) TableName() string { return "positions" }

// HedgePair is derived on demand from positions sharing a wallet and asset
// with both sides represented. It is never persisted as its own table.
type HedgePair struct {
	ID             string   `json:"id"`
	Wallet         string   `json:"wallet"`
	Asset          string   `json:"asset"`
	PositionIDs    []string `json:"position_ids"`
	TotalLongSize  float64  `json:"total_long_size"`
	TotalShortSize float64  `json:"total_short_size"`
	TotalHeat      float64  `json:"total_heat"`
}
