package model

import "time"

// Price is one observed market price. Rows are append-only; the core only
// ever reads the newest row per asset.
type Price struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Asset        string    `gorm:"size:20;index" json:"asset"`
	CurrentPrice float64   `json:"current_price"`
	Source       string    `gorm:"size:50" json:"source"`
	Timestamp    time.Time `gorm:"index" json:"timestamp"`
}

func (Price) TableName() string { return "prices" }
