package model

import "time"

// Alert is one user- or seeder-owned watch on a market, position, or
// portfolio measurement. Evaluation rewrites EvaluatedValue and Level every
// cycle; TriggerValue is user-owned and never touched by evaluation.
type Alert struct {
	ID           string      `gorm:"primaryKey;size:40" json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	AlertType    AlertType   `gorm:"size:40;index" json:"alert_type"`
	AlertClass   AlertClass  `gorm:"size:20;index" json:"alert_class"`
	Asset        string      `gorm:"size:20" json:"asset"` // ticker or "ALL"
	TriggerValue float64     `json:"trigger_value"`
	Condition    Condition   `gorm:"size:10" json:"condition"`
	Channels     ChannelSet  `gorm:"type:text" json:"notification_channels"`
	Level        Level       `gorm:"size:10" json:"level"`
	Status       AlertStatus `gorm:"size:10;index" json:"status"`
	Counter      int         `json:"counter"`

	LastTriggered *time.Time `json:"last_triggered,omitempty"`

	// Description doubles as the portfolio metric key for portfolio-class
	// alerts (resolved fuzzily at the boundary).
	Description string `gorm:"size:255" json:"description"`

	PositionID     *string  `gorm:"size:64;index" json:"position_reference_id,omitempty"`
	PositionType   *Side    `gorm:"size:10" json:"position_type,omitempty"`
	EvaluatedValue *float64 `json:"evaluated_value,omitempty"`
	StartingValue  *float64 `json:"starting_value,omitempty"`
}

func (Alert) TableName() string { return "alerts" }

// Evaluated reports whether enrichment managed to attach a value this cycle.
func (a *Alert) Evaluated() bool { return a.EvaluatedValue != nil }
