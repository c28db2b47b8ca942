package model

import "time"

// AlertThreshold is one configured threshold set for an (alert type, class,
// condition) key: the three level cutoffs plus the notification channels to
// use at each level. Rows are edited by the user through the settings surface
// and read on every evaluation.
//
// Invariants, enforced at seed/update time: when enabled, low/medium/high are
// finite; ABOVE requires low <= medium <= high, BELOW requires
// low >= medium >= high (signed values, consistent with evaluated values).
type AlertThreshold struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AlertType  AlertType  `gorm:"size:40;not null;uniqueIndex:idx_threshold_key" json:"alert_type"`
	AlertClass AlertClass `gorm:"size:20;not null;uniqueIndex:idx_threshold_key" json:"alert_class"`
	Condition  Condition  `gorm:"size:10;not null;uniqueIndex:idx_threshold_key" json:"condition"`

	Low    float64 `json:"low"`
	Medium float64 `json:"medium"`
	High   float64 `json:"high"`

	Enabled bool `gorm:"not null;default:true" json:"enabled"`

	LowChannels    ChannelSet `gorm:"type:text" json:"low_channels"`
	MediumChannels ChannelSet `gorm:"type:text" json:"medium_channels"`
	HighChannels   ChannelSet `gorm:"type:text" json:"high_channels"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (AlertThreshold) TableName() string { return "alert_thresholds" }

// ChannelsForLevel returns the configured channel set for a non-normal level.
func (t *AlertThreshold) ChannelsForLevel(level Level) ChannelSet {
	switch level {
	case LevelLow:
		return t.LowChannels
	case LevelMedium:
		return t.MediumChannels
	case LevelHigh:
		return t.HighChannels
	default:
		return nil
	}
}
