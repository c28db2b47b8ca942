package model

import "time"

// LedgerEntry summarizes one completed cycle. Entries are appended to the
// alert_ledger table and mirrored as newline-delimited JSON for the UI's
// "last activity" indicator.
type LedgerEntry struct {
	ID                uint      `gorm:"primaryKey" json:"-"`
	CycleID           string    `gorm:"size:40;index" json:"cycle_id"`
	Timestamp         time.Time `gorm:"index" json:"timestamp"`
	Positions         int       `json:"positions"`
	AlertsEvaluated   int       `json:"alerts_evaluated"`
	AlertsTriggered   int       `json:"alerts_triggered"`
	NotificationsSent int       `json:"notifications_sent"`
	Errors            int       `json:"errors"`
	DurationMs        int64     `json:"duration_ms"`
}

func (LedgerEntry) TableName() string { return "alert_ledger" }
