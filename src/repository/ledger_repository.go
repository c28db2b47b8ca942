package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskwatch/src/database"
	"riskwatch/src/model"
)

// LedgerRepository mirrors cycle summaries into the alert_ledger table so the
// status API can serve them without touching the JSONL file.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a repository bound to the main database.
func NewLedgerRepository() *LedgerRepository {
	return &LedgerRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *LedgerRepository) WithDB(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Insert appends one ledger row.
func (r *LedgerRepository) Insert(ctx context.Context, entry *model.LedgerEntry) error {
	err := r.db.WithContext(ctx).Create(entry).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "LedgerRepository",
			"op":       "Insert",
			"cycle_id": entry.CycleID,
		}).WithError(err).Error("Failed to insert ledger entry")
		return err
	}

	return nil
}

// Tail returns the newest entries, newest first.
func (r *LedgerRepository) Tail(ctx context.Context, limit int) ([]model.LedgerEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	var entries []model.LedgerEntry

	err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "LedgerRepository",
			"op":   "Tail",
		}).WithError(err).Error("Failed to fetch ledger tail")
		return nil, err
	}

	return entries, nil
}
