package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskwatch/src/database"
	"riskwatch/src/model"
)

// SnapshotRepository persists per-cycle portfolio aggregates.
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a repository bound to the main database.
func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *SnapshotRepository) WithDB(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Insert appends one snapshot row.
func (r *SnapshotRepository) Insert(ctx context.Context, snap *model.PortfolioSnapshot) error {
	err := r.db.WithContext(ctx).Create(snap).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SnapshotRepository",
			"op":   "Insert",
		}).WithError(err).Error("Failed to insert portfolio snapshot")
		return err
	}

	return nil
}

// Latest returns the newest snapshot, or (nil, nil) before the first cycle.
func (r *SnapshotRepository) Latest(ctx context.Context) (*model.PortfolioSnapshot, error) {
	var snap model.PortfolioSnapshot

	err := r.db.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		First(&snap).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SnapshotRepository",
			"op":   "Latest",
		}).WithError(err).Error("Failed to fetch latest snapshot")
		return nil, err
	}

	return &snap, nil
}
