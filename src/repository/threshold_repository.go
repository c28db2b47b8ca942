package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskwatch/src/database"
	"riskwatch/src/model"
)

// ThresholdRepository is the single home for threshold rows. The JSON seed
// file is read exactly once, at first boot, through the thresholds store.
type ThresholdRepository struct {
	db *gorm.DB
}

// NewThresholdRepository creates a repository bound to the main database.
func NewThresholdRepository() *ThresholdRepository {
	return &ThresholdRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *ThresholdRepository) WithDB(db *gorm.DB) *ThresholdRepository {
	return &ThresholdRepository{db: db}
}

// FindByKey resolves the threshold set for an (alert type, class, condition)
// key. Returns (nil, nil) when nothing is configured for the key.
func (r *ThresholdRepository) FindByKey(
	ctx context.Context,
	alertType model.AlertType,
	class model.AlertClass,
	condition model.Condition,
) (*model.AlertThreshold, error) {

	var threshold model.AlertThreshold

	err := r.db.WithContext(ctx).
		Where("alert_type = ? AND alert_class = ? AND condition = ?", alertType, class, condition).
		First(&threshold).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":       "ThresholdRepository",
			"op":         "FindByKey",
			"alert_type": alertType,
			"class":      class,
			"condition":  condition,
		}).WithError(err).Error("Failed to fetch threshold")
		return nil, err
	}

	return &threshold, nil
}

// FindAll returns every configured threshold row.
func (r *ThresholdRepository) FindAll(ctx context.Context) ([]model.AlertThreshold, error) {
	var thresholds []model.AlertThreshold

	err := r.db.WithContext(ctx).
		Order("alert_class, alert_type").
		Find(&thresholds).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ThresholdRepository",
			"op":   "FindAll",
		}).WithError(err).Error("Failed to fetch thresholds")
		return nil, err
	}

	return thresholds, nil
}

// Count returns the number of threshold rows; zero means first boot.
func (r *ThresholdRepository) Count(ctx context.Context) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&model.AlertThreshold{}).
		Count(&count).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "ThresholdRepository",
			"op":   "Count",
		}).WithError(err).Error("Failed to count thresholds")
		return 0, err
	}

	return count, nil
}

// CreateBatch inserts seed rows.
func (r *ThresholdRepository) CreateBatch(ctx context.Context, thresholds []model.AlertThreshold) error {
	if len(thresholds) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Create(&thresholds).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "ThresholdRepository",
			"op":    "CreateBatch",
			"count": len(thresholds),
		}).WithError(err).Error("Failed to seed thresholds")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "ThresholdRepository",
		"op":    "CreateBatch",
		"count": len(thresholds),
	}).Info("Thresholds seeded")

	return nil
}
