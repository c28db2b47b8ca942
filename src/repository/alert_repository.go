package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskwatch/src/database"
	"riskwatch/src/model"
)

// AlertRepository handles read/write operations for alerts.
type AlertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a repository bound to the main database.
func NewAlertRepository() *AlertRepository {
	return &AlertRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *AlertRepository) WithDB(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create inserts a new alert.
func (r *AlertRepository) Create(ctx context.Context, alert *model.Alert) error {
	err := r.db.WithContext(ctx).Create(alert).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AlertRepository",
			"op":         "Create",
			"alert_type": alert.AlertType,
			"class":      alert.AlertClass,
		}).WithError(err).Error("Failed to create alert")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":       "AlertRepository",
		"op":         "Create",
		"alert_id":   alert.ID,
		"alert_type": alert.AlertType,
		"class":      alert.AlertClass,
	}).Info("Alert created")

	return nil
}

// FindByID fetches one alert. Returns (nil, nil) when not found.
func (r *AlertRepository) FindByID(ctx context.Context, id string) (*model.Alert, error) {
	var alert model.Alert

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&alert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "AlertRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch alert")
		return nil, err
	}

	return &alert, nil
}

// FindActive returns the active-alert snapshot one cycle evaluates.
func (r *AlertRepository) FindActive(ctx context.Context) ([]model.Alert, error) {
	var alerts []model.Alert

	err := r.db.WithContext(ctx).
		Where("status = ?", model.StatusActive).
		Order("created_at, id").
		Find(&alerts).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AlertRepository",
			"op":   "FindActive",
		}).WithError(err).Error("Failed to fetch active alerts")
		return nil, err
	}

	return alerts, nil
}

// ExistsFor reports whether an active alert of the given type already targets
// the same position (or asset, when positionID is nil). The seeder uses this
// to stay idempotent.
func (r *AlertRepository) ExistsFor(
	ctx context.Context,
	alertType model.AlertType,
	positionID *string,
	asset string,
) (bool, error) {

	q := r.db.WithContext(ctx).
		Model(&model.Alert{}).
		Where("alert_type = ? AND status = ?", alertType, model.StatusActive)

	if positionID != nil {
		q = q.Where("position_id = ?", *positionID)
	} else {
		q = q.Where("asset = ?", asset)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":       "AlertRepository",
			"op":         "ExistsFor",
			"alert_type": alertType,
		}).WithError(err).Error("Failed to check alert existence")
		return false, err
	}

	return count > 0, nil
}

// UpdateEvaluation persists one alert's evaluation result. Each call is its
// own short transaction so a cancelled cycle never leaves a half-written row.
// Persistence retries once on failure (lock timeouts under WAL are transient).
func (r *AlertRepository) UpdateEvaluation(ctx context.Context, alert *model.Alert) error {
	write := func() error {
		return r.db.WithContext(ctx).
			Model(&model.Alert{}).
			Where("id = ?", alert.ID).
			Updates(map[string]interface{}{
				"level":           alert.Level,
				"evaluated_value": alert.EvaluatedValue,
			}).Error
	}

	err := write()
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "AlertRepository",
			"op":       "UpdateEvaluation",
			"alert_id": alert.ID,
		}).WithError(err).Warn("Evaluation write failed, retrying once")

		if err = write(); err != nil {
			logger.WithFields(map[string]interface{}{
				"repo":     "AlertRepository",
				"op":       "UpdateEvaluation",
				"alert_id": alert.ID,
			}).WithError(err).Error("Failed to persist evaluation")
			return err
		}
	}

	return nil
}

// IncrementCounter bumps the firing-pressure counter without touching
// last_triggered. Used when cooldown suppresses an emit.
func (r *AlertRepository) IncrementCounter(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Alert{}).
		Where("id = ?", id).
		Update("counter", gorm.Expr("counter + 1")).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "AlertRepository",
			"op":       "IncrementCounter",
			"alert_id": id,
		}).WithError(err).Error("Failed to increment counter")
		return err
	}

	return nil
}

// MarkTriggered records a successful emit: last_triggered moves and the
// counter bumps, atomically.
func (r *AlertRepository) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&model.Alert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_triggered": at,
			"counter":        gorm.Expr("counter + 1"),
		}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "AlertRepository",
			"op":       "MarkTriggered",
			"alert_id": id,
		}).WithError(err).Error("Failed to mark alert triggered")
		return err
	}

	return nil
}

// DeleteStalePositionAlerts removes every position-class alert whose
// referenced position no longer exists.
func (r *AlertRepository) DeleteStalePositionAlerts(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("alert_class = ? AND position_id IS NOT NULL AND position_id NOT IN (SELECT id FROM positions)",
			model.ClassPosition).
		Delete(&model.Alert{})
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "AlertRepository",
			"op":   "DeleteStalePositionAlerts",
		}).WithError(res.Error).Error("Failed to delete stale alerts")
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		logger.WithFields(map[string]interface{}{
			"repo":    "AlertRepository",
			"op":      "DeleteStalePositionAlerts",
			"deleted": res.RowsAffected,
		}).Info("Stale position alerts removed")
	}

	return res.RowsAffected, nil
}
