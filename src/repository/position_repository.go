package repository

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"riskwatch/src/database"
	"riskwatch/src/model"
)

// PositionRepository handles read/write operations for venue positions.
type PositionRepository struct {
	db *gorm.DB
}

// NewPositionRepository creates a repository bound to the main database.
func NewPositionRepository() *PositionRepository {
	return &PositionRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PositionRepository) WithDB(db *gorm.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// UpsertBatch writes the latest venue snapshot of positions. Existing rows are
// updated on their venue-assigned primary key so derived fields survive until
// the next enrichment pass overwrites them.
func (r *PositionRepository) UpsertBatch(ctx context.Context, positions []model.Position) error {
	if len(positions) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"asset", "side", "entry_price", "current_price", "liquidation_price",
				"size", "collateral", "wallet_name", "pnl_after_fees", "leverage",
				"value", "last_updated",
			}),
		}).
		Create(&positions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "PositionRepository",
			"op":    "UpsertBatch",
			"count": len(positions),
		}).WithError(err).Error("Failed to upsert positions")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "PositionRepository",
		"op":    "UpsertBatch",
		"count": len(positions),
	}).Info("Positions upserted")

	return nil
}

// DeleteMissing removes positions the venue no longer reports. Passing an
// empty keep list wipes all positions (everything was closed).
func (r *PositionRepository) DeleteMissing(ctx context.Context, keepIDs []string) (int64, error) {
	q := r.db.WithContext(ctx)
	if len(keepIDs) > 0 {
		q = q.Where("id NOT IN ?", keepIDs)
	}

	res := q.Delete(&model.Position{})
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "DeleteMissing",
		}).WithError(res.Error).Error("Failed to delete closed positions")
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		logger.WithFields(map[string]interface{}{
			"repo":    "PositionRepository",
			"op":      "DeleteMissing",
			"deleted": res.RowsAffected,
		}).Info("Closed positions removed")
	}

	return res.RowsAffected, nil
}

// FindByID fetches one position. Returns (nil, nil) when not found.
func (r *PositionRepository) FindByID(ctx context.Context, id string) (*model.Position, error) {
	var position model.Position

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "FindByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch position")
		return nil, err
	}

	return &position, nil
}

// FindAll returns every open position ordered by wallet and asset.
func (r *PositionRepository) FindAll(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position

	err := r.db.WithContext(ctx).
		Order("wallet_name, asset, id").
		Find(&positions).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "FindAll",
		}).WithError(err).Error("Failed to fetch positions")
		return nil, err
	}

	return positions, nil
}

// UpdateDerived writes the enrichment output back in place. Only the derived
// columns move; venue-owned fields stay whatever the sync wrote.
func (r *PositionRepository) UpdateDerived(ctx context.Context, p *model.Position) error {
	err := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"side":                 p.Side,
			"current_price":        p.CurrentPrice,
			"leverage":             p.Leverage,
			"value":                p.Value,
			"travel_percent":       p.TravelPercent,
			"liquidation_distance": p.LiquidationDistance,
			"heat_index":           p.HeatIndex,
			"last_updated":         time.Now().UTC(),
		}).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PositionRepository",
			"op":   "UpdateDerived",
			"id":   p.ID,
		}).WithError(err).Error("Failed to update derived fields")
		return err
	}

	return nil
}

// SetHedgePair stamps (or clears, with nil) the hedge pair id on the given
// positions.
func (r *PositionRepository) SetHedgePair(ctx context.Context, ids []string, pairID *string) error {
	if len(ids) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).
		Model(&model.Position{}).
		Where("id IN ?", ids).
		Update("hedge_pair_id", pairID).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "PositionRepository",
			"op":    "SetHedgePair",
			"count": len(ids),
		}).WithError(err).Error("Failed to set hedge pair id")
		return err
	}

	return nil
}
