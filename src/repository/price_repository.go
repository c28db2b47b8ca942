package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskwatch/src/database"
	"riskwatch/src/model"
)

// PriceRepository appends market prices and serves latest-per-asset reads.
type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a repository bound to the main database.
func NewPriceRepository() *PriceRepository {
	return &PriceRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *PriceRepository) WithDB(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// InsertBatch appends one price row per asset. Rows are never updated;
// latest-wins is a read-side concern.
func (r *PriceRepository) InsertBatch(ctx context.Context, prices []model.Price) error {
	if len(prices) == 0 {
		return nil
	}

	err := r.db.WithContext(ctx).Create(&prices).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":  "PriceRepository",
			"op":    "InsertBatch",
			"count": len(prices),
		}).WithError(err).Error("Failed to insert prices")
		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "PriceRepository",
		"op":    "InsertBatch",
		"count": len(prices),
	}).Debug("Prices inserted")

	return nil
}

// LatestByAsset returns the newest price row for an asset, or (nil, nil) when
// no price has ever been recorded for it.
func (r *PriceRepository) LatestByAsset(ctx context.Context, asset string) (*model.Price, error) {
	var price model.Price

	err := r.db.WithContext(ctx).
		Where("asset = ?", asset).
		Order("timestamp DESC, id DESC").
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":  "PriceRepository",
			"op":    "LatestByAsset",
			"asset": asset,
		}).WithError(err).Error("Failed to fetch latest price")
		return nil, err
	}

	return &price, nil
}

// LatestAll returns the newest price per asset as a lookup map.
func (r *PriceRepository) LatestAll(ctx context.Context) (map[string]model.Price, error) {
	var prices []model.Price

	err := r.db.WithContext(ctx).
		Order("timestamp ASC, id ASC").
		Find(&prices).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "PriceRepository",
			"op":   "LatestAll",
		}).WithError(err).Error("Failed to fetch prices")
		return nil, err
	}

	// Ascending order means the last write per asset wins.
	latest := make(map[string]model.Price, len(prices))
	for _, p := range prices {
		latest[p.Asset] = p
	}

	return latest, nil
}
