package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"riskwatch/src/database"
	"riskwatch/src/model"
)

// WalletRepository serves the wallets positions are attributed to. The core
// never writes wallets outside the one-time JSON seed.
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a repository bound to the main database.
func NewWalletRepository() *WalletRepository {
	return &WalletRepository{db: database.MainDB}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *WalletRepository) WithDB(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// FindActive returns every wallet flagged active.
func (r *WalletRepository) FindActive(ctx context.Context) ([]model.Wallet, error) {
	var wallets []model.Wallet

	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name").
		Find(&wallets).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "WalletRepository",
			"op":   "FindActive",
		}).WithError(err).Error("Failed to fetch active wallets")
		return nil, err
	}

	return wallets, nil
}

// SeedFromFile loads wallets from a JSON file once; a non-empty table wins
// over the file on every later boot.
func (r *WalletRepository) SeedFromFile(ctx context.Context, path string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Wallet{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count wallets: %w", err)
	}
	if count > 0 {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("path", path).Warn("No wallet seed file, starting with no wallets")
			return nil
		}
		return fmt.Errorf("failed to read wallet seed %s: %w", path, err)
	}

	var wallets []model.Wallet
	if err := json.Unmarshal(raw, &wallets); err != nil {
		return fmt.Errorf("malformed wallet seed %s: %w", path, err)
	}

	if len(wallets) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).Create(&wallets).Error; err != nil {
		return fmt.Errorf("failed to seed wallets: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"repo":  "WalletRepository",
		"op":    "SeedFromFile",
		"count": len(wallets),
	}).Info("Wallets seeded")

	return nil
}
