package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"riskwatch/src/model"
)

// MainDB is the single writer connection. The core owns every write to
// positions, alerts, and portfolio_snapshots; serializing them through one
// connection is what keeps cycles atomic on SQLite.
var MainDB *gorm.DB

// InitMainDB opens the embedded database, runs migrations, and assigns MainDB.
// Call once at startup before any repository is constructed.
func InitMainDB() error {
	config := GetConfig()

	db, err := gorm.Open(sqlite.Open(config.DatabasePath+"?_busy_timeout=5000"),
		&gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w", config.DatabasePath, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from gorm: %w", err)
	}
	// One writer connection; write serialization happens here, not in app locks.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return fmt.Errorf("failed to enable WAL: %w", err)
	}

	MainDB = db

	logrus.WithField("path", config.DatabasePath).Info("[database] MainDB connection established")

	if err := MainDB.AutoMigrate(
		&model.Wallet{},
		&model.Position{},
		&model.Price{},
		&model.Alert{},
		&model.AlertThreshold{},
		&model.PortfolioSnapshot{},
		&model.LedgerEntry{},
	); err != nil {
		return fmt.Errorf("failed to run migrations on MainDB: %w", err)
	}

	logrus.Info("[database] MainDB migrations completed")

	return nil
}

// Wipe clears every table except wallets. Operator escape hatch; the next
// sync and seed rebuild everything else.
func Wipe() error {
	if MainDB == nil {
		return fmt.Errorf("MainDB not initialized")
	}
	for _, table := range []string{
		"positions", "prices", "alerts", "alert_thresholds",
		"portfolio_snapshots", "alert_ledger",
	} {
		if err := MainDB.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	logrus.Warn("[database] all data cleared except wallets")
	return nil
}
