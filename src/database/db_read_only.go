package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ReadOnlyDB is a second connection used by UI-facing readers (status API,
// websocket hub) so their queries never contend with the core's writes.
var ReadOnlyDB *gorm.DB

// InitReadOnlyDB opens the read-only connection. It never runs migrations.
func InitReadOnlyDB() error {
	config := GetConfig()

	db, err := gorm.Open(sqlite.Open(config.DatabasePath+"?mode=ro&_busy_timeout=5000"),
		&gorm.Config{
			PrepareStmt:    true,
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to open read-only database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB from ReadOnlyDB: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping ReadOnlyDB: %w", err)
	}

	ReadOnlyDB = db

	logrus.WithField("path", config.DatabasePath).Info("[database] ReadOnlyDB connection established")

	return nil
}
