package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/mediapicker/models"
)

// InitGormDB wraps an already open catalog connection pool in a GORM instance so the
// bookkeeping repositories share the catalog database file.
func InitGormDB(sqlDB *sql.DB, log logrus.FieldLogger) (*gorm.DB, error) {
	gormLogger := logger.New(
		log,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.New(sqlite.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}
	return db, nil
}

// AutoMigrateModels creates the tables owned by GORM models. provider_settings is part
// of the catalog schema and is only read through GORM.
func AutoMigrateModels(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.SyncRecord{}); err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	return nil
}
