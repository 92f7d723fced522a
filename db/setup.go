package db

import (
	"fmt"

	"github.com/powerbrief-dev/powerbrief/internal/config"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func ConnectDatabase(settings config.DatabaseSettings) error {
	var err error

	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	switch settings.Type {
	case config.PostgresDbType:
		DB, err = gorm.Open(postgres.Open(settings.DSN), gormConfig)
	case config.SqliteDbType:
		dsn := settings.DSN
		if dsn == "" {
			dsn = ":memory:"
		}
		DB, err = gorm.Open(sqlite.Open(dsn), gormConfig)
		if err == nil {
			err = pinSingleConnection(DB)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", settings.Type)
	}

	if err != nil {
		return err
	}

	return nil
}

// pinSingleConnection keeps sqlite on one connection so an in-memory
// database is shared by every query.
func pinSingleConnection(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	return nil
}

func MigrateDatabase() error {
	if err := DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

// CloseDatabase closes the underlying connection pool.
func CloseDatabase() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	return sqlDB.Close()
}
