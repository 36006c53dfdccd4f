package db

import (
	"fmt"
	"time"

	"github.com/we-kode/mml.media/config"
	"github.com/we-kode/mml.media/logger"
	"github.com/we-kode/mml.media/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormDB is the shared GORM database handle.
var GormDB *gorm.DB

// ConnectGormDB opens the database connection. The driver is selected by
// configuration: mysql for deployments, sqlite for small setups and tests.
// TranslateError is enabled so the checksum unique-constraint violation
// surfaces as gorm.ErrDuplicatedKey on both drivers.
func ConnectGormDB(cfg *config.Config) error {
	gormConfig := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}

	var err error
	switch cfg.DBDriver {
	case "sqlite":
		GormDB, err = gorm.Open(sqlite.Open(cfg.DBPath), gormConfig)
	default:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		GormDB, err = gorm.Open(mysql.Open(dsn), gormConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Connected to the database", logger.String("driver", cfg.DBDriver))
	return nil
}

// CloseGormDB closes the database connection.
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// AutoMigrate migrates all catalog models.
func AutoMigrate() error {
	if GormDB == nil {
		return fmt.Errorf("database not initialized")
	}

	err := GormDB.AutoMigrate(
		&model.Artist{},
		&model.Album{},
		&model.Genre{},
		&model.Language{},
		&model.Group{},
		&model.Record{},
		&model.Setting{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	logger.Info("Database schema migrated")
	return nil
}
