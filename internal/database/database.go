package database

import (
	"context"
	"errors"
	"fmt"
	"log"

	"pontox/config"
	"pontox/internal/domain"
	"pontox/internal/localstate"
	"pontox/internal/models"
	"pontox/internal/repository"
	"pontox/internal/repository/memory"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverMySQL  = "mysql"
	DriverLocal  = "local"
	DriverMemory = "memory"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.PointsTransaction{},
		&models.Referral{},
		&models.TouristSpot{},
		&models.CheckIn{},
		&models.Redemption{},
		&models.UserAchievement{},
		&models.SpotReview{},
		&models.Notification{},
		&models.SystemSetting{},
		&models.AuditLog{},
	)
}

// Open builds the store selected by cfg.Driver and seeds missing settings.
// The returned close func releases the underlying connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (repository.Store, func() error, error) {
	store, closeFn, err := open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Settings().SeedDefaults(ctx, domain.DefaultSettings); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("seed settings: %w", err)
	}
	return store, closeFn, nil
}

func open(ctx context.Context, cfg *config.DatabaseConfig) (repository.Store, func() error, error) {
	switch cfg.Driver {
	case DriverMySQL:
		db, err := NewDB(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mysql: %w", err)
		}
		if err := AutoMigrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		return repository.NewGormStore(db), sqlDB.Close, nil

	case DriverLocal:
		ls, err := localstate.Open(cfg.LocalPath)
		if err != nil {
			return nil, nil, err
		}
		data, err := ls.Load(ctx, cfg.LocalResetCorrupt)
		if err != nil {
			_ = ls.Close()
			var corrupt *localstate.CorruptStateError
			if errors.As(err, &corrupt) {
				return nil, nil, fmt.Errorf("%w (set LOCAL_RESET_CORRUPT=true to discard it)", err)
			}
			return nil, nil, err
		}
		log.Printf("[store] local state loaded from %s: %d users, %d transactions", cfg.LocalPath, len(data.Users), len(data.Transactions))
		return memory.New(memory.WithData(data), memory.WithCommitHook(ls.Save)), ls.Close, nil

	case DriverMemory:
		log.Printf("[store] using in-memory store; data is lost on restart")
		return memory.New(), func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
}
