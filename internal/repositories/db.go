// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"fmt"
	"time"

	"walletledger/internal/config"
	"walletledger/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultWalletIndex enforces one default wallet per owner and currency.
const DefaultWalletIndex = "idx_wallets_default_owner_currency"

// InitDB opens the PostgreSQL connection, configures the pool and applies
// migrations.
func InitDB(cfg config.DBConfig, log *logrus.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		log,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"host": cfg.Host,
		"db":   cfg.Name,
	}).Info("connected to PostgreSQL")

	return db, nil
}

// Migrate creates or updates the wallet and ledger tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Wallet{}, &models.LedgerEntry{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	if err := createDefaultWalletIndex(db); err != nil {
		return fmt.Errorf("failed to create default wallet index: %w", err)
	}
	return nil
}

// createDefaultWalletIndex is a partial unique index, so any number of
// non-default wallets may share an owner and currency.
func createDefaultWalletIndex(db *gorm.DB) error {
	return db.Exec(fmt.Sprintf(
		"CREATE UNIQUE INDEX IF NOT EXISTS %s ON wallets (owner_id, currency) WHERE is_default",
		DefaultWalletIndex,
	)).Error
}

// CloseDB closes the underlying connection pool.
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// PingDB checks the database is reachable.
func PingDB(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	return nil
}
