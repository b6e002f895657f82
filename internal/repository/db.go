package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ellvinib/lifeOS-sub004/internal/config"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

// Open connects to Postgres. TranslateError is on so unique-index
// violations surface as gorm.ErrDuplicatedKey and the repositories can
// map them onto DUPLICATE_MATCH.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the engine's tables, including the
// unique index on matches.transaction_id that serializes concurrent
// confirms.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Invoice{},
		&models.BankTransaction{},
		&models.InvoiceTransactionMatch{},
		&models.MatchAuditLog{},
	)
}
