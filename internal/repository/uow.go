package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
)

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork returns a UnitOfWork backed by gorm transactions.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

// WithTransaction opens a database transaction, hands fn repositories
// bound to it, and commits when fn returns nil. fn's own typed errors
// roll back and pass through untouched; begin and commit failures come
// back as persistence errors.
func (u *gormUnitOfWork) WithTransaction(ctx context.Context, fn func(r Repos) error) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repos{
			Transactions: NewBankTransactionRepository(tx),
			Matches:      NewMatchRepository(tx),
		})
	})
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Persistence(err, "transaction failed")
}
