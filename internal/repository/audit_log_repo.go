package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository returns a gorm-backed audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *models.MatchAuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.Persistence(err, "appending audit row for transaction %s", entry.TransactionID)
	}
	return nil
}
