package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository returns a gorm-backed invoice repository.
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if err := r.db.WithContext(ctx).Create(invoice).Error; err != nil {
		return apperrors.Persistence(err, "creating invoice %s", invoice.ID)
	}
	return nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeInvoiceNotFound, "invoice %s not found", id)
		}
		return nil, apperrors.Persistence(err, "loading invoice %s", id)
	}
	return &invoice, nil
}

// FindOpenByOwner returns the owner's invoices that can still receive
// matches, newest first.
func (r *invoiceRepository) FindOpenByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("status <> ?", models.InvoiceStatusPaid).
		Order("issue_date DESC").
		Find(&invoices).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "listing open invoices for owner %s", ownerID)
	}
	return invoices, nil
}
