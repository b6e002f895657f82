package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

type bankTransactionRepository struct {
	db *gorm.DB
}

// NewBankTransactionRepository returns a gorm-backed transaction repository.
func NewBankTransactionRepository(db *gorm.DB) BankTransactionRepository {
	return &bankTransactionRepository{db: db}
}

func (r *bankTransactionRepository) Create(ctx context.Context, tx *models.BankTransaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		return apperrors.Persistence(err, "creating transaction %s", tx.ID)
	}
	return nil
}

func (r *bankTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.BankTransaction, error) {
	var tx models.BankTransaction
	err := r.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeTransactionNotFound, "transaction %s not found", id)
		}
		return nil, apperrors.Persistence(err, "loading transaction %s", id)
	}
	return &tx, nil
}

func (r *bankTransactionRepository) FindByReconciliationStatus(ctx context.Context, ownerID uuid.UUID, status models.ReconciliationStatus) ([]models.BankTransaction, error) {
	var txs []models.BankTransaction
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("reconciliation_status = ?", status).
		Order("execution_date DESC").
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "listing %s transactions for owner %s", status, ownerID)
	}
	return txs, nil
}

// FindPotentialMatches runs the candidate query: PENDING outflows of the
// owner whose absolute amount sits within the amount tolerance of the
// target and whose execution date falls inside the day window. Results
// come back newest first, capped at q.Limit.
func (r *bankTransactionRepository) FindPotentialMatches(ctx context.Context, q CandidateQuery) ([]models.BankTransaction, error) {
	from := startOfDay(q.TargetDate).AddDate(0, 0, -q.ToleranceDays)
	until := startOfDay(q.TargetDate).AddDate(0, 0, q.ToleranceDays+1)

	// Bound as floats so the comparison stays numeric on every backend;
	// exact amounts are re-scored with decimals above this layer.
	target := q.TargetAmount.Abs().InexactFloat64()
	tolerance := q.AmountTolerance.InexactFloat64()

	var txs []models.BankTransaction
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", q.OwnerID).
		Where("reconciliation_status = ?", models.ReconciliationPending).
		Where("amount < 0").
		Where("ABS(ABS(amount) - ?) <= ?", target, tolerance).
		Where("execution_date >= ? AND execution_date < ?", from, until).
		Order("execution_date DESC").
		Order("created_at DESC").
		Limit(q.Limit).
		Find(&txs).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "querying candidates for owner %s", q.OwnerID)
	}
	return txs, nil
}

func (r *bankTransactionRepository) Save(ctx context.Context, tx *models.BankTransaction) error {
	if err := r.db.WithContext(ctx).Save(tx).Error; err != nil {
		return apperrors.Persistence(err, "saving transaction %s", tx.ID)
	}
	return nil
}

// startOfDay truncates to midnight UTC so the day window is insensitive
// to the time-of-day carried by execution dates.
func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
