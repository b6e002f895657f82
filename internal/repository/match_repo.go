package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type matchRepository struct {
	db *gorm.DB
}

// NewMatchRepository returns a gorm-backed match repository.
func NewMatchRepository(db *gorm.DB) InvoiceTransactionMatchRepository {
	return &matchRepository{db: db}
}

// Create inserts the match. The unique index on transaction_id turns a
// concurrent double-confirm into a DUPLICATE_MATCH error here instead of
// a second active match.
func (r *matchRepository) Create(ctx context.Context, match *models.InvoiceTransactionMatch) error {
	if err := r.db.WithContext(ctx).Create(match).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.BusinessRule(apperrors.CodeDuplicateMatch,
				"transaction %s already has an active match", match.TransactionID)
		}
		return apperrors.Persistence(err, "creating match %s", match.ID)
	}
	return nil
}

func (r *matchRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.InvoiceTransactionMatch, error) {
	var match models.InvoiceTransactionMatch
	err := r.db.WithContext(ctx).First(&match, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMatchNotFound, "match %s not found", id)
		}
		return nil, apperrors.Persistence(err, "loading match %s", id)
	}
	return &match, nil
}

func (r *matchRepository) FindByPair(ctx context.Context, invoiceID, transactionID uuid.UUID) (*models.InvoiceTransactionMatch, error) {
	var match models.InvoiceTransactionMatch
	err := r.db.WithContext(ctx).
		First(&match, "invoice_id = ? AND transaction_id = ?", invoiceID, transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMatchNotFound,
				"no match links invoice %s and transaction %s", invoiceID, transactionID)
		}
		return nil, apperrors.Persistence(err, "loading match for invoice %s", invoiceID)
	}
	return &match, nil
}

func (r *matchRepository) FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.InvoiceTransactionMatch, error) {
	var match models.InvoiceTransactionMatch
	err := r.db.WithContext(ctx).First(&match, "transaction_id = ?", transactionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(apperrors.CodeMatchNotFound,
				"no match for transaction %s", transactionID)
		}
		return nil, apperrors.Persistence(err, "loading match for transaction %s", transactionID)
	}
	return &match, nil
}

func (r *matchRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceTransactionMatch, error) {
	var matches []models.InvoiceTransactionMatch
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("matched_at ASC").
		Find(&matches).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "listing matches for invoice %s", invoiceID)
	}
	return matches, nil
}

// FindNeedingReview returns the owner's MEDIUM and LOW confidence
// matches, weakest score first so reviewers see the shakiest links on top.
func (r *matchRepository) FindNeedingReview(ctx context.Context, ownerID uuid.UUID) ([]models.InvoiceTransactionMatch, error) {
	var matches []models.InvoiceTransactionMatch
	err := r.db.WithContext(ctx).
		Model(&models.InvoiceTransactionMatch{}).
		Select("invoice_transaction_matches.*").
		Joins("JOIN bank_transactions ON bank_transactions.id = invoice_transaction_matches.transaction_id").
		Where("bank_transactions.owner_id = ?", ownerID).
		Where("match_confidence IN ?", []models.MatchConfidence{models.ConfidenceMedium, models.ConfidenceLow}).
		Order("match_score ASC").
		Order("matched_at ASC").
		Find(&matches).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "listing matches needing review for owner %s", ownerID)
	}
	return matches, nil
}

// List pages through matches with an id cursor. One extra row is fetched
// to decide whether another page exists.
func (r *matchRepository) List(ctx context.Context, filter MatchFilter) (*MatchPage, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceTransactionMatch{}), filter)
	if filter.Cursor != "" {
		query = query.Where("invoice_transaction_matches.id > ?", filter.Cursor)
	}

	var matches []models.InvoiceTransactionMatch
	err := query.
		Order("invoice_transaction_matches.id ASC").
		Limit(limit + 1).
		Find(&matches).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "listing matches")
	}

	page := &MatchPage{Matches: matches}
	if len(matches) > limit {
		page.Matches = matches[:limit]
		page.HasMore = true
		page.NextCursor = page.Matches[limit-1].ID.String()
	}
	return page, nil
}

func (r *matchRepository) Count(ctx context.Context, filter MatchFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceTransactionMatch{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, apperrors.Persistence(err, "counting matches")
	}
	return count, nil
}

// Delete removes the match row for good. Unmatched pairs leave no
// tombstone; the unique transaction slot frees up immediately.
func (r *matchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.InvoiceTransactionMatch{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Persistence(res.Error, "deleting match %s", id)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(apperrors.CodeMatchNotFound, "match %s not found", id)
	}
	return nil
}

// Statistics aggregates match and transaction counters for one owner.
func (r *matchRepository) Statistics(ctx context.Context, ownerID uuid.UUID) (*MatchStatistics, error) {
	stats := &MatchStatistics{}

	ownerScoped := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&models.InvoiceTransactionMatch{}).
			Joins("JOIN bank_transactions ON bank_transactions.id = invoice_transaction_matches.transaction_id").
			Where("bank_transactions.owner_id = ?", ownerID)
	}

	var confidenceRows []struct {
		MatchConfidence models.MatchConfidence
		Total           int64
	}
	err := ownerScoped().
		Select("match_confidence, COUNT(*) AS total").
		Group("match_confidence").
		Scan(&confidenceRows).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "aggregating match confidence for owner %s", ownerID)
	}
	for _, row := range confidenceRows {
		stats.TotalMatches += row.Total
		switch row.MatchConfidence {
		case models.ConfidenceHigh:
			stats.HighCount = row.Total
		case models.ConfidenceMedium:
			stats.MediumCount = row.Total
		case models.ConfidenceLow:
			stats.LowCount = row.Total
		case models.ConfidenceManual:
			stats.ManualCount = row.Total
		}
	}

	var actorRows []struct {
		MatchedBy models.MatchedBy
		Total     int64
	}
	err = ownerScoped().
		Select("matched_by, COUNT(*) AS total").
		Group("matched_by").
		Scan(&actorRows).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "aggregating match actors for owner %s", ownerID)
	}
	for _, row := range actorRows {
		switch row.MatchedBy {
		case models.MatchedBySystem:
			stats.SystemMatched = row.Total
		case models.MatchedByUser:
			stats.UserMatched = row.Total
		}
	}

	var totals struct {
		AverageScore  float64
		MatchedAmount decimal.NullDecimal
	}
	err = ownerScoped().
		Select("COALESCE(AVG(match_score), 0) AS average_score, SUM(ABS(bank_transactions.amount)) AS matched_amount").
		Scan(&totals).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "aggregating match totals for owner %s", ownerID)
	}
	stats.AverageScore = totals.AverageScore
	if totals.MatchedAmount.Valid {
		stats.MatchedAmount = totals.MatchedAmount.Decimal
	}

	var statusRows []struct {
		ReconciliationStatus models.ReconciliationStatus
		Total                int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.BankTransaction{}).
		Select("reconciliation_status, COUNT(*) AS total").
		Where("owner_id = ?", ownerID).
		Group("reconciliation_status").
		Scan(&statusRows).Error
	if err != nil {
		return nil, apperrors.Persistence(err, "aggregating transaction statuses for owner %s", ownerID)
	}
	for _, row := range statusRows {
		switch row.ReconciliationStatus {
		case models.ReconciliationPending:
			stats.PendingTransactions = row.Total
		case models.ReconciliationMatched:
			stats.MatchedTransactions = row.Total
		case models.ReconciliationIgnored:
			stats.IgnoredTransactions = row.Total
		}
	}

	return stats, nil
}

func (r *matchRepository) applyFilter(query *gorm.DB, filter MatchFilter) *gorm.DB {
	if filter.OwnerID != nil {
		query = query.
			Select("invoice_transaction_matches.*").
			Joins("JOIN bank_transactions ON bank_transactions.id = invoice_transaction_matches.transaction_id").
			Where("bank_transactions.owner_id = ?", *filter.OwnerID)
	}
	if filter.InvoiceID != nil {
		query = query.Where("invoice_transaction_matches.invoice_id = ?", *filter.InvoiceID)
	}
	if filter.TransactionID != nil {
		query = query.Where("invoice_transaction_matches.transaction_id = ?", *filter.TransactionID)
	}
	if filter.Confidence != "" {
		query = query.Where("invoice_transaction_matches.match_confidence = ?", filter.Confidence)
	}
	if filter.MatchedBy != "" {
		query = query.Where("invoice_transaction_matches.matched_by = ?", filter.MatchedBy)
	}
	return query
}
