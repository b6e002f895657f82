// Package repository is the persistence boundary of the reconciliation
// engine. Services depend on the interfaces here; the gorm-backed
// implementations translate storage errors into the engine's typed
// errors so nothing above this package imports gorm.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

// CandidateQuery describes one candidate-generation pass: outflow
// transactions of the owner, still PENDING, within the amount and date
// windows around the target invoice.
type CandidateQuery struct {
	OwnerID         uuid.UUID
	TargetAmount    decimal.Decimal
	TargetDate      time.Time
	ToleranceDays   int
	AmountTolerance decimal.Decimal
	Limit           int
}

// MatchFilter narrows match listings. Zero-valued fields are ignored.
type MatchFilter struct {
	OwnerID       *uuid.UUID
	InvoiceID     *uuid.UUID
	TransactionID *uuid.UUID
	Confidence    models.MatchConfidence
	MatchedBy     models.MatchedBy
	Cursor        string
	Limit         int
}

// MatchPage is one page of a cursor-paginated match listing.
type MatchPage struct {
	Matches    []models.InvoiceTransactionMatch `json:"matches"`
	NextCursor string                           `json:"next_cursor,omitempty"`
	HasMore    bool                             `json:"has_more"`
}

// MatchStatistics summarizes reconciliation progress for one owner.
type MatchStatistics struct {
	TotalMatches        int64           `json:"total_matches"`
	HighCount           int64           `json:"high_count"`
	MediumCount         int64           `json:"medium_count"`
	LowCount            int64           `json:"low_count"`
	ManualCount         int64           `json:"manual_count"`
	SystemMatched       int64           `json:"system_matched"`
	UserMatched         int64           `json:"user_matched"`
	AverageScore        float64         `json:"average_score"`
	MatchedAmount       decimal.Decimal `json:"matched_amount"`
	PendingTransactions int64           `json:"pending_transactions"`
	MatchedTransactions int64           `json:"matched_transactions"`
	IgnoredTransactions int64           `json:"ignored_transactions"`
}

// InvoiceRepository reads invoices. The engine never writes them except
// through seeding tools; invoice lifecycle belongs to the billing side.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
	FindOpenByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Invoice, error)
}

// BankTransactionRepository reads and updates bank transactions.
type BankTransactionRepository interface {
	Create(ctx context.Context, tx *models.BankTransaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.BankTransaction, error)
	FindByReconciliationStatus(ctx context.Context, ownerID uuid.UUID, status models.ReconciliationStatus) ([]models.BankTransaction, error)
	FindPotentialMatches(ctx context.Context, q CandidateQuery) ([]models.BankTransaction, error)
	Save(ctx context.Context, tx *models.BankTransaction) error
}

// InvoiceTransactionMatchRepository manages the match links.
type InvoiceTransactionMatchRepository interface {
	Create(ctx context.Context, match *models.InvoiceTransactionMatch) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.InvoiceTransactionMatch, error)
	FindByPair(ctx context.Context, invoiceID, transactionID uuid.UUID) (*models.InvoiceTransactionMatch, error)
	FindByTransaction(ctx context.Context, transactionID uuid.UUID) (*models.InvoiceTransactionMatch, error)
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceTransactionMatch, error)
	FindNeedingReview(ctx context.Context, ownerID uuid.UUID) ([]models.InvoiceTransactionMatch, error)
	List(ctx context.Context, filter MatchFilter) (*MatchPage, error)
	Count(ctx context.Context, filter MatchFilter) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Statistics(ctx context.Context, ownerID uuid.UUID) (*MatchStatistics, error)
}

// AuditLogRepository appends audit rows. Append-only on purpose.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.MatchAuditLog) error
}

// Repos bundles the repositories that participate in one unit of work.
// Every repository in the bundle runs on the same database transaction.
type Repos struct {
	Transactions BankTransactionRepository
	Matches      InvoiceTransactionMatchRepository
}

// UnitOfWork runs a function atomically: either every write inside fn
// commits or none do. fn's typed errors pass through unchanged.
type UnitOfWork interface {
	WithTransaction(ctx context.Context, fn func(r Repos) error) error
}
