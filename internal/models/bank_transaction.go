package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
)

// BankTransaction is a statement line imported from a bank account.
// Amounts are signed: negative means money left the account (an outflow),
// positive means money came in. The reconciliation engine only ever
// proposes outflows as candidates for invoices.
type BankTransaction struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID              uuid.UUID            `gorm:"type:uuid;index" json:"owner_id"`
	Amount               decimal.Decimal      `gorm:"type:decimal(14,2)" json:"amount"`
	ExecutionDate        time.Time            `gorm:"index" json:"execution_date"`
	Description          string               `json:"description"`
	Counterparty         string               `json:"counterparty"`
	ReconciliationStatus ReconciliationStatus `gorm:"type:varchar(16);index;default:PENDING" json:"reconciliation_status"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// IsOutflow reports whether the transaction moved money out of the account.
func (t *BankTransaction) IsOutflow() bool {
	return t.Amount.IsNegative()
}

// Reconcile moves the transaction to MATCHED. Only PENDING transactions
// may be reconciled; reconciling twice or reconciling an ignored
// transaction is rejected.
func (t *BankTransaction) Reconcile() error {
	switch t.ReconciliationStatus {
	case ReconciliationMatched:
		return apperrors.BusinessRule(apperrors.CodeTransactionAlreadyReconciled,
			"transaction %s is already reconciled", t.ID)
	case ReconciliationIgnored:
		return apperrors.BusinessRule(apperrors.CodeTransactionIgnored,
			"transaction %s is ignored and cannot be reconciled", t.ID)
	}
	t.ReconciliationStatus = ReconciliationMatched
	return nil
}

// Unreconcile moves a MATCHED transaction back to PENDING so it becomes
// matchable again.
func (t *BankTransaction) Unreconcile() error {
	if t.ReconciliationStatus != ReconciliationMatched {
		return apperrors.BusinessRule(apperrors.CodeTransactionNotReconciled,
			"transaction %s is not reconciled", t.ID)
	}
	t.ReconciliationStatus = ReconciliationPending
	return nil
}

// Ignore excludes the transaction from matching. Ignoring an already
// ignored transaction is a no-op; ignoring a matched one is rejected
// because the match has to be removed first.
func (t *BankTransaction) Ignore() error {
	if t.ReconciliationStatus == ReconciliationMatched {
		return apperrors.BusinessRule(apperrors.CodeTransactionIsReconciled,
			"transaction %s is reconciled, unmatch it before ignoring", t.ID)
	}
	t.ReconciliationStatus = ReconciliationIgnored
	return nil
}

// Unignore returns an IGNORED transaction to the matching pool.
func (t *BankTransaction) Unignore() error {
	if t.ReconciliationStatus != ReconciliationIgnored {
		return apperrors.BusinessRule(apperrors.CodeTransactionNotIgnored,
			"transaction %s is not ignored", t.ID)
	}
	t.ReconciliationStatus = ReconciliationPending
	return nil
}
