package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice statuses the engine cares about. Invoices are owned by the
// billing side of the system; reconciliation only reads them.
const InvoiceStatusPaid = "PAID"

// Invoice is a payable document the engine tries to pair with bank
// transactions. Amount is always positive; the matching side compares it
// against the absolute value of outflow transactions.
type Invoice struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       uuid.UUID       `gorm:"type:uuid;index" json:"owner_id"`
	InvoiceNumber string          `gorm:"uniqueIndex" json:"invoice_number"`
	Vendor        string          `gorm:"index" json:"vendor"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2);index" json:"amount"`
	IssueDate     time.Time       `json:"issue_date"`
	Status        string          `gorm:"index" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsOpen reports whether the invoice can still receive matches.
func (i *Invoice) IsOpen() bool {
	return i.Status != InvoiceStatusPaid
}

// MatchText is the text the similarity scorer compares transaction
// descriptions against.
func (i *Invoice) MatchText() string {
	return strings.TrimSpace(i.Vendor + " " + i.Description)
}
