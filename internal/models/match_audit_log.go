package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Audit actions, one per lifecycle event.
const (
	AuditActionReconciled   = "reconciled"
	AuditActionUnreconciled = "unreconciled"
	AuditActionIgnored      = "ignored"
)

// MatchAuditLog is an append-only trail of reconciliation lifecycle
// events, written by the event bus audit subscriber. Rows are never
// updated or deleted.
type MatchAuditLog struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TransactionID uuid.UUID      `gorm:"type:uuid;index" json:"transaction_id"`
	InvoiceID     *uuid.UUID     `gorm:"type:uuid" json:"invoice_id,omitempty"`
	Action        string         `gorm:"type:varchar(16);index" json:"action"`
	MatchScore    *int           `json:"match_score,omitempty"`
	Metadata      datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
