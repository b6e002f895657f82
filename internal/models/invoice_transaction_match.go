package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
)

// InvoiceTransactionMatch links one bank transaction to one invoice.
// The unique index on TransactionID is the hard guarantee that a
// transaction carries at most one active match; a second insert for the
// same transaction fails at the database regardless of application races.
// Matches are hard-deleted on unmatch, which frees the slot again.
type InvoiceTransactionMatch struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;index" json:"invoice_id"`
	TransactionID   uuid.UUID       `gorm:"type:uuid;uniqueIndex" json:"transaction_id"`
	MatchScore      int             `json:"match_score"`
	MatchConfidence MatchConfidence `gorm:"type:varchar(8);index" json:"match_confidence"`
	MatchedBy       MatchedBy       `gorm:"type:varchar(8)" json:"matched_by"`
	MatchedByUserID *uuid.UUID      `gorm:"type:uuid" json:"matched_by_user_id,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Details         datatypes.JSON  `json:"details,omitempty"`
	MatchedAt       time.Time       `json:"matched_at"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewAutoMatch builds a system-confirmed match from a recomputed score.
// The confidence band is derived from the score, never supplied.
func NewAutoMatch(invoiceID, transactionID uuid.UUID, score int) (*InvoiceTransactionMatch, error) {
	if err := validateMatchIDs(invoiceID, transactionID); err != nil {
		return nil, err
	}
	if score < 0 || score > MaxMatchScore {
		return nil, apperrors.Validation(apperrors.CodeScoreOutOfRange,
			"match score %d outside [0,%d]", score, MaxMatchScore)
	}
	now := time.Now().UTC()
	return &InvoiceTransactionMatch{
		ID:              uuid.New(),
		InvoiceID:       invoiceID,
		TransactionID:   transactionID,
		MatchScore:      score,
		MatchConfidence: ConfidenceForScore(score),
		MatchedBy:       MatchedBySystem,
		MatchedAt:       now,
		CreatedAt:       now,
	}, nil
}

// NewManualMatch builds an operator-asserted match. Manual matches are
// exempt from score thresholds: the operator is the source of truth, so
// the score is pinned to the maximum and confidence to MANUAL.
func NewManualMatch(invoiceID, transactionID uuid.UUID, userID *uuid.UUID, notes string) (*InvoiceTransactionMatch, error) {
	if err := validateMatchIDs(invoiceID, transactionID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &InvoiceTransactionMatch{
		ID:              uuid.New(),
		InvoiceID:       invoiceID,
		TransactionID:   transactionID,
		MatchScore:      MaxMatchScore,
		MatchConfidence: ConfidenceManual,
		MatchedBy:       MatchedByUser,
		MatchedByUserID: userID,
		Notes:           notes,
		MatchedAt:       now,
		CreatedAt:       now,
	}, nil
}

// SetDetails stores the scoring breakdown alongside the match so review
// screens can show why a score came out the way it did.
func (m *InvoiceTransactionMatch) SetDetails(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.Validation(apperrors.CodeInvalidArgument,
			"match details not serializable: %v", err)
	}
	m.Details = datatypes.JSON(data)
	return nil
}

func validateMatchIDs(invoiceID, transactionID uuid.UUID) error {
	if invoiceID == uuid.Nil {
		return apperrors.Validation(apperrors.CodeMissingInvoiceID, "invoice id is required")
	}
	if transactionID == uuid.Nil {
		return apperrors.Validation(apperrors.CodeMissingTransactionID, "transaction id is required")
	}
	return nil
}
