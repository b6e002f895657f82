package models

// ReconciliationStatus tracks where a bank transaction sits in the
// reconciliation lifecycle. Transitions are enforced by the methods on
// BankTransaction, never by writing the field directly.
type ReconciliationStatus string

const (
	// ReconciliationPending marks a transaction available for matching.
	ReconciliationPending ReconciliationStatus = "PENDING"
	// ReconciliationMatched marks a transaction linked to an invoice.
	ReconciliationMatched ReconciliationStatus = "MATCHED"
	// ReconciliationIgnored marks a transaction excluded from matching.
	ReconciliationIgnored ReconciliationStatus = "IGNORED"
)

// MatchConfidence classifies how trustworthy a match is. HIGH suggestions
// are safe to confirm unattended, MEDIUM and LOW land in the review queue,
// MANUAL marks operator-asserted matches.
type MatchConfidence string

const (
	ConfidenceHigh   MatchConfidence = "HIGH"
	ConfidenceMedium MatchConfidence = "MEDIUM"
	ConfidenceLow    MatchConfidence = "LOW"
	ConfidenceManual MatchConfidence = "MANUAL"
)

// MatchedBy records which actor created a match.
type MatchedBy string

const (
	MatchedBySystem MatchedBy = "system"
	MatchedByUser   MatchedBy = "user"
)

// Score scale and the fixed confidence bands.
const (
	MaxMatchScore             = 100
	HighConfidenceThreshold   = 90
	MediumConfidenceThreshold = 50
)

// ConfidenceForScore maps a 0-100 score onto its confidence band.
// Manual matches bypass this and are tagged ConfidenceManual directly.
func ConfidenceForScore(score int) MatchConfidence {
	switch {
	case score >= HighConfidenceThreshold:
		return ConfidenceHigh
	case score >= MediumConfidenceThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
