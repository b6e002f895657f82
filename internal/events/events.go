// Package events carries the reconciliation lifecycle events and the
// in-process bus that delivers them. Publishing is best effort: a slow
// or failing consumer never blocks or fails the reconciliation write
// that emitted the event.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event names, stable identifiers consumers subscribe on.
const (
	NameTransactionReconciled   = "transaction.reconciled"
	NameTransactionIgnored      = "transaction.ignored"
	NameTransactionUnreconciled = "transaction.unreconciled"
)

// Event is implemented by every reconciliation domain event.
type Event interface {
	Name() string
}

// TransactionReconciled fires after a match is committed.
type TransactionReconciled struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	InvoiceID     uuid.UUID `json:"invoice_id"`
	MatchScore    int       `json:"match_score"`
	ReconciledAt  time.Time `json:"reconciled_at"`
}

// Name implements Event.
func (TransactionReconciled) Name() string { return NameTransactionReconciled }

// TransactionIgnored fires after a transaction is excluded from matching.
type TransactionIgnored struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	IgnoredAt     time.Time `json:"ignored_at"`
}

// Name implements Event.
func (TransactionIgnored) Name() string { return NameTransactionIgnored }

// TransactionUnreconciled fires after a match is removed and the
// transaction returns to the matching pool.
type TransactionUnreconciled struct {
	TransactionID  uuid.UUID `json:"transaction_id"`
	UnreconciledAt time.Time `json:"unreconciled_at"`
}

// Name implements Event.
func (TransactionUnreconciled) Name() string { return NameTransactionUnreconciled }

// Publisher is the producer-facing side of the bus. Publish never blocks
// and never returns an error; delivery problems are logged, not raised.
type Publisher interface {
	Publish(event Event)
}

// NopPublisher discards every event. Useful in tests and one-shot
// commands that have no consumers.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}
