package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

// AuditStore persists audit rows. Satisfied by the audit log repository.
type AuditStore interface {
	Create(ctx context.Context, entry *models.MatchAuditLog) error
}

// AuditRecorder subscribes to the lifecycle events and appends one audit
// row per event. Failures are logged by the bus and never retried; the
// audit trail is best effort.
type AuditRecorder struct {
	store AuditStore
	log   *logrus.Entry
}

// NewAuditRecorder builds a recorder writing to the given store.
func NewAuditRecorder(store AuditStore, log *logrus.Entry) *AuditRecorder {
	return &AuditRecorder{store: store, log: log}
}

// Register subscribes the recorder to every lifecycle event on the bus.
func (r *AuditRecorder) Register(bus *Bus) {
	bus.Subscribe(NameTransactionReconciled, r.handle)
	bus.Subscribe(NameTransactionIgnored, r.handle)
	bus.Subscribe(NameTransactionUnreconciled, r.handle)
}

func (r *AuditRecorder) handle(ctx context.Context, event Event) error {
	entry := &models.MatchAuditLog{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
	}

	switch e := event.(type) {
	case TransactionReconciled:
		score := e.MatchScore
		invoiceID := e.InvoiceID
		entry.TransactionID = e.TransactionID
		entry.InvoiceID = &invoiceID
		entry.MatchScore = &score
		entry.Action = models.AuditActionReconciled
	case TransactionIgnored:
		entry.TransactionID = e.TransactionID
		entry.Action = models.AuditActionIgnored
	case TransactionUnreconciled:
		entry.TransactionID = e.TransactionID
		entry.Action = models.AuditActionUnreconciled
	default:
		r.log.WithField("event", event.Name()).Warn("unknown event type, skipping audit row")
		return nil
	}

	payload, err := json.Marshal(event)
	if err == nil {
		entry.Metadata = payload
	}
	return r.store.Create(ctx, entry)
}
