package reconciliation

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/events"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
)

// memDB is a hand-rolled in-memory store backing the repository fakes.
// Values are stored by copy so service-side mutations only land via Save,
// the same way a real database behaves.
type memDB struct {
	invoices map[uuid.UUID]models.Invoice
	txs      map[uuid.UUID]models.BankTransaction
	matches  map[uuid.UUID]models.InvoiceTransactionMatch
}

func newMemDB() *memDB {
	return &memDB{
		invoices: map[uuid.UUID]models.Invoice{},
		txs:      map[uuid.UUID]models.BankTransaction{},
		matches:  map[uuid.UUID]models.InvoiceTransactionMatch{},
	}
}

type memInvoices struct{ db *memDB }

func (m *memInvoices) Create(_ context.Context, invoice *models.Invoice) error {
	m.db.invoices[invoice.ID] = *invoice
	return nil
}

func (m *memInvoices) FindByID(_ context.Context, id uuid.UUID) (*models.Invoice, error) {
	if invoice, ok := m.db.invoices[id]; ok {
		return &invoice, nil
	}
	return nil, apperrors.NotFound(apperrors.CodeInvoiceNotFound, "invoice %s not found", id)
}

func (m *memInvoices) FindOpenByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Invoice, error) {
	var out []models.Invoice
	for _, invoice := range m.db.invoices {
		if invoice.OwnerID == ownerID && invoice.Status != models.InvoiceStatusPaid {
			out = append(out, invoice)
		}
	}
	return out, nil
}

type memTxs struct{ db *memDB }

func (m *memTxs) Create(_ context.Context, tx *models.BankTransaction) error {
	m.db.txs[tx.ID] = *tx
	return nil
}

func (m *memTxs) FindByID(_ context.Context, id uuid.UUID) (*models.BankTransaction, error) {
	if tx, ok := m.db.txs[id]; ok {
		return &tx, nil
	}
	return nil, apperrors.NotFound(apperrors.CodeTransactionNotFound, "transaction %s not found", id)
}

func (m *memTxs) FindByReconciliationStatus(_ context.Context, ownerID uuid.UUID, status models.ReconciliationStatus) ([]models.BankTransaction, error) {
	var out []models.BankTransaction
	for _, tx := range m.db.txs {
		if tx.OwnerID == ownerID && tx.ReconciliationStatus == status {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memTxs) FindPotentialMatches(_ context.Context, q repository.CandidateQuery) ([]models.BankTransaction, error) {
	var out []models.BankTransaction
	for _, tx := range m.db.txs {
		if tx.OwnerID == q.OwnerID && tx.ReconciliationStatus == models.ReconciliationPending && tx.IsOutflow() {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *memTxs) Save(_ context.Context, tx *models.BankTransaction) error {
	m.db.txs[tx.ID] = *tx
	return nil
}

type memMatches struct{ db *memDB }

func (m *memMatches) Create(_ context.Context, match *models.InvoiceTransactionMatch) error {
	// Mirrors the database unique index on transaction_id.
	for _, existing := range m.db.matches {
		if existing.TransactionID == match.TransactionID {
			return apperrors.BusinessRule(apperrors.CodeDuplicateMatch,
				"transaction %s already has an active match", match.TransactionID)
		}
	}
	m.db.matches[match.ID] = *match
	return nil
}

func (m *memMatches) FindByID(_ context.Context, id uuid.UUID) (*models.InvoiceTransactionMatch, error) {
	if match, ok := m.db.matches[id]; ok {
		return &match, nil
	}
	return nil, apperrors.NotFound(apperrors.CodeMatchNotFound, "match %s not found", id)
}

func (m *memMatches) FindByPair(_ context.Context, invoiceID, transactionID uuid.UUID) (*models.InvoiceTransactionMatch, error) {
	for _, match := range m.db.matches {
		if match.InvoiceID == invoiceID && match.TransactionID == transactionID {
			cp := match
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeMatchNotFound,
		"no match links invoice %s and transaction %s", invoiceID, transactionID)
}

func (m *memMatches) FindByTransaction(_ context.Context, transactionID uuid.UUID) (*models.InvoiceTransactionMatch, error) {
	for _, match := range m.db.matches {
		if match.TransactionID == transactionID {
			cp := match
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeMatchNotFound, "no match for transaction %s", transactionID)
}

func (m *memMatches) FindByInvoice(_ context.Context, invoiceID uuid.UUID) ([]models.InvoiceTransactionMatch, error) {
	var out []models.InvoiceTransactionMatch
	for _, match := range m.db.matches {
		if match.InvoiceID == invoiceID {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchedAt.Before(out[j].MatchedAt) })
	return out, nil
}

func (m *memMatches) FindNeedingReview(_ context.Context, ownerID uuid.UUID) ([]models.InvoiceTransactionMatch, error) {
	var out []models.InvoiceTransactionMatch
	for _, match := range m.db.matches {
		tx, ok := m.db.txs[match.TransactionID]
		if !ok || tx.OwnerID != ownerID {
			continue
		}
		if match.MatchConfidence == models.ConfidenceMedium || match.MatchConfidence == models.ConfidenceLow {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchScore < out[j].MatchScore })
	return out, nil
}

func (m *memMatches) List(_ context.Context, filter repository.MatchFilter) (*repository.MatchPage, error) {
	var out []models.InvoiceTransactionMatch
	for _, match := range m.db.matches {
		if filter.InvoiceID != nil && match.InvoiceID != *filter.InvoiceID {
			continue
		}
		if filter.TransactionID != nil && match.TransactionID != *filter.TransactionID {
			continue
		}
		if filter.Confidence != "" && match.MatchConfidence != filter.Confidence {
			continue
		}
		if filter.MatchedBy != "" && match.MatchedBy != filter.MatchedBy {
			continue
		}
		if filter.OwnerID != nil {
			tx, ok := m.db.txs[match.TransactionID]
			if !ok || tx.OwnerID != *filter.OwnerID {
				continue
			}
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return &repository.MatchPage{Matches: out}, nil
}

func (m *memMatches) Count(ctx context.Context, filter repository.MatchFilter) (int64, error) {
	page, err := m.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(page.Matches)), nil
}

func (m *memMatches) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.db.matches[id]; !ok {
		return apperrors.NotFound(apperrors.CodeMatchNotFound, "match %s not found", id)
	}
	delete(m.db.matches, id)
	return nil
}

func (m *memMatches) Statistics(_ context.Context, ownerID uuid.UUID) (*repository.MatchStatistics, error) {
	stats := &repository.MatchStatistics{MatchedAmount: decimal.Zero}
	var scoreSum int64
	for _, match := range m.db.matches {
		tx, ok := m.db.txs[match.TransactionID]
		if !ok || tx.OwnerID != ownerID {
			continue
		}
		stats.TotalMatches++
		scoreSum += int64(match.MatchScore)
		stats.MatchedAmount = stats.MatchedAmount.Add(tx.Amount.Abs())
		switch match.MatchConfidence {
		case models.ConfidenceHigh:
			stats.HighCount++
		case models.ConfidenceMedium:
			stats.MediumCount++
		case models.ConfidenceLow:
			stats.LowCount++
		case models.ConfidenceManual:
			stats.ManualCount++
		}
		switch match.MatchedBy {
		case models.MatchedBySystem:
			stats.SystemMatched++
		case models.MatchedByUser:
			stats.UserMatched++
		}
	}
	if stats.TotalMatches > 0 {
		stats.AverageScore = float64(scoreSum) / float64(stats.TotalMatches)
	}
	for _, tx := range m.db.txs {
		if tx.OwnerID != ownerID {
			continue
		}
		switch tx.ReconciliationStatus {
		case models.ReconciliationPending:
			stats.PendingTransactions++
		case models.ReconciliationMatched:
			stats.MatchedTransactions++
		case models.ReconciliationIgnored:
			stats.IgnoredTransactions++
		}
	}
	return stats, nil
}

// memUow hands fn repositories over the same store. The confirm and
// unmatch paths only write after their guards pass, so pass-through
// semantics are enough here; rollback behavior is covered by the
// sqlite-backed repository tests.
type memUow struct{ db *memDB }

func (u *memUow) WithTransaction(_ context.Context, fn func(r repository.Repos) error) error {
	return fn(repository.Repos{
		Transactions: &memTxs{db: u.db},
		Matches:      &memMatches{db: u.db},
	})
}

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) all() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
