// Package reconciliation implements the match lifecycle: confirming
// suggestions into persisted matches, unmatching them, and excluding
// transactions from matching. Every state change goes through the
// transaction state machine and a unit of work; lifecycle events are
// published after the commit, never before.
package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/events"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
	"github.com/ellvinib/lifeOS-sub004/internal/services/matching"
)

// Service coordinates the reconciliation lifecycle.
type Service struct {
	cfg      matching.Config
	scorer   *matching.Scorer
	invoices repository.InvoiceRepository
	txs      repository.BankTransactionRepository
	matches  repository.InvoiceTransactionMatchRepository
	uow      repository.UnitOfWork
	events   events.Publisher
	log      *logrus.Entry
}

// NewService wires the lifecycle service. The scorer is rebuilt from cfg
// so confirmation rescoring uses exactly the settings the suggestion
// side used.
func NewService(
	cfg matching.Config,
	invoices repository.InvoiceRepository,
	txs repository.BankTransactionRepository,
	matches repository.InvoiceTransactionMatchRepository,
	uow repository.UnitOfWork,
	bus events.Publisher,
	log *logrus.Entry,
) *Service {
	return &Service{
		cfg:      cfg,
		scorer:   matching.NewScorer(cfg),
		invoices: invoices,
		txs:      txs,
		matches:  matches,
		uow:      uow,
		events:   bus,
		log:      log,
	}
}

// ConfirmAutoMatchInput carries one system-suggested pairing to confirm.
// Score is what the caller saw when the suggestion was generated; the
// service recomputes it and persists the recomputed value.
type ConfirmAutoMatchInput struct {
	InvoiceID     uuid.UUID
	TransactionID uuid.UUID
	Score         int
}

// ConfirmManualMatchInput carries an operator-asserted pairing.
type ConfirmManualMatchInput struct {
	InvoiceID     uuid.UUID
	TransactionID uuid.UUID
	UserID        *uuid.UUID
	Notes         string
}

// ConfirmAutoMatch persists a system-suggested match. The score is
// recomputed at this boundary; submissions whose fresh score falls below
// the minimum are rejected with POOR_MATCH_SCORE no matter what the
// caller's stale suggestion said.
func (s *Service) ConfirmAutoMatch(ctx context.Context, in ConfirmAutoMatchInput) (*models.InvoiceTransactionMatch, error) {
	if in.InvoiceID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.CodeMissingInvoiceID, "invoice id is required")
	}
	if in.TransactionID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.CodeMissingTransactionID, "transaction id is required")
	}
	if in.Score < 0 || in.Score > models.MaxMatchScore {
		return nil, apperrors.Validation(apperrors.CodeScoreOutOfRange,
			"submitted score %d outside [0,%d]", in.Score, models.MaxMatchScore)
	}

	invoice, tx, err := s.loadPair(ctx, in.InvoiceID, in.TransactionID)
	if err != nil {
		return nil, err
	}

	score, breakdown := s.scorer.ScoreInvoice(tx, invoice)
	if score < s.cfg.MinMatchScore {
		return nil, apperrors.BusinessRule(apperrors.CodePoorMatchScore,
			"recomputed score %d below the minimum %d", score, s.cfg.MinMatchScore)
	}
	if score != in.Score {
		s.log.WithFields(logrus.Fields{
			"transaction_id": tx.ID,
			"submitted":      in.Score,
			"recomputed":     score,
		}).Debug("submitted score out of date, using recomputed value")
	}

	match, err := models.NewAutoMatch(invoice.ID, tx.ID, score)
	if err != nil {
		return nil, err
	}
	if err := match.SetDetails(breakdown); err != nil {
		return nil, err
	}

	if err := s.persistConfirm(ctx, tx.ID, match); err != nil {
		return nil, err
	}

	s.events.Publish(events.TransactionReconciled{
		TransactionID: tx.ID,
		InvoiceID:     invoice.ID,
		MatchScore:    match.MatchScore,
		ReconciledAt:  match.MatchedAt,
	})
	s.log.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"invoice_id":     invoice.ID,
		"score":          match.MatchScore,
		"confidence":     match.MatchConfidence,
	}).Info("transaction reconciled")
	return match, nil
}

// ConfirmManualMatch persists an operator-asserted match. No score
// threshold applies; the operator's judgement overrides the scorer.
func (s *Service) ConfirmManualMatch(ctx context.Context, in ConfirmManualMatchInput) (*models.InvoiceTransactionMatch, error) {
	if in.InvoiceID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.CodeMissingInvoiceID, "invoice id is required")
	}
	if in.TransactionID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.CodeMissingTransactionID, "transaction id is required")
	}

	invoice, tx, err := s.loadPair(ctx, in.InvoiceID, in.TransactionID)
	if err != nil {
		return nil, err
	}

	match, err := models.NewManualMatch(invoice.ID, tx.ID, in.UserID, in.Notes)
	if err != nil {
		return nil, err
	}

	if err := s.persistConfirm(ctx, tx.ID, match); err != nil {
		return nil, err
	}

	s.events.Publish(events.TransactionReconciled{
		TransactionID: tx.ID,
		InvoiceID:     invoice.ID,
		MatchScore:    match.MatchScore,
		ReconciledAt:  match.MatchedAt,
	})
	s.log.WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"invoice_id":     invoice.ID,
	}).Info("transaction reconciled manually")
	return match, nil
}

// IgnoreTransaction excludes a transaction from matching. Ignoring an
// already ignored transaction succeeds without writing or publishing.
func (s *Service) IgnoreTransaction(ctx context.Context, transactionID uuid.UUID) (*models.BankTransaction, error) {
	tx, err := s.txs.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	alreadyIgnored := tx.ReconciliationStatus == models.ReconciliationIgnored
	if err := tx.Ignore(); err != nil {
		return nil, err
	}
	if alreadyIgnored {
		return tx, nil
	}

	if err := s.txs.Save(ctx, tx); err != nil {
		return nil, err
	}

	s.events.Publish(events.TransactionIgnored{
		TransactionID: tx.ID,
		IgnoredAt:     time.Now().UTC(),
	})
	s.log.WithField("transaction_id", tx.ID).Info("transaction ignored")
	return tx, nil
}

// UnignoreTransaction returns an ignored transaction to the matching
// pool. No lifecycle event exists for this transition.
func (s *Service) UnignoreTransaction(ctx context.Context, transactionID uuid.UUID) (*models.BankTransaction, error) {
	tx, err := s.txs.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if err := tx.Unignore(); err != nil {
		return nil, err
	}
	if err := s.txs.Save(ctx, tx); err != nil {
		return nil, err
	}
	s.log.WithField("transaction_id", tx.ID).Info("transaction returned to matching pool")
	return tx, nil
}

// GetTransaction loads one transaction.
func (s *Service) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*models.BankTransaction, error) {
	return s.txs.FindByID(ctx, transactionID)
}

// loadPair fetches both sides of a proposed match and rejects pairs that
// cross owners or transactions that left the PENDING state.
func (s *Service) loadPair(ctx context.Context, invoiceID, transactionID uuid.UUID) (*models.Invoice, *models.BankTransaction, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	tx, err := s.txs.FindByID(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	if invoice.OwnerID != tx.OwnerID {
		return nil, nil, apperrors.BusinessRule(apperrors.CodeOwnerMismatch,
			"invoice %s and transaction %s belong to different owners", invoice.ID, tx.ID)
	}
	switch tx.ReconciliationStatus {
	case models.ReconciliationMatched:
		return nil, nil, apperrors.BusinessRule(apperrors.CodeTransactionAlreadyReconciled,
			"transaction %s is already reconciled", tx.ID)
	case models.ReconciliationIgnored:
		return nil, nil, apperrors.BusinessRule(apperrors.CodeTransactionIgnored,
			"transaction %s is ignored and cannot be reconciled", tx.ID)
	}
	return invoice, tx, nil
}

// persistConfirm flips the transaction state and inserts the match
// atomically. The transaction is re-read inside the database transaction
// so a concurrent confirm loses cleanly: either the re-read sees MATCHED
// or the unique index rejects the second insert as DUPLICATE_MATCH.
func (s *Service) persistConfirm(ctx context.Context, transactionID uuid.UUID, match *models.InvoiceTransactionMatch) error {
	return s.uow.WithTransaction(ctx, func(r repository.Repos) error {
		fresh, err := r.Transactions.FindByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if err := fresh.Reconcile(); err != nil {
			return err
		}
		if err := r.Matches.Create(ctx, match); err != nil {
			return err
		}
		return r.Transactions.Save(ctx, fresh)
	})
}
