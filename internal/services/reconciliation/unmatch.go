package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/events"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
)

// Unmatch removes one match by id and returns its transaction to the
// matching pool.
func (s *Service) Unmatch(ctx context.Context, matchID uuid.UUID) error {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return err
	}
	return s.unmatchLoaded(ctx, match)
}

// UnmatchPair removes the match linking a specific invoice and
// transaction. Absence of such a link is MATCH_NOT_FOUND.
func (s *Service) UnmatchPair(ctx context.Context, invoiceID, transactionID uuid.UUID) error {
	match, err := s.matches.FindByPair(ctx, invoiceID, transactionID)
	if err != nil {
		return err
	}
	return s.unmatchLoaded(ctx, match)
}

// UnmatchAllForInvoice removes every match of an invoice in one atomic
// sweep and reports how many were removed. Zero matches is a normal
// outcome, not an error.
func (s *Service) UnmatchAllForInvoice(ctx context.Context, invoiceID uuid.UUID) (int, error) {
	matches, err := s.matches.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	err = s.uow.WithTransaction(ctx, func(r repository.Repos) error {
		for i := range matches {
			if err := removeMatch(ctx, r, &matches[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	for i := range matches {
		s.events.Publish(events.TransactionUnreconciled{
			TransactionID:  matches[i].TransactionID,
			UnreconciledAt: now,
		})
	}
	s.log.WithField("invoice_id", invoiceID).WithField("removed", len(matches)).
		Info("invoice matches removed")
	return len(matches), nil
}

// UnmatchAllForTransaction removes the transaction's active match, if
// any, and reports the removal count.
func (s *Service) UnmatchAllForTransaction(ctx context.Context, transactionID uuid.UUID) (int, error) {
	match, err := s.matches.FindByTransaction(ctx, transactionID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeMatchNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if err := s.unmatchLoaded(ctx, match); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *Service) unmatchLoaded(ctx context.Context, match *models.InvoiceTransactionMatch) error {
	err := s.uow.WithTransaction(ctx, func(r repository.Repos) error {
		return removeMatch(ctx, r, match)
	})
	if err != nil {
		return err
	}

	s.events.Publish(events.TransactionUnreconciled{
		TransactionID:  match.TransactionID,
		UnreconciledAt: time.Now().UTC(),
	})
	s.log.WithField("match_id", match.ID).WithField("transaction_id", match.TransactionID).
		Info("match removed")
	return nil
}

// removeMatch deletes one match and reverts its transaction inside the
// caller's unit of work.
func removeMatch(ctx context.Context, r repository.Repos, match *models.InvoiceTransactionMatch) error {
	tx, err := r.Transactions.FindByID(ctx, match.TransactionID)
	if err != nil {
		return err
	}
	if err := tx.Unreconcile(); err != nil {
		return err
	}
	if err := r.Matches.Delete(ctx, match.ID); err != nil {
		return err
	}
	return r.Transactions.Save(ctx, tx)
}
