package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
)

// BatchConfirmItem is one pairing inside a bulk confirm call.
type BatchConfirmItem struct {
	InvoiceID     uuid.UUID
	TransactionID uuid.UUID
	Score         int
	Manual        bool
	UserID        *uuid.UUID
	Notes         string
}

// BatchItemError reports why one item of a batch failed.
type BatchItemError struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// BatchResult aggregates a batch run. Failures never abort the batch;
// each item succeeds or fails on its own.
type BatchResult struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Errors    []BatchItemError `json:"errors"`
}

func (r *BatchResult) fail(id string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, BatchItemError{
		ID:     id,
		Code:   string(apperrors.CodeOf(err)),
		Reason: err.Error(),
	})
}

// ConfirmBatch confirms pairings one by one in input order. Each item
// runs in its own unit of work, so one duplicate or poor score never
// rolls back its neighbours.
func (s *Service) ConfirmBatch(ctx context.Context, items []BatchConfirmItem) *BatchResult {
	result := &BatchResult{Errors: []BatchItemError{}}
	for _, item := range items {
		var err error
		if item.Manual {
			_, err = s.ConfirmManualMatch(ctx, ConfirmManualMatchInput{
				InvoiceID:     item.InvoiceID,
				TransactionID: item.TransactionID,
				UserID:        item.UserID,
				Notes:         item.Notes,
			})
		} else {
			_, err = s.ConfirmAutoMatch(ctx, ConfirmAutoMatchInput{
				InvoiceID:     item.InvoiceID,
				TransactionID: item.TransactionID,
				Score:         item.Score,
			})
		}
		if err != nil {
			result.fail(item.TransactionID.String(), err)
			continue
		}
		result.Succeeded++
	}

	s.log.WithFields(logrus.Fields{
		"items":     len(items),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("batch confirm finished")
	return result
}

// UnmatchBatch removes matches one by one in input order with the same
// per-item isolation as ConfirmBatch.
func (s *Service) UnmatchBatch(ctx context.Context, matchIDs []uuid.UUID) *BatchResult {
	result := &BatchResult{Errors: []BatchItemError{}}
	for _, id := range matchIDs {
		if err := s.Unmatch(ctx, id); err != nil {
			result.fail(id.String(), err)
			continue
		}
		result.Succeeded++
	}

	s.log.WithFields(logrus.Fields{
		"items":     len(matchIDs),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("batch unmatch finished")
	return result
}
