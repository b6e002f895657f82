package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"github.com/ellvinib/lifeOS-sub004/internal/models"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
)

// GetMatch loads one match by id.
func (s *Service) GetMatch(ctx context.Context, matchID uuid.UUID) (*models.InvoiceTransactionMatch, error) {
	return s.matches.FindByID(ctx, matchID)
}

// ListMatches pages through matches in stable id order, with the
// filter's optional owner, invoice, transaction, confidence and actor
// restrictions applied.
func (s *Service) ListMatches(ctx context.Context, filter repository.MatchFilter) (*repository.MatchPage, error) {
	return s.matches.List(ctx, filter)
}

// CountMatches counts the matches the filter selects, ignoring paging.
func (s *Service) CountMatches(ctx context.Context, filter repository.MatchFilter) (int64, error) {
	filter.Cursor = ""
	filter.Limit = 0
	return s.matches.Count(ctx, filter)
}

// NeedsReview returns the owner's MEDIUM and LOW confidence matches,
// weakest first.
func (s *Service) NeedsReview(ctx context.Context, ownerID uuid.UUID) ([]models.InvoiceTransactionMatch, error) {
	return s.matches.FindNeedingReview(ctx, ownerID)
}

// Statistics summarizes the owner's reconciliation state.
func (s *Service) Statistics(ctx context.Context, ownerID uuid.UUID) (*repository.MatchStatistics, error) {
	return s.matches.Statistics(ctx, ownerID)
}
