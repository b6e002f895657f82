package matching

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
)

// Suggestion proposes one transaction as the payment for an invoice.
type Suggestion struct {
	Transaction models.BankTransaction `json:"transaction"`
	InvoiceID   uuid.UUID              `json:"invoice_id"`
	Score       int                    `json:"score"`
	Confidence  models.MatchConfidence `json:"confidence"`
	Breakdown   Breakdown              `json:"breakdown"`
}

// InvoiceSuggestion proposes one invoice as the target of a transaction.
type InvoiceSuggestion struct {
	Invoice    models.Invoice         `json:"invoice"`
	Score      int                    `json:"score"`
	Confidence models.MatchConfidence `json:"confidence"`
	Breakdown  Breakdown              `json:"breakdown"`
}

// TransactionSuggestions groups the ranked invoice proposals for one
// pending transaction.
type TransactionSuggestions struct {
	Transaction models.BankTransaction `json:"transaction"`
	Suggestions []InvoiceSuggestion    `json:"suggestions"`
}

// AutoMatch pairs a pending transaction with the one invoice it can be
// confirmed against without review.
type AutoMatch struct {
	Transaction models.BankTransaction `json:"transaction"`
	Invoice     models.Invoice         `json:"invoice"`
	Score       int                    `json:"score"`
	Confidence  models.MatchConfidence `json:"confidence"`
}

// Engine generates and ranks reconciliation candidates. It only reads;
// confirming a suggestion is the reconciliation service's job.
type Engine struct {
	cfg      Config
	scorer   *Scorer
	invoices repository.InvoiceRepository
	txs      repository.BankTransactionRepository
	log      *logrus.Entry
}

// NewEngine builds an engine on top of the read repositories.
func NewEngine(cfg Config, invoices repository.InvoiceRepository, txs repository.BankTransactionRepository, log *logrus.Entry) *Engine {
	return &Engine{
		cfg:      cfg,
		scorer:   NewScorer(cfg),
		invoices: invoices,
		txs:      txs,
		log:      log,
	}
}

// FindPotentialMatches returns the raw candidate transactions around an
// amount and date target. toleranceDays zero means the configured
// default; anything outside [1,30] is rejected.
func (e *Engine) FindPotentialMatches(ctx context.Context, ownerID uuid.UUID, targetAmount decimal.Decimal, targetDate time.Time, toleranceDays int) ([]models.BankTransaction, error) {
	days, err := e.resolveTolerance(toleranceDays)
	if err != nil {
		return nil, err
	}
	return e.txs.FindPotentialMatches(ctx, repository.CandidateQuery{
		OwnerID:         ownerID,
		TargetAmount:    targetAmount,
		TargetDate:      targetDate,
		ToleranceDays:   days,
		AmountTolerance: e.cfg.AmountTolerance,
		Limit:           e.cfg.MaxCandidates,
	})
}

// SuggestForInvoice ranks candidate transactions for one invoice, best
// score first.
func (e *Engine) SuggestForInvoice(ctx context.Context, invoiceID uuid.UUID, toleranceDays int) ([]Suggestion, error) {
	days, err := e.resolveTolerance(toleranceDays)
	if err != nil {
		return nil, err
	}
	invoice, err := e.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	candidates, err := e.txs.FindPotentialMatches(ctx, repository.CandidateQuery{
		OwnerID:         invoice.OwnerID,
		TargetAmount:    invoice.Amount,
		TargetDate:      invoice.IssueDate,
		ToleranceDays:   days,
		AmountTolerance: e.cfg.AmountTolerance,
		Limit:           e.cfg.MaxCandidates,
	})
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(candidates))
	for i := range candidates {
		tx := candidates[i]
		score, breakdown := e.scorer.ScoreInvoice(&tx, invoice)
		suggestions = append(suggestions, Suggestion{
			Transaction: tx,
			InvoiceID:   invoice.ID,
			Score:       score,
			Confidence:  models.ConfidenceForScore(score),
			Breakdown:   breakdown,
		})
	}
	// Stable sort keeps the repository's newest-first order among ties.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	e.log.WithFields(logrus.Fields{
		"invoice_id": invoiceID,
		"candidates": len(suggestions),
	}).Debug("ranked suggestions for invoice")
	return suggestions, nil
}

// BestMatchForInvoice returns the top suggestion, or nil when nothing
// qualifies. Absence of candidates is a normal outcome, not an error.
func (e *Engine) BestMatchForInvoice(ctx context.Context, invoiceID uuid.UUID) (*Suggestion, error) {
	suggestions, err := e.SuggestForInvoice(ctx, invoiceID, 0)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, nil
	}
	return &suggestions[0], nil
}

// SuggestForAllUnmatched proposes invoices for every pending outflow of
// the owner. Transactions with no candidate inside the windows are left
// out of the result.
func (e *Engine) SuggestForAllUnmatched(ctx context.Context, ownerID uuid.UUID) ([]TransactionSuggestions, error) {
	pending, err := e.txs.FindByReconciliationStatus(ctx, ownerID, models.ReconciliationPending)
	if err != nil {
		return nil, err
	}
	open, err := e.invoices.FindOpenByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	groups := make([]TransactionSuggestions, 0, len(pending))
	for i := range pending {
		tx := pending[i]
		if !tx.IsOutflow() {
			continue
		}

		var suggestions []InvoiceSuggestion
		for j := range open {
			invoice := open[j]
			if !e.withinWindows(&tx, &invoice) {
				continue
			}
			score, breakdown := e.scorer.ScoreInvoice(&tx, &invoice)
			suggestions = append(suggestions, InvoiceSuggestion{
				Invoice:    invoice,
				Score:      score,
				Confidence: models.ConfidenceForScore(score),
				Breakdown:  breakdown,
			})
		}
		if len(suggestions) == 0 {
			continue
		}

		sort.SliceStable(suggestions, func(a, b int) bool {
			return suggestions[a].Score > suggestions[b].Score
		})
		if len(suggestions) > e.cfg.MaxCandidates {
			suggestions = suggestions[:e.cfg.MaxCandidates]
		}
		groups = append(groups, TransactionSuggestions{Transaction: tx, Suggestions: suggestions})
	}

	e.log.WithFields(logrus.Fields{
		"owner_id":     ownerID,
		"transactions": len(groups),
	}).Debug("built suggestions for pending transactions")
	return groups, nil
}

// AutoMatchable filters the pending suggestions down to pairs safe for
// unattended confirmation: HIGH confidence, at or above the auto-match
// threshold, with no equally strong runner-up.
func (e *Engine) AutoMatchable(ctx context.Context, ownerID uuid.UUID) ([]AutoMatch, error) {
	groups, err := e.SuggestForAllUnmatched(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	matches := make([]AutoMatch, 0, len(groups))
	for _, g := range groups {
		best := g.Suggestions[0]
		if best.Confidence != models.ConfidenceHigh || best.Score < e.cfg.AutoMatchThreshold {
			continue
		}
		// An equal-scoring runner-up makes the pick ambiguous; it stays
		// in the review queue.
		if len(g.Suggestions) > 1 && g.Suggestions[1].Score == best.Score {
			continue
		}
		matches = append(matches, AutoMatch{
			Transaction: g.Transaction,
			Invoice:     best.Invoice,
			Score:       best.Score,
			Confidence:  best.Confidence,
		})
	}
	return matches, nil
}

func (e *Engine) resolveTolerance(days int) (int, error) {
	if days == 0 {
		return e.cfg.ToleranceDays, nil
	}
	if days < 1 || days > MaxToleranceDays {
		return 0, apperrors.Validation(apperrors.CodeToleranceOutOfRange,
			"tolerance %d outside [1,%d] days", days, MaxToleranceDays)
	}
	return days, nil
}

func (e *Engine) withinWindows(tx *models.BankTransaction, invoice *models.Invoice) bool {
	if daysApart(tx.ExecutionDate, invoice.IssueDate) > e.cfg.ToleranceDays {
		return false
	}
	diff := tx.Amount.Abs().Sub(invoice.Amount.Abs()).Abs()
	return diff.LessThanOrEqual(e.cfg.AmountTolerance)
}
