package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, ownerID uuid.UUID, amount string, date time.Time, status models.ReconciliationStatus) *models.BankTransaction {
	t.Helper()
	tx := &models.BankTransaction{
		ID:                   uuid.New(),
		OwnerID:              ownerID,
		Amount:               decimal.RequireFromString(amount),
		ExecutionDate:        date,
		Description:          "ACME UTILITIES DIRECT DEBIT",
		Counterparty:         "ACME Utilities",
		ReconciliationStatus: status,
		CreatedAt:            date,
	}
	require.NoError(t, NewBankTransactionRepository(db).Create(context.Background(), tx))
	return tx
}

func seedInvoice(t *testing.T, db *gorm.DB, ownerID uuid.UUID, amount string, issued time.Time, status string) *models.Invoice {
	t.Helper()
	inv := &models.Invoice{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		InvoiceNumber: "INV-" + uuid.NewString()[:8],
		Vendor:        "ACME Utilities",
		Description:   "monthly electricity",
		Amount:        decimal.RequireFromString(amount),
		IssueDate:     issued,
		Status:        status,
	}
	require.NoError(t, NewInvoiceRepository(db).Create(context.Background(), inv))
	return inv
}

func seedMatch(t *testing.T, db *gorm.DB, invoiceID, txID uuid.UUID, score int) *models.InvoiceTransactionMatch {
	t.Helper()
	m, err := models.NewAutoMatch(invoiceID, txID, score)
	require.NoError(t, err)
	require.NoError(t, NewMatchRepository(db).Create(context.Background(), m))
	return m
}

func day(offset int) time.Time {
	base := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func TestFindPotentialMatchesWindow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := uuid.New()

	inWindow := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationPending)
	edgeOfWindow := seedTransaction(t, db, owner, "-45.00", day(-3), models.ReconciliationPending)
	withinTolerance := seedTransaction(t, db, owner, "-46.20", day(2), models.ReconciliationPending)

	seedTransaction(t, db, owner, "45.50", day(0), models.ReconciliationPending)                 // inflow
	seedTransaction(t, db, owner, "-45.50", day(4), models.ReconciliationPending)                // outside date window
	seedTransaction(t, db, owner, "-48.00", day(0), models.ReconciliationPending)                // outside amount tolerance
	seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationMatched)                // already matched
	seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationIgnored)                // ignored
	seedTransaction(t, db, uuid.New(), "-45.50", day(0), models.ReconciliationPending)           // other owner
	seedTransaction(t, db, owner, "-45.50", day(-4), models.ReconciliationPending)               // one day past the edge

	got, err := NewBankTransactionRepository(db).FindPotentialMatches(ctx, CandidateQuery{
		OwnerID:         owner,
		TargetAmount:    decimal.RequireFromString("45.50"),
		TargetDate:      day(0),
		ToleranceDays:   3,
		AmountTolerance: decimal.RequireFromString("1.0"),
		Limit:           10,
	})
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(got))
	for _, tx := range got {
		ids = append(ids, tx.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{inWindow.ID, edgeOfWindow.ID, withinTolerance.ID}, ids)

	// Newest execution date first.
	require.Len(t, got, 3)
	assert.Equal(t, withinTolerance.ID, got[0].ID)
	assert.Equal(t, inWindow.ID, got[1].ID)
	assert.Equal(t, edgeOfWindow.ID, got[2].ID)
}

func TestFindPotentialMatchesLimit(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	for i := 0; i < 6; i++ {
		seedTransaction(t, db, owner, "-45.50", day(-i%3), models.ReconciliationPending)
	}

	got, err := NewBankTransactionRepository(db).FindPotentialMatches(context.Background(), CandidateQuery{
		OwnerID:         owner,
		TargetAmount:    decimal.RequireFromString("45.50"),
		TargetDate:      day(0),
		ToleranceDays:   3,
		AmountTolerance: decimal.RequireFromString("1.0"),
		Limit:           4,
	})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestTransactionFindByID(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	tx := seedTransaction(t, db, owner, "-10.00", day(0), models.ReconciliationPending)

	repo := NewBankTransactionRepository(db)
	got, err := repo.FindByID(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("-10.00")))

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.Equal(t, apperrors.CodeTransactionNotFound, apperrors.CodeOf(err))
}

func TestInvoiceFindOpenByOwner(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()

	open := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")
	overdue := seedInvoice(t, db, owner, "99.00", day(-1), "OVERDUE")
	seedInvoice(t, db, owner, "10.00", day(0), models.InvoiceStatusPaid)
	seedInvoice(t, db, uuid.New(), "45.50", day(0), "OPEN")

	got, err := NewInvoiceRepository(db).FindOpenByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, open.ID, got[0].ID)
	assert.Equal(t, overdue.ID, got[1].ID)
}

func TestMatchUniqueTransactionSlot(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	tx := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationPending)
	first := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")
	second := seedInvoice(t, db, owner, "45.00", day(0), "OPEN")

	seedMatch(t, db, first.ID, tx.ID, 95)

	dup, err := models.NewAutoMatch(second.ID, tx.ID, 80)
	require.NoError(t, err)
	err = NewMatchRepository(db).Create(context.Background(), dup)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDuplicateMatch, apperrors.CodeOf(err))
	assert.Equal(t, apperrors.KindBusinessRule, apperrors.KindOf(err))
}

func TestMatchDelete(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	tx := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationPending)
	inv := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")
	m := seedMatch(t, db, inv.ID, tx.ID, 95)

	repo := NewMatchRepository(db)
	require.NoError(t, repo.Delete(context.Background(), m.ID))

	_, err := repo.FindByID(context.Background(), m.ID)
	assert.Equal(t, apperrors.CodeMatchNotFound, apperrors.CodeOf(err))

	err = repo.Delete(context.Background(), m.ID)
	assert.Equal(t, apperrors.CodeMatchNotFound, apperrors.CodeOf(err))

	// The slot frees up: the same transaction can be matched again.
	again, err := models.NewAutoMatch(inv.ID, tx.ID, 90)
	require.NoError(t, err)
	assert.NoError(t, repo.Create(context.Background(), again))
}

func TestMatchListPagination(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	inv := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")
	for i := 0; i < 5; i++ {
		tx := seedTransaction(t, db, owner, "-45.50", day(-i%3), models.ReconciliationPending)
		seedMatch(t, db, inv.ID, tx.ID, 60+i)
	}

	repo := NewMatchRepository(db)
	seen := map[uuid.UUID]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := repo.List(context.Background(), MatchFilter{OwnerID: &owner, Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		pages++
		for _, m := range page.Matches {
			assert.False(t, seen[m.ID], "match %s repeated across pages", m.ID)
			seen[m.ID] = true
		}
		if !page.HasMore {
			break
		}
		require.NotEmpty(t, page.NextCursor)
		cursor = page.NextCursor
	}

	assert.Equal(t, 3, pages)
	assert.Len(t, seen, 5)

	count, err := repo.Count(context.Background(), MatchFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestMatchListFilters(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	inv := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")

	autoTx := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationPending)
	seedMatch(t, db, inv.ID, autoTx.ID, 95)

	manualTx := seedTransaction(t, db, owner, "-45.00", day(-1), models.ReconciliationPending)
	manual, err := models.NewManualMatch(inv.ID, manualTx.ID, nil, "")
	require.NoError(t, err)
	repo := NewMatchRepository(db)
	require.NoError(t, repo.Create(context.Background(), manual))

	page, err := repo.List(context.Background(), MatchFilter{Confidence: models.ConfidenceManual})
	require.NoError(t, err)
	require.Len(t, page.Matches, 1)
	assert.Equal(t, manual.ID, page.Matches[0].ID)

	page, err = repo.List(context.Background(), MatchFilter{MatchedBy: models.MatchedBySystem})
	require.NoError(t, err)
	require.Len(t, page.Matches, 1)
	assert.Equal(t, autoTx.ID, page.Matches[0].TransactionID)

	txID := autoTx.ID
	page, err = repo.List(context.Background(), MatchFilter{TransactionID: &txID})
	require.NoError(t, err)
	assert.Len(t, page.Matches, 1)
}

func TestFindNeedingReview(t *testing.T) {
	db := newTestDB(t)
	owner := uuid.New()
	inv := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")

	strong := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationPending)
	seedMatch(t, db, inv.ID, strong.ID, 95)

	medium := seedTransaction(t, db, owner, "-45.40", day(-1), models.ReconciliationPending)
	mediumMatch := seedMatch(t, db, inv.ID, medium.ID, 72)

	weak := seedTransaction(t, db, owner, "-46.00", day(-2), models.ReconciliationPending)
	weakMatch := seedMatch(t, db, inv.ID, weak.ID, 41)

	otherOwner := uuid.New()
	otherInv := seedInvoice(t, db, otherOwner, "45.50", day(0), "OPEN")
	otherTx := seedTransaction(t, db, otherOwner, "-45.40", day(0), models.ReconciliationPending)
	seedMatch(t, db, otherInv.ID, otherTx.ID, 60)

	got, err := NewMatchRepository(db).FindNeedingReview(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, weakMatch.ID, got[0].ID)
	assert.Equal(t, mediumMatch.ID, got[1].ID)
}

func TestStatistics(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := uuid.New()
	inv := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")

	high := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationMatched)
	seedMatch(t, db, inv.ID, high.ID, 96)

	low := seedTransaction(t, db, owner, "-46.00", day(-2), models.ReconciliationMatched)
	seedMatch(t, db, inv.ID, low.ID, 40)

	manualTx := seedTransaction(t, db, owner, "-12.50", day(-1), models.ReconciliationMatched)
	manual, err := models.NewManualMatch(inv.ID, manualTx.ID, nil, "")
	require.NoError(t, err)
	require.NoError(t, NewMatchRepository(db).Create(ctx, manual))

	seedTransaction(t, db, owner, "-99.00", day(0), models.ReconciliationPending)
	seedTransaction(t, db, owner, "-5.00", day(0), models.ReconciliationIgnored)

	stats, err := NewMatchRepository(db).Statistics(ctx, owner)
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.TotalMatches)
	assert.EqualValues(t, 1, stats.HighCount)
	assert.EqualValues(t, 1, stats.LowCount)
	assert.EqualValues(t, 1, stats.ManualCount)
	assert.EqualValues(t, 0, stats.MediumCount)
	assert.EqualValues(t, 2, stats.SystemMatched)
	assert.EqualValues(t, 1, stats.UserMatched)
	assert.InDelta(t, (96+40+100)/3.0, stats.AverageScore, 0.01)
	assert.True(t, stats.MatchedAmount.Equal(decimal.RequireFromString("104.00")),
		"matched amount %s", stats.MatchedAmount)
	assert.EqualValues(t, 1, stats.PendingTransactions)
	assert.EqualValues(t, 3, stats.MatchedTransactions)
	assert.EqualValues(t, 1, stats.IgnoredTransactions)
}

func TestStatisticsEmptyOwner(t *testing.T) {
	db := newTestDB(t)

	stats, err := NewMatchRepository(db).Statistics(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 0, stats.TotalMatches)
	assert.True(t, stats.MatchedAmount.IsZero())
}

func TestUnitOfWorkRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := uuid.New()
	tx := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationPending)
	inv := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")

	boom := apperrors.BusinessRule(apperrors.CodePoorMatchScore, "forced failure")
	err := NewUnitOfWork(db).WithTransaction(ctx, func(r Repos) error {
		fresh, err := r.Transactions.FindByID(ctx, tx.ID)
		if err != nil {
			return err
		}
		if err := fresh.Reconcile(); err != nil {
			return err
		}
		if err := r.Transactions.Save(ctx, fresh); err != nil {
			return err
		}
		m, err := models.NewAutoMatch(inv.ID, tx.ID, 95)
		if err != nil {
			return err
		}
		if err := r.Matches.Create(ctx, m); err != nil {
			return err
		}
		return boom
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePoorMatchScore, apperrors.CodeOf(err))

	// Both writes rolled back.
	reloaded, err := NewBankTransactionRepository(db).FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReconciliationPending, reloaded.ReconciliationStatus)

	_, err = NewMatchRepository(db).FindByTransaction(ctx, tx.ID)
	assert.Equal(t, apperrors.CodeMatchNotFound, apperrors.CodeOf(err))
}

func TestUnitOfWorkCommits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := uuid.New()
	tx := seedTransaction(t, db, owner, "-45.50", day(0), models.ReconciliationPending)
	inv := seedInvoice(t, db, owner, "45.50", day(0), "OPEN")

	err := NewUnitOfWork(db).WithTransaction(ctx, func(r Repos) error {
		fresh, err := r.Transactions.FindByID(ctx, tx.ID)
		if err != nil {
			return err
		}
		if err := fresh.Reconcile(); err != nil {
			return err
		}
		m, err := models.NewAutoMatch(inv.ID, tx.ID, 95)
		if err != nil {
			return err
		}
		if err := r.Matches.Create(ctx, m); err != nil {
			return err
		}
		return r.Transactions.Save(ctx, fresh)
	})
	require.NoError(t, err)

	reloaded, err := NewBankTransactionRepository(db).FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReconciliationMatched, reloaded.ReconciliationStatus)

	m, err := NewMatchRepository(db).FindByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, m.InvoiceID)
}
