package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/ellvinib/lifeOS-sub004/internal/models"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
)

var seedOwner string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo invoices and bank transactions",
	Long: `Seed inserts a small set of open invoices and pending bank
transactions under one owner, shaped so the suggestion endpoints return
a spread of high, medium and low confidence candidates.`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "owner id to seed under (default: a fresh random id)")
}

func runSeed(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	db, err := repository.Open(cfg.Database)
	exitOnError(err, "failed to connect to database")
	exitOnError(repository.AutoMigrate(db), "failed to run migrations")

	owner := uuid.New()
	if seedOwner != "" {
		owner, err = uuid.Parse(seedOwner)
		exitOnError(err, "invalid --owner value")
	}

	ctx := context.Background()
	today := time.Now().UTC().Truncate(24 * time.Hour)
	suffix := uuid.NewString()[:8]

	invoices := []*models.Invoice{
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			InvoiceNumber: "INV-" + suffix + "-001",
			Vendor:        "ACME SUPPLIES",
			Description:   "office chairs",
			Amount:        decimal.RequireFromString("450.00"),
			IssueDate:     today.AddDate(0, 0, -2),
			Status:        "OPEN",
		},
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			InvoiceNumber: "INV-" + suffix + "-002",
			Vendor:        "NORDIC HOSTING",
			Description:   "server rental march",
			Amount:        decimal.RequireFromString("89.99"),
			IssueDate:     today.AddDate(0, 0, -5),
			Status:        "OPEN",
		},
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			InvoiceNumber: "INV-" + suffix + "-003",
			Vendor:        "CITY UTILITIES",
			Description:   "water and electricity",
			Amount:        decimal.RequireFromString("120.00"),
			IssueDate:     today.AddDate(0, 0, -12),
			Status:        "OPEN",
		},
	}

	transactions := []*models.BankTransaction{
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			Amount:        decimal.RequireFromString("-450.00"),
			ExecutionDate: today.AddDate(0, 0, -2),
			Description:   "ACME SUPPLIES office chairs",
			Counterparty:  "ACME SUPPLIES BV",
		},
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			Amount:        decimal.RequireFromString("-89.50"),
			ExecutionDate: today.AddDate(0, 0, -3),
			Description:   "NORDIC HOSTING invoice",
			Counterparty:  "NORDIC HOSTING AS",
		},
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			Amount:        decimal.RequireFromString("-119.20"),
			ExecutionDate: today.AddDate(0, 0, -7),
			Description:   "direct debit 99881",
			Counterparty:  "UNKNOWN",
		},
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			Amount:        decimal.RequireFromString("-37.80"),
			ExecutionDate: today.AddDate(0, 0, -1),
			Description:   "card payment restaurant",
			Counterparty:  "BISTRO CENTRAAL",
		},
		{
			ID:            uuid.New(),
			OwnerID:       owner,
			Amount:        decimal.RequireFromString("1250.00"),
			ExecutionDate: today,
			Description:   "customer payment",
			Counterparty:  "KLANT JANSEN",
		},
	}

	invoiceRepo := repository.NewInvoiceRepository(db)
	txRepo := repository.NewBankTransactionRepository(db)

	for _, inv := range invoices {
		exitOnError(invoiceRepo.Create(ctx, inv), "failed to seed invoice")
	}
	for _, tx := range transactions {
		exitOnError(txRepo.Create(ctx, tx), "failed to seed transaction")
	}

	fmt.Printf("seeded %d invoices and %d transactions for owner %s\n",
		len(invoices), len(transactions), owner)
}
