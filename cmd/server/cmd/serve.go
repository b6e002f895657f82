package cmd

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ellvinib/lifeOS-sub004/internal/events"
	handler "github.com/ellvinib/lifeOS-sub004/internal/handlers"
	"github.com/ellvinib/lifeOS-sub004/internal/logging"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
	"github.com/ellvinib/lifeOS-sub004/internal/routes"
	"github.com/ellvinib/lifeOS-sub004/internal/services/matching"
	"github.com/ellvinib/lifeOS-sub004/internal/services/reconciliation"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation HTTP API",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	exitOnError(err, "failed to load configuration")

	matchCfg := matching.FromConfig(cfg.Matching)
	exitOnError(matchCfg.Validate(), "invalid matching configuration")

	log := logging.New(cfg.Logging)

	db, err := repository.Open(cfg.Database)
	exitOnError(err, "failed to connect to database")
	exitOnError(repository.AutoMigrate(db), "failed to run migrations")

	invoices := repository.NewInvoiceRepository(db)
	transactions := repository.NewBankTransactionRepository(db)
	matches := repository.NewMatchRepository(db)
	uow := repository.NewUnitOfWork(db)

	bus := events.NewBus(cfg.Events.BufferSize, logging.Component(log, "events"))
	defer bus.Close()
	events.NewAuditRecorder(repository.NewAuditLogRepository(db), logging.Component(log, "audit")).Register(bus)

	engine := matching.NewEngine(matchCfg, invoices, transactions, logging.Component(log, "matching"))
	service := reconciliation.NewService(matchCfg, invoices, transactions, matches, uow, bus,
		logging.Component(log, "reconciliation"))

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.RegisterRoutes(r, handler.NewReconciliationHandler(engine, service))

	log.WithField("port", cfg.Server.Port).Info("reconciliation server listening")
	exitOnError(r.Run(fmt.Sprintf(":%d", cfg.Server.Port)), "server stopped")
}
