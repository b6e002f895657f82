package routes

import (
	"github.com/gin-gonic/gin"

	handler "github.com/ellvinib/lifeOS-sub004/internal/handlers"
)

// RegisterRoutes mounts the reconciliation API under /api.
func RegisterRoutes(r *gin.Engine, h *handler.ReconciliationHandler) {
	api := r.Group("/api")

	api.GET("/health", h.Health)

	// Invoice-side suggestion and unmatch routes
	invoices := api.Group("/invoices")
	{
		invoices.GET("/:id/suggestions", h.InvoiceSuggestions)
		invoices.GET("/:id/best-match", h.InvoiceBestMatch)
		invoices.DELETE("/:id/matches", h.DeleteInvoiceMatches)
	}

	// Transaction lifecycle routes
	tx := api.Group("/transactions")
	{
		tx.GET("/:id", h.GetTransaction)
		tx.POST("/:id/ignore", h.IgnoreTransaction)
		tx.POST("/:id/unignore", h.UnignoreTransaction)
		tx.DELETE("/:id/matches", h.DeleteTransactionMatches)
	}

	// Owner-wide suggestion queries and match mutations
	recon := api.Group("/reconciliation")
	{
		recon.GET("/suggestions", h.OwnerSuggestions)
		recon.GET("/auto-matchable", h.AutoMatchable)
		recon.GET("/needs-review", h.NeedsReview)
		recon.GET("/statistics", h.Statistics)

		recon.GET("/matches", h.ListMatches)
		recon.GET("/matches/:id", h.GetMatch)
		recon.POST("/matches", h.ConfirmAutoMatch)
		recon.POST("/matches/manual", h.ConfirmManualMatch)
		recon.POST("/matches/batch", h.ConfirmBatch)
		recon.DELETE("/matches", h.DeleteMatchByPair)
		recon.DELETE("/matches/:id", h.DeleteMatch)
		recon.POST("/unmatch-batch", h.UnmatchBatch)
	}
}
