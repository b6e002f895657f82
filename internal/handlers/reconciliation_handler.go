package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ellvinib/lifeOS-sub004/internal/apperrors"
	"github.com/ellvinib/lifeOS-sub004/internal/models"
	"github.com/ellvinib/lifeOS-sub004/internal/repository"
	"github.com/ellvinib/lifeOS-sub004/internal/services/matching"
	"github.com/ellvinib/lifeOS-sub004/internal/services/reconciliation"
)

// ReconciliationHandler exposes the matching engine and the lifecycle
// service over HTTP. It owns no business rules; it parses, delegates and
// translates typed errors into the response envelope.
type ReconciliationHandler struct {
	engine  *matching.Engine
	service *reconciliation.Service
}

func NewReconciliationHandler(engine *matching.Engine, service *reconciliation.Service) *ReconciliationHandler {
	return &ReconciliationHandler{engine: engine, service: service}
}

// Health reports liveness.
func (h *ReconciliationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// InvoiceSuggestions returns ranked candidate transactions for one
// invoice. tolerance_days optionally widens or narrows the date window.
func (h *ReconciliationHandler) InvoiceSuggestions(c *gin.Context) {
	invoiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	tolerance, ok := queryInt(c, "tolerance_days", 0)
	if !ok {
		return
	}

	suggestions, err := h.engine.SuggestForInvoice(c.Request.Context(), invoiceID, tolerance)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"invoice_id":  invoiceID,
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// InvoiceBestMatch returns the single strongest candidate, or null when
// nothing qualifies. An empty candidate list is a normal outcome.
func (h *ReconciliationHandler) InvoiceBestMatch(c *gin.Context) {
	invoiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	best, err := h.engine.BestMatchForInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice_id": invoiceID, "best_match": best})
}

// OwnerSuggestions returns ranked invoice proposals for every pending
// outflow of the owner.
func (h *ReconciliationHandler) OwnerSuggestions(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	groups, err := h.engine.SuggestForAllUnmatched(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": groups, "count": len(groups)})
}

// AutoMatchable returns the pairings strong enough to confirm unattended.
func (h *ReconciliationHandler) AutoMatchable(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	matches, err := h.engine.AutoMatchable(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": matches, "count": len(matches)})
}

// ConfirmAutoMatch persists one system-suggested pairing.
func (h *ReconciliationHandler) ConfirmAutoMatch(c *gin.Context) {
	var payload struct {
		InvoiceID     uuid.UUID `json:"invoice_id"`
		TransactionID uuid.UUID `json:"transaction_id"`
		Score         int       `json:"score"`
	}
	if err := c.BindJSON(&payload); err != nil {
		badRequest(c, "invalid payload: %v", err)
		return
	}

	match, err := h.service.ConfirmAutoMatch(c.Request.Context(), reconciliation.ConfirmAutoMatchInput{
		InvoiceID:     payload.InvoiceID,
		TransactionID: payload.TransactionID,
		Score:         payload.Score,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"match": match})
}

// ConfirmManualMatch persists one operator-asserted pairing.
func (h *ReconciliationHandler) ConfirmManualMatch(c *gin.Context) {
	var payload struct {
		InvoiceID     uuid.UUID  `json:"invoice_id"`
		TransactionID uuid.UUID  `json:"transaction_id"`
		UserID        *uuid.UUID `json:"user_id"`
		Notes         string     `json:"notes"`
	}
	if err := c.BindJSON(&payload); err != nil {
		badRequest(c, "invalid payload: %v", err)
		return
	}

	match, err := h.service.ConfirmManualMatch(c.Request.Context(), reconciliation.ConfirmManualMatchInput{
		InvoiceID:     payload.InvoiceID,
		TransactionID: payload.TransactionID,
		UserID:        payload.UserID,
		Notes:         payload.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"match": match})
}

// ConfirmBatch confirms many pairings with per-item isolation. The
// response always carries the full succeeded/failed/errors accounting.
func (h *ReconciliationHandler) ConfirmBatch(c *gin.Context) {
	var payload struct {
		Items []struct {
			InvoiceID     uuid.UUID  `json:"invoice_id"`
			TransactionID uuid.UUID  `json:"transaction_id"`
			Score         int        `json:"score"`
			Manual        bool       `json:"manual"`
			UserID        *uuid.UUID `json:"user_id"`
			Notes         string     `json:"notes"`
		} `json:"items"`
	}
	if err := c.BindJSON(&payload); err != nil {
		badRequest(c, "invalid payload: %v", err)
		return
	}

	items := make([]reconciliation.BatchConfirmItem, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, reconciliation.BatchConfirmItem{
			InvoiceID:     item.InvoiceID,
			TransactionID: item.TransactionID,
			Score:         item.Score,
			Manual:        item.Manual,
			UserID:        item.UserID,
			Notes:         item.Notes,
		})
	}
	c.JSON(http.StatusOK, h.service.ConfirmBatch(c.Request.Context(), items))
}

// UnmatchBatch removes many matches with per-item isolation.
func (h *ReconciliationHandler) UnmatchBatch(c *gin.Context) {
	var payload struct {
		MatchIDs []uuid.UUID `json:"match_ids"`
	}
	if err := c.BindJSON(&payload); err != nil {
		badRequest(c, "invalid payload: %v", err)
		return
	}
	c.JSON(http.StatusOK, h.service.UnmatchBatch(c.Request.Context(), payload.MatchIDs))
}

// DeleteMatch removes one match by id.
func (h *ReconciliationHandler) DeleteMatch(c *gin.Context) {
	matchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Unmatch(c.Request.Context(), matchID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": 1})
}

// DeleteMatchByPair removes the match linking ?invoice_id and
// ?transaction_id.
func (h *ReconciliationHandler) DeleteMatchByPair(c *gin.Context) {
	invoiceID, ok := queryUUID(c, "invoice_id", true)
	if !ok {
		return
	}
	transactionID, ok := queryUUID(c, "transaction_id", true)
	if !ok {
		return
	}
	if err := h.service.UnmatchPair(c.Request.Context(), *invoiceID, *transactionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": 1})
}

// DeleteInvoiceMatches removes every match of one invoice.
func (h *ReconciliationHandler) DeleteInvoiceMatches(c *gin.Context) {
	invoiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	removed, err := h.service.UnmatchAllForInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// DeleteTransactionMatches removes the transaction's active match, if any.
func (h *ReconciliationHandler) DeleteTransactionMatches(c *gin.Context) {
	transactionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	removed, err := h.service.UnmatchAllForTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// IgnoreTransaction excludes a transaction from matching.
func (h *ReconciliationHandler) IgnoreTransaction(c *gin.Context) {
	transactionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	tx, err := h.service.IgnoreTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// UnignoreTransaction returns an ignored transaction to the matching pool.
func (h *ReconciliationHandler) UnignoreTransaction(c *gin.Context) {
	transactionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	tx, err := h.service.UnignoreTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// GetTransaction returns one transaction.
func (h *ReconciliationHandler) GetTransaction(c *gin.Context) {
	transactionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	tx, err := h.service.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// GetMatch returns one match.
func (h *ReconciliationHandler) GetMatch(c *gin.Context) {
	matchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	match, err := h.service.GetMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": match})
}

// ListMatches pages through matches with optional owner, invoice,
// transaction, confidence and matched_by filters.
func (h *ReconciliationHandler) ListMatches(c *gin.Context) {
	filter, ok := parseMatchFilter(c)
	if !ok {
		return
	}

	page, err := h.service.ListMatches(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.service.CountMatches(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       page.Matches,
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
		"total":       total,
	})
}

// NeedsReview returns the owner's review queue, weakest matches first.
func (h *ReconciliationHandler) NeedsReview(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}
	matches, err := h.service.NeedsReview(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": matches, "count": len(matches)})
}

// Statistics summarizes the owner's reconciliation state.
func (h *ReconciliationHandler) Statistics(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}
	stats, err := h.service.Statistics(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func parseMatchFilter(c *gin.Context) (repository.MatchFilter, bool) {
	var filter repository.MatchFilter
	var ok bool
	if filter.OwnerID, ok = queryUUID(c, "owner_id", false); !ok {
		return filter, false
	}
	if filter.InvoiceID, ok = queryUUID(c, "invoice_id", false); !ok {
		return filter, false
	}
	if filter.TransactionID, ok = queryUUID(c, "transaction_id", false); !ok {
		return filter, false
	}
	filter.Confidence = models.MatchConfidence(c.Query("confidence"))
	filter.MatchedBy = models.MatchedBy(c.Query("matched_by"))
	filter.Cursor = c.Query("cursor")
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return filter, false
	}
	filter.Limit = limit
	return filter, true
}

// respondError translates a typed engine error into the response
// envelope. Unknown errors never leak details to the client.
func respondError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	code := apperrors.CodeOf(err)
	message := err.Error()

	var status int
	switch kind {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindBusinessRule:
		status = http.StatusConflict
	case apperrors.KindPersistence:
		status = http.StatusInternalServerError
		message = "storage failure"
	default:
		status = http.StatusInternalServerError
		code = "INTERNAL_ERROR"
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	respondError(c, apperrors.Validation(apperrors.CodeInvalidArgument, format, args...))
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid %s %q", name, c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

func queryUUID(c *gin.Context, name string, required bool) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		if required {
			badRequest(c, "%s query parameter is required", name)
			return nil, false
		}
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid %s %q", name, raw)
		return nil, false
	}
	return &id, true
}

func requireOwner(c *gin.Context) (uuid.UUID, bool) {
	id, ok := queryUUID(c, "owner_id", true)
	if !ok {
		return uuid.Nil, false
	}
	return *id, true
}

func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid %s %q", name, raw)
		return 0, false
	}
	return value, true
}
