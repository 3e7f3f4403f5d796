package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// RecurringTransactionHandler handles recurring transaction requests.
type RecurringTransactionHandler struct {
	recurringService services.RecurringTransactionServicer
	auditService     services.AuditServicer
	now              func() time.Time
}

// NewRecurringTransactionHandler creates a new RecurringTransactionHandler.
func NewRecurringTransactionHandler(recurringService services.RecurringTransactionServicer, auditService services.AuditServicer) *RecurringTransactionHandler {
	return &RecurringTransactionHandler{recurringService: recurringService, auditService: auditService, now: time.Now}
}

// RecurringTransactionEnvelope wraps a single recurring transaction.
type RecurringTransactionEnvelope struct {
	RecurringTransaction *models.RecurringTransaction `json:"recurring_transaction"`
}

type dueQuery struct {
	AsOf string `form:"as_of" binding:"omitempty,date"`
}

// CreateRecurringTransaction creates a recurring transaction
// @Summary     Create a recurring transaction
// @Description next_occurrence defaults to start_date
// @Tags        recurring-transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateRecurringTransactionInput true "Recurring transaction details"
// @Success     201 {object} RecurringTransactionEnvelope
// @Failure     400 {object} ErrorResponse "Invalid input or type mismatch"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /recurring-transactions [post]
func (h *RecurringTransactionHandler) CreateRecurringTransaction(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateRecurringTransactionInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	rt, err := h.recurringService.CreateRecurringTransaction(c.Request.Context(), p, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, RecurringTransactionEnvelope{RecurringTransaction: rt})
}

// ListRecurringTransactions lists recurring transactions
// @Summary     List recurring transactions
// @Tags        recurring-transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number"
// @Param       page_size query int false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.RecurringTransaction]
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /recurring-transactions [get]
func (h *RecurringTransactionHandler) ListRecurringTransactions(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := bindQuery(c, &page); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.recurringService.ListRecurringTransactions(c.Request.Context(), p, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListDueRecurringTransactions lists active recurring transactions that are due
// @Summary     List due recurring transactions
// @Description Active rows whose next occurrence is on or before as_of and whose end date has not passed
// @Tags        recurring-transactions
// @Produce     json
// @Security    BearerAuth
// @Param       as_of     query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Param       page      query int    false "Page number"
// @Param       page_size query int    false "Items per page (max 100)"
// @Success     200 {object} pagination.PageResponse[models.RecurringTransaction]
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /recurring-transactions/due [get]
func (h *RecurringTransactionHandler) ListDueRecurringTransactions(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var q dueQuery
	if err := bindQuery(c, &q); err != nil {
		respondWithError(c, err)
		return
	}
	var page pagination.PageRequest
	if err := bindQuery(c, &page); err != nil {
		respondWithError(c, err)
		return
	}

	asOf := models.NewDate(h.now())
	if q.AsOf != "" {
		if asOf, err = models.ParseDate(q.AsOf); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrValidation, "as_of must be a valid date (YYYY-MM-DD)"))
			return
		}
	}

	result, err := h.recurringService.ListDueRecurringTransactions(c.Request.Context(), p, asOf, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecurringTransaction returns a single recurring transaction
// @Summary     Get recurring transaction by ID
// @Tags        recurring-transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} RecurringTransactionEnvelope
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Recurring transaction not found"
// @Router      /recurring-transactions/{id} [get]
func (h *RecurringTransactionHandler) GetRecurringTransaction(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rt, err := h.recurringService.GetRecurringTransaction(c.Request.Context(), p, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecurringTransactionEnvelope{RecurringTransaction: rt})
}

// UpdateRecurringTransaction patches a recurring transaction
// @Summary     Update recurring transaction
// @Tags        recurring-transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                                    true "Recurring transaction ID"
// @Param       request body services.UpdateRecurringTransactionInput true "Fields to change"
// @Success     200 {object} RecurringTransactionEnvelope
// @Failure     400 {object} ErrorResponse "Invalid input or type mismatch"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Recurring transaction not found"
// @Router      /recurring-transactions/{id} [put]
func (h *RecurringTransactionHandler) UpdateRecurringTransaction(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.UpdateRecurringTransactionInput
	if err := bindJSON(c, &req); err != nil {
		respondWithError(c, err)
		return
	}

	rt, err := h.recurringService.UpdateRecurringTransaction(c.Request.Context(), p, id, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecurringTransactionEnvelope{RecurringTransaction: rt})
}

// DeleteRecurringTransaction deletes a recurring transaction
// @Summary     Delete recurring transaction
// @Tags        recurring-transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} MessageResponse
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Recurring transaction not found"
// @Router      /recurring-transactions/{id} [delete]
func (h *RecurringTransactionHandler) DeleteRecurringTransaction(c *gin.Context) {
	p, err := getPrincipal(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteRecurringTransaction(c.Request.Context(), p, id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		ActorID:      p.SubjectID,
		Action:       services.AuditActionDeleteRecurringTransaction,
		ResourceType: "recurring_transaction",
		ResourceID:   id,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, MessageResponse{Message: "Recurring transaction deleted successfully"})
}
