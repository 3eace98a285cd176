package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripdesk/tour-booking-api/internal/service"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
	"github.com/tripdesk/tour-booking-api/pkg/response"
)

// ExpenseHandler wires HTTP endpoints to the expense service.
type ExpenseHandler struct {
	service *service.ExpenseService
}

// NewExpenseHandler creates a new handler.
func NewExpenseHandler(svc *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{service: svc}
}

// Create godoc
// @Summary Record an expense
// @Description Appends a ledger entry; entries are never updated or deleted
// @Tags Expenses
// @Accept json
// @Produce json
// @Param payload body service.CreateExpenseRequest true "Expense payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid expense payload"))
		return
	}

	expense, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, expense)
}

// List godoc
// @Summary List the expense ledger
// @Description Returns all entries newest first; the exact running total travels in meta
// @Tags Expenses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	ledger, err := h.service.Ledger(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, ledger.Expenses, map[string]interface{}{"total": ledger.Total})
}
