package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripdesk/tour-booking-api/internal/middleware"
	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/service"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
	"github.com/tripdesk/tour-booking-api/pkg/response"
)

// TransactionHandler wires HTTP endpoints to the transaction service.
type TransactionHandler struct {
	service *service.TransactionService
}

// NewTransactionHandler creates a new handler.
func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: svc}
}

// Create godoc
// @Summary Record a payment attempt
// @Description Creates a PENDING transaction; balances stay untouched until approval
// @Tags Transactions
// @Accept json
// @Produce json
// @Param payload body service.RecordTransactionRequest true "Transaction payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req service.RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transaction payload"))
		return
	}

	txn, err := h.service.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, txn)
}

// ListPending godoc
// @Summary List pending transactions
// @Description Returns unsettled transactions with registration summary, oldest first
// @Tags Transactions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /transactions [get]
func (h *TransactionHandler) ListPending(c *gin.Context) {
	details, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, details)
}

// Resolve godoc
// @Summary Settle a transaction
// @Description Approves or rejects a PENDING transaction; approval applies the amount to the registration balances
// @Tags Transactions
// @Accept json
// @Produce json
// @Param payload body service.ResolveTransactionRequest true "Settlement decision"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transactions/approve [post]
func (h *TransactionHandler) Resolve(c *gin.Context) {
	var req service.ResolveTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settlement payload"))
		return
	}
	if req.TransactionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "transactionId is required"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")
	if claims, ok := c.Get(middleware.ContextUserKey); ok {
		req.ActorID = claims.(*models.JWTClaims).UserID
	}

	result, err := h.service.Resolve(c.Request.Context(), req.TransactionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result)
}
