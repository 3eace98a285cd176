package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/service"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
	"github.com/tripdesk/tour-booking-api/pkg/response"
)

// RegistrationHandler wires HTTP endpoints to the registration service.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// Create godoc
// @Summary Register for the tour
// @Description Creates a PENDING registration at the configured package price
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body service.CreateRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req service.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	registration, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, registration)
}

// List godoc
// @Summary List registrations
// @Description Returns all registrations, newest first
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	registrations, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, registrations)
}

// Get godoc
// @Summary Get a registration
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	registration, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, registration)
}

// Update godoc
// @Summary Update a registration
// @Description Accepts either {status} to review a PENDING registration or {ticketLink} to set/clear the ticket of an APPROVED one
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body updateRegistrationPayload true "One of status or ticketLink"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id} [patch]
func (h *RegistrationHandler) Update(c *gin.Context) {
	var payload updateRegistrationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	if payload.Status != nil && payload.TicketLink != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "provide either status or ticketLink, not both"))
		return
	}

	switch {
	case payload.Status != nil:
		registration, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), service.UpdateRegistrationStatusRequest{Status: *payload.Status})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, registration)
	case payload.TicketLink != nil:
		var link *string
		if err := json.Unmarshal(payload.TicketLink, &link); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "ticketLink must be a string or null"))
			return
		}
		registration, err := h.service.UpdateTicketLink(c.Request.Context(), c.Param("id"), service.UpdateTicketLinkRequest{TicketLink: link})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, registration)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "provide status or ticketLink"))
	}
}

// updateRegistrationPayload distinguishes an absent ticketLink from an
// explicit null, which clears the link.
type updateRegistrationPayload struct {
	Status     *models.RegistrationStatus `json:"status"`
	TicketLink json.RawMessage            `json:"ticketLink"`
}
