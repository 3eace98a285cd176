package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

type registrationRepository interface {
	List(ctx context.Context) ([]models.Registration, error)
	FindByID(ctx context.Context, id string) (*models.Registration, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
	Create(ctx context.Context, registration *models.Registration) error
	UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error)
	UpdateTicketLink(ctx context.Context, id string, ticketLink *string) (*models.Registration, error)
}

type dashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// CreateRegistrationRequest holds the public booking payload. The package
// price is never client supplied; it comes from configuration.
type CreateRegistrationRequest struct {
	Name    string    `json:"name" validate:"required"`
	Phone   string    `json:"phone" validate:"required,min=6"`
	Address string    `json:"address" validate:"required"`
	Date    time.Time `json:"date" validate:"required"`
}

// UpdateRegistrationStatusRequest holds the admin review decision.
type UpdateRegistrationStatusRequest struct {
	Status models.RegistrationStatus `json:"status" validate:"required"`
}

// UpdateTicketLinkRequest sets or clears the ticket link.
type UpdateTicketLinkRequest struct {
	TicketLink *string `json:"ticketLink"`
}

// RegistrationService handles booking use-cases.
type RegistrationService struct {
	repo         registrationRepository
	dashboard    dashboardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
	packagePrice decimal.Decimal
}

// NewRegistrationService constructs the registration service.
func NewRegistrationService(repo registrationRepository, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger, packagePrice decimal.Decimal) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if packagePrice.Sign() <= 0 {
		packagePrice = decimal.NewFromInt(4500)
	}
	return &RegistrationService{
		repo:         repo,
		dashboard:    dashboard,
		validator:    validate,
		logger:       logger,
		packagePrice: packagePrice,
	}
}

// List returns all registrations, newest first.
func (s *RegistrationService) List(ctx context.Context) ([]models.Registration, error) {
	registrations, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// Get returns a single registration.
func (s *RegistrationService) Get(ctx context.Context, id string) (*models.Registration, error) {
	registration, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return registration, nil
}

// Register creates a new PENDING booking at the configured package price with
// nothing paid yet. The phone number must be unique across all registrations.
func (s *RegistrationService) Register(ctx context.Context, req CreateRegistrationRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	phone := strings.TrimSpace(req.Phone)
	exists, err := s.repo.ExistsByPhone(ctx, phone)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate phone")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrPhoneExists, "")
	}

	registration := &models.Registration{
		Name:        strings.TrimSpace(req.Name),
		Phone:       phone,
		Address:     strings.TrimSpace(req.Address),
		TourDate:    req.Date.UTC(),
		Status:      models.RegistrationStatusPending,
		TotalAmount: s.packagePrice,
		PaidAmount:  decimal.Zero,
		DueAmount:   s.packagePrice,
	}
	if err := s.repo.Create(ctx, registration); err != nil {
		if errors.Is(err, repository.ErrDuplicatePhone) {
			return nil, appErrors.Clone(appErrors.ErrPhoneExists, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create registration")
	}

	s.invalidateDashboard(ctx)
	return registration, nil
}

// UpdateStatus reviews a PENDING registration to APPROVED or REJECTED. The
// transition is one way; a settled registration yields a conflict.
func (s *RegistrationService) UpdateStatus(ctx context.Context, id string, req UpdateRegistrationStatusRequest) (*models.Registration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if req.Status != models.RegistrationStatusApproved && req.Status != models.RegistrationStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}

	registration, err := s.repo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, s.staleStatusError(ctx, id, "registration already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update registration status")
	}

	s.invalidateDashboard(ctx)
	return registration, nil
}

// UpdateTicketLink sets or clears the ticket link of an APPROVED registration.
func (s *RegistrationService) UpdateTicketLink(ctx context.Context, id string, req UpdateTicketLinkRequest) (*models.Registration, error) {
	if req.TicketLink != nil {
		trimmed := strings.TrimSpace(*req.TicketLink)
		if trimmed == "" {
			req.TicketLink = nil
		} else {
			req.TicketLink = &trimmed
		}
	}

	registration, err := s.repo.UpdateTicketLink(ctx, id, req.TicketLink)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, s.staleStatusError(ctx, id, "ticket link requires an approved registration")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update ticket link")
	}
	return registration, nil
}

// staleStatusError distinguishes a missing row from a status-guard miss so the
// caller gets 404 for unknown IDs and 409 for already-settled ones.
func (s *RegistrationService) staleStatusError(ctx context.Context, id, conflictMessage string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}
	return appErrors.Clone(appErrors.ErrConflict, conflictMessage)
}

func (s *RegistrationService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}
