package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	List(ctx context.Context) ([]models.Activity, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	UpdateStatus(ctx context.Context, id string, from, to models.ActivityStatus) (*models.Activity, error)
}

// CreateActivityRequest holds the payload for a new itinerary activity.
type CreateActivityRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Time        time.Time `json:"time" validate:"required"`
	Location    string    `json:"location" validate:"required"`
}

// UpdateActivityStatusRequest holds the lifecycle transition target.
type UpdateActivityStatusRequest struct {
	Status models.ActivityStatus `json:"status" validate:"required"`
}

// ActivityService handles the tour itinerary lifecycle.
type ActivityService struct {
	repo      activityRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo activityRepository, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, validator: validate, logger: logger}
}

// Create schedules a new UPCOMING activity.
func (s *ActivityService) Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}

	activity := &models.Activity{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Time:        req.Time.UTC(),
		Location:    strings.TrimSpace(req.Location),
		Status:      models.ActivityStatusUpcoming,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	return activity, nil
}

// List returns the itinerary ordered by scheduled time.
func (s *ActivityService) List(ctx context.Context) ([]models.Activity, error) {
	activities, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, nil
}

// UpdateStatus moves an activity through its lifecycle. Terminal states never
// change again; forbidden transitions yield a conflict.
func (s *ActivityService) UpdateStatus(ctx context.Context, id string, req UpdateActivityStatusRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown activity status")
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	if !current.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "cannot move activity from "+string(current.Status)+" to "+string(req.Status))
	}

	activity, err := s.repo.UpdateStatus(ctx, id, current.Status, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "activity status changed concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity status")
	}
	return activity, nil
}
