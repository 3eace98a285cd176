package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tripdesk/tour-booking-api/internal/models"
)

const activityColumns = `id, title, description, activity_time, location, status, created_at, updated_at`

// ActivityRepository handles persistence of scheduled itinerary activities.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create persists a new activity.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	now := time.Now().UTC()
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now
	if activity.Status == "" {
		activity.Status = models.ActivityStatusUpcoming
	}
	const query = `INSERT INTO activities (id, title, description, activity_time, location, status, created_at, updated_at)
        VALUES (:id, :title, :description, :activity_time, :location, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// List returns all activities ordered by scheduled time.
func (r *ActivityRepository) List(ctx context.Context) ([]models.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities ORDER BY activity_time ASC`, activityColumns)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// FindByID returns an activity by its ID.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE id = $1`, activityColumns)
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// UpdateStatus transitions an activity from one lifecycle state to another.
// The guard on the current status makes the transition at-most-once; a
// zero-row match surfaces as ErrStaleStatus.
func (r *ActivityRepository) UpdateStatus(ctx context.Context, id string, from, to models.ActivityStatus) (*models.Activity, error) {
	query := fmt.Sprintf(`UPDATE activities SET status = $2, updated_at = $3
        WHERE id = $1 AND status = $4
        RETURNING %s`, activityColumns)
	var activity models.Activity
	err := r.db.GetContext(ctx, &activity, query, id, to, time.Now().UTC(), from)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("update activity status: %w", err)
	}
	return &activity, nil
}
