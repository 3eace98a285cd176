package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

type mockActivityRepo struct {
	activities map[string]*models.Activity
}

func (m *mockActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = "act-generated"
	}
	if m.activities == nil {
		m.activities = make(map[string]*models.Activity)
	}
	m.activities[activity.ID] = activity
	return nil
}

func (m *mockActivityRepo) List(ctx context.Context) ([]models.Activity, error) {
	out := make([]models.Activity, 0, len(m.activities))
	for _, act := range m.activities {
		out = append(out, *act)
	}
	return out, nil
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	if act, ok := m.activities[id]; ok {
		return act, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockActivityRepo) UpdateStatus(ctx context.Context, id string, from, to models.ActivityStatus) (*models.Activity, error) {
	act, ok := m.activities[id]
	if !ok || act.Status != from {
		return nil, repository.ErrStaleStatus
	}
	act.Status = to
	return act, nil
}

func newActivityFixture() (*mockActivityRepo, *ActivityService) {
	repo := &mockActivityRepo{activities: make(map[string]*models.Activity)}
	return repo, NewActivityService(repo, validator.New(), zap.NewNop())
}

func TestActivityServiceCreate(t *testing.T) {
	_, svc := newActivityFixture()

	act, err := svc.Create(context.Background(), CreateActivityRequest{
		Title:    "Boat trip",
		Time:     time.Date(2026, 10, 6, 9, 0, 0, 0, time.UTC),
		Location: "Sundarbans",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusUpcoming, act.Status)
	assert.Equal(t, "Boat trip", act.Title)
}

func TestActivityServiceCreateValidation(t *testing.T) {
	_, svc := newActivityFixture()

	_, err := svc.Create(context.Background(), CreateActivityRequest{
		Title: "Boat trip",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceLifecycle(t *testing.T) {
	repo, svc := newActivityFixture()
	repo.activities["act-1"] = &models.Activity{ID: "act-1", Status: models.ActivityStatusUpcoming}

	act, err := svc.UpdateStatus(context.Background(), "act-1", UpdateActivityStatusRequest{
		Status: models.ActivityStatusOngoing,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusOngoing, act.Status)

	act, err = svc.UpdateStatus(context.Background(), "act-1", UpdateActivityStatusRequest{
		Status: models.ActivityStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusCompleted, act.Status)
}

func TestActivityServiceForbiddenTransitions(t *testing.T) {
	repo, svc := newActivityFixture()

	cases := []struct {
		from models.ActivityStatus
		to   models.ActivityStatus
	}{
		{models.ActivityStatusUpcoming, models.ActivityStatusCompleted},
		{models.ActivityStatusOngoing, models.ActivityStatusUpcoming},
		{models.ActivityStatusCompleted, models.ActivityStatusOngoing},
		{models.ActivityStatusCancelled, models.ActivityStatusUpcoming},
	}
	for _, tc := range cases {
		repo.activities["act-1"] = &models.Activity{ID: "act-1", Status: tc.from}
		_, err := svc.UpdateStatus(context.Background(), "act-1", UpdateActivityStatusRequest{Status: tc.to})
		require.Error(t, err, "transition %s -> %s must fail", tc.from, tc.to)
		assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	}
}

func TestActivityServiceUpdateStatusUnknownID(t *testing.T) {
	_, svc := newActivityFixture()

	_, err := svc.UpdateStatus(context.Background(), "missing", UpdateActivityStatusRequest{
		Status: models.ActivityStatusOngoing,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceUpdateStatusUnknownStatus(t *testing.T) {
	_, svc := newActivityFixture()

	_, err := svc.UpdateStatus(context.Background(), "act-1", UpdateActivityStatusRequest{
		Status: models.ActivityStatus("PAUSED"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
