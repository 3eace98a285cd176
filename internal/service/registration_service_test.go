package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

type mockRegistrationRepo struct {
	registrations map[string]*models.Registration
	createErr     error
	nextID        int
}

func (m *mockRegistrationRepo) List(ctx context.Context) ([]models.Registration, error) {
	out := make([]models.Registration, 0, len(m.registrations))
	for _, reg := range m.registrations {
		out = append(out, *reg)
	}
	return out, nil
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if reg, ok := m.registrations[id]; ok {
		return reg, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	for _, reg := range m.registrations {
		if reg.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRegistrationRepo) Create(ctx context.Context, registration *models.Registration) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.nextID++
	registration.ID = fmt.Sprintf("reg-%d", m.nextID)
	if m.registrations == nil {
		m.registrations = make(map[string]*models.Registration)
	}
	m.registrations[registration.ID] = registration
	return nil
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error) {
	reg, ok := m.registrations[id]
	if !ok || reg.Status != models.RegistrationStatusPending {
		return nil, repository.ErrStaleStatus
	}
	reg.Status = status
	return reg, nil
}

func (m *mockRegistrationRepo) UpdateTicketLink(ctx context.Context, id string, ticketLink *string) (*models.Registration, error) {
	reg, ok := m.registrations[id]
	if !ok || reg.Status != models.RegistrationStatusApproved {
		return nil, repository.ErrStaleStatus
	}
	reg.TicketLink = ticketLink
	return reg, nil
}

func newRegistrationFixture() (*mockRegistrationRepo, *mockDashboard, *RegistrationService) {
	repo := &mockRegistrationRepo{registrations: make(map[string]*models.Registration)}
	dashboard := &mockDashboard{}
	svc := NewRegistrationService(repo, dashboard, validator.New(), zap.NewNop(), decimal.NewFromInt(4500))
	return repo, dashboard, svc
}

func TestRegistrationServiceRegister(t *testing.T) {
	_, dashboard, svc := newRegistrationFixture()

	reg, err := svc.Register(context.Background(), CreateRegistrationRequest{
		Name:    "  Karim  ",
		Phone:   "01712345678",
		Address: "Dhaka",
		Date:    time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Karim", reg.Name)
	assert.Equal(t, models.RegistrationStatusPending, reg.Status)
	assert.True(t, reg.TotalAmount.Equal(decimal.NewFromInt(4500)))
	assert.True(t, reg.PaidAmount.IsZero())
	assert.True(t, reg.DueAmount.Equal(decimal.NewFromInt(4500)))
	assert.True(t, reg.BalancesConsistent())
	assert.Equal(t, 1, dashboard.invalidations)
}

func TestRegistrationServiceRegisterDuplicatePhone(t *testing.T) {
	repo, _, svc := newRegistrationFixture()
	repo.registrations["reg-1"] = &models.Registration{ID: "reg-1", Phone: "01712345678"}

	_, err := svc.Register(context.Background(), CreateRegistrationRequest{
		Name:    "Karim",
		Phone:   "01712345678",
		Address: "Dhaka",
		Date:    time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPhoneExists.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterDuplicateFromConstraint(t *testing.T) {
	repo, _, svc := newRegistrationFixture()
	repo.createErr = repository.ErrDuplicatePhone

	_, err := svc.Register(context.Background(), CreateRegistrationRequest{
		Name:    "Karim",
		Phone:   "01712345678",
		Address: "Dhaka",
		Date:    time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPhoneExists.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceRegisterValidation(t *testing.T) {
	_, _, svc := newRegistrationFixture()

	_, err := svc.Register(context.Background(), CreateRegistrationRequest{
		Name:    "Karim",
		Phone:   "123",
		Address: "Dhaka",
		Date:    time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateStatus(t *testing.T) {
	repo, dashboard, svc := newRegistrationFixture()
	repo.registrations["reg-1"] = &models.Registration{ID: "reg-1", Status: models.RegistrationStatusPending}

	reg, err := svc.UpdateStatus(context.Background(), "reg-1", UpdateRegistrationStatusRequest{
		Status: models.RegistrationStatusApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationStatusApproved, reg.Status)
	assert.Equal(t, 1, dashboard.invalidations)
}

func TestRegistrationServiceUpdateStatusAlreadyReviewed(t *testing.T) {
	repo, _, svc := newRegistrationFixture()
	repo.registrations["reg-1"] = &models.Registration{ID: "reg-1", Status: models.RegistrationStatusApproved}

	_, err := svc.UpdateStatus(context.Background(), "reg-1", UpdateRegistrationStatusRequest{
		Status: models.RegistrationStatusRejected,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateStatusUnknownID(t *testing.T) {
	_, _, svc := newRegistrationFixture()

	_, err := svc.UpdateStatus(context.Background(), "missing", UpdateRegistrationStatusRequest{
		Status: models.RegistrationStatusApproved,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateStatusRejectsPending(t *testing.T) {
	_, _, svc := newRegistrationFixture()

	_, err := svc.UpdateStatus(context.Background(), "reg-1", UpdateRegistrationStatusRequest{
		Status: models.RegistrationStatusPending,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRegistrationServiceUpdateTicketLink(t *testing.T) {
	repo, _, svc := newRegistrationFixture()
	repo.registrations["reg-1"] = &models.Registration{ID: "reg-1", Status: models.RegistrationStatusApproved}

	link := "  https://tickets.example.com/abc  "
	reg, err := svc.UpdateTicketLink(context.Background(), "reg-1", UpdateTicketLinkRequest{TicketLink: &link})
	require.NoError(t, err)
	require.NotNil(t, reg.TicketLink)
	assert.Equal(t, "https://tickets.example.com/abc", *reg.TicketLink)

	// A blank link clears the field.
	blank := "   "
	reg, err = svc.UpdateTicketLink(context.Background(), "reg-1", UpdateTicketLinkRequest{TicketLink: &blank})
	require.NoError(t, err)
	assert.Nil(t, reg.TicketLink)
}

func TestRegistrationServiceUpdateTicketLinkRequiresApproval(t *testing.T) {
	repo, _, svc := newRegistrationFixture()
	repo.registrations["reg-1"] = &models.Registration{ID: "reg-1", Status: models.RegistrationStatusPending}

	link := "https://tickets.example.com/abc"
	_, err := svc.UpdateTicketLink(context.Background(), "reg-1", UpdateTicketLinkRequest{TicketLink: &link})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
