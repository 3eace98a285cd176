package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tripdesk/tour-booking-api/internal/models"
)

const registrationColumns = `id, name, phone, address, tour_date, status, total_amount, paid_amount, due_amount, ticket_link, created_at, updated_at`

// RegistrationRepository handles persistence of tour registrations.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// List returns all registrations, newest first.
func (r *RegistrationRepository) List(ctx context.Context) ([]models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM tour_registrations ORDER BY created_at DESC`, registrationColumns)
	var registrations []models.Registration
	if err := r.db.SelectContext(ctx, &registrations, query); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}

// FindByID returns a registration by its ID.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM tour_registrations WHERE id = $1`, registrationColumns)
	var registration models.Registration
	if err := r.db.GetContext(ctx, &registration, query, id); err != nil {
		return nil, err
	}
	return &registration, nil
}

// ExistsByPhone checks whether a registration already uses the phone number.
func (r *RegistrationRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	const query = `SELECT 1 FROM tour_registrations WHERE phone = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check registration phone: %w", err)
	}
	return true, nil
}

// Create persists a new registration. The unique phone constraint is mapped
// to ErrDuplicatePhone so the race between pre-check and insert stays safe.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	now := time.Now().UTC()
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = now
	}
	registration.UpdatedAt = now
	if registration.Status == "" {
		registration.Status = models.RegistrationStatusPending
	}
	const query = `INSERT INTO tour_registrations (id, name, phone, address, tour_date, status, total_amount, paid_amount, due_amount, ticket_link, created_at, updated_at)
        VALUES (:id, :name, :phone, :address, :tour_date, :status, :total_amount, :paid_amount, :due_amount, :ticket_link, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePhone
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// UpdateStatus moves a PENDING registration to the given status. The guard on
// the current status keeps the state machine sound under concurrent updates;
// a zero-row match surfaces as ErrStaleStatus.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus) (*models.Registration, error) {
	query := fmt.Sprintf(`UPDATE tour_registrations SET status = $2, updated_at = $3
        WHERE id = $1 AND status = $4
        RETURNING %s`, registrationColumns)
	var registration models.Registration
	err := r.db.GetContext(ctx, &registration, query, id, status, time.Now().UTC(), models.RegistrationStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("update registration status: %w", err)
	}
	return &registration, nil
}

// UpdateTicketLink sets or clears the ticket link of an APPROVED registration.
func (r *RegistrationRepository) UpdateTicketLink(ctx context.Context, id string, ticketLink *string) (*models.Registration, error) {
	query := fmt.Sprintf(`UPDATE tour_registrations SET ticket_link = $2, updated_at = $3
        WHERE id = $1 AND status = $4
        RETURNING %s`, registrationColumns)
	var registration models.Registration
	err := r.db.GetContext(ctx, &registration, query, id, ticketLink, time.Now().UTC(), models.RegistrationStatusApproved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStaleStatus
		}
		return nil, fmt.Errorf("update registration ticket link: %w", err)
	}
	return &registration, nil
}

// RegistrationSummary aggregates counts and balances for the dashboard.
type RegistrationSummary struct {
	Total       int             `db:"total"`
	Pending     int             `db:"pending"`
	Approved    int             `db:"approved"`
	Rejected    int             `db:"rejected"`
	Collected   decimal.Decimal `db:"collected"`
	Outstanding decimal.Decimal `db:"outstanding"`
}

// Summarize computes counts by status and the collected/outstanding totals.
func (r *RegistrationRepository) Summarize(ctx context.Context) (*RegistrationSummary, error) {
	const query = `SELECT
        COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
        COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
        COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected,
        COALESCE(SUM(paid_amount), 0) AS collected,
        COALESCE(SUM(due_amount), 0) AS outstanding
        FROM tour_registrations`
	var summary RegistrationSummary
	if err := r.db.GetContext(ctx, &summary, query); err != nil {
		return nil, fmt.Errorf("summarize registrations: %w", err)
	}
	return &summary, nil
}
