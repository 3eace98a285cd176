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

const transactionColumns = `id, registration_id, amount, payment_method, note, status, payment_date, resolved_at, created_at`

// ErrBalanceInvariant signals the paid/due/total check failed after applying a
// settlement; the surrounding transaction is rolled back when it occurs.
var ErrBalanceInvariant = errors.New("registration balances violate paid + due == total")

// TransactionRepository handles persistence of payment transactions and the
// atomic settlement against registration balances.
type TransactionRepository struct {
	db *sqlx.DB
}

// NewTransactionRepository constructs the repository.
func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create persists a new PENDING transaction. Balances stay untouched until approval.
func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	now := time.Now().UTC()
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	if txn.PaymentDate.IsZero() {
		txn.PaymentDate = now
	}
	if txn.Status == "" {
		txn.Status = models.TransactionStatusPending
	}
	const query = `INSERT INTO transactions (id, registration_id, amount, payment_method, note, status, payment_date, created_at)
        VALUES (:id, :registration_id, :amount, :payment_method, :note, :status, :payment_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, txn); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// FindByID returns a transaction by its ID.
func (r *TransactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)
	var txn models.Transaction
	if err := r.db.GetContext(ctx, &txn, query, id); err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListPendingDetails returns pending transactions joined with their
// registration summary for the admin approval queue, oldest first.
func (r *TransactionRepository) ListPendingDetails(ctx context.Context) ([]models.TransactionDetail, error) {
	const query = `SELECT t.id, t.registration_id, t.amount, t.payment_method, t.note, t.status, t.payment_date, t.resolved_at, t.created_at,
        r.name AS registration_name, r.phone AS registration_phone, r.total_amount, r.paid_amount, r.due_amount
        FROM transactions t
        JOIN tour_registrations r ON r.id = t.registration_id
        WHERE t.status = $1
        ORDER BY t.created_at ASC`
	var details []models.TransactionDetail
	if err := r.db.SelectContext(ctx, &details, query, models.TransactionStatusPending); err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	return details, nil
}

// CountPending returns the number of unsettled transactions.
func (r *TransactionRepository) CountPending(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM transactions WHERE status = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, models.TransactionStatusPending); err != nil {
		return 0, fmt.Errorf("count pending transactions: %w", err)
	}
	return count, nil
}

// ListAll returns every transaction, newest first (report exports).
func (r *TransactionRepository) ListAll(ctx context.Context) ([]models.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions ORDER BY created_at DESC`, transactionColumns)
	var txns []models.Transaction
	if err := r.db.SelectContext(ctx, &txns, query); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txns, nil
}

// Resolve settles a PENDING transaction and, on approval, applies the amount
// to the owning registration's balances. Both updates run inside one database
// transaction. The status guard on the first UPDATE serialises concurrent
// resolution attempts: the loser matches zero rows and gets ErrStaleStatus,
// leaving balances untouched.
func (r *TransactionRepository) Resolve(ctx context.Context, id string, action models.TransactionStatus) (*models.Transaction, *models.Registration, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin resolve transaction: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	settle := fmt.Sprintf(`UPDATE transactions SET status = $2, resolved_at = $3
        WHERE id = $1 AND status = $4
        RETURNING %s`, transactionColumns)
	var txn models.Transaction
	if err := tx.GetContext(ctx, &txn, settle, id, action, now, models.TransactionStatusPending); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrStaleStatus
		}
		return nil, nil, fmt.Errorf("settle transaction: %w", err)
	}

	var registration *models.Registration
	if action == models.TransactionStatusApproved {
		// Both paid_amount references read the pre-update value, so due
		// stays total - (old paid + amount) even when due goes negative.
		apply := fmt.Sprintf(`UPDATE tour_registrations
            SET paid_amount = paid_amount + $2,
                due_amount = total_amount - (paid_amount + $2),
                updated_at = $3
            WHERE id = $1
            RETURNING %s`, registrationColumns)
		var reg models.Registration
		if err := tx.GetContext(ctx, &reg, apply, txn.RegistrationID, txn.Amount, now); err != nil {
			return nil, nil, fmt.Errorf("apply transaction to registration: %w", err)
		}
		if !reg.BalancesConsistent() {
			return nil, nil, ErrBalanceInvariant
		}
		registration = &reg
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit resolve transaction: %w", err)
	}
	commit = true
	return &txn, registration, nil
}
