package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/tripdesk/tour-booking-api/internal/models"
)

// ExpenseRepository handles persistence of the append-only expense ledger.
type ExpenseRepository struct {
	db *sqlx.DB
}

// NewExpenseRepository constructs the repository.
func NewExpenseRepository(db *sqlx.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create persists a new ledger entry.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if expense.Category == "" {
		expense.Category = models.ExpenseCategoryOthers
	}
	const query = `INSERT INTO expenses (id, description, amount, category, note, created_at)
        VALUES (:id, :description, :amount, :category, :note, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, expense); err != nil {
		return fmt.Errorf("create expense: %w", err)
	}
	return nil
}

// List returns all ledger entries, newest first.
func (r *ExpenseRepository) List(ctx context.Context) ([]models.Expense, error) {
	const query = `SELECT id, description, amount, category, note, created_at FROM expenses ORDER BY created_at DESC`
	var expenses []models.Expense
	if err := r.db.SelectContext(ctx, &expenses, query); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Total sums all ledger amounts. The sum runs in the database over NUMERIC
// columns, so it is exact regardless of insertion order.
func (r *ExpenseRepository) Total(ctx context.Context) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM expenses`
	var total decimal.Decimal
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return decimal.Zero, fmt.Errorf("total expenses: %w", err)
	}
	return total, nil
}
