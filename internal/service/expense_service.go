package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

type expenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	List(ctx context.Context) ([]models.Expense, error)
	Total(ctx context.Context) (decimal.Decimal, error)
}

// CreateExpenseRequest holds the payload for a new ledger entry. Amount binds
// from both JSON numbers and quoted decimal strings. CreatedAt is optional so
// historical expenses can be backfilled with their real date.
type CreateExpenseRequest struct {
	Description string          `json:"description" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Note        *string         `json:"note"`
	CreatedAt   *time.Time      `json:"createdAt"`
}

// ExpenseLedger pairs the ledger entries with their running total.
type ExpenseLedger struct {
	Expenses []models.Expense `json:"expenses"`
	Total    decimal.Decimal  `json:"total"`
}

// ExpenseService handles the append-only expense ledger.
type ExpenseService struct {
	repo      expenseRepository
	dashboard dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExpenseService constructs the expense service.
func NewExpenseService(repo expenseRepository, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *ExpenseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExpenseService{repo: repo, dashboard: dashboard, validator: validate, logger: logger}
}

// Create appends a new ledger entry. Entries are never updated or deleted.
func (s *ExpenseService) Create(ctx context.Context, req CreateExpenseRequest) (*models.Expense, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid expense payload")
	}

	if req.Amount.Sign() <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be greater than zero")
	}

	category := models.ExpenseCategoryOthers
	if raw := strings.ToUpper(strings.TrimSpace(req.Category)); raw != "" {
		category = models.ExpenseCategory(raw)
		if !category.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported expense category")
		}
	}

	expense := &models.Expense{
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Category:    category,
		Note:        req.Note,
	}
	if req.CreatedAt != nil {
		expense.CreatedAt = req.CreatedAt.UTC()
	}
	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create expense")
	}

	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
	return expense, nil
}

// Ledger returns all entries newest first together with the exact total.
func (s *ExpenseService) Ledger(ctx context.Context) (*ExpenseLedger, error) {
	expenses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expenses")
	}
	total, err := s.repo.Total(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total expenses")
	}
	return &ExpenseLedger{Expenses: expenses, Total: total}, nil
}
