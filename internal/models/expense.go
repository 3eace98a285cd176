package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies a ledger entry.
type ExpenseCategory string

// Recognised expense categories.
const (
	ExpenseCategoryTransport     ExpenseCategory = "TRANSPORT"
	ExpenseCategoryFood          ExpenseCategory = "FOOD"
	ExpenseCategoryAccommodation ExpenseCategory = "ACCOMMODATION"
	ExpenseCategoryActivities    ExpenseCategory = "ACTIVITIES"
	ExpenseCategoryOthers        ExpenseCategory = "OTHERS"
)

// Valid reports whether the category is a known enum value.
func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseCategoryTransport, ExpenseCategoryFood, ExpenseCategoryAccommodation,
		ExpenseCategoryActivities, ExpenseCategoryOthers:
		return true
	}
	return false
}

// Expense is an append-only ledger entry, unrelated to registrations.
type Expense struct {
	ID          string          `db:"id" json:"id"`
	Description string          `db:"description" json:"description"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Category    ExpenseCategory `db:"category" json:"category"`
	Note        *string         `db:"note" json:"note,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"createdAt"`
}
