package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents the settlement state of a recorded payment.
type TransactionStatus string

// Settlement states. APPROVED and REJECTED are terminal.
const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusRejected TransactionStatus = "REJECTED"
)

// Terminal reports whether the status is a settled state.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusApproved || s == TransactionStatusRejected
}

// PaymentMethod enumerates the manually recorded payment channels.
type PaymentMethod string

// Recognised payment methods.
const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodBkash  PaymentMethod = "BKASH"
	PaymentMethodNagad  PaymentMethod = "NAGAD"
	PaymentMethodRocket PaymentMethod = "ROCKET"
)

// Valid reports whether the method is a known enum value.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBkash, PaymentMethodNagad, PaymentMethodRocket:
		return true
	}
	return false
}

// Transaction is a single recorded payment attempt against a registration,
// pending admin approval. It never outlives its registration.
type Transaction struct {
	ID             string            `db:"id" json:"id"`
	RegistrationID string            `db:"registration_id" json:"registrationId"`
	Amount         decimal.Decimal   `db:"amount" json:"amount"`
	PaymentMethod  PaymentMethod     `db:"payment_method" json:"paymentMethod"`
	Note           *string           `db:"note" json:"note,omitempty"`
	Status         TransactionStatus `db:"status" json:"status"`
	PaymentDate    time.Time         `db:"payment_date" json:"paymentDate"`
	ResolvedAt     *time.Time        `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"createdAt"`
}

// TransactionDetail enriches a Transaction with a summary of its registration
// for the admin approval queue.
type TransactionDetail struct {
	Transaction
	RegistrationName  string          `db:"registration_name" json:"registrationName"`
	RegistrationPhone string          `db:"registration_phone" json:"registrationPhone"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"totalAmount"`
	PaidAmount        decimal.Decimal `db:"paid_amount" json:"paidAmount"`
	DueAmount         decimal.Decimal `db:"due_amount" json:"dueAmount"`
}
