package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegistrationStatus represents the admin review state of a booking.
type RegistrationStatus string

// Possible registration statuses.
const (
	RegistrationStatusPending  RegistrationStatus = "PENDING"
	RegistrationStatusApproved RegistrationStatus = "APPROVED"
	RegistrationStatusRejected RegistrationStatus = "REJECTED"
)

// Valid reports whether the status is a known enum value.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusApproved, RegistrationStatusRejected:
		return true
	}
	return false
}

// Registration is a customer's booking record for the tour package,
// tracking contact info and the running payment balance.
// Invariant: paid_amount + due_amount == total_amount after every committed mutation.
type Registration struct {
	ID          string             `db:"id" json:"id"`
	Name        string             `db:"name" json:"name"`
	Phone       string             `db:"phone" json:"phone"`
	Address     string             `db:"address" json:"address"`
	TourDate    time.Time          `db:"tour_date" json:"date"`
	Status      RegistrationStatus `db:"status" json:"status"`
	TotalAmount decimal.Decimal    `db:"total_amount" json:"totalAmount"`
	PaidAmount  decimal.Decimal    `db:"paid_amount" json:"paidAmount"`
	DueAmount   decimal.Decimal    `db:"due_amount" json:"dueAmount"`
	TicketLink  *string            `db:"ticket_link" json:"ticketLink"`
	CreatedAt   time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `db:"updated_at" json:"updatedAt"`
}

// BalancesConsistent checks the paid/due/total invariant.
func (r *Registration) BalancesConsistent() bool {
	return r.PaidAmount.Add(r.DueAmount).Equal(r.TotalAmount)
}
