package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DashboardSummary aggregates booking and finance figures for the admin panel.
type DashboardSummary struct {
	TotalRegistrations    int             `json:"totalRegistrations"`
	PendingRegistrations  int             `json:"pendingRegistrations"`
	ApprovedRegistrations int             `json:"approvedRegistrations"`
	RejectedRegistrations int             `json:"rejectedRegistrations"`
	PendingTransactions   int             `json:"pendingTransactions"`
	CollectedAmount       decimal.Decimal `json:"collectedAmount"`
	OutstandingAmount     decimal.Decimal `json:"outstandingAmount"`
	ExpenseTotal          decimal.Decimal `json:"expenseTotal"`
	NetBalance            decimal.Decimal `json:"netBalance"`
	Currency              string          `json:"currency"`
	GeneratedAt           time.Time       `json:"generatedAt"`
}
