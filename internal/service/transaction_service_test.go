package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

type mockTransactionRepo struct {
	transactions  map[string]*models.Transaction
	registrations map[string]*models.Registration
	created       []*models.Transaction
}

func (m *mockTransactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = "txn-generated"
	}
	if m.transactions == nil {
		m.transactions = make(map[string]*models.Transaction)
	}
	m.transactions[txn.ID] = txn
	m.created = append(m.created, txn)
	return nil
}

func (m *mockTransactionRepo) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	if txn, ok := m.transactions[id]; ok {
		return txn, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTransactionRepo) ListPendingDetails(ctx context.Context) ([]models.TransactionDetail, error) {
	details := make([]models.TransactionDetail, 0)
	for _, txn := range m.transactions {
		if txn.Status == models.TransactionStatusPending {
			details = append(details, models.TransactionDetail{Transaction: *txn})
		}
	}
	return details, nil
}

// Resolve mirrors the guarded settlement: only PENDING rows settle, and an
// approval recomputes the registration balances from the amount.
func (m *mockTransactionRepo) Resolve(ctx context.Context, id string, action models.TransactionStatus) (*models.Transaction, *models.Registration, error) {
	txn, ok := m.transactions[id]
	if !ok || txn.Status != models.TransactionStatusPending {
		return nil, nil, repository.ErrStaleStatus
	}
	txn.Status = action
	if action != models.TransactionStatusApproved {
		return txn, nil, nil
	}
	reg := m.registrations[txn.RegistrationID]
	reg.PaidAmount = reg.PaidAmount.Add(txn.Amount)
	reg.DueAmount = reg.TotalAmount.Sub(reg.PaidAmount)
	return txn, reg, nil
}

type mockRegistrationReader struct {
	registrations map[string]*models.Registration
}

func (m *mockRegistrationReader) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	if reg, ok := m.registrations[id]; ok {
		return reg, nil
	}
	return nil, sql.ErrNoRows
}

type mockAuditRecorder struct {
	logs []*models.AuditLog
}

func (m *mockAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

type mockDashboard struct {
	invalidations int
}

func (m *mockDashboard) Invalidate(ctx context.Context) {
	m.invalidations++
}

func newTransactionFixture() (*mockTransactionRepo, *mockRegistrationReader, *mockAuditRecorder, *mockDashboard, *TransactionService) {
	registration := &models.Registration{
		ID:          "reg-1",
		Name:        "Rahim",
		Phone:       "01711111111",
		Status:      models.RegistrationStatusApproved,
		TotalAmount: decimal.NewFromInt(4500),
		PaidAmount:  decimal.Zero,
		DueAmount:   decimal.NewFromInt(4500),
	}
	repo := &mockTransactionRepo{
		transactions:  make(map[string]*models.Transaction),
		registrations: map[string]*models.Registration{"reg-1": registration},
	}
	reader := &mockRegistrationReader{registrations: repo.registrations}
	audit := &mockAuditRecorder{}
	dashboard := &mockDashboard{}
	svc := NewTransactionService(repo, reader, audit, dashboard, nil, validator.New(), zap.NewNop())
	return repo, reader, audit, dashboard, svc
}

func TestTransactionServiceRecord(t *testing.T) {
	repo, _, _, dashboard, svc := newTransactionFixture()

	txn, err := svc.Record(context.Background(), RecordTransactionRequest{
		RegistrationID: "reg-1",
		Amount:         decimal.RequireFromString("1500.00"),
		PaymentMethod:  "bkash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.Equal(t, models.PaymentMethodBkash, txn.PaymentMethod)
	assert.True(t, txn.Amount.Equal(decimal.NewFromInt(1500)))
	assert.Len(t, repo.created, 1)
	assert.Equal(t, 1, dashboard.invalidations)

	// Recording never touches balances.
	reg := repo.registrations["reg-1"]
	assert.True(t, reg.PaidAmount.IsZero())
	assert.True(t, reg.DueAmount.Equal(decimal.NewFromInt(4500)))
}

func TestTransactionServiceRecordRejectsBadInput(t *testing.T) {
	_, _, _, _, svc := newTransactionFixture()

	cases := []RecordTransactionRequest{
		{RegistrationID: "reg-1", PaymentMethod: "CASH"},
		{RegistrationID: "reg-1", Amount: decimal.NewFromInt(-50), PaymentMethod: "CASH"},
		{RegistrationID: "reg-1", Amount: decimal.NewFromInt(100), PaymentMethod: "PAYPAL"},
	}
	for _, req := range cases {
		_, err := svc.Record(context.Background(), req)
		require.Error(t, err)
		appErr := appErrors.FromError(err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

// The admin UI posts amount as a JSON number; older API clients quote it.
// Both forms must bind and record.
func TestTransactionServiceRecordAmountJSONForms(t *testing.T) {
	payloads := []string{
		`{"registrationId":"reg-1","amount":1500,"paymentMethod":"CASH"}`,
		`{"registrationId":"reg-1","amount":"1500.50","paymentMethod":"CASH"}`,
	}
	for _, payload := range payloads {
		_, _, _, _, svc := newTransactionFixture()

		var req RecordTransactionRequest
		require.NoError(t, json.Unmarshal([]byte(payload), &req))

		txn, err := svc.Record(context.Background(), req)
		require.NoError(t, err)
		assert.True(t, txn.Amount.GreaterThanOrEqual(decimal.NewFromInt(1500)))
	}
}

func TestTransactionServiceRecordUnknownRegistration(t *testing.T) {
	_, _, _, _, svc := newTransactionFixture()

	_, err := svc.Record(context.Background(), RecordTransactionRequest{
		RegistrationID: "missing",
		Amount:         decimal.NewFromInt(100),
		PaymentMethod:  "CASH",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTransactionServiceResolveApprove(t *testing.T) {
	repo, _, audit, dashboard, svc := newTransactionFixture()
	repo.transactions["txn-1"] = &models.Transaction{
		ID:             "txn-1",
		RegistrationID: "reg-1",
		Amount:         decimal.NewFromInt(1500),
		Status:         models.TransactionStatusPending,
	}

	result, err := svc.Resolve(context.Background(), "txn-1", ResolveTransactionRequest{
		Action:  models.TransactionStatusApproved,
		ActorID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusApproved, result.Transaction.Status)
	require.NotNil(t, result.Registration)
	assert.True(t, result.Registration.PaidAmount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, result.Registration.DueAmount.Equal(decimal.NewFromInt(3000)))
	assert.True(t, result.Registration.BalancesConsistent())

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionSettleTransaction, audit.logs[0].Action)
	require.NotNil(t, audit.logs[0].UserID)
	assert.Equal(t, "admin-1", *audit.logs[0].UserID)
	assert.Equal(t, 1, dashboard.invalidations)
}

func TestTransactionServiceResolveReject(t *testing.T) {
	repo, _, _, _, svc := newTransactionFixture()
	repo.transactions["txn-1"] = &models.Transaction{
		ID:             "txn-1",
		RegistrationID: "reg-1",
		Amount:         decimal.NewFromInt(1500),
		Status:         models.TransactionStatusPending,
	}

	result, err := svc.Resolve(context.Background(), "txn-1", ResolveTransactionRequest{
		Action: models.TransactionStatusRejected,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusRejected, result.Transaction.Status)
	assert.Nil(t, result.Registration)

	reg := repo.registrations["reg-1"]
	assert.True(t, reg.PaidAmount.IsZero())
	assert.True(t, reg.DueAmount.Equal(decimal.NewFromInt(4500)))
}

func TestTransactionServiceResolveOverpaymentKeepsInvariant(t *testing.T) {
	repo, _, _, _, svc := newTransactionFixture()
	reg := repo.registrations["reg-1"]
	reg.PaidAmount = decimal.NewFromInt(1500)
	reg.DueAmount = decimal.NewFromInt(3000)
	repo.transactions["txn-big"] = &models.Transaction{
		ID:             "txn-big",
		RegistrationID: "reg-1",
		Amount:         decimal.NewFromInt(4000),
		Status:         models.TransactionStatusPending,
	}

	result, err := svc.Resolve(context.Background(), "txn-big", ResolveTransactionRequest{
		Action: models.TransactionStatusApproved,
	})
	require.NoError(t, err)
	assert.True(t, result.Registration.PaidAmount.Equal(decimal.NewFromInt(5500)))
	assert.True(t, result.Registration.DueAmount.Equal(decimal.NewFromInt(-1000)))
	assert.True(t, result.Registration.BalancesConsistent())
}

func TestTransactionServiceResolveSettledConflicts(t *testing.T) {
	repo, _, _, _, svc := newTransactionFixture()
	repo.transactions["txn-1"] = &models.Transaction{
		ID:             "txn-1",
		RegistrationID: "reg-1",
		Amount:         decimal.NewFromInt(100),
		Status:         models.TransactionStatusApproved,
	}

	_, err := svc.Resolve(context.Background(), "txn-1", ResolveTransactionRequest{
		Action: models.TransactionStatusApproved,
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestTransactionServiceResolveUnknownNotFound(t *testing.T) {
	_, _, _, _, svc := newTransactionFixture()

	_, err := svc.Resolve(context.Background(), "missing", ResolveTransactionRequest{
		Action: models.TransactionStatusRejected,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTransactionServiceResolveInvalidAction(t *testing.T) {
	_, _, _, _, svc := newTransactionFixture()

	_, err := svc.Resolve(context.Background(), "txn-1", ResolveTransactionRequest{
		Action: models.TransactionStatusPending,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
