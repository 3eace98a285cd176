package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

type transactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	ListPendingDetails(ctx context.Context) ([]models.TransactionDetail, error)
	Resolve(ctx context.Context, id string, action models.TransactionStatus) (*models.Transaction, *models.Registration, error)
}

type transactionRegistrationReader interface {
	FindByID(ctx context.Context, id string) (*models.Registration, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RecordTransactionRequest holds the payload for recording a payment attempt.
// Amount binds from both JSON numbers and quoted decimal strings.
type RecordTransactionRequest struct {
	RegistrationID string          `json:"registrationId" validate:"required"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"paymentMethod" validate:"required"`
	Note           *string         `json:"note"`
}

// ResolveTransactionRequest holds the admin settlement decision.
type ResolveTransactionRequest struct {
	TransactionID string                   `json:"transactionId"`
	Action        models.TransactionStatus `json:"action" validate:"required"`

	ActorID   string `json:"-"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// SettlementResult carries the settled transaction and, on approval, the
// registration with its updated balances.
type SettlementResult struct {
	Transaction  *models.Transaction  `json:"transaction"`
	Registration *models.Registration `json:"registration,omitempty"`
}

// TransactionService handles payment recording and settlement use-cases.
type TransactionService struct {
	repo          transactionRepository
	registrations transactionRegistrationReader
	audit         auditRecorder
	dashboard     dashboardInvalidator
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewTransactionService constructs the transaction service.
func NewTransactionService(repo transactionRepository, registrations transactionRegistrationReader, audit auditRecorder, dashboard dashboardInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *TransactionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{
		repo:          repo,
		registrations: registrations,
		audit:         audit,
		dashboard:     dashboard,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Record persists a new PENDING payment attempt against a registration.
// Balances stay untouched until the transaction is approved.
func (s *TransactionService) Record(ctx context.Context, req RecordTransactionRequest) (*models.Transaction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transaction payload")
	}

	if req.Amount.Sign() <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be greater than zero")
	}

	method := models.PaymentMethod(strings.ToUpper(strings.TrimSpace(req.PaymentMethod)))
	if !method.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported payment method")
	}

	if _, err := s.registrations.FindByID(ctx, req.RegistrationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load registration")
	}

	txn := &models.Transaction{
		RegistrationID: req.RegistrationID,
		Amount:         req.Amount,
		PaymentMethod:  method,
		Note:           req.Note,
		Status:         models.TransactionStatusPending,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record transaction")
	}

	s.invalidateDashboard(ctx)
	return txn, nil
}

// ListPending returns unsettled transactions with their registration summary,
// oldest first.
func (s *TransactionService) ListPending(ctx context.Context) ([]models.TransactionDetail, error) {
	details, err := s.repo.ListPendingDetails(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending transactions")
	}
	return details, nil
}

// Resolve settles a PENDING transaction. Approval atomically applies the
// amount to the registration balances; rejection leaves them untouched. A
// transaction settles exactly once even under concurrent resolution attempts.
func (s *TransactionService) Resolve(ctx context.Context, id string, req ResolveTransactionRequest) (*SettlementResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid settlement payload")
	}
	if req.Action != models.TransactionStatusApproved && req.Action != models.TransactionStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "action must be APPROVED or REJECTED")
	}

	txn, registration, err := s.repo.Resolve(ctx, id, req.Action)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, s.staleStatusError(ctx, id)
		}
		if errors.Is(err, repository.ErrBalanceInvariant) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "settlement produced inconsistent balances")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to settle transaction")
	}

	s.metrics.RecordSettlement(string(req.Action))
	s.recordSettlementAudit(ctx, txn, registration, req)
	s.invalidateDashboard(ctx)

	return &SettlementResult{Transaction: txn, Registration: registration}, nil
}

func (s *TransactionService) staleStatusError(ctx context.Context, id string) error {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "transaction not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transaction")
	}
	return appErrors.Clone(appErrors.ErrConflict, "transaction already settled as "+string(txn.Status))
}

func (s *TransactionService) recordSettlementAudit(ctx context.Context, txn *models.Transaction, registration *models.Registration, req ResolveTransactionRequest) {
	if s.audit == nil {
		return
	}
	newValues, err := json.Marshal(map[string]interface{}{
		"status":       txn.Status,
		"amount":       txn.Amount,
		"registration": registration,
	})
	if err != nil {
		newValues = []byte(`{}`)
	}
	log := &models.AuditLog{
		Action:     models.AuditActionSettleTransaction,
		Resource:   "transactions",
		ResourceID: &txn.ID,
		NewValues:  newValues,
		IPAddress:  req.IP,
		UserAgent:  req.UserAgent,
	}
	if req.ActorID != "" {
		actorID := req.ActorID
		log.UserID = &actorID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record settlement audit log", zap.Error(err))
	}
}

func (s *TransactionService) invalidateDashboard(ctx context.Context) {
	if s.dashboard != nil {
		s.dashboard.Invalidate(ctx)
	}
}
