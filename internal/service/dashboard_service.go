package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tripdesk/tour-booking-api/internal/models"
	"github.com/tripdesk/tour-booking-api/internal/repository"
	appErrors "github.com/tripdesk/tour-booking-api/pkg/errors"
)

const dashboardCacheKey = "dash:summary"

type registrationSummarizer interface {
	Summarize(ctx context.Context) (*repository.RegistrationSummary, error)
}

type pendingTransactionCounter interface {
	CountPending(ctx context.Context) (int, error)
}

type expenseTotaler interface {
	Total(ctx context.Context) (decimal.Decimal, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL       time.Duration
	RefreshChannel string
	Currency       string
}

// DashboardService composes the admin summary from booking and finance data.
type DashboardService struct {
	registrations registrationSummarizer
	transactions  pendingTransactionCounter
	expenses      expenseTotaler
	cache         *CacheService
	logger        *zap.Logger
	now           func() time.Time
	cfg           DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(registrations registrationSummarizer, transactions pendingTransactionCounter, expenses expenseTotaler, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Currency == "" {
		cfg.Currency = "BDT"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		registrations: registrations,
		transactions:  transactions,
		expenses:      expenses,
		cache:         cache,
		logger:        logger,
		now:           time.Now,
		cfg:           cfg,
	}
}

// Summary returns the dashboard aggregate and indicates cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	if s.cache != nil {
		var cached models.DashboardSummary
		hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err == nil && hit {
			return &cached, true, nil
		}
	}

	summary, err := s.compose(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

// Invalidate drops the cached summary and notifies admin clients to re-fetch.
// Called after every mutation that changes dashboard figures.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidate failed", zap.Error(err))
	}
	s.cache.Publish(ctx, s.cfg.RefreshChannel, map[string]string{
		"event": "dashboard.refresh",
		"at":    s.now().UTC().Format(time.RFC3339),
	})
}

func (s *DashboardService) compose(ctx context.Context) (*models.DashboardSummary, error) {
	registrations, err := s.registrations.Summarize(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarize registrations")
	}
	pending, err := s.transactions.CountPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending transactions")
	}
	expenseTotal, err := s.expenses.Total(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to total expenses")
	}

	return &models.DashboardSummary{
		TotalRegistrations:    registrations.Total,
		PendingRegistrations:  registrations.Pending,
		ApprovedRegistrations: registrations.Approved,
		RejectedRegistrations: registrations.Rejected,
		PendingTransactions:   pending,
		CollectedAmount:       registrations.Collected,
		OutstandingAmount:     registrations.Outstanding,
		ExpenseTotal:          expenseTotal,
		NetBalance:            registrations.Collected.Sub(expenseTotal),
		Currency:              s.cfg.Currency,
		GeneratedAt:           s.now().UTC(),
	}, nil
}
