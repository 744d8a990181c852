package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"finhub/internal/cache"
	"finhub/internal/policy"
	"finhub/internal/repository"
)

const statsCacheTTL = time.Minute

// Stats summarizes a company's finances.
type Stats struct {
	Currency       string          `json:"currency"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpense   decimal.Decimal `json:"total_expense"`
	NetIncome      decimal.Decimal `json:"net_income"`
	PendingCount   int64           `json:"pending_count"`
	CompletedCount int64           `json:"completed_count"`
	BankCount      int64           `json:"bank_count"`
	TotalBalance   decimal.Decimal `json:"total_balance"`
}

// DashboardService computes company statistics.
type DashboardService interface {
	Stats(ctx context.Context, caller *policy.Caller) (*Stats, error)
}

type dashboardService struct {
	store repository.Store
	cache *cache.Client
	money *MoneyFormatter
	log   *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store repository.Store, cache *cache.Client, money *MoneyFormatter, log *zap.Logger) DashboardService {
	return &dashboardService{store: store, cache: cache, money: money, log: orNop(log).Named("dashboard")}
}

func statsCacheKey(companyID string) string {
	return "stats:transactions:" + companyID
}

// invalidateStats drops the cached transaction aggregates of a company.
func invalidateStats(ctx context.Context, c *cache.Client, companyID string) {
	_ = c.Delete(ctx, statsCacheKey(companyID))
}

// Stats returns ledger aggregates (cached briefly) and live bank balances.
func (s *dashboardService) Stats(ctx context.Context, caller *policy.Caller) (*Stats, error) {
	if err := authorize(caller, companyScope(caller, policy.KindDashboard), policy.ActionRead); err != nil {
		return nil, err
	}

	var totals repository.TransactionTotals
	if !s.cache.GetJSON(ctx, statsCacheKey(caller.CompanyID), &totals) {
		fresh, err := s.store.Transactions().Totals(ctx, caller.CompanyID)
		if err != nil {
			return nil, storeError(s.log, "transaction totals", err, "company not found")
		}
		totals = *fresh
		_ = s.cache.SetJSON(ctx, statsCacheKey(caller.CompanyID), totals, statsCacheTTL)
	}

	balance, count, err := s.store.Banks().TotalBalance(ctx, caller.CompanyID)
	if err != nil {
		return nil, storeError(s.log, "bank totals", err, "company not found")
	}

	return &Stats{
		Currency:       s.money.Currency(),
		TotalIncome:    totals.Income,
		TotalExpense:   totals.Expense,
		NetIncome:      totals.Income.Sub(totals.Expense),
		PendingCount:   totals.Pending,
		CompletedCount: totals.Completed,
		BankCount:      count,
		TotalBalance:   balance,
	}, nil
}
