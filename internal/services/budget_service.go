package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// BudgetStore is the storage surface budget operations need.
type BudgetStore interface {
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	GetBudgetByCategory(ctx context.Context, category string) (*core.Budget, error)
	UpsertBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id int64) error
	ListExpensesByRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
}

type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

// SetBudget creates or replaces the single budget for a category. The
// category is stored trimmed but otherwise as entered.
func (s *BudgetService) SetBudget(ctx context.Context, b core.Budget) error {
	b.Category = strings.TrimSpace(b.Category)
	if b.Period == "" {
		b.Period = core.PeriodMonthly
	}
	if err := b.Validate(); err != nil {
		return fmt.Errorf("validate budget: %w", err)
	}
	return s.store.UpsertBudget(ctx, b)
}

// ListBudgets returns every configured budget.
func (s *BudgetService) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx)
}

// DeleteBudget removes a budget by ID.
func (s *BudgetService) DeleteBudget(ctx context.Context, id int64) error {
	return s.store.DeleteBudget(ctx, id)
}

// GetBudgetProgress joins each configured budget with the spend of its
// category in the calendar month containing asOf. Matching is trimmed and
// case-insensitive on both sides; a budget whose category saw no expenses
// reports zero spend. Percentage is capped at 100, remaining is not capped
// and goes negative on overspend.
//
// A storage failure degrades to an empty result instead of an error. The
// progress view is decoration over the ledger; it must never take the rest
// of a dashboard down with it.
func (s *BudgetService) GetBudgetProgress(ctx context.Context, asOf time.Time) []core.BudgetProgress {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load budgets for progress", "error", err)
		return []core.BudgetProgress{}
	}

	spentByCategory, err := s.monthSpend(ctx, asOf)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to load month expenses for progress", "error", err)
		return []core.BudgetProgress{}
	}

	progress := make([]core.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		spent := spentByCategory[core.NormalizeCategory(b.Category)]

		pct := 0.0
		if b.Amount.IsPositive() {
			pct, _ = spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
			if pct > 100 {
				pct = 100
			}
		}

		progress = append(progress, core.BudgetProgress{
			Category:   b.Category,
			Amount:     b.Amount,
			Period:     b.Period,
			Spent:      spent,
			Remaining:  b.Amount.Sub(spent),
			Percentage: pct,
			Limit:      b.Amount,
		})
	}
	return progress
}

// CheckExceeded reports whether adding amount to category's current-month
// spend would push it past the budget limit. Landing exactly on the limit
// is not an exceedance. The result is advisory; nothing blocks the write.
//
// A category with no budget never reports exceedance.
func (s *BudgetService) CheckExceeded(ctx context.Context, category string, amount decimal.Decimal, asOf time.Time) (core.ExceedanceResult, error) {
	result := core.ExceedanceResult{Category: category}

	budget, err := s.store.GetBudgetByCategory(ctx, category)
	if err != nil {
		return result, fmt.Errorf("look up budget: %w", err)
	}
	if budget == nil {
		return result, nil
	}

	spentByCategory, err := s.monthSpend(ctx, asOf)
	if err != nil {
		return result, fmt.Errorf("load month expenses: %w", err)
	}

	spent := spentByCategory[core.NormalizeCategory(category)]
	projected := spent.Add(amount)

	result.Limit = budget.Amount
	result.Spent = spent
	result.Projected = projected
	result.Exceeded = projected.GreaterThan(budget.Amount)
	return result, nil
}

// monthSpend sums the month's expenses per normalized category name.
// Amounts stay in decimal arithmetic end to end.
func (s *BudgetService) monthSpend(ctx context.Context, asOf time.Time) (map[string]decimal.Decimal, error) {
	start, end := core.MonthWindow(asOf)
	expenses, err := s.store.ListExpensesByRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]decimal.Decimal, len(expenses))
	for _, e := range expenses {
		key := core.NormalizeCategory(e.Category)
		totals[key] = totals[key].Add(e.Amount)
	}
	return totals, nil
}
