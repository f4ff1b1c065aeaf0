package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// SummaryStore is the storage surface month aggregation needs.
type SummaryStore interface {
	ListTransactionsByRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
}

type SummaryService struct {
	store SummaryStore
}

func NewSummaryService(store SummaryStore) *SummaryService {
	return &SummaryService{store: store}
}

// MonthSummary aggregates the calendar month containing asOf: income and
// expense totals, their balance, and per-category expense totals sorted
// largest first. Category keys are normalized for grouping but the first
// spelling seen is kept for display.
func (s *SummaryService) MonthSummary(ctx context.Context, asOf time.Time) (core.MonthSummary, error) {
	start, end := core.MonthWindow(asOf)
	transactions, err := s.store.ListTransactionsByRange(ctx, start, end)
	if err != nil {
		return core.MonthSummary{}, fmt.Errorf("load month transactions: %w", err)
	}

	summary := core.MonthSummary{
		Year:  asOf.Year(),
		Month: int(asOf.Month()),
	}

	type bucket struct {
		name  string
		total decimal.Decimal
	}
	buckets := make(map[string]*bucket)

	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			summary.Income = summary.Income.Add(t.Amount)
		case core.Expense:
			summary.Expense = summary.Expense.Add(t.Amount)
			key := core.NormalizeCategory(t.Category)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{name: t.Category}
				buckets[key] = b
			}
			b.total = b.total.Add(t.Amount)
		}
	}
	summary.Balance = summary.Income.Sub(summary.Expense)

	for _, b := range buckets {
		summary.ByCategory = append(summary.ByCategory, core.CategoryAmount{
			Name:   b.name,
			Amount: b.total,
		})
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		if summary.ByCategory[i].Amount.Equal(summary.ByCategory[j].Amount) {
			return summary.ByCategory[i].Name < summary.ByCategory[j].Name
		}
		return summary.ByCategory[i].Amount.GreaterThan(summary.ByCategory[j].Amount)
	})

	return summary, nil
}
