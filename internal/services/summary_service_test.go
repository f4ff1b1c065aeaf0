package services

import (
	"context"
	"testing"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

type fakeSummaryStore struct {
	transactions []core.Transaction
}

func (s *fakeSummaryStore) ListTransactionsByRange(_ context.Context, start, end time.Time) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.transactions {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func TestMonthSummary(t *testing.T) {
	asOf := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	income := func(amount string, date time.Time) core.Transaction {
		return core.Transaction{
			Amount:   decimal.RequireFromString(amount),
			Category: "Salary",
			Date:     date,
			Type:     core.Income,
		}
	}

	store := &fakeSummaryStore{transactions: []core.Transaction{
		income("2500.00", asOf.AddDate(0, 0, -14)),
		expense("Rent", "1200.00", asOf.AddDate(0, 0, -10)),
		expense("Food", "80.00", asOf),
		expense("  food ", "20.00", asOf),
		// Previous month, must not count.
		expense("Food", "500.00", asOf.AddDate(0, -1, 0)),
	}}

	got, err := NewSummaryService(store).MonthSummary(context.Background(), asOf)
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}

	if got.Year != 2026 || got.Month != 8 {
		t.Errorf("summary labeled %d-%d, want 2026-8", got.Year, got.Month)
	}
	if !got.Income.Equal(decimal.RequireFromString("2500.00")) {
		t.Errorf("income = %s, want 2500.00", got.Income)
	}
	if !got.Expense.Equal(decimal.RequireFromString("1300.00")) {
		t.Errorf("expense = %s, want 1300.00", got.Expense)
	}
	if !got.Balance.Equal(decimal.RequireFromString("1200.00")) {
		t.Errorf("balance = %s, want 1200.00", got.Balance)
	}

	if len(got.ByCategory) != 2 {
		t.Fatalf("got %d expense categories, want 2", len(got.ByCategory))
	}
	if got.ByCategory[0].Name != "Rent" {
		t.Errorf("largest category = %q, want Rent first", got.ByCategory[0].Name)
	}
	if !got.ByCategory[1].Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("Food total = %s, want 100.00 across spellings", got.ByCategory[1].Amount)
	}
}

func TestMonthSummary_EmptyMonth(t *testing.T) {
	got, err := NewSummaryService(&fakeSummaryStore{}).MonthSummary(context.Background(),
		time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("MonthSummary: %v", err)
	}
	if !got.Income.IsZero() || !got.Expense.IsZero() || !got.Balance.IsZero() {
		t.Errorf("empty month reports non-zero totals: %+v", got)
	}
	if len(got.ByCategory) != 0 {
		t.Errorf("empty month reports categories: %v", got.ByCategory)
	}
}
