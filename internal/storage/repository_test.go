package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budgetwise.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	date := time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC)
	id, err := repo.CreateTransaction(ctx, core.Transaction{
		Amount:      decimal.RequireFromString("42.50"),
		Category:    "Food",
		Description: "groceries",
		Date:        date,
		Type:        core.Expense,
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}

	got, err := repo.GetTransaction(ctx, id)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Amount.Equal(decimal.RequireFromString("42.50")) {
		t.Errorf("amount = %s, want 42.50", got.Amount)
	}
	if got.Category != "Food" || got.Description != "groceries" {
		t.Errorf("got %q/%q, want Food/groceries", got.Category, got.Description)
	}
	if !got.Date.Equal(date) {
		t.Errorf("date = %v, want %v", got.Date, date)
	}
	if got.Type != core.Expense {
		t.Errorf("type = %q, want expense", got.Type)
	}
}

func TestUpdateTransactionNotFound(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.UpdateTransaction(context.Background(), core.Transaction{
		ID:       999,
		Amount:   decimal.NewFromInt(1),
		Category: "Food",
		Date:     time.Now(),
		Type:     core.Expense,
	})
	if err == nil {
		t.Fatal("expected error updating missing transaction")
	}
}

func TestListTransactionsByRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	dates := []time.Time{
		time.Date(2026, 7, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			Amount: decimal.NewFromInt(10), Category: "Food", Date: d, Type: core.Expense,
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	start, end := core.MonthWindow(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC))
	got, err := repo.ListTransactionsByRange(ctx, start, end)
	if err != nil {
		t.Fatalf("ListTransactionsByRange: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions in August window, want 2", len(got))
	}
	if !got[0].Date.After(got[1].Date) {
		t.Error("expected newest-first ordering")
	}
}

func TestListRecentTransactionsLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 8; i++ {
		if _, err := repo.CreateTransaction(ctx, core.Transaction{
			Amount: decimal.NewFromInt(1), Category: "Food",
			Date: base.AddDate(0, 0, i), Type: core.Expense,
		}); err != nil {
			t.Fatalf("CreateTransaction: %v", err)
		}
	}

	got, err := repo.ListRecentTransactions(ctx, 5)
	if err != nil {
		t.Fatalf("ListRecentTransactions: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("got %d transactions, want 5", len(got))
	}
}

func TestSeededCategories(t *testing.T) {
	repo := newTestRepo(t)

	cats, err := repo.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != 5 {
		t.Fatalf("got %d seeded categories, want 5", len(cats))
	}

	byName := make(map[string]core.Category, len(cats))
	for _, c := range cats {
		byName[c.Name] = c
	}
	if c, ok := byName["Salary"]; !ok || c.Type != core.Income {
		t.Errorf("Salary seed missing or wrong type: %+v", c)
	}
	if c, ok := byName["Food"]; !ok || c.Type != core.Expense {
		t.Errorf("Food seed missing or wrong type: %+v", c)
	}
}

func TestBudgetUpsertReplacesLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertBudget(ctx, core.Budget{
		Category: "Food", Amount: decimal.NewFromInt(300), Period: core.PeriodMonthly,
	}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	if err := repo.UpsertBudget(ctx, core.Budget{
		Category: "Food", Amount: decimal.NewFromInt(450), Period: core.PeriodMonthly,
	}); err != nil {
		t.Fatalf("UpsertBudget (replace): %v", err)
	}

	budgets, err := repo.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("got %d budgets, want 1", len(budgets))
	}
	if !budgets[0].Amount.Equal(decimal.NewFromInt(450)) {
		t.Errorf("limit = %s, want 450", budgets[0].Amount)
	}
}

func TestGetBudgetByCategoryNormalized(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertBudget(ctx, core.Budget{
		Category: "Food", Amount: decimal.NewFromInt(300), Period: core.PeriodMonthly,
	}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	b, err := repo.GetBudgetByCategory(ctx, "  FOOD  ")
	if err != nil {
		t.Fatalf("GetBudgetByCategory: %v", err)
	}
	if b == nil {
		t.Fatal("expected budget match for case-insensitive lookup")
	}
	if b.Category != "Food" {
		t.Errorf("category = %q, want stored spelling Food", b.Category)
	}

	missing, err := repo.GetBudgetByCategory(ctx, "travel")
	if err != nil {
		t.Fatalf("GetBudgetByCategory (missing): %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unconfigured category, got %+v", missing)
	}
}

func TestListDueRecurring(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	asOf := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	schedules := []core.RecurringTransaction{
		{Amount: decimal.NewFromInt(1200), Category: "Rent", Type: core.Expense,
			Frequency: core.Monthly, NextDate: asOf.AddDate(0, 0, -5), Active: true},
		{Amount: decimal.NewFromInt(15), Category: "Transport", Type: core.Expense,
			Frequency: core.Weekly, NextDate: asOf, Active: true},
		{Amount: decimal.NewFromInt(9), Category: "Food", Type: core.Expense,
			Frequency: core.Daily, NextDate: asOf.AddDate(0, 0, 1), Active: true},
		{Amount: decimal.NewFromInt(50), Category: "Food", Type: core.Expense,
			Frequency: core.Monthly, NextDate: asOf.AddDate(0, 0, -10), Active: false},
	}
	for _, s := range schedules {
		if _, err := repo.CreateRecurring(ctx, s); err != nil {
			t.Fatalf("CreateRecurring: %v", err)
		}
	}

	due, err := repo.ListDueRecurring(ctx, asOf)
	if err != nil {
		t.Fatalf("ListDueRecurring: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("got %d due schedules, want 2 (future and paused excluded)", len(due))
	}
	for _, d := range due {
		if !d.Active {
			t.Errorf("paused schedule %d returned as due", d.ID)
		}
		if d.NextDate.After(asOf) {
			t.Errorf("schedule %d due at %v is after asOf", d.ID, d.NextDate)
		}
	}
}

func TestMaterializeOccurrence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	next := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	id, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		Amount: decimal.NewFromInt(1200), Category: "Rent", Description: "monthly rent",
		Type: core.Expense, Frequency: core.Monthly, NextDate: next, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	asOf := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	advanced := next.AddDate(0, 1, 0)
	txID, err := repo.MaterializeOccurrence(ctx, core.RecurringTransaction{
		ID: id, Amount: decimal.NewFromInt(1200), Category: "Rent",
		Description: "monthly rent", Type: core.Expense,
	}, asOf, advanced)
	if err != nil {
		t.Fatalf("MaterializeOccurrence: %v", err)
	}

	tr, err := repo.GetTransaction(ctx, txID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !tr.Date.Equal(asOf) {
		t.Errorf("occurrence date = %v, want asOf %v", tr.Date, asOf)
	}

	all, err := repo.ListRecurring(ctx)
	if err != nil {
		t.Fatalf("ListRecurring: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d schedules, want 1", len(all))
	}
	if !all[0].NextDate.Equal(advanced) {
		t.Errorf("next_date = %v, want %v", all[0].NextDate, advanced)
	}
}

func TestSetRecurringActive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	next := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	id, err := repo.CreateRecurring(ctx, core.RecurringTransaction{
		Amount: decimal.NewFromInt(10), Category: "Food",
		Type: core.Expense, Frequency: core.Daily, NextDate: next, Active: true,
	})
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	if err := repo.SetRecurringActive(ctx, id, false); err != nil {
		t.Fatalf("SetRecurringActive: %v", err)
	}

	all, err := repo.ListRecurring(ctx)
	if err != nil {
		t.Fatalf("ListRecurring: %v", err)
	}
	if all[0].Active {
		t.Error("schedule still active after pause")
	}
	if !all[0].NextDate.Equal(next) {
		t.Errorf("pause moved next_date to %v", all[0].NextDate)
	}
}
