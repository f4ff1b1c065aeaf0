package insights

import (
	"context"
	"strings"
	"testing"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

type cannedCompleter struct {
	gotPrompt string
	reply     string
	err       error
}

func (c *cannedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.gotPrompt = prompt
	return c.reply, c.err
}

type fakeStore struct {
	transactions []core.Transaction
	budgets      []core.Budget
}

func (s *fakeStore) ListTransactionsByRange(_ context.Context, start, end time.Time) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, t := range s.transactions {
		if !t.Date.Before(start) && !t.Date.After(end) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) ListBudgets(context.Context) ([]core.Budget, error) {
	return s.budgets, nil
}

func TestFinancialInsightsPrompt(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{transactions: []core.Transaction{{
		Amount:   decimal.RequireFromString("42.50"),
		Category: "Food",
		Date:     now.AddDate(0, 0, -2),
		Type:     core.Expense,
	}}}
	completer := &cannedCompleter{reply: "looks fine"}

	got, err := NewService(completer, store, "€").FinancialInsights(context.Background(), now)
	if err != nil {
		t.Fatalf("FinancialInsights: %v", err)
	}
	if got != "looks fine" {
		t.Errorf("reply = %q", got)
	}

	for _, want := range []string{`"€"`, `"42.50"`, `"Food"`, "Format as markdown."} {
		if !strings.Contains(completer.gotPrompt, want) {
			t.Errorf("prompt missing %s:\n%s", want, completer.gotPrompt)
		}
	}
}

func TestFinancialInsightsEmptyLedger(t *testing.T) {
	completer := &cannedCompleter{reply: "unused"}
	_, err := NewService(completer, &fakeStore{}, "$").FinancialInsights(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected error for empty ledger")
	}
	if completer.gotPrompt != "" {
		t.Error("provider was called with nothing to analyze")
	}
}

func TestSuggestCategoryTrimsReply(t *testing.T) {
	completer := &cannedCompleter{reply: "  Food\n"}
	got, err := NewService(completer, &fakeStore{}, "$").SuggestCategory(context.Background(), "weekly groceries")
	if err != nil {
		t.Fatalf("SuggestCategory: %v", err)
	}
	if got != "Food" {
		t.Errorf("category = %q, want Food", got)
	}
	if !strings.Contains(completer.gotPrompt, "weekly groceries") {
		t.Error("prompt does not carry the description")
	}
}

func TestAnalyzeBudgetPrompt(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{
		budgets: []core.Budget{{Category: "Food", Amount: decimal.NewFromInt(300), Period: core.PeriodMonthly}},
		transactions: []core.Transaction{{
			Amount:   decimal.RequireFromString("120.00"),
			Category: "Food",
			Date:     now,
			Type:     core.Expense,
		}},
	}
	completer := &cannedCompleter{reply: "over budget"}

	got, err := NewService(completer, store, "$").AnalyzeBudget(context.Background(), now)
	if err != nil {
		t.Fatalf("AnalyzeBudget: %v", err)
	}
	if got != "over budget" {
		t.Errorf("reply = %q", got)
	}
	for _, want := range []string{`"300.00"`, `"120.00"`, "Budget adherence score"} {
		if !strings.Contains(completer.gotPrompt, want) {
			t.Errorf("prompt missing %s", want)
		}
	}
}
