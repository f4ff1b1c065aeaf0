package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"budgetwise/internal/core"
)

// Completer is the one-shot prompt interface the service needs. *Client
// satisfies it; tests substitute a canned implementation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Store is the storage surface insight prompts are built from.
type Store interface {
	ListTransactionsByRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	ListBudgets(ctx context.Context) ([]core.Budget, error)
}

type Service struct {
	completer Completer
	store     Store
	currency  string
}

func NewService(completer Completer, store Store, currencySymbol string) *Service {
	if currencySymbol == "" {
		currencySymbol = "$"
	}
	return &Service{completer: completer, store: store, currency: currencySymbol}
}

// transactionView is the JSON shape embedded in prompts. Amounts go out as
// strings so the model never sees binary-float artifacts.
type transactionView struct {
	Date        string `json:"date"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
}

func viewOf(transactions []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, transactionView{
			Date:        t.Date.Format("2006-01-02"),
			Type:        string(t.Type),
			Category:    t.Category,
			Amount:      t.Amount.StringFixed(2),
			Description: t.Description,
		})
	}
	return out
}

// FinancialInsights asks the model for commentary on the last three months
// of ledger activity.
func (s *Service) FinancialInsights(ctx context.Context, now time.Time) (string, error) {
	start := time.Date(now.Year(), now.Month()-3, 1, 0, 0, 0, 0, now.Location())
	transactions, err := s.store.ListTransactionsByRange(ctx, start, now)
	if err != nil {
		return "", fmt.Errorf("load transactions for insights: %w", err)
	}
	if len(transactions) == 0 {
		return "", fmt.Errorf("no transactions to analyze")
	}

	payload, err := json.MarshalIndent(viewOf(transactions), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transactions: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze these financial transactions and provide insights. The currency is %q.
%s

Provide:
1. Spending patterns (use %s for amounts)
2. Budget recommendations
3. Savings opportunities
4. Financial health score

Format as markdown.`, s.currency, payload, s.currency)

	return s.completer.Complete(ctx, prompt)
}

// SuggestCategory asks the model to classify a free-text description into
// one category name.
func (s *Service) SuggestCategory(ctx context.Context, description string) (string, error) {
	prompt := fmt.Sprintf(`Suggest a category for this transaction: %q

Common categories: Food, Rent, Transport, Salary, Freelance, Shopping, Entertainment, Health, Education, Other

Return only the category name, nothing else.`, description)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// AnalyzeBudget asks the model to compare configured budgets with the
// current month's spending.
func (s *Service) AnalyzeBudget(ctx context.Context, now time.Time) (string, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return "", fmt.Errorf("load budgets for analysis: %w", err)
	}

	start, end := core.MonthWindow(now)
	transactions, err := s.store.ListTransactionsByRange(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("load transactions for analysis: %w", err)
	}

	type budgetView struct {
		Category string `json:"category"`
		Limit    string `json:"limit"`
		Period   string `json:"period"`
	}
	budgetViews := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		budgetViews = append(budgetViews, budgetView{
			Category: b.Category,
			Limit:    b.Amount.StringFixed(2),
			Period:   b.Period,
		})
	}

	budgetJSON, err := json.MarshalIndent(budgetViews, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal budgets: %w", err)
	}
	txJSON, err := json.MarshalIndent(viewOf(transactions), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal transactions: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze budget vs actual spending:
Budgets: %s
Transactions: %s

Provide:
1. Budget adherence score
2. Categories over/under budget
3. Recommendations
4. Alerts

Format as markdown.`, budgetJSON, txJSON)

	return s.completer.Complete(ctx, prompt)
}
