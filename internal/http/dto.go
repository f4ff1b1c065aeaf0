package http

import (
	"fmt"
	"time"

	"budgetwise/internal/core"
)

// Amounts cross the wire as decimal strings. Dates are RFC 3339.

type transactionPayload struct {
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
}

func (p transactionPayload) toDomain() (core.Transaction, error) {
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}
	return core.Transaction{
		Amount:      amount,
		Category:    p.Category,
		Description: p.Description,
		Date:        p.Date,
		Type:        core.TransactionType(p.Type),
	}, nil
}

type transactionView struct {
	ID          int64     `json:"id"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
}

func viewOfTransaction(t core.Transaction) transactionView {
	return transactionView{
		ID:          t.ID,
		Amount:      core.FormatAmount(t.Amount),
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date,
		Type:        string(t.Type),
	}
}

func viewOfTransactions(ts []core.Transaction) []transactionView {
	out := make([]transactionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, viewOfTransaction(t))
	}
	return out
}

type categoryPayload struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type categoryView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

func viewOfCategories(cs []core.Category) []categoryView {
	out := make([]categoryView, 0, len(cs))
	for _, c := range cs {
		out = append(out, categoryView{
			ID:    c.ID,
			Name:  c.Name,
			Type:  string(c.Type),
			Icon:  c.Icon,
			Color: c.Color,
		})
	}
	return out
}

type budgetPayload struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Period   string `json:"period"`
}

type budgetView struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Period   string `json:"period"`
}

func viewOfBudgets(bs []core.Budget) []budgetView {
	out := make([]budgetView, 0, len(bs))
	for _, b := range bs {
		out = append(out, budgetView{
			ID:       b.ID,
			Category: b.Category,
			Amount:   core.FormatAmount(b.Amount),
			Period:   b.Period,
		})
	}
	return out
}

type budgetProgressView struct {
	Category   string  `json:"category"`
	Limit      string  `json:"limit"`
	Period     string  `json:"period"`
	Spent      string  `json:"spent"`
	Remaining  string  `json:"remaining"`
	Percentage float64 `json:"percentage"`
}

func viewOfProgress(ps []core.BudgetProgress) []budgetProgressView {
	out := make([]budgetProgressView, 0, len(ps))
	for _, p := range ps {
		out = append(out, budgetProgressView{
			Category:   p.Category,
			Limit:      core.FormatAmount(p.Limit),
			Period:     p.Period,
			Spent:      core.FormatAmount(p.Spent),
			Remaining:  core.FormatAmount(p.Remaining),
			Percentage: p.Percentage,
		})
	}
	return out
}

type exceedanceView struct {
	Exceeded  bool   `json:"exceeded"`
	Category  string `json:"category"`
	Limit     string `json:"limit"`
	Spent     string `json:"spent"`
	Projected string `json:"projected"`
}

type recurringPayload struct {
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Frequency   string    `json:"frequency"`
	NextDate    time.Time `json:"next_date"`
	Active      *bool     `json:"active"`
}

func (p recurringPayload) toDomain() (core.RecurringTransaction, error) {
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("amount: %w", err)
	}
	active := true
	if p.Active != nil {
		active = *p.Active
	}
	return core.RecurringTransaction{
		Amount:      amount,
		Category:    p.Category,
		Description: p.Description,
		Type:        core.TransactionType(p.Type),
		Frequency:   core.Frequency(p.Frequency),
		NextDate:    p.NextDate,
		Active:      active,
	}, nil
}

type recurringView struct {
	ID          int64     `json:"id"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Frequency   string    `json:"frequency"`
	NextDate    time.Time `json:"next_date"`
	Active      bool      `json:"active"`
}

func viewOfRecurring(rts []core.RecurringTransaction) []recurringView {
	out := make([]recurringView, 0, len(rts))
	for _, rt := range rts {
		out = append(out, recurringView{
			ID:          rt.ID,
			Amount:      core.FormatAmount(rt.Amount),
			Category:    rt.Category,
			Description: rt.Description,
			Type:        string(rt.Type),
			Frequency:   string(rt.Frequency),
			NextDate:    rt.NextDate,
			Active:      rt.Active,
		})
	}
	return out
}

type summaryView struct {
	Year       int                  `json:"year"`
	Month      int                  `json:"month"`
	Income     string               `json:"income"`
	Expense    string               `json:"expense"`
	Balance    string               `json:"balance"`
	ByCategory []categoryAmountView `json:"by_category"`
}

type categoryAmountView struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

func viewOfSummary(s core.MonthSummary) summaryView {
	out := summaryView{
		Year:       s.Year,
		Month:      s.Month,
		Income:     core.FormatAmount(s.Income),
		Expense:    core.FormatAmount(s.Expense),
		Balance:    core.FormatAmount(s.Balance),
		ByCategory: make([]categoryAmountView, 0, len(s.ByCategory)),
	}
	for _, c := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountView{
			Name:   c.Name,
			Amount: core.FormatAmount(c.Amount),
		})
	}
	return out
}
