// Package export renders the ledger into shareable documents: CSV for
// spreadsheets, a plain-text report for reading, and an optional Google
// Sheets sink.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

type Format string

const (
	FormatCSV    Format = "csv"
	FormatReport Format = "report"
)

type DateRange string

const (
	RangeMonth       DateRange = "month"
	RangeThreeMonths DateRange = "3months"
	RangeYear        DateRange = "year"
	RangeAll         DateRange = "all"
	RangeCustom      DateRange = "custom"
)

// Options selects what goes into an export.
type Options struct {
	Format         Format
	DateRange      DateRange
	StartDate      time.Time
	EndDate        time.Time
	IncludeBudgets bool
	CurrencySymbol string
}

// Store is the storage surface exports need.
type Store interface {
	ListTransactionsByRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
}

// ProgressSource supplies the budget section. The progress view's
// degrade-to-empty behavior carries over: a broken budget table produces an
// export with an empty budget section, not a failed export.
type ProgressSource interface {
	GetBudgetProgress(ctx context.Context, asOf time.Time) []core.BudgetProgress
}

type Exporter struct {
	store    Store
	progress ProgressSource
}

func NewExporter(store Store, progress ProgressSource) *Exporter {
	return &Exporter{store: store, progress: progress}
}

// Export renders the selected window in the selected format.
func (e *Exporter) Export(ctx context.Context, opts Options, now time.Time) (string, error) {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}

	start, end := resolveWindow(opts, now)
	transactions, err := e.store.ListTransactionsByRange(ctx, start, end)
	if err != nil {
		return "", fmt.Errorf("load transactions for export: %w", err)
	}

	var budgets []core.BudgetProgress
	if opts.IncludeBudgets && e.progress != nil {
		budgets = e.progress.GetBudgetProgress(ctx, now)
	}

	switch opts.Format {
	case FormatCSV:
		return renderCSV(transactions, budgets, opts.IncludeBudgets), nil
	case FormatReport:
		return renderReport(transactions, budgets, opts, now), nil
	default:
		return "", fmt.Errorf("unknown export format: %s", opts.Format)
	}
}

// resolveWindow maps a date-range choice onto concrete bounds. Relative
// ranges end at now; "all" starts at the epoch.
func resolveWindow(opts Options, now time.Time) (start, end time.Time) {
	end = now
	switch opts.DateRange {
	case RangeMonth:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case RangeThreeMonths:
		start = time.Date(now.Year(), now.Month()-3, 1, 0, 0, 0, 0, now.Location())
	case RangeYear:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	case RangeCustom:
		start = opts.StartDate
		if !opts.EndDate.IsZero() {
			end = opts.EndDate
		}
	default:
		start = time.UnixMilli(0)
	}
	return start, end
}

func renderCSV(transactions []core.Transaction, budgets []core.BudgetProgress, includeBudgets bool) string {
	var b strings.Builder
	b.WriteString("Date,Type,Category,Amount,Description\n")

	for _, t := range transactions {
		// Commas inside free text would shift columns.
		description := strings.ReplaceAll(t.Description, ",", ";")
		fmt.Fprintf(&b, "%s,%s,%s,%s,%q\n",
			t.Date.Format("2006-01-02"),
			t.Type,
			t.Category,
			t.Amount.StringFixed(2),
			description)
	}

	if includeBudgets {
		b.WriteString("\n\nBudget Summary\n")
		b.WriteString("Category,Limit,Spent,Remaining\n")
		for _, bp := range budgets {
			fmt.Fprintf(&b, "%s,%s,%s,%s\n",
				bp.Category,
				bp.Limit.StringFixed(2),
				bp.Spent.StringFixed(2),
				bp.Remaining.StringFixed(2))
		}
	}

	return b.String()
}

func renderReport(transactions []core.Transaction, budgets []core.BudgetProgress, opts Options, now time.Time) string {
	sym := opts.CurrencySymbol
	rule := strings.Repeat("=", 50)
	thinRule := strings.Repeat("-", 50)

	var income, expense decimal.Decimal
	for _, t := range transactions {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expense = expense.Add(t.Amount)
		}
	}
	balance := income.Sub(expense)

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("        FINANCIAL REPORT\n")
	b.WriteString(rule + "\n\n")

	fmt.Fprintf(&b, "Period: %s\n", rangeLabel(opts))
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04"))

	b.WriteString(thinRule + "\n")
	b.WriteString("SUMMARY\n")
	b.WriteString(thinRule + "\n")
	fmt.Fprintf(&b, "Total Income:   %s%s\n", sym, income.StringFixed(2))
	fmt.Fprintf(&b, "Total Expense:  %s%s\n", sym, expense.StringFixed(2))
	fmt.Fprintf(&b, "Balance:        %s%s\n\n", sym, balance.StringFixed(2))

	b.WriteString(thinRule + "\n")
	b.WriteString("TRANSACTIONS\n")
	b.WriteString(thinRule + "\n\n")

	for _, t := range transactions {
		sign := "-"
		if t.Type == core.Income {
			sign = "+"
		}
		fmt.Fprintf(&b, "%s | %s\n", t.Date.Format("2006-01-02"), t.Category)
		fmt.Fprintf(&b, "  %s%s%s", sign, sym, t.Amount.StringFixed(2))
		if t.Description != "" {
			fmt.Fprintf(&b, " - %s", t.Description)
		}
		b.WriteString("\n\n")
	}

	if opts.IncludeBudgets {
		b.WriteString(thinRule + "\n")
		b.WriteString("BUDGET SUMMARY\n")
		b.WriteString(thinRule + "\n\n")

		for _, bp := range budgets {
			fmt.Fprintf(&b, "%s\n", bp.Category)
			fmt.Fprintf(&b, "  Budget: %s%s\n", sym, bp.Limit.StringFixed(2))
			fmt.Fprintf(&b, "  Spent:  %s%s (%.0f%%)\n", sym, bp.Spent.StringFixed(2), bp.Percentage)
			fmt.Fprintf(&b, "  Left:   %s%s\n\n", sym, bp.Remaining.StringFixed(2))
		}
	}

	b.WriteString(rule + "\n")
	b.WriteString("End of Report\n")
	b.WriteString(rule + "\n")

	return b.String()
}

func rangeLabel(opts Options) string {
	switch opts.DateRange {
	case RangeMonth:
		return "This Month"
	case RangeThreeMonths:
		return "Last 3 Months"
	case RangeYear:
		return "This Year"
	case RangeCustom:
		if !opts.StartDate.IsZero() && !opts.EndDate.IsZero() {
			return fmt.Sprintf("%s - %s",
				opts.StartDate.Format("2006-01-02"),
				opts.EndDate.Format("2006-01-02"))
		}
		return "Custom Range"
	default:
		return "All Time"
	}
}
