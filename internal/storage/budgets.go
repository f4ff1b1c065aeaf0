package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// UpsertBudget creates a budget for the category or replaces the limit of an
// existing one. Categories carry at most one budget.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (category, amount, period) VALUES (?, ?, ?)
		 ON CONFLICT(category) DO UPDATE SET amount = excluded.amount, period = excluded.period`,
		b.Category, b.Amount, string(b.Period))
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"category", b.Category,
		"limit", b.Amount.String(),
		"period", b.Period)

	return nil
}

// ListBudgets returns every configured budget.
func (r *SQLiteRepository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, category, amount, period FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

// GetBudgetByCategory looks a budget up by normalized category name. A
// missing budget is not an error; it returns (nil, nil).
func (r *SQLiteRepository) GetBudgetByCategory(ctx context.Context, category string) (*core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, category, amount, period FROM budgets WHERE lower(trim(category)) = ?`,
		core.NormalizeCategory(category))
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget for %q: %w", category, err)
	}
	return b, nil
}

// DeleteBudget removes a budget by ID.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func scanBudget(row rowScanner) (*core.Budget, error) {
	var (
		b      core.Budget
		amount decimal.Decimal
	)
	if err := row.Scan(&b.ID, &b.Category, &amount, &b.Period); err != nil {
		return nil, err
	}
	b.Amount = amount
	return &b, nil
}
