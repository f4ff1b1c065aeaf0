package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// CreateRecurring registers a new schedule and returns its ID.
func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_transactions (amount, category, description, type, frequency, next_date, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.Amount, rt.Category, rt.Description, string(rt.Type), string(rt.Frequency),
		rt.NextDate.UnixMilli(), boolToInt(rt.Active))
	if err != nil {
		return 0, fmt.Errorf("insert recurring transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring insert id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring transaction created",
		"id", id,
		"category", rt.Category,
		"frequency", rt.Frequency,
		"next_date", rt.NextDate.Format(time.RFC3339))

	return id, nil
}

// UpdateRecurring replaces every mutable field of a schedule.
func (r *SQLiteRepository) UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions
		 SET amount = ?, category = ?, description = ?, type = ?, frequency = ?, next_date = ?, active = ?
		 WHERE id = ?`,
		rt.Amount, rt.Category, rt.Description, string(rt.Type), string(rt.Frequency),
		rt.NextDate.UnixMilli(), boolToInt(rt.Active), rt.ID)
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update recurring transaction: id %d not found", rt.ID)
	}
	return nil
}

// DeleteRecurring removes a schedule. Transactions it already materialized
// stay in the ledger.
func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM recurring_transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete recurring transaction: %w", err)
	}
	return nil
}

// ListRecurring returns every schedule, soonest due first.
func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx,
		`SELECT id, amount, category, description, type, frequency, next_date, active
		 FROM recurring_transactions ORDER BY next_date ASC`)
}

// ListDueRecurring returns active schedules with next_date at or before asOf.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, asOf time.Time) ([]core.RecurringTransaction, error) {
	return r.queryRecurring(ctx,
		`SELECT id, amount, category, description, type, frequency, next_date, active
		 FROM recurring_transactions WHERE active = 1 AND next_date <= ? ORDER BY next_date ASC`,
		asOf.UnixMilli())
}

// SetRecurringActive pauses or resumes a schedule without touching its clock.
func (r *SQLiteRepository) SetRecurringActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_transactions SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set recurring active: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("set recurring active: id %d not found", id)
	}
	return nil
}

// MaterializeOccurrence writes one occurrence of a schedule into the ledger
// and advances next_date, atomically. Either both rows change or neither.
func (r *SQLiteRepository) MaterializeOccurrence(ctx context.Context, rt core.RecurringTransaction, occurredAt, next time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin materialize: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (amount, category, description, date, type) VALUES (?, ?, ?, ?, ?)`,
		rt.Amount, rt.Category, rt.Description, occurredAt.UnixMilli(), string(rt.Type))
	if err != nil {
		return 0, fmt.Errorf("insert occurrence: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("occurrence insert id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE recurring_transactions SET next_date = ? WHERE id = ?`,
		next.UnixMilli(), rt.ID); err != nil {
		return 0, fmt.Errorf("advance next date: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit materialize: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) queryRecurring(ctx context.Context, query string, args ...any) ([]core.RecurringTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring transactions: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTransaction
	for rows.Next() {
		var (
			rt        core.RecurringTransaction
			amount    decimal.Decimal
			typ, freq string
			nextMs    int64
			active    int
		)
		if err := rows.Scan(&rt.ID, &amount, &rt.Category, &rt.Description, &typ, &freq, &nextMs, &active); err != nil {
			return nil, fmt.Errorf("scan recurring transaction: %w", err)
		}
		rt.Amount = amount
		rt.Type = core.TransactionType(typ)
		rt.Frequency = core.Frequency(freq)
		rt.NextDate = time.UnixMilli(nextMs).UTC()
		rt.Active = active != 0
		out = append(out, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring transactions: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
