// Package storage owns the embedded SQLite database: schema migrations and
// typed queries over the four tables (transactions, categories, budgets,
// recurring_transactions). There is no referential integrity between them;
// category names are plain strings and orphaned references are valid data.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTransaction appends a ledger entry and returns its store-assigned ID.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (amount, category, description, date, type) VALUES (?, ?, ?, ?, ?)`,
		t.Amount, t.Category, t.Description, t.Date.UnixMilli(), string(t.Type))
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"category", t.Category,
		"amount", t.Amount.String(),
		"type", t.Type)

	return id, nil
}

// UpdateTransaction replaces every mutable field of an existing entry.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET amount = ?, category = ?, description = ?, date = ?, type = ? WHERE id = ?`,
		t.Amount, t.Category, t.Description, t.Date.UnixMilli(), string(t.Type), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update transaction: id %d not found", t.ID)
	}
	return nil
}

// DeleteTransaction removes an entry permanently. There is no soft delete.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a single ledger entry by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (*core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount, category, description, date, type FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

// ListTransactions returns the full ledger, newest first.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, amount, category, description, date, type FROM transactions ORDER BY date DESC`)
}

// ListRecentTransactions returns the newest entries up to limit.
func (r *SQLiteRepository) ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, amount, category, description, date, type FROM transactions ORDER BY date DESC LIMIT ?`, limit)
}

// ListTransactionsByRange returns entries with start <= date <= end, newest first.
func (r *SQLiteRepository) ListTransactionsByRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, amount, category, description, date, type FROM transactions WHERE date >= ? AND date <= ? ORDER BY date DESC`,
		start.UnixMilli(), end.UnixMilli())
}

// ListExpensesByRange returns expense rows inside the window in insertion
// order. Callers aggregate; sums stay in decimal arithmetic on the Go side.
func (r *SQLiteRepository) ListExpensesByRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, amount, category, description, date, type FROM transactions WHERE type = 'expense' AND date >= ? AND date <= ?`,
		start.UnixMilli(), end.UnixMilli())
}

func (r *SQLiteRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t      core.Transaction
		amount decimal.Decimal
		dateMs int64
		typ    string
		desc   sql.NullString
	)
	if err := row.Scan(&t.ID, &amount, &t.Category, &desc, &dateMs, &typ); err != nil {
		return nil, err
	}
	t.Amount = amount
	t.Description = desc.String
	t.Date = time.UnixMilli(dateMs).UTC()
	t.Type = core.TransactionType(typ)
	return &t, nil
}
