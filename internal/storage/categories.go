package storage

import (
	"context"
	"database/sql"
	"fmt"

	"budgetwise/internal/core"
)

// ListCategories returns every category, expense before income, alphabetical
// within each type.
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, icon, color FROM categories ORDER BY type, name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c           core.Category
			typ         string
			icon, color sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &typ, &icon, &color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(typ)
		c.Icon = icon.String
		c.Color = color.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// CreateCategory inserts a category. Names are unique; inserting a duplicate
// returns the constraint error.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type, icon, color) VALUES (?, ?, ?, ?)`,
		c.Name, string(c.Type), c.Icon, c.Color)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}
	return id, nil
}

// DeleteCategory removes a category. Transactions referencing its name are
// left untouched and become orphans, which is valid data.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}
