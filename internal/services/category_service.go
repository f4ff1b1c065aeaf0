package services

import (
	"context"
	"fmt"
	"strings"

	"budgetwise/internal/core"
)

// CategoryStore is the storage surface category management needs.
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CategoryService) Create(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, fmt.Errorf("validate category: %w", err)
	}

	id, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	c.ID = id
	return c, nil
}

// Delete removes a category. Ledger rows keep referencing the deleted name;
// they render uncategorized but stay countable.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}
