package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

// TransactionStore is the storage surface ledger operations need.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransaction(ctx context.Context, id int64) (*core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	ListRecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
}

// EventPublisher pushes domain events onto the notification stream.
// Publishing is fire and forget from the caller's point of view; a broker
// outage never fails a write.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, t core.Transaction) error
	PublishBudgetAlert(ctx context.Context, r core.ExceedanceResult) error
}

type TransactionService struct {
	store     TransactionStore
	budgets   *BudgetService
	publisher EventPublisher
}

// NewTransactionService creates the ledger service. budgets and publisher
// may be nil; without them writes succeed with no advisory checks or events.
func NewTransactionService(store TransactionStore, budgets *BudgetService, publisher EventPublisher) *TransactionService {
	return &TransactionService{store: store, budgets: budgets, publisher: publisher}
}

// Create validates and appends a ledger entry. For expenses it also runs the
// advisory budget check and emits a budget alert event on exceedance; the
// entry is written either way.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Category = strings.TrimSpace(t.Category)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("validate transaction: %w", err)
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, err
	}
	t.ID = id

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(ctx, t); err != nil {
			slog.WarnContext(ctx, "Failed to publish transaction event",
				"transaction_id", t.ID,
				"error", err)
		}
	}

	if t.Type == core.Expense && s.budgets != nil {
		s.warnIfExceeded(ctx, t)
	}

	return t, nil
}

// warnIfExceeded checks the entry that was just committed against its
// category budget. Spent already includes the new entry, so the candidate
// amount for the projection is zero.
func (s *TransactionService) warnIfExceeded(ctx context.Context, t core.Transaction) {
	result, err := s.budgets.CheckExceeded(ctx, t.Category, decimal.Zero, t.Date)
	if err != nil {
		slog.WarnContext(ctx, "Budget check failed after write",
			"transaction_id", t.ID,
			"error", err)
		return
	}
	if !result.Exceeded {
		return
	}

	slog.InfoContext(ctx, "Budget exceeded",
		"category", result.Category,
		"limit", result.Limit.String(),
		"spent", result.Spent.String())

	if s.publisher != nil {
		if err := s.publisher.PublishBudgetAlert(ctx, result); err != nil {
			slog.WarnContext(ctx, "Failed to publish budget alert",
				"category", result.Category,
				"error", err)
		}
	}
}

// Update replaces an existing entry after validation.
func (s *TransactionService) Update(ctx context.Context, t core.Transaction) error {
	t.Category = strings.TrimSpace(t.Category)
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate transaction: %w", err)
	}
	return s.store.UpdateTransaction(ctx, t)
}

// Delete removes an entry by ID.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteTransaction(ctx, id)
}

// Get returns one entry by ID.
func (s *TransactionService) Get(ctx context.Context, id int64) (*core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// List returns the full ledger, newest first.
func (s *TransactionService) List(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// ListRecent returns the newest entries. A non-positive limit falls back
// to 5, the dashboard default.
func (s *TransactionService) ListRecent(ctx context.Context, limit int) ([]core.Transaction, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.store.ListRecentTransactions(ctx, limit)
}
