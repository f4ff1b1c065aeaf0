package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// PeriodMonthly is the only budget period currently supported.
const PeriodMonthly = "monthly"

type (
	TransactionType string
	Frequency       string

	// Transaction is a single ledger entry. Amount is a non-negative
	// magnitude; the direction is carried by Type, never by sign.
	Transaction struct {
		ID          int64
		Amount      decimal.Decimal
		Category    string
		Description string
		Date        time.Time
		Type        TransactionType
	}

	// Category is a named, typed label. Name is the natural key referenced by
	// transactions, budgets and schedules; there is no foreign key, so rows
	// referencing a deleted category are orphaned, not invalid.
	Category struct {
		ID    int64
		Name  string
		Type  TransactionType
		Icon  string
		Color string
	}

	// Budget is a monthly spending limit for one category, keyed by the
	// trimmed category name. At most one row per category.
	Budget struct {
		ID       int64
		Category string
		Amount   decimal.Decimal
		Period   string
	}

	// RecurringTransaction is a schedule definition. NextDate always points
	// at the next not-yet-materialized occurrence.
	RecurringTransaction struct {
		ID          int64
		Amount      decimal.Decimal
		Category    string
		Description string
		Type        TransactionType
		Frequency   Frequency
		NextDate    time.Time
		Active      bool
	}

	// BudgetProgress is one budget row joined with the current-month spend
	// for its category. Limit aliases Amount for display-layer compatibility.
	BudgetProgress struct {
		Category   string
		Amount     decimal.Decimal
		Period     string
		Spent      decimal.Decimal
		Remaining  decimal.Decimal
		Percentage float64
		Limit      decimal.Decimal
	}

	// ExceedanceResult reports whether committing a candidate expense would
	// push its category past the monthly budget. Advisory only: the caller
	// decides whether to warn, never whether to block.
	ExceedanceResult struct {
		Exceeded  bool
		Category  string
		Limit     decimal.Decimal
		Spent     decimal.Decimal
		Projected decimal.Decimal
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
)

// NormalizeCategory is the matching key used wherever category names are
// compared across tables: trimmed and lowercased. Storage keeps names as
// entered; only matching is normalized.
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (t TransactionType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (f Frequency) Validate() error {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidFrequency
	}
}

func (t Transaction) Validate() error {
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return t.Type.Validate()
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Type.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if b.Period != "" && b.Period != PeriodMonthly {
		return errors.New("invalid budget period")
	}
	return nil
}

func (rt RecurringTransaction) Validate() error {
	if rt.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(rt.Category) == "" {
		return ErrEmptyCategory
	}
	if len(rt.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if rt.NextDate.IsZero() {
		return ErrInvalidDate
	}
	if err := rt.Type.Validate(); err != nil {
		return err
	}
	return rt.Frequency.Validate()
}
