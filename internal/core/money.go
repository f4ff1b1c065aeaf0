// Package core provides the domain model shared by storage, services and
// the API layer: ledger entries, categories, budgets, schedules, and the
// money and calendar helpers they depend on.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied decimal string into an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up to two decimal places. Signs are rejected: amounts are
// magnitudes, direction lives on the transaction type.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil (rounds half-up)
//	ParseAmount("-5")     -> ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with exactly two decimal places, the form
// used in reports and exports.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
