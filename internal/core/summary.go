package core

import "github.com/shopspring/decimal"

// CategoryAmount is an amount aggregated under a category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// MonthSummary is the compact income/expense overview for one calendar
// month, with the expense side broken down by category.
type MonthSummary struct {
	Year       int
	Month      int // 1-12
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Balance    decimal.Decimal
	ByCategory []CategoryAmount
}
