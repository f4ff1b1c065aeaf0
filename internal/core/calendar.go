package core

import "time"

// MonthWindow returns the inclusive budget window for the calendar month
// containing asOf: from the first instant of the month up to the last
// millisecond before the next month begins. Ledger dates carry millisecond
// precision, so a transaction stamped on the final millisecond of a month
// falls inside that month's window and outside the next one.
func MonthWindow(asOf time.Time) (start, end time.Time) {
	start = time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	end = start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}
