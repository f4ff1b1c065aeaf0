// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for advancing recurring schedule
// dates. Each frequency type (daily, weekly, monthly, yearly) has its own
// advancer that encapsulates the calendar step for that frequency.

package services

import (
	"errors"
	"fmt"
	"time"

	"budgetwise/internal/core"
)

// ErrUnknownFrequency marks a schedule whose frequency has no registered
// advancer. It is a data error, not a storage error.
var ErrUnknownFrequency = errors.New("unknown frequency")

// Advancer is the strategy interface for moving a schedule's next_date
// forward by exactly one frequency unit.
//
// Calendar arithmetic follows time.AddDate, which normalizes overflowing
// dates rather than clamping them: Jan 31 + 1 month lands on Mar 3 (Mar 2
// when February has 29 days), and Feb 29 + 1 year lands on Mar 1. The
// overflow policy is pinned by tests; changing it silently would shift every
// long-lived monthly schedule anchored past the 28th.
type Advancer interface {
	// Advance returns the occurrence that follows from.
	Advance(from time.Time) time.Time
}

// DailyAdvancer implements Advancer for daily schedules.
type DailyAdvancer struct{}

func (DailyAdvancer) Advance(from time.Time) time.Time {
	return from.AddDate(0, 0, 1)
}

// WeeklyAdvancer implements Advancer for weekly schedules.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Advance(from time.Time) time.Time {
	return from.AddDate(0, 0, 7)
}

// MonthlyAdvancer implements Advancer for monthly schedules.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(from time.Time) time.Time {
	return from.AddDate(0, 1, 0)
}

// YearlyAdvancer implements Advancer for yearly schedules.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Advance(from time.Time) time.Time {
	return from.AddDate(1, 0, 0)
}

// advanceStrategies maps frequencies to their corresponding advancers.
var advanceStrategies = map[core.Frequency]Advancer{
	core.Daily:   DailyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
	core.Monthly: MonthlyAdvancer{},
	core.Yearly:  YearlyAdvancer{},
}

// GetAdvancer returns the advancer for a frequency. Unknown frequencies are
// an error rather than a no-op: an advancer that never moves the date would
// make a due schedule due forever.
func GetAdvancer(frequency core.Frequency) (Advancer, error) {
	a, ok := advanceStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFrequency, frequency)
	}
	return a, nil
}

// RegisterAdvancer registers a custom advancer for a new frequency type.
func RegisterAdvancer(frequency core.Frequency, a Advancer) {
	advanceStrategies[frequency] = a
}
