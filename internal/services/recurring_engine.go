package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"budgetwise/internal/core"
)

// RecurringStore is the storage surface the catch-up engine needs.
type RecurringStore interface {
	ListDueRecurring(ctx context.Context, asOf time.Time) ([]core.RecurringTransaction, error)
	MaterializeOccurrence(ctx context.Context, rt core.RecurringTransaction, occurredAt, next time.Time) (int64, error)
}

// RecurringEngine turns due schedules into ledger entries. A schedule is due
// when it is active and its next_date is at or before the processing instant.
type RecurringEngine struct {
	store     RecurringStore
	publisher EventPublisher

	// catchUpAll drains every missed period per schedule in one call.
	// When false, each call materializes at most one occurrence per
	// schedule; remaining arrears surface on subsequent calls.
	catchUpAll bool

	inFlight atomic.Bool
}

// NewRecurringEngine creates a catch-up engine. publisher may be nil.
func NewRecurringEngine(store RecurringStore, publisher EventPublisher, catchUpAll bool) *RecurringEngine {
	return &RecurringEngine{
		store:      store,
		publisher:  publisher,
		catchUpAll: catchUpAll,
	}
}

// ProcessDueSchedules materializes occurrences for every due schedule and
// returns how many transactions were created.
//
// Each materialized transaction is dated asOf, the processing instant, not
// the overdue next_date. The schedule clock still advances from the stored
// next_date, so arrears are consumed one period at a time and the anchor day
// never drifts.
//
// A storage failure aborts the pass: schedules already processed keep their
// advance, the failing one and every one after it stay due for the next
// run. Overlapping calls are collapsed: if a pass is already running, the
// call returns (0, nil) immediately.
func (e *RecurringEngine) ProcessDueSchedules(ctx context.Context, asOf time.Time) (int, error) {
	if e.store == nil {
		return 0, fmt.Errorf("engine not properly initialized")
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		slog.InfoContext(ctx, "Catch-up already in progress, skipping")
		return 0, nil
	}
	defer e.inFlight.Store(false)

	due, err := e.store.ListDueRecurring(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("list due schedules: %w", err)
	}

	slog.InfoContext(ctx, "Processing due schedules",
		"due", len(due),
		"as_of", asOf.Format(time.RFC3339),
		"catch_up_all", e.catchUpAll)

	processed := 0
	for _, rt := range due {
		n, err := e.processSchedule(ctx, rt, asOf)
		processed += n
		if err != nil {
			if errors.Is(err, ErrUnknownFrequency) {
				// A corrupt frequency would block catch-up forever if it
				// aborted the pass; skip the schedule instead.
				slog.ErrorContext(ctx, "Skipping unprocessable schedule",
					"id", rt.ID,
					"frequency", string(rt.Frequency),
					"error", err)
				continue
			}
			slog.ErrorContext(ctx, "Catch-up pass aborted",
				"id", rt.ID,
				"category", rt.Category,
				"error", err)
			// The failing schedule and every one after it keep their
			// next_date and stay due; the next pass retries from here.
			return processed, fmt.Errorf("schedule %d: %w", rt.ID, err)
		}
	}

	slog.InfoContext(ctx, "Catch-up complete", "processed", processed)
	return processed, nil
}

// processSchedule materializes one occurrence of rt, or all missed ones in
// catch-up-all mode. The insert and the next_date advance commit together;
// a failed schedule is left exactly as it was.
func (e *RecurringEngine) processSchedule(ctx context.Context, rt core.RecurringTransaction, asOf time.Time) (int, error) {
	advancer, err := GetAdvancer(rt.Frequency)
	if err != nil {
		return 0, err
	}

	created := 0
	for !rt.NextDate.After(asOf) {
		next := advancer.Advance(rt.NextDate)
		id, err := e.store.MaterializeOccurrence(ctx, rt, asOf, next)
		if err != nil {
			return created, err
		}
		created++

		slog.InfoContext(ctx, "Materialized occurrence",
			"schedule_id", rt.ID,
			"transaction_id", id,
			"category", rt.Category,
			"amount", rt.Amount.String(),
			"next_date", next.Format(time.RFC3339))

		e.publishCreated(ctx, core.Transaction{
			ID:          id,
			Amount:      rt.Amount,
			Category:    rt.Category,
			Description: rt.Description,
			Date:        asOf,
			Type:        rt.Type,
		})

		rt.NextDate = next
		if !e.catchUpAll {
			break
		}
	}

	return created, nil
}

func (e *RecurringEngine) publishCreated(ctx context.Context, t core.Transaction) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishTransactionCreated(ctx, t); err != nil {
		slog.WarnContext(ctx, "Failed to publish transaction event",
			"transaction_id", t.ID,
			"error", err)
	}
}
