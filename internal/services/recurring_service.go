package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgetwise/internal/core"
)

// ScheduleStore is the storage surface schedule CRUD needs.
type ScheduleStore interface {
	CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (int64, error)
	UpdateRecurring(ctx context.Context, rt core.RecurringTransaction) error
	DeleteRecurring(ctx context.Context, id int64) error
	ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error)
	SetRecurringActive(ctx context.Context, id int64, active bool) error
}

type RecurringService struct {
	store ScheduleStore
}

func NewRecurringService(store ScheduleStore) *RecurringService {
	return &RecurringService{store: store}
}

// Create registers a schedule. NextDate may be in the past; the next
// catch-up pass will immediately materialize the overdue occurrences.
func (s *RecurringService) Create(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	rt.Category = strings.TrimSpace(rt.Category)
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("validate schedule: %w", err)
	}

	id, err := s.store.CreateRecurring(ctx, rt)
	if err != nil {
		return core.RecurringTransaction{}, err
	}
	rt.ID = id
	return rt, nil
}

// Update replaces a schedule definition after validation.
func (s *RecurringService) Update(ctx context.Context, rt core.RecurringTransaction) error {
	rt.Category = strings.TrimSpace(rt.Category)
	if err := rt.Validate(); err != nil {
		return fmt.Errorf("validate schedule: %w", err)
	}
	return s.store.UpdateRecurring(ctx, rt)
}

// Delete removes a schedule. Already materialized transactions stay.
func (s *RecurringService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteRecurring(ctx, id)
}

// List returns every schedule, soonest due first.
func (s *RecurringService) List(ctx context.Context) ([]core.RecurringTransaction, error) {
	return s.store.ListRecurring(ctx)
}

// SetActive pauses or resumes a schedule. Pausing does not move next_date,
// so a resumed schedule with an old next_date catches up on its arrears.
func (s *RecurringService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.store.SetRecurringActive(ctx, id, active)
}

// Preview returns the first n occurrence dates a schedule would produce
// from its current next_date, without touching storage.
func (s *RecurringService) Preview(rt core.RecurringTransaction, n int) ([]time.Time, error) {
	advancer, err := GetAdvancer(rt.Frequency)
	if err != nil {
		return nil, err
	}

	out := make([]time.Time, 0, n)
	d := rt.NextDate
	for i := 0; i < n; i++ {
		out = append(out, d)
		d = advancer.Advance(d)
	}
	return out, nil
}
