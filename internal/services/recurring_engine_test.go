package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"budgetwise/internal/core"

	"github.com/shopspring/decimal"
)

type materialized struct {
	scheduleID int64
	occurredAt time.Time
	next       time.Time
}

// fakeRecurringStore keeps schedules in memory and records every
// materialization, mimicking the atomic insert-and-advance.
type fakeRecurringStore struct {
	mu        sync.Mutex
	schedules map[int64]core.RecurringTransaction
	calls     []materialized
	nextTxID  int64

	listErr error
	failIDs map[int64]error
}

func newFakeRecurringStore(schedules ...core.RecurringTransaction) *fakeRecurringStore {
	s := &fakeRecurringStore{
		schedules: make(map[int64]core.RecurringTransaction),
		failIDs:   make(map[int64]error),
	}
	for _, rt := range schedules {
		s.schedules[rt.ID] = rt
	}
	return s
}

func (s *fakeRecurringStore) ListDueRecurring(_ context.Context, asOf time.Time) ([]core.RecurringTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var due []core.RecurringTransaction
	for _, rt := range s.schedules {
		if rt.Active && !rt.NextDate.After(asOf) {
			due = append(due, rt)
		}
	}
	// Deterministic order, like the real query's ORDER BY.
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, nil
}

func (s *fakeRecurringStore) MaterializeOccurrence(_ context.Context, rt core.RecurringTransaction, occurredAt, next time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failIDs[rt.ID]; err != nil {
		return 0, err
	}
	s.calls = append(s.calls, materialized{scheduleID: rt.ID, occurredAt: occurredAt, next: next})
	stored := s.schedules[rt.ID]
	stored.NextDate = next
	s.schedules[rt.ID] = stored
	s.nextTxID++
	return s.nextTxID, nil
}

func monthlySchedule(id int64, next time.Time) core.RecurringTransaction {
	return core.RecurringTransaction{
		ID:        id,
		Amount:    decimal.NewFromInt(100),
		Category:  "Rent",
		Type:      core.Expense,
		Frequency: core.Monthly,
		NextDate:  next,
		Active:    true,
	}
}

func TestProcessDueSchedules_OnePerCall(t *testing.T) {
	asOf := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	// Three months in arrears.
	store := newFakeRecurringStore(monthlySchedule(1, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)))
	engine := NewRecurringEngine(store, nil, false)

	n, err := engine.ProcessDueSchedules(context.Background(), asOf)
	if err != nil {
		t.Fatalf("ProcessDueSchedules: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d, want 1 occurrence per call", n)
	}

	call := store.calls[0]
	if !call.occurredAt.Equal(asOf) {
		t.Errorf("occurrence dated %v, want processing instant %v", call.occurredAt, asOf)
	}
	// The clock advances from the stored next_date, not from asOf.
	wantNext := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	if !call.next.Equal(wantNext) {
		t.Errorf("next_date = %v, want %v", call.next, wantNext)
	}

	// Two more calls drain the remaining arrears one period each.
	for i := 0; i < 2; i++ {
		if _, err := engine.ProcessDueSchedules(context.Background(), asOf); err != nil {
			t.Fatalf("ProcessDueSchedules (pass %d): %v", i+2, err)
		}
	}
	if got := store.schedules[1].NextDate; !got.Equal(time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next_date after three passes = %v", got)
	}

	// Fully caught up: August 10 is still <= asOf, one more pass moves it
	// past asOf and the schedule stops being due.
	if _, err := engine.ProcessDueSchedules(context.Background(), asOf); err != nil {
		t.Fatalf("ProcessDueSchedules (final): %v", err)
	}
	n, err = engine.ProcessDueSchedules(context.Background(), asOf)
	if err != nil {
		t.Fatalf("ProcessDueSchedules (idle): %v", err)
	}
	if n != 0 {
		t.Errorf("processed = %d after catch-up, want 0", n)
	}
}

func TestProcessDueSchedules_CatchUpAll(t *testing.T) {
	asOf := time.Date(2026, 8, 15, 9, 0, 0, 0, time.UTC)
	store := newFakeRecurringStore(monthlySchedule(1, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)))
	engine := NewRecurringEngine(store, nil, true)

	n, err := engine.ProcessDueSchedules(context.Background(), asOf)
	if err != nil {
		t.Fatalf("ProcessDueSchedules: %v", err)
	}
	// May 10, Jun 10, Jul 10 and Aug 10 are all at or before asOf.
	if n != 4 {
		t.Fatalf("processed = %d, want 4 in catch-up-all mode", n)
	}
	for _, call := range store.calls {
		if !call.occurredAt.Equal(asOf) {
			t.Errorf("occurrence dated %v, want %v", call.occurredAt, asOf)
		}
	}
	if got := store.schedules[1].NextDate; !got.Equal(time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("final next_date = %v, want Sep 10", got)
	}
}

func TestProcessDueSchedules_StorageFailureAbortsPass(t *testing.T) {
	asOf := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	store := newFakeRecurringStore(
		monthlySchedule(1, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
		monthlySchedule(2, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
		monthlySchedule(3, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	)
	storeErr := errors.New("disk full")
	store.failIDs[2] = storeErr

	engine := NewRecurringEngine(store, nil, false)
	n, err := engine.ProcessDueSchedules(context.Background(), asOf)
	if n != 1 {
		t.Errorf("processed = %d, want 1 before the failure", n)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("error %v does not wrap the schedule failure", err)
	}

	// The schedule processed before the failure keeps its advance.
	if got := store.schedules[1].NextDate; !got.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("processed schedule next_date = %v, want advanced", got)
	}
	// The failing schedule and the one after it stay due for the next pass.
	for _, id := range []int64{2, 3} {
		if got := store.schedules[id].NextDate; !got.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("schedule %d next_date moved to %v", id, got)
		}
	}
}

func TestProcessDueSchedules_SkipsUnknownFrequency(t *testing.T) {
	asOf := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	corrupt := monthlySchedule(1, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	corrupt.Frequency = core.Frequency("fortnightly")
	store := newFakeRecurringStore(
		corrupt,
		monthlySchedule(2, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
	)

	engine := NewRecurringEngine(store, nil, true)
	n, err := engine.ProcessDueSchedules(context.Background(), asOf)
	if err != nil {
		t.Fatalf("ProcessDueSchedules: %v", err)
	}
	// The corrupt schedule is skipped, not allowed to block the pass.
	if n != 1 {
		t.Errorf("processed = %d, want 1", n)
	}
	if len(store.calls) != 1 || store.calls[0].scheduleID != 2 {
		t.Errorf("materialized calls = %+v, want only schedule 2", store.calls)
	}
	if got := store.schedules[1].NextDate; !got.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("corrupt schedule next_date moved to %v", got)
	}
}

// blockingStore parks the first materialization until released so a second
// pass can be attempted while one is running.
type blockingStore struct {
	*fakeRecurringStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *blockingStore) MaterializeOccurrence(ctx context.Context, rt core.RecurringTransaction, occurredAt, next time.Time) (int64, error) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.fakeRecurringStore.MaterializeOccurrence(ctx, rt, occurredAt, next)
}

func TestProcessDueSchedules_SkipsWhenInFlight(t *testing.T) {
	asOf := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	store := &blockingStore{
		fakeRecurringStore: newFakeRecurringStore(monthlySchedule(1, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))),
		entered:            make(chan struct{}),
		release:            make(chan struct{}),
	}
	engine := NewRecurringEngine(store, nil, false)

	type result struct {
		n   int
		err error
	}
	first := make(chan result, 1)
	go func() {
		n, err := engine.ProcessDueSchedules(context.Background(), asOf)
		first <- result{n, err}
	}()

	<-store.entered

	n, err := engine.ProcessDueSchedules(context.Background(), asOf)
	if err != nil {
		t.Fatalf("overlapping call returned error: %v", err)
	}
	if n != 0 {
		t.Errorf("overlapping call processed %d, want 0", n)
	}

	close(store.release)
	r := <-first
	if r.err != nil {
		t.Fatalf("first pass failed: %v", r.err)
	}
	if r.n != 1 {
		t.Errorf("first pass processed %d, want 1", r.n)
	}
}
