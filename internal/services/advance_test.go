package services

import (
	"errors"
	"testing"
	"time"

	"budgetwise/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		freq core.Frequency
		want time.Time
	}{
		{
			name: "daily adds one day",
			from: date(2024, 1, 15),
			freq: core.Daily,
			want: date(2024, 1, 16),
		},
		{
			name: "daily across month end",
			from: date(2024, 1, 31),
			freq: core.Daily,
			want: date(2024, 2, 1),
		},
		{
			name: "weekly adds seven days",
			from: date(2024, 1, 15),
			freq: core.Weekly,
			want: date(2024, 1, 22),
		},
		{
			name: "weekly across year end",
			from: date(2023, 12, 28),
			freq: core.Weekly,
			want: date(2024, 1, 4),
		},
		{
			name: "monthly keeps day of month",
			from: date(2024, 3, 15),
			freq: core.Monthly,
			want: date(2024, 4, 15),
		},
		{
			name: "monthly Jan 31 overflows to Mar 2 in a leap year",
			from: date(2024, 1, 31),
			freq: core.Monthly,
			want: date(2024, 3, 2),
		},
		{
			name: "monthly Jan 31 overflows to Mar 3 in a common year",
			from: date(2023, 1, 31),
			freq: core.Monthly,
			want: date(2023, 3, 3),
		},
		{
			name: "monthly Mar 31 overflows past April",
			from: date(2024, 3, 31),
			freq: core.Monthly,
			want: date(2024, 5, 1),
		},
		{
			name: "yearly keeps month and day",
			from: date(2024, 6, 15),
			freq: core.Yearly,
			want: date(2025, 6, 15),
		},
		{
			name: "yearly Feb 29 overflows to Mar 1 in a common year",
			from: date(2024, 2, 29),
			freq: core.Yearly,
			want: date(2025, 3, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := GetAdvancer(tt.freq)
			if err != nil {
				t.Fatalf("GetAdvancer(%s): %v", tt.freq, err)
			}
			got := a.Advance(tt.from)
			if !got.Equal(tt.want) {
				t.Errorf("Advance(%v) = %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestAdvancePreservesTimeOfDay(t *testing.T) {
	a, err := GetAdvancer(core.Monthly)
	if err != nil {
		t.Fatalf("GetAdvancer: %v", err)
	}
	from := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	got := a.Advance(from)
	want := time.Date(2024, 2, 15, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Advance() = %v, want %v", got, want)
	}
}

func TestGetAdvancerUnknownFrequency(t *testing.T) {
	_, err := GetAdvancer(core.Frequency("biweekly"))
	if !errors.Is(err, ErrUnknownFrequency) {
		t.Fatalf("error = %v, want ErrUnknownFrequency", err)
	}
}
