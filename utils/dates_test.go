package utils

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDayOf(t *testing.T) {
	in := time.Date(2025, time.March, 14, 23, 59, 58, 0, time.UTC)
	got := DayOf(in)
	want := date(2025, time.March, 14)
	if !got.Equal(want) {
		t.Errorf("DayOf(%v) = %v, want %v", in, got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b time.Time
		want int
	}{
		{date(2025, time.March, 10), date(2025, time.March, 10), 0},
		{date(2025, time.March, 10), date(2025, time.March, 11), 1},
		{date(2025, time.March, 11), date(2025, time.March, 10), -1},
		{date(2025, time.February, 27), date(2025, time.March, 2), 3},
		// Clock time must not matter.
		{time.Date(2025, time.March, 10, 23, 0, 0, 0, time.UTC), time.Date(2025, time.March, 11, 1, 0, 0, 0, time.UTC), 1},
	}
	for _, c := range cases {
		if got := DaysBetween(c.a, c.b); got != c.want {
			t.Errorf("DaysBetween(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestWeekStart(t *testing.T) {
	// 2025-03-12 is a Wednesday; the week starts Monday 2025-03-10.
	if got := WeekStart(date(2025, time.March, 12)); !got.Equal(date(2025, time.March, 10)) {
		t.Errorf("WeekStart(Wed) = %v, want Monday", got)
	}
	// Sunday belongs to the week that started six days earlier.
	if got := WeekStart(date(2025, time.March, 16)); !got.Equal(date(2025, time.March, 10)) {
		t.Errorf("WeekStart(Sun) = %v, want Monday", got)
	}
	// Monday is its own week start.
	if got := WeekStart(date(2025, time.March, 10)); !got.Equal(date(2025, time.March, 10)) {
		t.Errorf("WeekStart(Mon) = %v, want same day", got)
	}
}

func TestMonthStart(t *testing.T) {
	if got := MonthStart(date(2025, time.March, 31)); !got.Equal(date(2025, time.March, 1)) {
		t.Errorf("MonthStart = %v, want 2025-03-01", got)
	}
}
