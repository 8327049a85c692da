package streak

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stateAt(current, longest, tokens int, last time.Time) *State {
	return &State{
		CurrentStreak:   current,
		LongestStreak:   longest,
		FreezeTokens:    tokens,
		LastCountedDate: &last,
	}
}

func TestAdvanceFirstEvent(t *testing.T) {
	s := &State{}
	res := Advance(s, day(2025, time.March, 10))
	if !res.Changed {
		t.Fatal("first event should change the streak")
	}
	if s.CurrentStreak != 1 || s.LongestStreak != 1 {
		t.Errorf("after first event: current=%d longest=%d, want 1/1", s.CurrentStreak, s.LongestStreak)
	}
}

func TestAdvanceSameDayNoOp(t *testing.T) {
	s := stateAt(5, 8, 2, day(2025, time.March, 10))
	res := Advance(s, day(2025, time.March, 10))
	if res.Changed {
		t.Error("same-day event should be a no-op")
	}
	if s.CurrentStreak != 5 || s.FreezeTokens != 2 {
		t.Errorf("same-day event mutated state: %+v", s)
	}
}

func TestAdvanceNextDayIncrements(t *testing.T) {
	s := stateAt(5, 5, 0, day(2025, time.March, 10))
	res := Advance(s, day(2025, time.March, 11))
	if !res.Changed || s.CurrentStreak != 6 {
		t.Errorf("next-day event: current=%d changed=%v, want 6/true", s.CurrentStreak, res.Changed)
	}
	if s.LongestStreak != 6 {
		t.Errorf("longest should follow current: got %d", s.LongestStreak)
	}
}

func TestAdvanceGapCoveredByTokens(t *testing.T) {
	s := stateAt(10, 10, 2, day(2025, time.March, 10))
	// Two skipped days (11th, 12th), event on the 13th.
	res := Advance(s, day(2025, time.March, 13))
	if !res.Changed {
		t.Fatal("covered gap should still count the event")
	}
	if s.CurrentStreak != 11 {
		t.Errorf("current = %d, want 11 (run survives)", s.CurrentStreak)
	}
	if s.FreezeTokens != 0 {
		t.Errorf("tokens = %d, want 0 (both consumed)", s.FreezeTokens)
	}
	if len(res.FrozenDates) != 2 {
		t.Fatalf("frozen dates = %v, want the two skipped days", res.FrozenDates)
	}
	if !res.FrozenDates[0].Equal(day(2025, time.March, 11)) || !res.FrozenDates[1].Equal(day(2025, time.March, 12)) {
		t.Errorf("frozen dates = %v", res.FrozenDates)
	}
}

func TestAdvanceGapTooWideResets(t *testing.T) {
	s := stateAt(10, 10, 1, day(2025, time.March, 10))
	// Two skipped days but only one token: tokens must not be spent.
	res := Advance(s, day(2025, time.March, 13))
	if !res.Changed {
		t.Fatal("reset still counts the event")
	}
	if s.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1 after reset", s.CurrentStreak)
	}
	if s.FreezeTokens != 1 {
		t.Errorf("tokens = %d, want 1 (partial cover spends nothing)", s.FreezeTokens)
	}
	if len(res.FrozenDates) != 0 {
		t.Errorf("no dates should freeze on a reset, got %v", res.FrozenDates)
	}
	if s.LongestStreak != 10 {
		t.Errorf("longest = %d, want 10 preserved", s.LongestStreak)
	}
}

func TestAdvanceOutOfOrderOlderEvent(t *testing.T) {
	s := stateAt(4, 4, 0, day(2025, time.March, 10))
	res := Advance(s, day(2025, time.March, 8))
	if res.Changed {
		t.Error("older event must not move the streak")
	}
	if s.CurrentStreak != 4 {
		t.Errorf("current = %d, want 4", s.CurrentStreak)
	}
}

func TestDaysUntilBreak(t *testing.T) {
	today := day(2025, time.March, 14)
	cases := []struct {
		name string
		s    *State
		want int
	}{
		{"counted today, no tokens", stateAt(3, 3, 0, day(2025, time.March, 14)), 2},
		{"counted yesterday, no tokens", stateAt(3, 3, 0, day(2025, time.March, 13)), 1},
		{"counted yesterday, two tokens", stateAt(3, 3, 2, day(2025, time.March, 13)), 3},
		{"already broken", stateAt(3, 3, 0, day(2025, time.March, 11)), 0},
		{"broken even with a token", stateAt(3, 3, 1, day(2025, time.March, 10)), 0},
		{"never counted", &State{}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DaysUntilBreak(c.s, today); got != c.want {
				t.Errorf("DaysUntilBreak = %d, want %d", got, c.want)
			}
		})
	}
}

func TestEffectiveCurrent(t *testing.T) {
	today := day(2025, time.March, 14)
	alive := stateAt(6, 6, 0, day(2025, time.March, 13))
	if got := EffectiveCurrent(alive, today); got != 6 {
		t.Errorf("alive streak reads %d, want 6", got)
	}
	broken := stateAt(6, 6, 0, day(2025, time.March, 11))
	if got := EffectiveCurrent(broken, today); got != 0 {
		t.Errorf("broken streak reads %d, want 0", got)
	}
}
