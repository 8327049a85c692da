package streak

import (
	"time"

	"github.com/google/uuid"

	"swimProgressAPI/utils"
)

type Type string

const (
	TypeSwimming       Type = "swimming"
	TypeGoalCompletion Type = "goal_completion"
	TypeLogin          Type = "login"
)

func ValidType(t Type) bool {
	switch t {
	case TypeSwimming, TypeGoalCompletion, TypeLogin:
		return true
	}
	return false
}

type State struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"user_id" db:"user_id"`
	Type            Type       `json:"type" db:"type"`
	CurrentStreak   int        `json:"current_streak" db:"current_streak"`
	LongestStreak   int        `json:"longest_streak" db:"longest_streak"`
	LastCountedDate *time.Time `json:"last_counted_date" db:"last_counted_date"`
	FreezeTokens    int        `json:"freeze_tokens_available" db:"freeze_tokens"`
	DaysUntilBreak  int        `json:"days_until_break"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// Result describes what Advance decided. FrozenDates lists the gap days a
// token was spent on, in order; the caller persists them and decrements the
// token balance by len(FrozenDates).
type Result struct {
	Changed     bool
	FrozenDates []time.Time
}

// Advance applies one qualifying event dated eventDate to the streak.
//
// Same day as the last counted date is a no-op. The next calendar day
// increments. A larger gap consumes one freeze token per skipped day as long
// as tokens hold out; the first uncovered skipped day breaks the run and the
// event starts a new streak at 1, since the event itself counts.
func Advance(s *State, eventDate time.Time) Result {
	day := utils.DayOf(eventDate)

	if s.LastCountedDate == nil {
		s.CurrentStreak = 1
		s.LastCountedDate = &day
		if s.LongestStreak < 1 {
			s.LongestStreak = 1
		}
		return Result{Changed: true}
	}

	gap := utils.DaysBetween(*s.LastCountedDate, day)
	switch {
	case gap <= 0:
		// Same day (or an out-of-order older event): nothing to count.
		return Result{}
	case gap == 1:
		s.CurrentStreak++
		s.LastCountedDate = &day
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		return Result{Changed: true}
	}

	skipped := gap - 1
	if skipped <= s.FreezeTokens {
		frozen := make([]time.Time, 0, skipped)
		for i := 1; i <= skipped; i++ {
			frozen = append(frozen, s.LastCountedDate.AddDate(0, 0, i))
		}
		s.FreezeTokens -= skipped
		s.CurrentStreak++
		s.LastCountedDate = &day
		if s.CurrentStreak > s.LongestStreak {
			s.LongestStreak = s.CurrentStreak
		}
		return Result{Changed: true, FrozenDates: frozen}
	}

	// Not enough tokens to cover the gap: the run is over, this event
	// starts a fresh one. Tokens are only spent on gaps they fully cover.
	s.CurrentStreak = 1
	s.LastCountedDate = &day
	if s.LongestStreak < 1 {
		s.LongestStreak = 1
	}
	return Result{Changed: true}
}

// DaysUntilBreak reports how many days remain before the streak breaks with
// no further activity, counting available freeze tokens as cover. Zero means
// the run is already broken as of today.
func DaysUntilBreak(s *State, today time.Time) int {
	if s.LastCountedDate == nil || s.CurrentStreak == 0 {
		return 0
	}
	// The streak survives through lastCounted+1+tokens; it breaks the day
	// after that passes without activity.
	lastSafe := s.LastCountedDate.AddDate(0, 0, 1+s.FreezeTokens)
	remaining := utils.DaysBetween(today, lastSafe) + 1
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EffectiveCurrent is the streak value reads should report: a run that has
// already broken (gap no token can cover) shows 0 until a new event lands.
func EffectiveCurrent(s *State, today time.Time) int {
	if DaysUntilBreak(s, today) == 0 {
		return 0
	}
	return s.CurrentStreak
}
