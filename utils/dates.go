package utils

import "time"

// DayOf truncates t to its calendar day in t's own location. All streak and
// goal-window math runs on these midnight-anchored days.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole calendar days from a to b (b after a is
// positive). Both arguments are compared by date, not clock time.
func DaysBetween(a, b time.Time) int {
	da := DayOf(a)
	db := DayOf(b)
	return int(db.Sub(da).Hours() / 24)
}

// WeekStart returns the Monday of t's ISO week.
func WeekStart(t time.Time) time.Time {
	d := DayOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
