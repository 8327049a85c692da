package stats

import (
	"time"

	"swimProgressAPI/internal/types/activity"
)

// UserStats is the per-user aggregate row the ingest transaction maintains.
// It doubles as the badge evaluator's snapshot source.
type UserStats struct {
	TotalDistanceMeters  int                     `json:"total_distance_meters" db:"total_distance_m"`
	TotalDurationSeconds int                     `json:"total_duration_seconds" db:"total_duration_s"`
	TotalSessions        int                     `json:"total_sessions" db:"total_sessions"`
	StrokeMeters         map[activity.Stroke]int `json:"stroke_meters"`
	GoalsCompleted       int                     `json:"goals_completed" db:"goals_completed"`
	BadgesEarned         int                     `json:"badges_earned"`
	BadgePoints          int                     `json:"badge_points"`
	CurrentStreak        int                     `json:"current_streak"`
	LongestStreak        int                     `json:"longest_streak"`
	LastActivityAt       *time.Time              `json:"last_activity_at" db:"last_activity_at"`
}

type PeriodStat struct {
	Period         string `json:"period"` // "week", "month", "year", "all_time"
	DistanceMeters int    `json:"distance_meters"`
	Sessions       int    `json:"sessions"`
}
