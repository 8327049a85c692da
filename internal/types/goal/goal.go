package goal

import (
	"time"

	"github.com/google/uuid"

	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/utils"
)

type Type string

const (
	TypeWeeklyDistance  Type = "weekly_distance"
	TypeMonthlyDistance Type = "monthly_distance"
	TypeStreak          Type = "streak"
	TypeStrokeMastery   Type = "stroke_mastery"
	TypeSessionCount    Type = "session_count"
	TypeDuration        Type = "duration"
	TypeChallengeLinked Type = "challenge_linked"
)

var knownTypes = map[Type]bool{
	TypeWeeklyDistance:  true,
	TypeMonthlyDistance: true,
	TypeStreak:          true,
	TypeStrokeMastery:   true,
	TypeSessionCount:    true,
	TypeDuration:        true,
	TypeChallengeLinked: true,
}

func ValidType(t Type) bool { return knownTypes[t] }

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

type Goal struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	OwnerID      uuid.UUID        `json:"owner_id" db:"owner_id"`
	Type         Type             `json:"type" db:"type"`
	TargetValue  int              `json:"target_value" db:"target_value"`
	CurrentValue int              `json:"current_value" db:"current_value"`
	Unit         string           `json:"unit" db:"unit"`
	Status       Status           `json:"status" db:"status"`
	StartDate    time.Time        `json:"start_date" db:"start_date"`
	EndDate      time.Time        `json:"end_date" db:"end_date"`
	RewardXP     int              `json:"reward_xp" db:"reward_xp"`
	RewardPoints int              `json:"reward_points" db:"reward_points"`
	StrokeType   *activity.Stroke `json:"stroke_type,omitempty" db:"stroke_type"`
	ChallengeID  *uuid.UUID       `json:"challenge_id,omitempty" db:"challenge_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
	Completable  bool             `json:"completable"`
	ProgressPct  int              `json:"progress_percentage"`
}

type CreateGoalRequest struct {
	Type        Type             `json:"type"`
	TargetValue int              `json:"target_value"`
	Unit        string           `json:"unit"`
	StartDate   time.Time        `json:"start_date"`
	EndDate     time.Time        `json:"end_date"`
	RewardXP    int              `json:"reward_xp"`
	StrokeType  *activity.Stroke `json:"stroke_type,omitempty"`
	ChallengeID *uuid.UUID       `json:"challenge_id,omitempty"`
}

// ProgressPercentage clamps to [0, 100]; a zero target reads as done.
func ProgressPercentage(current, target int) int {
	if target <= 0 {
		return 100
	}
	if current <= 0 {
		return 0
	}
	pct := (current*100 + target/2) / target
	if pct > 100 {
		return 100
	}
	return pct
}

// Contribution returns how much of the event counts toward a goal of this
// type, 0 when the event does not apply. Streak and challenge-linked goals
// mirror their tracker's state through Tracked instead of accumulating raw
// event deltas.
func Contribution(g *Goal, ev *activity.Event) int {
	if !inWindow(g, ev) {
		return 0
	}
	switch g.Type {
	case TypeWeeklyDistance, TypeMonthlyDistance:
		return ev.DistanceMeters
	case TypeStrokeMastery:
		if g.StrokeType == nil {
			return 0
		}
		return ev.StrokeBreakdown[*g.StrokeType]
	case TypeSessionCount:
		return 1
	case TypeDuration:
		return ev.DurationSeconds / 60
	default:
		return 0
	}
}

// Tracked resolves the new current value for goals that mirror another
// tracker: streak goals follow the live streak length, challenge-linked
// goals follow the capped participant progress of their challenge. The
// mirrored value can only grow, so ok is false whenever nothing moves.
func Tracked(g *Goal, ev *activity.Event, currentStreak int, challengeProgress map[uuid.UUID]int) (int, bool) {
	if !inWindow(g, ev) {
		return 0, false
	}
	switch g.Type {
	case TypeStreak:
		if currentStreak > g.CurrentValue {
			return currentStreak, true
		}
	case TypeChallengeLinked:
		if g.ChallengeID == nil {
			return 0, false
		}
		if p, ok := challengeProgress[*g.ChallengeID]; ok && p > g.CurrentValue {
			return p, true
		}
	}
	return 0, false
}

func inWindow(g *Goal, ev *activity.Event) bool {
	if g.Status != StatusActive {
		return false
	}
	day := utils.DayOf(ev.OccurredOn)
	return !day.Before(utils.DayOf(g.StartDate)) && !day.After(utils.DayOf(g.EndDate))
}

// Finalize fills the derived read-side fields.
func (g *Goal) Finalize() {
	g.ProgressPct = ProgressPercentage(g.CurrentValue, g.TargetValue)
	g.Completable = g.Status == StatusActive && g.CurrentValue >= g.TargetValue
}
