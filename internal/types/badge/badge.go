package badge

import (
	"time"

	"github.com/google/uuid"

	"swimProgressAPI/internal/types/activity"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// XPForTier is the fixed XP granted when a badge of the tier is earned, on
// top of the badge's points.
func XPForTier(t Tier) int {
	switch t {
	case TierBronze:
		return 50
	case TierSilver:
		return 100
	case TierGold:
		return 200
	case TierPlatinum:
		return 400
	default:
		return 0
	}
}

type RuleType string

const (
	RuleTotalDistance   RuleType = "total_distance"
	RuleStrokeDistance  RuleType = "stroke_distance"
	RuleStreak          RuleType = "streak"
	RuleSessionCount    RuleType = "session_count"
	RuleGoalCompletions RuleType = "goal_completions"
	RuleTotalDuration   RuleType = "total_duration"
	RuleBadgeCount      RuleType = "badge_count"
)

// Badge is an immutable catalog entry. The predicate is data: a rule type
// plus a threshold (and a stroke for stroke rules), evaluated by Earned.
// New badges are new rows here, not new code.
type Badge struct {
	Key         string           `json:"key"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Icon        string           `json:"icon"`
	Tier        Tier             `json:"tier"`
	Category    string           `json:"category"`
	Points      int              `json:"points"`
	Rule        RuleType         `json:"rule"`
	Threshold   int              `json:"threshold"`
	Stroke      *activity.Stroke `json:"stroke,omitempty"`
}

type UserBadge struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	BadgeKey string    `json:"badge_key" db:"badge_key"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`
}

type WithStatus struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// StatsSnapshot is the aggregate view badge rules are evaluated against.
// It is assembled inside the same transaction that mutated the stats, so a
// single pass sees a consistent picture.
type StatsSnapshot struct {
	TotalDistanceMeters  int
	TotalDurationSeconds int
	TotalSessions        int
	StrokeMeters         map[activity.Stroke]int
	LongestStreak        int
	GoalsCompleted       int
	BadgesEarned         int
}

// Earned is the single dispatcher over the rule variants.
func (b *Badge) Earned(s StatsSnapshot) bool {
	switch b.Rule {
	case RuleTotalDistance:
		return s.TotalDistanceMeters >= b.Threshold
	case RuleStrokeDistance:
		return b.Stroke != nil && s.StrokeMeters[*b.Stroke] >= b.Threshold
	case RuleStreak:
		return s.LongestStreak >= b.Threshold
	case RuleSessionCount:
		return s.TotalSessions >= b.Threshold
	case RuleGoalCompletions:
		return s.GoalsCompleted >= b.Threshold
	case RuleTotalDuration:
		return s.TotalDurationSeconds >= b.Threshold
	case RuleBadgeCount:
		return s.BadgesEarned >= b.Threshold
	default:
		return false
	}
}

// NewlyEarned returns catalog badges whose rule holds for the snapshot and
// whose key is not in already. Deterministic: catalog order.
func NewlyEarned(catalog []Badge, s StatsSnapshot, already map[string]bool) []Badge {
	var out []Badge
	for _, b := range catalog {
		if already[b.Key] {
			continue
		}
		if b.Earned(s) {
			out = append(out, b)
		}
	}
	return out
}
