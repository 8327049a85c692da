package dashboard

import (
	"swimProgressAPI/internal/types/goal"
	"swimProgressAPI/internal/types/level"
	"swimProgressAPI/internal/types/streak"
)

// Recommendation is a suggested goal the client can create with one tap.
type Recommendation struct {
	Type        goal.Type `json:"type"`
	TargetValue int       `json:"target_value"`
	Unit        string    `json:"unit"`
	Reason      string    `json:"reason"`
}

type Dashboard struct {
	ActiveGoals     []*goal.Goal     `json:"active_goals"`
	ChallengeGoals  []*goal.Goal     `json:"challenge_goals"`
	Streaks         []*streak.State  `json:"streaks"`
	Level           level.State      `json:"level"`
	Recommendations []Recommendation `json:"recommendations"`
}
