package leaderboard

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Metric string

const (
	MetricXP              Metric = "xp"
	MetricWeeklyDistance  Metric = "weekly_distance"
	MetricMonthlyDistance Metric = "monthly_distance"
	MetricBadgeCount      Metric = "badge_count"
	MetricStreak          Metric = "streak"
	MetricStrokeDistance  Metric = "stroke_distance"
)

var knownMetrics = map[Metric]bool{
	MetricXP:              true,
	MetricWeeklyDistance:  true,
	MetricMonthlyDistance: true,
	MetricBadgeCount:      true,
	MetricStreak:          true,
	MetricStrokeDistance:  true,
}

func ValidMetric(m Metric) bool { return knownMetrics[m] }

type Entry struct {
	UserID         uuid.UUID  `json:"user_id" db:"user_id"`
	Username       string     `json:"username" db:"username"`
	ImageURL       *string    `json:"image_url" db:"image_url"`
	Value          int        `json:"value" db:"value"`
	Rank           int        `json:"rank" db:"rank"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

type Leaderboard struct {
	Metric     Metric   `json:"metric"`
	Entries    []*Entry `json:"entries"`
	TotalUsers int      `json:"total_users"`
}

type MyRank struct {
	Ranked bool `json:"ranked"`
	Rank   int  `json:"rank,omitempty"`
	Value  int  `json:"value,omitempty"`
}

// Less is the one ordering rule every ranking in the system uses: higher
// value first, then earlier last activity, then lower user id. Total over
// distinct users, so reruns can never reorder ties.
func Less(a, b *Entry) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	at, bt := a.LastActivityAt, b.LastActivityAt
	switch {
	case at != nil && bt != nil && !at.Equal(*bt):
		return at.Before(*bt)
	case at != nil && bt == nil:
		return true
	case at == nil && bt != nil:
		return false
	}
	return strings.Compare(a.UserID.String(), b.UserID.String()) < 0
}

// AssignRanks sorts entries with Less and hands out dense sequential
// 1-based ranks. Ties never share a rank.
func AssignRanks(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return Less(entries[i], entries[j]) })
	for i, e := range entries {
		e.Rank = i + 1
	}
}
