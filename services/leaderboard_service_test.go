package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/internal/types/leaderboard"
)

func newCacheService(t *testing.T) (*LeaderboardService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLeaderboardService(nil, client), mr
}

func TestGetLeaderboardServesFromCache(t *testing.T) {
	svc, mr := newCacheService(t)

	cached := &leaderboard.Leaderboard{
		Metric:     leaderboard.MetricXP,
		TotalUsers: 2,
		Entries: []*leaderboard.Entry{
			{Username: "ada", Value: 900, Rank: 1},
			{Username: "ben", Value: 400, Rank: 2},
		},
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		t.Fatal(err)
	}
	// Key shape the service writes on a miss.
	mr.Set("leaderboard:xp::50", string(raw))

	// db is nil: any fallthrough to Postgres would panic, proving the
	// result below came from the cache.
	got, err := svc.GetLeaderboard(context.Background(), leaderboard.MetricXP, "", 50)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if got.TotalUsers != 2 || len(got.Entries) != 2 {
		t.Fatalf("unexpected board: %+v", got)
	}
	if got.Entries[0].Username != "ada" || got.Entries[0].Rank != 1 {
		t.Errorf("top entry = %+v", got.Entries[0])
	}
}

func TestGetLeaderboardCacheKeyIsPerShape(t *testing.T) {
	svc, mr := newCacheService(t)

	board := &leaderboard.Leaderboard{Metric: leaderboard.MetricStrokeDistance, TotalUsers: 1,
		Entries: []*leaderboard.Entry{{Username: "ada", Value: 12000, Rank: 1}}}
	raw, _ := json.Marshal(board)
	mr.Set("leaderboard:stroke_distance:butterfly:10", string(raw))

	got, err := svc.GetLeaderboard(context.Background(), leaderboard.MetricStrokeDistance, activity.StrokeButterfly, 10)
	if err != nil {
		t.Fatalf("GetLeaderboard: %v", err)
	}
	if got.TotalUsers != 1 {
		t.Errorf("wrong cache slot served: %+v", got)
	}
}

func TestGetLeaderboardRejectsUnknownMetric(t *testing.T) {
	svc := NewLeaderboardService(nil, nil)
	_, err := svc.GetLeaderboard(context.Background(), "elo", "", 10)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("unknown metric error = %v, want validation", err)
	}
}

func TestGetLeaderboardRejectsStrokeMetricWithoutStroke(t *testing.T) {
	svc := NewLeaderboardService(nil, nil)
	_, err := svc.GetLeaderboard(context.Background(), leaderboard.MetricStrokeDistance, "", 10)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("missing stroke error = %v, want validation", err)
	}
}

func TestMetricValsSQLArgs(t *testing.T) {
	// Time-windowed metrics carry their window start as an argument.
	for _, m := range []leaderboard.Metric{leaderboard.MetricWeeklyDistance, leaderboard.MetricMonthlyDistance, leaderboard.MetricStreak} {
		_, args, err := metricValsSQL(m, "")
		if err != nil {
			t.Fatalf("metricValsSQL(%s): %v", m, err)
		}
		if len(args) != 1 {
			t.Errorf("metricValsSQL(%s) args = %d, want 1", m, len(args))
		}
	}
	// XP reads a stored column and needs none.
	_, args, err := metricValsSQL(leaderboard.MetricXP, "")
	if err != nil || len(args) != 0 {
		t.Errorf("metricValsSQL(xp) args = %v err = %v", args, err)
	}
}
