package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/internal/types/leaderboard"
	"swimProgressAPI/utils"
)

const leaderboardCacheTTL = 60 * time.Second

// LeaderboardService ranks users over the aggregate state the ingest
// pipeline writes. Reads are allowed to lag events, so results may be served
// from a short-lived Redis cache when one is configured.
type LeaderboardService struct {
	db    *pgxpool.Pool
	cache *redis.Client // nil when REDIS_URL is not set
}

func NewLeaderboardService(db *pgxpool.Pool, cache *redis.Client) *LeaderboardService {
	return &LeaderboardService{db: db, cache: cache}
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, metric leaderboard.Metric, stroke activity.Stroke, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%s:%d", metric, stroke, limit)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			lb := &leaderboard.Leaderboard{}
			if json.Unmarshal(raw, lb) == nil {
				return lb, nil
			}
		}
	}

	valsSQL, args, err := metricValsSQL(metric, stroke)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		WITH vals AS (%s),
		ranked AS (
			SELECT user_id, username, image_url, value, last_activity_at,
			       ROW_NUMBER() OVER (ORDER BY value DESC, last_activity_at ASC NULLS LAST, user_id ASC) AS rank
			FROM vals
			WHERE value > 0
		)
		SELECT user_id, username, image_url, value, rank,
		       (SELECT COUNT(*) FROM ranked) AS total
		FROM ranked
		ORDER BY rank
		LIMIT $%d`, valsSQL, len(args)+1)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	lb := &leaderboard.Leaderboard{Metric: metric, Entries: make([]*leaderboard.Entry, 0)}
	for rows.Next() {
		e := &leaderboard.Entry{}
		if err := rows.Scan(&e.UserID, &e.Username, &e.ImageURL, &e.Value, &e.Rank, &lb.TotalUsers); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		lb.Entries = append(lb.Entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if s.cache != nil {
		if raw, err := json.Marshal(lb); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, leaderboardCacheTTL).Err(); err != nil {
				log.Printf("Leaderboard cache write failed: %v", err)
			}
		}
	}
	return lb, nil
}

// GetMyRank resolves one user's rank and value without shipping the full
// ordering to the caller.
func (s *LeaderboardService) GetMyRank(ctx context.Context, clerkID string, metric leaderboard.Metric, stroke activity.Stroke) (*leaderboard.MyRank, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	valsSQL, args, err := metricValsSQL(metric, stroke)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		WITH vals AS (%s),
		ranked AS (
			SELECT user_id, value,
			       ROW_NUMBER() OVER (ORDER BY value DESC, last_activity_at ASC NULLS LAST, user_id ASC) AS rank
			FROM vals
			WHERE value > 0
		)
		SELECT rank, value FROM ranked WHERE user_id = $%d`, valsSQL, len(args)+1)
	args = append(args, userID)

	my := &leaderboard.MyRank{}
	err = s.db.QueryRow(ctx, query, args...).Scan(&my.Rank, &my.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &leaderboard.MyRank{Ranked: false}, nil
		}
		return nil, fmt.Errorf("failed to query rank: %w", err)
	}
	my.Ranked = true
	return my, nil
}

// metricValsSQL builds the per-user value select for a metric. Stroke
// columns are mapped through a fixed table, never interpolated from input.
func metricValsSQL(metric leaderboard.Metric, stroke activity.Stroke) (string, []any, error) {
	if !leaderboard.ValidMetric(metric) {
		return "", nil, apperr.Validation("unknown metric %q", metric)
	}

	base := `
		SELECT u.id AS user_id, u.username, u.image_url, %s AS value, us.last_activity_at
		FROM users u
		LEFT JOIN user_stats us ON us.user_id = u.id`

	switch metric {
	case leaderboard.MetricXP:
		return fmt.Sprintf(base, "u.total_xp"), nil, nil
	case leaderboard.MetricBadgeCount:
		return fmt.Sprintf(base, "(SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = u.id)"), nil, nil
	case leaderboard.MetricStreak:
		return fmt.Sprintf(base, `COALESCE((
			SELECT CASE WHEN sw.last_counted_date >= $1::date - sw.freeze_tokens THEN sw.current_streak ELSE 0 END
			FROM streaks sw
			WHERE sw.user_id = u.id AND sw.type = 'swimming'
		), 0)`), []any{utils.DayOf(time.Now()).AddDate(0, 0, -1)}, nil
	case leaderboard.MetricWeeklyDistance:
		return fmt.Sprintf(base, `COALESCE((
			SELECT SUM(ae.distance_m) FROM activity_events ae
			WHERE ae.user_id = u.id AND ae.occurred_on >= $1
		), 0)`), []any{utils.WeekStart(time.Now())}, nil
	case leaderboard.MetricMonthlyDistance:
		return fmt.Sprintf(base, `COALESCE((
			SELECT SUM(ae.distance_m) FROM activity_events ae
			WHERE ae.user_id = u.id AND ae.occurred_on >= $1
		), 0)`), []any{utils.MonthStart(time.Now())}, nil
	case leaderboard.MetricStrokeDistance:
		col, ok := strokeColumns[stroke]
		if !ok {
			return "", nil, apperr.Validation("stroke_distance needs a valid stroke, got %q", stroke)
		}
		return fmt.Sprintf(base, "COALESCE(us."+col+", 0)"), nil, nil
	}
	return "", nil, apperr.Validation("unknown metric %q", metric)
}

var strokeColumns = map[activity.Stroke]string{
	activity.StrokeFreestyle:    "freestyle_m",
	activity.StrokeBackstroke:   "backstroke_m",
	activity.StrokeBreaststroke: "breaststroke_m",
	activity.StrokeButterfly:    "butterfly_m",
	activity.StrokeMedley:       "medley_m",
}
