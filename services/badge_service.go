package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swimProgressAPI/internal/stats"
	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/internal/types/badge"
	"swimProgressAPI/utils"
)

type BadgeService struct {
	db *pgxpool.Pool
}

func NewBadgeService(db *pgxpool.Pool) *BadgeService {
	return &BadgeService{db: db}
}

// GetCatalog returns every badge with the caller's earned status.
func (s *BadgeService) GetCatalog(ctx context.Context, clerkID string) ([]*badge.WithStatus, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	earned, err := s.earnedMap(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*badge.WithStatus, 0, len(badge.Catalog))
	for _, b := range badge.Catalog {
		ws := &badge.WithStatus{Badge: b}
		if ub, ok := earned[b.Key]; ok {
			ws.Earned = true
			ws.EarnedAt = &ub.EarnedAt
		}
		out = append(out, ws)
	}
	return out, nil
}

func (s *BadgeService) GetMyBadges(ctx context.Context, clerkID string) ([]*badge.WithStatus, error) {
	all, err := s.GetCatalog(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	mine := make([]*badge.WithStatus, 0)
	for _, b := range all {
		if b.Earned {
			mine = append(mine, b)
		}
	}
	return mine, nil
}

// GetStats is the aggregated completion view: swim totals, streaks, badge
// points, goals completed.
func (s *BadgeService) GetStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	st := &stats.UserStats{StrokeMeters: make(map[activity.Stroke]int)}
	var fs, bk, br, bf, md int
	err = s.db.QueryRow(ctx, `
		SELECT COALESCE(us.total_distance_m, 0), COALESCE(us.total_duration_s, 0),
		       COALESCE(us.total_sessions, 0), COALESCE(us.goals_completed, 0),
		       COALESCE(us.freestyle_m, 0), COALESCE(us.backstroke_m, 0),
		       COALESCE(us.breaststroke_m, 0), COALESCE(us.butterfly_m, 0), COALESCE(us.medley_m, 0),
		       us.last_activity_at,
		       u.badge_points,
		       COALESCE(sw.current_streak, 0), COALESCE(sw.longest_streak, 0),
		       (SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = u.id)
		FROM users u
		LEFT JOIN user_stats us ON us.user_id = u.id
		LEFT JOIN streaks sw ON sw.user_id = u.id AND sw.type = 'swimming'
		WHERE u.id = $1`,
		userID,
	).Scan(&st.TotalDistanceMeters, &st.TotalDurationSeconds, &st.TotalSessions, &st.GoalsCompleted,
		&fs, &bk, &br, &bf, &md, &st.LastActivityAt, &st.BadgePoints,
		&st.CurrentStreak, &st.LongestStreak, &st.BadgesEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}
	st.StrokeMeters[activity.StrokeFreestyle] = fs
	st.StrokeMeters[activity.StrokeBackstroke] = bk
	st.StrokeMeters[activity.StrokeBreaststroke] = br
	st.StrokeMeters[activity.StrokeButterfly] = bf
	st.StrokeMeters[activity.StrokeMedley] = md
	return st, nil
}

// GetPeriodStats breaks activity down by trailing window, newest first.
func (s *BadgeService) GetPeriodStats(ctx context.Context, clerkID string) ([]stats.PeriodStat, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	windows := []struct {
		period string
		since  *time.Time
	}{
		{"week", timePtr(utils.WeekStart(now))},
		{"month", timePtr(utils.MonthStart(now))},
		{"year", timePtr(time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()))},
		{"all_time", nil},
	}

	out := make([]stats.PeriodStat, 0, len(windows))
	for _, w := range windows {
		ps := stats.PeriodStat{Period: w.period}
		query := `SELECT COALESCE(SUM(distance_m), 0), COUNT(*) FROM activity_events WHERE user_id = $1`
		args := []any{userID}
		if w.since != nil {
			query += ` AND occurred_on >= $2`
			args = append(args, *w.since)
		}
		if err := s.db.QueryRow(ctx, query, args...).Scan(&ps.DistanceMeters, &ps.Sessions); err != nil {
			return nil, fmt.Errorf("failed to load %s stats: %w", w.period, err)
		}
		out = append(out, ps)
	}
	return out, nil
}

func timePtr(t time.Time) *time.Time { return &t }

func (s *BadgeService) earnedMap(ctx context.Context, userID uuid.UUID) (map[string]*badge.UserBadge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, badge_key, earned_at FROM user_badges WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]*badge.UserBadge)
	for rows.Next() {
		ub := &badge.UserBadge{}
		if err := rows.Scan(&ub.UserID, &ub.BadgeKey, &ub.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan earned badge: %w", err)
		}
		earned[ub.BadgeKey] = ub
	}
	return earned, rows.Err()
}

// statsSnapshotTx assembles the badge evaluation snapshot inside the caller's
// transaction, so it sees the mutations the same unit of work just made.
func statsSnapshotTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (badge.StatsSnapshot, error) {
	var snap badge.StatsSnapshot
	snap.StrokeMeters = make(map[activity.Stroke]int)
	var fs, bk, br, bf, md int
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(us.total_distance_m, 0), COALESCE(us.total_duration_s, 0),
		       COALESCE(us.total_sessions, 0), COALESCE(us.goals_completed, 0),
		       COALESCE(us.freestyle_m, 0), COALESCE(us.backstroke_m, 0),
		       COALESCE(us.breaststroke_m, 0), COALESCE(us.butterfly_m, 0), COALESCE(us.medley_m, 0),
		       COALESCE(sw.longest_streak, 0),
		       (SELECT COUNT(*) FROM user_badges ub WHERE ub.user_id = u.id)
		FROM users u
		LEFT JOIN user_stats us ON us.user_id = u.id
		LEFT JOIN streaks sw ON sw.user_id = u.id AND sw.type = 'swimming'
		WHERE u.id = $1`,
		userID,
	).Scan(&snap.TotalDistanceMeters, &snap.TotalDurationSeconds, &snap.TotalSessions, &snap.GoalsCompleted,
		&fs, &bk, &br, &bf, &md, &snap.LongestStreak, &snap.BadgesEarned)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, fmt.Errorf("user %s vanished mid-transaction", userID)
		}
		return snap, fmt.Errorf("failed to build stats snapshot: %w", err)
	}
	snap.StrokeMeters[activity.StrokeFreestyle] = fs
	snap.StrokeMeters[activity.StrokeBackstroke] = bk
	snap.StrokeMeters[activity.StrokeBreaststroke] = br
	snap.StrokeMeters[activity.StrokeButterfly] = bf
	snap.StrokeMeters[activity.StrokeMedley] = md
	return snap, nil
}

// evaluateBadgesTx runs the whole catalog against the user's current
// snapshot and records any new earns. Earns are write-once: the unique
// (user_id, badge_key) row is the idempotency guard, and points/XP apply
// only when the insert actually lands.
func evaluateBadgesTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID) ([]badge.Badge, int, error) {
	snap, err := statsSnapshotTx(ctx, tx, userID)
	if err != nil {
		return nil, 0, err
	}

	rows, err := tx.Query(ctx, `SELECT badge_key FROM user_badges WHERE user_id = $1`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load earned keys: %w", err)
	}
	already := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, 0, err
		}
		already[key] = true
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	var earned []badge.Badge
	xp, points := 0, 0
	for _, b := range badge.NewlyEarned(badge.Catalog, snap, already) {
		tag, err := tx.Exec(ctx, `
			INSERT INTO user_badges (user_id, badge_key, earned_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id, badge_key) DO NOTHING`,
			userID, b.Key,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to record badge %s: %w", b.Key, err)
		}
		if tag.RowsAffected() == 0 {
			// Concurrent earn already landed: no-op, no double award.
			continue
		}
		earned = append(earned, b)
		points += b.Points
		xp += badge.XPForTier(b.Tier)
	}

	if points > 0 {
		_, err := tx.Exec(ctx, `UPDATE users SET badge_points = badge_points + $2 WHERE id = $1`, userID, points)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to add badge points: %w", err)
		}
	}
	return earned, xp, nil
}
