package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/internal/types/badge"
	"swimProgressAPI/internal/types/challenge"
	"swimProgressAPI/internal/types/goal"
	"swimProgressAPI/internal/types/level"
	"swimProgressAPI/internal/types/streak"
	"swimProgressAPI/utils"
)

type ActivityService struct {
	db       *pgxpool.Pool
	notifier *NotificationService
}

func NewActivityService(db *pgxpool.Pool, notifier *NotificationService) *ActivityService {
	return &ActivityService{db: db, notifier: notifier}
}

// IngestResult reports every delta one event produced. A duplicate event id
// short-circuits with Duplicate set and no state change.
type IngestResult struct {
	Duplicate           bool          `json:"duplicate"`
	EventID             uuid.UUID     `json:"event_id"`
	UpdatedGoals        []*goal.Goal  `json:"updated_goals"`
	Streak              *streak.State `json:"streak"`
	NewBadges           []badge.Badge `json:"new_badges"`
	XPAwarded           int           `json:"xp_awarded"`
	Level               level.State   `json:"level"`
	CompletedChallenges []uuid.UUID   `json:"completed_challenges"`
}

// IngestActivity runs the whole event pipeline in one transaction scoped to
// the event's user: idempotent event insert, stats aggregates, goal progress,
// streak advance, challenge progress, badge evaluation. Events for the same
// user serialize on an advisory lock; other users are untouched.
func (s *ActivityService) IngestActivity(ctx context.Context, clerkID string, req *activity.IngestRequest) (*IngestResult, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	ev, err := activity.Normalize(req, userID, time.Now())
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockUserAggregate(ctx, tx, userID); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO activity_events (id, user_id, occurred_on, distance_m, duration_s, stroke_breakdown, calories, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.UserID, ev.OccurredOn, ev.DistanceMeters, ev.DurationSeconds, ev.StrokeBreakdown, ev.Calories,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already processed: at-least-once delivery, nothing to redo.
		return &IngestResult{Duplicate: true, EventID: ev.ID}, nil
	}

	if err := s.applyStats(ctx, tx, ev); err != nil {
		return nil, err
	}

	streakState, err := advanceStreakTx(ctx, tx, userID, streak.TypeSwimming, ev.OccurredOn)
	if err != nil {
		return nil, err
	}

	completed, challengeXP, challengeProgress, err := s.applyChallenges(ctx, tx, ev)
	if err != nil {
		return nil, err
	}

	// Goals run after the streak and challenge steps so tracker-mirroring
	// goal types see this event's effect.
	updatedGoals, err := s.applyGoals(ctx, tx, ev, streakState.CurrentStreak, challengeProgress)
	if err != nil {
		return nil, err
	}

	newBadges, badgeXP, err := evaluateBadgesTx(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	totalXP, err := awardXPTx(ctx, tx, userID, badgeXP+challengeXP)
	if err != nil {
		return nil, err
	}

	if err := touchUpdatedAt(ctx, tx, userID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	levelBefore := level.Derive(totalXP - badgeXP - challengeXP)
	levelAfter := level.Derive(totalXP)
	s.fireTriggers(userID, streakState, newBadges, completed, levelBefore, levelAfter)

	streakState.DaysUntilBreak = streak.DaysUntilBreak(streakState, time.Now())

	return &IngestResult{
		EventID:             ev.ID,
		UpdatedGoals:        updatedGoals,
		Streak:              streakState,
		NewBadges:           newBadges,
		XPAwarded:           badgeXP + challengeXP,
		Level:               levelAfter,
		CompletedChallenges: completed,
	}, nil
}

// lockUserAggregate serializes concurrent work on one user's aggregate.
func lockUserAggregate(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, userID)
	if err != nil {
		return fmt.Errorf("failed to lock user aggregate: %w", err)
	}
	return nil
}

func (s *ActivityService) applyStats(ctx context.Context, tx pgx.Tx, ev *activity.Event) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO user_stats (user_id, total_distance_m, total_duration_s, total_sessions,
			freestyle_m, backstroke_m, breaststroke_m, butterfly_m, medley_m, last_activity_at)
		VALUES ($1, $2, $3, 1, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			total_distance_m = user_stats.total_distance_m + EXCLUDED.total_distance_m,
			total_duration_s = user_stats.total_duration_s + EXCLUDED.total_duration_s,
			total_sessions   = user_stats.total_sessions + 1,
			freestyle_m      = user_stats.freestyle_m + EXCLUDED.freestyle_m,
			backstroke_m     = user_stats.backstroke_m + EXCLUDED.backstroke_m,
			breaststroke_m   = user_stats.breaststroke_m + EXCLUDED.breaststroke_m,
			butterfly_m      = user_stats.butterfly_m + EXCLUDED.butterfly_m,
			medley_m         = user_stats.medley_m + EXCLUDED.medley_m,
			last_activity_at = GREATEST(user_stats.last_activity_at, EXCLUDED.last_activity_at)`,
		ev.UserID,
		ev.DistanceMeters,
		ev.DurationSeconds,
		ev.StrokeBreakdown[activity.StrokeFreestyle],
		ev.StrokeBreakdown[activity.StrokeBackstroke],
		ev.StrokeBreakdown[activity.StrokeBreaststroke],
		ev.StrokeBreakdown[activity.StrokeButterfly],
		ev.StrokeBreakdown[activity.StrokeMedley],
		ev.OccurredOn,
	)
	if err != nil {
		return fmt.Errorf("failed to update stats: %w", err)
	}
	return nil
}

// applyGoals expires stale goals, then moves every matching active goal:
// event-driven types get the event's contribution added, streak and
// challenge-linked types mirror their tracker's value. Nothing auto-completes
// here: reaching target only makes a goal claimable.
func (s *ActivityService) applyGoals(ctx context.Context, tx pgx.Tx, ev *activity.Event, currentStreak int, challengeProgress map[uuid.UUID]int) ([]*goal.Goal, error) {
	_, err := tx.Exec(ctx, `
		UPDATE goals SET status = 'expired', updated_at = NOW()
		WHERE owner_id = $1 AND status = 'active' AND end_date < $2`,
		ev.UserID, utils.DayOf(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expire goals: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id, owner_id, type, target_value, current_value, unit, status,
		       start_date, end_date, reward_xp, reward_points, stroke_type, challenge_id, created_at, updated_at
		FROM goals
		WHERE owner_id = $1 AND status = 'active'
		FOR UPDATE`,
		ev.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}
	goals, err := scanGoals(rows)
	if err != nil {
		return nil, err
	}

	var updated []*goal.Goal
	for _, g := range goals {
		if delta := goal.Contribution(g, ev); delta > 0 {
			g.CurrentValue += delta
		} else if v, ok := goal.Tracked(g, ev, currentStreak, challengeProgress); ok {
			g.CurrentValue = v
		} else {
			continue
		}
		_, err := tx.Exec(ctx, `
			UPDATE goals SET current_value = $2, updated_at = NOW()
			WHERE id = $1`,
			g.ID, g.CurrentValue,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update goal %s: %w", g.ID, err)
		}
		g.Finalize()
		updated = append(updated, g)
	}
	return updated, nil
}

// applyChallenges advances every active challenge the user joined, capped at
// the challenge target. Hitting the target completes the participation and
// banks the challenge XP for the caller to award. The returned map carries
// each touched challenge's capped progress for challenge-linked goals.
func (s *ActivityService) applyChallenges(ctx context.Context, tx pgx.Tx, ev *activity.Event) ([]uuid.UUID, int, map[uuid.UUID]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT c.id, c.category, c.target_value, c.reward_xp, cp.current_progress
		FROM challenge_participants cp
		JOIN challenges c ON c.id = cp.challenge_id
		WHERE cp.user_id = $1 AND cp.status = 'joined' AND c.status = 'active'
		  AND $2 >= c.start_date AND $2 <= c.end_date
		FOR UPDATE OF cp`,
		ev.UserID, ev.OccurredOn,
	)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("failed to load challenge participations: %w", err)
	}

	type row struct {
		id       uuid.UUID
		category challenge.Category
		target   int
		rewardXP int
		progress int
	}
	var parts []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.category, &r.target, &r.rewardXP, &r.progress); err != nil {
			rows.Close()
			return nil, 0, nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		parts = append(parts, r)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, 0, nil, rows.Err()
	}

	var completed []uuid.UUID
	xp := 0
	progressByID := make(map[uuid.UUID]int, len(parts))
	for _, p := range parts {
		delta := 0
		switch p.category {
		case challenge.CategoryDistance:
			delta = ev.DistanceMeters
		case challenge.CategorySessions:
			delta = 1
		case challenge.CategoryDuration:
			delta = ev.DurationSeconds / 60
		}
		if delta <= 0 {
			continue
		}
		progress := p.progress + delta
		if progress > p.target {
			progress = p.target
		}
		done := progress >= p.target
		status := challenge.ParticipantJoined
		if done {
			status = challenge.ParticipantCompleted
		}
		_, err := tx.Exec(ctx, `
			UPDATE challenge_participants SET current_progress = $3, status = $4
			WHERE challenge_id = $1 AND user_id = $2`,
			p.id, ev.UserID, progress, status,
		)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("failed to update challenge progress: %w", err)
		}
		progressByID[p.id] = progress
		if done {
			completed = append(completed, p.id)
			xp += p.rewardXP
		}
	}
	return completed, xp, progressByID, nil
}

// awardXPTx adds amount to the user's XP balance and returns the new total.
// Amount 0 still returns the balance so callers can derive the level.
func awardXPTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int) (int, error) {
	var total int
	err := tx.QueryRow(ctx, `
		UPDATE users SET total_xp = total_xp + $2 WHERE id = $1
		RETURNING total_xp`,
		userID, amount,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to award xp: %w", err)
	}
	return total, nil
}

var streakMilestones = map[int]bool{7: true, 30: true, 100: true, 365: true}

func (s *ActivityService) fireTriggers(userID uuid.UUID, st *streak.State, newBadges []badge.Badge, completedChallenges []uuid.UUID, before, after level.State) {
	if s.notifier == nil {
		return
	}
	for _, b := range newBadges {
		go s.notifier.BadgeEarnedTrigger(userID, b)
	}
	if st != nil && streakMilestones[st.CurrentStreak] {
		go s.notifier.StreakMilestoneTrigger(userID, st.CurrentStreak)
	}
	if after.CurrentLevel > before.CurrentLevel {
		go s.notifier.LevelUpTrigger(userID, after)
	}
	for _, id := range completedChallenges {
		go s.notifier.ChallengeCompletedTrigger(userID, id)
	}
	log.Printf("Ingest: user %s earned %d badges, %d challenges completed", userID, len(newBadges), len(completedChallenges))
}
