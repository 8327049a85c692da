package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/dashboard"
	"swimProgressAPI/internal/types/goal"
	"swimProgressAPI/internal/types/level"
	"swimProgressAPI/internal/types/streak"
	"swimProgressAPI/utils"
)

type GoalService struct {
	db       *pgxpool.Pool
	notifier *NotificationService
}

func NewGoalService(db *pgxpool.Pool, notifier *NotificationService) *GoalService {
	return &GoalService{db: db, notifier: notifier}
}

func (s *GoalService) CreateGoal(ctx context.Context, clerkID string, req *goal.CreateGoalRequest) (*goal.Goal, error) {
	if !goal.ValidType(req.Type) {
		return nil, apperr.Validation("unknown goal type %q", req.Type)
	}
	if req.TargetValue <= 0 {
		return nil, apperr.Validation("target_value must be positive")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, apperr.Validation("end_date is before start_date")
	}
	if req.Type == goal.TypeStrokeMastery && req.StrokeType == nil {
		return nil, apperr.Validation("stroke_mastery goals need a stroke_type")
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	g := &goal.Goal{
		ID:           uuid.New(),
		OwnerID:      userID,
		Type:         req.Type,
		TargetValue:  req.TargetValue,
		Unit:         req.Unit,
		Status:       goal.StatusActive,
		StartDate:    utils.DayOf(req.StartDate),
		EndDate:      utils.DayOf(req.EndDate),
		RewardXP:     req.RewardXP,
		RewardPoints: req.RewardXP / 2,
		StrokeType:   req.StrokeType,
		ChallengeID:  req.ChallengeID,
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO goals (id, owner_id, type, target_value, current_value, unit, status,
			start_date, end_date, reward_xp, reward_points, stroke_type, challenge_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING created_at, updated_at`,
		g.ID, g.OwnerID, g.Type, g.TargetValue, g.Unit, g.Status,
		g.StartDate, g.EndDate, g.RewardXP, g.RewardPoints, g.StrokeType, g.ChallengeID,
	).Scan(&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	g.Finalize()
	return g, nil
}

func (s *GoalService) ListGoals(ctx context.Context, clerkID string, status goal.Status) ([]*goal.Goal, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if err := s.expireStale(ctx, userID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, type, target_value, current_value, unit, status,
		       start_date, end_date, reward_xp, reward_points, stroke_type, challenge_id, created_at, updated_at
		FROM goals
		WHERE owner_id = $1`
	args := []any{userID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	goals, err := scanGoals(rows)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		g.Finalize()
	}
	return goals, nil
}

// CompleteGoal is the claim step. Reaching the target never completes a goal
// on its own; this call does, exactly once, and pays out the reward.
func (s *GoalService) CompleteGoal(ctx context.Context, clerkID string, goalID uuid.UUID) (*goal.Goal, int, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, 0, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	if err := lockUserAggregate(ctx, tx, userID); err != nil {
		return nil, 0, err
	}

	g, err := loadGoalTx(ctx, tx, goalID)
	if err != nil {
		return nil, 0, err
	}
	if g.OwnerID != userID {
		return nil, 0, apperr.NotFound("goal not found")
	}
	if g.Status != goal.StatusActive {
		return nil, 0, apperr.InvalidState("goal is %s, only active goals can be completed", g.Status)
	}
	if utils.DayOf(g.EndDate).Before(utils.DayOf(time.Now())) {
		// Past its window: it expires now instead of completing.
		_, err := tx.Exec(ctx, `UPDATE goals SET status = 'expired', updated_at = NOW() WHERE id = $1`, g.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to expire goal: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, 0, err
		}
		return nil, 0, apperr.InvalidState("goal window has ended, goal expired")
	}
	if g.CurrentValue < g.TargetValue {
		return nil, 0, apperr.InvalidState("goal target not reached (%d of %d)", g.CurrentValue, g.TargetValue)
	}

	_, err = tx.Exec(ctx, `UPDATE goals SET status = 'completed', updated_at = NOW() WHERE id = $1`, g.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to complete goal: %w", err)
	}
	g.Status = goal.StatusCompleted

	_, err = tx.Exec(ctx, `
		INSERT INTO user_stats (user_id, goals_completed) VALUES ($1, 1)
		ON CONFLICT (user_id) DO UPDATE SET goals_completed = user_stats.goals_completed + 1`,
		userID,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count completion: %w", err)
	}

	if g.RewardPoints > 0 {
		_, err = tx.Exec(ctx, `UPDATE users SET points = points + $2 WHERE id = $1`, userID, g.RewardPoints)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to add points: %w", err)
		}
	}

	if _, err := advanceStreakTx(ctx, tx, userID, streak.TypeGoalCompletion, time.Now()); err != nil {
		return nil, 0, err
	}

	newBadges, badgeXP, err := evaluateBadgesTx(ctx, tx, userID)
	if err != nil {
		return nil, 0, err
	}

	totalXP, err := awardXPTx(ctx, tx, userID, g.RewardXP+badgeXP)
	if err != nil {
		return nil, 0, err
	}

	if err := touchUpdatedAt(ctx, tx, userID); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}

	if s.notifier != nil {
		go s.notifier.GoalCompletedTrigger(userID, g)
		for _, b := range newBadges {
			go s.notifier.BadgeEarnedTrigger(userID, b)
		}
		before := level.Derive(totalXP - g.RewardXP - badgeXP)
		after := level.Derive(totalXP)
		if after.CurrentLevel > before.CurrentLevel {
			go s.notifier.LevelUpTrigger(userID, after)
		}
	}

	log.Printf("Goal %s completed by user %s, %d xp awarded", g.ID, userID, g.RewardXP+badgeXP)
	g.Finalize()
	return g, g.RewardXP + badgeXP, nil
}

// CancelGoal is the user-initiated terminal transition; terminal goals never
// move again.
func (s *GoalService) CancelGoal(ctx context.Context, clerkID string, goalID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	g := &goal.Goal{}
	err = s.db.QueryRow(ctx, `SELECT id, owner_id, status FROM goals WHERE id = $1`, goalID).
		Scan(&g.ID, &g.OwnerID, &g.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("goal not found")
		}
		return fmt.Errorf("failed to load goal: %w", err)
	}
	if g.OwnerID != userID {
		return apperr.NotFound("goal not found")
	}
	if g.Status != goal.StatusActive {
		return apperr.InvalidState("goal is %s, only active goals can be cancelled", g.Status)
	}

	_, err = s.db.Exec(ctx, `UPDATE goals SET status = 'cancelled', updated_at = NOW() WHERE id = $1`, goalID)
	if err != nil {
		return fmt.Errorf("failed to cancel goal: %w", err)
	}
	return nil
}

// DeleteGoal removes a terminal goal from the list. Active goals must go
// through cancel first so the state machine stays the only way out of active.
func (s *GoalService) DeleteGoal(ctx context.Context, clerkID string, goalID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	g := &goal.Goal{}
	err = s.db.QueryRow(ctx, `SELECT id, owner_id, status FROM goals WHERE id = $1`, goalID).
		Scan(&g.ID, &g.OwnerID, &g.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("goal not found")
		}
		return fmt.Errorf("failed to load goal: %w", err)
	}
	if g.OwnerID != userID {
		return apperr.NotFound("goal not found")
	}
	if g.Status == goal.StatusActive {
		return apperr.InvalidState("goal is active, cancel it before deleting")
	}

	_, err = s.db.Exec(ctx, `DELETE FROM goals WHERE id = $1`, goalID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

// GetDashboard is the single aggregate read the client home screen uses.
func (s *GoalService) GetDashboard(ctx context.Context, clerkID string, streakSvc *StreakService) (*dashboard.Dashboard, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	if err := s.expireStale(ctx, userID); err != nil {
		return nil, err
	}

	active, err := s.ListGoals(ctx, clerkID, goal.StatusActive)
	if err != nil {
		return nil, err
	}

	d := &dashboard.Dashboard{
		ActiveGoals:     make([]*goal.Goal, 0),
		ChallengeGoals:  make([]*goal.Goal, 0),
		Recommendations: make([]dashboard.Recommendation, 0),
	}
	for _, g := range active {
		if g.Type == goal.TypeChallengeLinked || g.ChallengeID != nil {
			d.ChallengeGoals = append(d.ChallengeGoals, g)
		} else {
			d.ActiveGoals = append(d.ActiveGoals, g)
		}
	}

	d.Streaks, err = streakSvc.GetStreaks(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	var totalXP int
	if err := s.db.QueryRow(ctx, `SELECT total_xp FROM users WHERE id = $1`, userID).Scan(&totalXP); err != nil {
		return nil, fmt.Errorf("failed to load xp: %w", err)
	}
	d.Level = level.Derive(totalXP)

	d.Recommendations = s.recommend(ctx, userID, active, d.Streaks)
	return d, nil
}

// recommend suggests goals from recent behavior. Best effort: a failed
// lookup just means fewer suggestions.
func (s *GoalService) recommend(ctx context.Context, userID uuid.UUID, active []*goal.Goal, streaks []*streak.State) []dashboard.Recommendation {
	recs := make([]dashboard.Recommendation, 0)

	hasType := make(map[goal.Type]bool)
	for _, g := range active {
		hasType[g.Type] = true
	}

	if !hasType[goal.TypeWeeklyDistance] {
		var last4Weeks int
		err := s.db.QueryRow(ctx, `
			SELECT COALESCE(SUM(distance_m), 0) FROM activity_events
			WHERE user_id = $1 AND occurred_on >= $2`,
			userID, utils.DayOf(time.Now()).AddDate(0, 0, -28),
		).Scan(&last4Weeks)
		if err != nil {
			log.Printf("Recommendation query failed for %s: %v", userID, err)
		} else if last4Weeks > 0 {
			weekly := (last4Weeks / 4 / 100) * 100
			if weekly < 1000 {
				weekly = 1000
			}
			recs = append(recs, dashboard.Recommendation{
				Type:        goal.TypeWeeklyDistance,
				TargetValue: weekly,
				Unit:        "meters",
				Reason:      "matches your average over the last four weeks",
			})
		}
	}

	if !hasType[goal.TypeStreak] {
		for _, st := range streaks {
			if st.Type == streak.TypeSwimming && st.CurrentStreak >= 3 {
				target := st.CurrentStreak * 2
				if target < 7 {
					target = 7
				}
				recs = append(recs, dashboard.Recommendation{
					Type:        goal.TypeStreak,
					TargetValue: target,
					Unit:        "days",
					Reason:      fmt.Sprintf("you are on a %d-day run, keep it going", st.CurrentStreak),
				})
			}
		}
	}
	return recs
}

func (s *GoalService) expireStale(ctx context.Context, userID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE goals SET status = 'expired', updated_at = NOW()
		WHERE owner_id = $1 AND status = 'active' AND end_date < $2`,
		userID, utils.DayOf(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to expire goals: %w", err)
	}
	return nil
}

func loadGoalTx(ctx context.Context, tx pgx.Tx, goalID uuid.UUID) (*goal.Goal, error) {
	g := &goal.Goal{}
	err := tx.QueryRow(ctx, `
		SELECT id, owner_id, type, target_value, current_value, unit, status,
		       start_date, end_date, reward_xp, reward_points, stroke_type, challenge_id, created_at, updated_at
		FROM goals
		WHERE id = $1
		FOR UPDATE`,
		goalID,
	).Scan(&g.ID, &g.OwnerID, &g.Type, &g.TargetValue, &g.CurrentValue, &g.Unit, &g.Status,
		&g.StartDate, &g.EndDate, &g.RewardXP, &g.RewardPoints, &g.StrokeType, &g.ChallengeID,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("goal not found")
		}
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}
	return g, nil
}

func scanGoals(rows pgx.Rows) ([]*goal.Goal, error) {
	defer rows.Close()
	goals := make([]*goal.Goal, 0)
	for rows.Next() {
		g := &goal.Goal{}
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Type, &g.TargetValue, &g.CurrentValue, &g.Unit, &g.Status,
			&g.StartDate, &g.EndDate, &g.RewardXP, &g.RewardPoints, &g.StrokeType, &g.ChallengeID,
			&g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
