package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/streak"
	"swimProgressAPI/utils"
)

type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

func (s *StreakService) GetStreaks(ctx context.Context, clerkID string) ([]*streak.State, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, current_streak, longest_streak, last_counted_date, freeze_tokens, updated_at
		FROM streaks
		WHERE user_id = $1
		ORDER BY type`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load streaks: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	states := make([]*streak.State, 0)
	for rows.Next() {
		st := &streak.State{}
		if err := rows.Scan(&st.ID, &st.UserID, &st.Type, &st.CurrentStreak, &st.LongestStreak,
			&st.LastCountedDate, &st.FreezeTokens, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan streak: %w", err)
		}
		st.CurrentStreak = streak.EffectiveCurrent(st, now)
		st.DaysUntilBreak = streak.DaysUntilBreak(st, now)
		states = append(states, st)
	}
	return states, rows.Err()
}

// GrantFreezeTokens is the entry point for the external reward rule; the
// engine itself only ever consumes tokens.
func (s *StreakService) GrantFreezeTokens(ctx context.Context, clerkID string, streakType streak.Type, count int) (*streak.State, error) {
	if count <= 0 {
		return nil, apperr.Validation("count must be positive")
	}
	if !streak.ValidType(streakType) {
		return nil, apperr.Validation("unknown streak type: %s", streakType)
	}
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	st := &streak.State{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO streaks (id, user_id, type, current_streak, longest_streak, freeze_tokens, updated_at)
		VALUES ($1, $2, $3, 0, 0, $4, NOW())
		ON CONFLICT (user_id, type) DO UPDATE SET
			freeze_tokens = streaks.freeze_tokens + EXCLUDED.freeze_tokens,
			updated_at = NOW()
		RETURNING id, user_id, type, current_streak, longest_streak, last_counted_date, freeze_tokens, updated_at`,
		uuid.New(), userID, streakType, count,
	).Scan(&st.ID, &st.UserID, &st.Type, &st.CurrentStreak, &st.LongestStreak,
		&st.LastCountedDate, &st.FreezeTokens, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to grant freeze tokens: %w", err)
	}
	st.DaysUntilBreak = streak.DaysUntilBreak(st, time.Now())
	return st, nil
}

// advanceStreakTx loads (or creates) the user's streak row under the current
// transaction, applies one qualifying event day, and persists the outcome,
// including the freeze ledger rows for any covered gap days.
func advanceStreakTx(ctx context.Context, tx pgx.Tx, userID uuid.UUID, streakType streak.Type, eventDate time.Time) (*streak.State, error) {
	st := &streak.State{}
	err := tx.QueryRow(ctx, `
		SELECT id, user_id, type, current_streak, longest_streak, last_counted_date, freeze_tokens, updated_at
		FROM streaks
		WHERE user_id = $1 AND type = $2
		FOR UPDATE`,
		userID, streakType,
	).Scan(&st.ID, &st.UserID, &st.Type, &st.CurrentStreak, &st.LongestStreak,
		&st.LastCountedDate, &st.FreezeTokens, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		st = &streak.State{ID: uuid.New(), UserID: userID, Type: streakType}
		_, err = tx.Exec(ctx, `
			INSERT INTO streaks (id, user_id, type, current_streak, longest_streak, freeze_tokens, updated_at)
			VALUES ($1, $2, $3, 0, 0, 0, NOW())`,
			st.ID, userID, streakType,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load streak: %w", err)
	}

	res := streak.Advance(st, utils.DayOf(eventDate))
	if !res.Changed {
		return st, nil
	}

	for _, day := range res.FrozenDates {
		_, err := tx.Exec(ctx, `
			INSERT INTO streak_freezes (user_id, type, frozen_on)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, type, frozen_on) DO NOTHING`,
			userID, streakType, day,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to record freeze: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		UPDATE streaks SET current_streak = $3, longest_streak = $4, last_counted_date = $5,
			freeze_tokens = $6, updated_at = NOW()
		WHERE user_id = $1 AND type = $2`,
		userID, streakType, st.CurrentStreak, st.LongestStreak, st.LastCountedDate, st.FreezeTokens,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}
	return st, nil
}
