package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"swimProgressAPI/internal/types/level"
)

type LevelService struct {
	db *pgxpool.Pool
}

func NewLevelService(db *pgxpool.Pool) *LevelService {
	return &LevelService{db: db}
}

type LevelResponse struct {
	State level.State        `json:"state"`
	Table []level.Definition `json:"table"`
}

// GetLevelState derives the level from the XP balance on every read; no
// stored level counter exists to drift.
func (s *LevelService) GetLevelState(ctx context.Context, clerkID string) (*LevelResponse, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	var totalXP int
	if err := s.db.QueryRow(ctx, `SELECT total_xp FROM users WHERE id = $1`, userID).Scan(&totalXP); err != nil {
		return nil, fmt.Errorf("failed to load xp: %w", err)
	}

	return &LevelResponse{
		State: level.Derive(totalXP),
		Table: level.Table,
	}, nil
}
