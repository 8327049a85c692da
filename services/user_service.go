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
	"swimProgressAPI/internal/types/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

// CreateUser provisions a user from the Clerk webhook. Retries of the same
// webhook are a no-op: the clerk id is unique and the existing row wins.
func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:       uuid.New(),
		ClerkID:  req.ClerkID,
		Email:    req.Email,
		Username: req.Username,
		ImageURL: req.ImageURL,
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	ON CONFLICT (clerk_id) DO UPDATE SET
		email = EXCLUDED.email,
		username = EXCLUDED.username,
		image_url = EXCLUDED.image_url,
		updated_at = NOW()
	RETURNING id, clerk_id, email, username, image_url, total_xp, points, badge_points, created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query, u.ID, u.ClerkID, u.Email, u.Username, u.ImageURL).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.ImageURL,
		&u.TotalXP,
		&u.Points,
		&u.BadgePoints,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, image_url, total_xp, points, badge_points, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.ImageURL,
		&u.TotalXP,
		&u.Points,
		&u.BadgePoints,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx, so lookups work
// inside and outside transactions.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// userIDByClerkID resolves an internal user id; every service leans on this.
func userIDByClerkID(ctx context.Context, q queryRower, clerkID string) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperr.NotFound("user not found")
		}
		return uuid.Nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, nil
}

// touchUpdatedAt keeps users.updated_at honest after engine-side mutations.
func touchUpdatedAt(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, userID, time.Now())
	return err
}
