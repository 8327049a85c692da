package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	qrcode "github.com/skip2/go-qrcode"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/challenge"
	"swimProgressAPI/internal/types/goal"
	"swimProgressAPI/internal/types/leaderboard"
	"swimProgressAPI/utils"
)

type ChallengeService struct {
	db *pgxpool.Pool
}

func NewChallengeService(db *pgxpool.Pool) *ChallengeService {
	return &ChallengeService{db: db}
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, clerkID string, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	if req.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if req.TargetValue <= 0 {
		return nil, apperr.Validation("target_value must be positive")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, apperr.Validation("end_date is before start_date")
	}
	if req.MaxParticipants < 0 {
		return nil, apperr.Validation("max_participants cannot be negative")
	}
	switch req.Category {
	case challenge.CategoryDistance, challenge.CategorySessions, challenge.CategoryDuration:
	default:
		return nil, apperr.Validation("unknown category %q", req.Category)
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	status := challenge.StatusUpcoming
	if !utils.DayOf(req.StartDate).After(utils.DayOf(time.Now())) {
		status = challenge.StatusActive
	}

	c := &challenge.Challenge{
		ID:              uuid.New(),
		CreatorID:       userID,
		Name:            req.Name,
		Category:        req.Category,
		TargetValue:     req.TargetValue,
		Unit:            req.Unit,
		StartDate:       utils.DayOf(req.StartDate),
		EndDate:         utils.DayOf(req.EndDate),
		MaxParticipants: req.MaxParticipants,
		RewardXP:        req.RewardXP,
		Status:          status,
	}

	err = s.db.QueryRow(ctx, `
		INSERT INTO challenges (id, creator_id, name, category, target_value, unit,
			start_date, end_date, max_participants, reward_xp, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING created_at`,
		c.ID, c.CreatorID, c.Name, c.Category, c.TargetValue, c.Unit,
		c.StartDate, c.EndDate, c.MaxParticipants, c.RewardXP, c.Status,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	// The creator races nobody at creation time.
	if _, err := s.JoinChallenge(ctx, clerkID, c.ID); err != nil {
		return nil, err
	}
	c.ParticipantCount = 1
	return c, nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context, clerkID string) ([]*challenge.Challenge, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.creator_id, c.name, c.category, c.target_value, c.unit,
		       c.start_date, c.end_date, c.max_participants, c.reward_xp, c.status, c.created_at,
		       (SELECT COUNT(*) FROM challenge_participants cp WHERE cp.challenge_id = c.id) AS participants
		FROM challenges c
		WHERE c.status IN ('upcoming', 'active')
		   OR EXISTS (SELECT 1 FROM challenge_participants cp WHERE cp.challenge_id = c.id AND cp.user_id = $1)
		ORDER BY c.start_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	out := make([]*challenge.Challenge, 0)
	for rows.Next() {
		c := &challenge.Challenge{}
		if err := rows.Scan(&c.ID, &c.CreatorID, &c.Name, &c.Category, &c.TargetValue, &c.Unit,
			&c.StartDate, &c.EndDate, &c.MaxParticipants, &c.RewardXP, &c.Status, &c.CreatedAt,
			&c.ParticipantCount); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// JoinChallenge validates status and capacity under a row lock, so two
// concurrent joins for the last slot cannot both land. A repeat join by the
// same user is a no-op success returning the existing participation.
func (s *ChallengeService) JoinChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) (*challenge.Participant, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	c := &challenge.Challenge{}
	err = tx.QueryRow(ctx, `
		SELECT id, status, max_participants, target_value
		FROM challenges WHERE id = $1
		FOR UPDATE`,
		challengeID,
	).Scan(&c.ID, &c.Status, &c.MaxParticipants, &c.TargetValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("challenge not found")
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	if err := c.Joinable(); err != nil {
		return nil, err
	}

	if c.MaxParticipants > 0 {
		var count int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM challenge_participants
			WHERE challenge_id = $1 AND user_id != $2`,
			challengeID, userID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("failed to count participants: %w", err)
		}
		if count >= c.MaxParticipants {
			return nil, apperr.Capacity("challenge is full (%d participants)", c.MaxParticipants)
		}
	}

	// A duplicate join hits the conflict clause and falls through to the
	// existing row below: no-op success, count never moves.
	_, err = tx.Exec(ctx, `
		INSERT INTO challenge_participants (challenge_id, user_id, current_progress, status, joined_at)
		VALUES ($1, $2, 0, 'joined', NOW())
		ON CONFLICT (challenge_id, user_id) DO NOTHING`,
		challengeID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to join challenge: %w", err)
	}

	p := &challenge.Participant{}
	err = tx.QueryRow(ctx, `
		SELECT cp.challenge_id, cp.user_id, u.username, cp.current_progress, cp.status, cp.joined_at
		FROM challenge_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.challenge_id = $1 AND cp.user_id = $2`,
		challengeID, userID,
	).Scan(&p.ChallengeID, &p.UserID, &p.Username, &p.CurrentProgress, &p.Status, &p.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load participation: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	p.ProgressPct = goal.ProgressPercentage(p.CurrentProgress, c.TargetValue)
	return p, nil
}

func (s *ChallengeService) LeaveChallenge(ctx context.Context, clerkID string, challengeID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		DELETE FROM challenge_participants
		WHERE challenge_id = $1 AND user_id = $2`,
		challengeID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to leave challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("not a participant of this challenge")
	}
	return nil
}

type ChallengeDetail struct {
	Challenge    *challenge.Challenge     `json:"challenge"`
	Participants []*challenge.Participant `json:"participants"`
}

// GetChallenge returns the challenge with its participants ranked by the
// shared leaderboard ordering, scoped to this participant set.
func (s *ChallengeService) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*ChallengeDetail, error) {
	c := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, `
		SELECT id, creator_id, name, category, target_value, unit,
		       start_date, end_date, max_participants, reward_xp, status, created_at
		FROM challenges WHERE id = $1`,
		challengeID,
	).Scan(&c.ID, &c.CreatorID, &c.Name, &c.Category, &c.TargetValue, &c.Unit,
		&c.StartDate, &c.EndDate, &c.MaxParticipants, &c.RewardXP, &c.Status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("challenge not found")
		}
		return nil, fmt.Errorf("failed to load challenge: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT cp.challenge_id, cp.user_id, u.username, cp.current_progress, cp.status, cp.joined_at,
		       us.last_activity_at
		FROM challenge_participants cp
		JOIN users u ON u.id = cp.user_id
		LEFT JOIN user_stats us ON us.user_id = cp.user_id
		WHERE cp.challenge_id = $1`,
		challengeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*challenge.Participant, 0)
	entries := make([]*leaderboard.Entry, 0)
	byUser := make(map[uuid.UUID]*challenge.Participant)
	for rows.Next() {
		p := &challenge.Participant{}
		var lastActivity *time.Time
		if err := rows.Scan(&p.ChallengeID, &p.UserID, &p.Username, &p.CurrentProgress, &p.Status,
			&p.JoinedAt, &lastActivity); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.ProgressPct = goal.ProgressPercentage(p.CurrentProgress, c.TargetValue)
		participants = append(participants, p)
		byUser[p.UserID] = p
		entries = append(entries, &leaderboard.Entry{
			UserID:         p.UserID,
			Username:       p.Username,
			Value:          p.CurrentProgress,
			LastActivityAt: lastActivity,
		})
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	leaderboard.AssignRanks(entries)
	ranked := make([]*challenge.Participant, 0, len(entries))
	for _, e := range entries {
		p := byUser[e.UserID]
		p.Rank = e.Rank
		ranked = append(ranked, p)
	}
	c.ParticipantCount = len(ranked)

	return &ChallengeDetail{Challenge: c, Participants: ranked}, nil
}

// GetInvite builds the share link and QR for a challenge.
func (s *ChallengeService) GetInvite(ctx context.Context, challengeID uuid.UUID) (*challenge.Invite, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM challenges WHERE id = $1)`, challengeID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check challenge: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("challenge not found")
	}

	code := challengeID.String()
	link := fmt.Sprintf("swimprogress://challenge_screen?inviteCode=%s", code)
	pngBytes, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR png: %w", err)
	}

	return &challenge.Invite{
		ChallengeID:  challengeID,
		InviteCode:   code,
		ShareLink:    link,
		QrCodeBase64: base64.StdEncoding.EncodeToString(pngBytes),
	}, nil
}
