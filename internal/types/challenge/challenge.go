package challenge

import (
	"time"

	"github.com/google/uuid"

	"swimProgressAPI/internal/apperr"
)

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type Category string

const (
	CategoryDistance Category = "distance"
	CategorySessions Category = "sessions"
	CategoryDuration Category = "duration"
)

type Challenge struct {
	ID               uuid.UUID `json:"id" db:"id"`
	CreatorID        uuid.UUID `json:"creator_id" db:"creator_id"`
	Name             string    `json:"name" db:"name"`
	Category         Category  `json:"category" db:"category"`
	TargetValue      int       `json:"target_value" db:"target_value"`
	Unit             string    `json:"unit" db:"unit"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	EndDate          time.Time `json:"end_date" db:"end_date"`
	MaxParticipants  int       `json:"max_participants" db:"max_participants"` // 0 = unlimited
	RewardXP         int       `json:"reward_xp" db:"reward_xp"`
	Status           Status    `json:"status" db:"status"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	ParticipantCount int       `json:"participant_count"`
}

type ParticipantStatus string

const (
	ParticipantJoined    ParticipantStatus = "joined"
	ParticipantCompleted ParticipantStatus = "completed"
)

type Participant struct {
	ChallengeID     uuid.UUID         `json:"challenge_id" db:"challenge_id"`
	UserID          uuid.UUID         `json:"user_id" db:"user_id"`
	Username        string            `json:"username"`
	CurrentProgress int               `json:"current_progress" db:"current_progress"`
	ProgressPct     int               `json:"progress_percentage"`
	Status          ParticipantStatus `json:"status" db:"status"`
	JoinedAt        time.Time         `json:"joined_at" db:"joined_at"`
	Rank            int               `json:"rank"`
}

type CreateChallengeRequest struct {
	Name            string    `json:"name"`
	Category        Category  `json:"category"`
	TargetValue     int       `json:"target_value"`
	Unit            string    `json:"unit"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	MaxParticipants int       `json:"max_participants"`
	RewardXP        int       `json:"reward_xp"`
}

type Invite struct {
	ChallengeID  uuid.UUID `json:"challenge_id"`
	InviteCode   string    `json:"invite_code"`
	ShareLink    string    `json:"share_link"`
	QrCodeBase64 string    `json:"qr_code_base64"`
}

// Joinable rejects joins the state machine forbids. Capacity is checked
// separately against a live participant count.
func (c *Challenge) Joinable() error {
	if c.Status != StatusUpcoming && c.Status != StatusActive {
		return apperr.InvalidState("challenge is %s, joining is closed", c.Status)
	}
	return nil
}
