package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ClerkID     string    `json:"clerk_id" db:"clerk_id"`
	Email       string    `json:"email" db:"email"`
	Username    string    `json:"username" db:"username"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
	TotalXP     int       `json:"total_xp" db:"total_xp"`
	Points      int       `json:"points" db:"points"`
	BadgePoints int       `json:"badge_points" db:"badge_points"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type CreateUserRequest struct {
	ClerkID  string  `json:"clerk_id"`
	Email    string  `json:"email"`
	Username string  `json:"username"`
	ImageURL *string `json:"image_url"`
}
