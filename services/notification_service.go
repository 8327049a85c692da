package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/badge"
	"swimProgressAPI/internal/types/goal"
	"swimProgressAPI/internal/types/level"
	"swimProgressAPI/internal/types/notification"
)

// PushProvider is what the FCM integration implements. Push is best-effort:
// a row always lands in the notifications table, delivery may not.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db   *pgxpool.Pool
	push PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.push = p
}

func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	n := &notification.Notification{
		ID:     uuid.New(),
		UserID: req.UserID,
		Type:   req.Type,
		Title:  req.Title,
		Body:   req.Body,
		Data:   req.Data,
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, data, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, NOW())
		RETURNING created_at`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.Data,
	).Scan(&n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.push != nil {
		tokens, err := s.deviceTokens(ctx, req.UserID)
		if err != nil {
			log.Printf("Failed to load device tokens for %s: %v", req.UserID, err)
		} else if err := s.push.SendPush(ctx, tokens, n.Title, n.Body, n.Data); err != nil {
			log.Printf("Push delivery failed for %s: %v", req.UserID, err)
		}
	}

	return n, nil
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string, limit int) (*notification.ListResponse, error) {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, type, title, body, data, read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	resp := &notification.ListResponse{Notifications: make([]*notification.Notification, 0)}
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Data, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		resp.Notifications = append(resp.Notifications, n)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`,
		userID,
	).Scan(&resp.UnreadCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread: %w", err)
	}
	return resp, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, clerkID string, notificationID uuid.UUID) error {
	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found")
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	if req.Token == "" {
		return apperr.Validation("token is required")
	}
	switch req.Platform {
	case "ios", "android", "web":
	default:
		return apperr.Validation("platform must be ios, android or web")
	}

	userID, err := userIDByClerkID(ctx, s.db, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO user_devices (user_id, token, platform, registered_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, registered_at = NOW()`,
		userID, req.Token, req.Platform,
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `
		SELECT token, platform FROM user_devices WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// Trigger helpers below run as fire-and-forget goroutines after the
// triggering transaction commits; they must never fail that request.

func (s *NotificationService) trigger(req *notification.CreateNotificationRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.CreateNotification(ctx, req); err != nil {
		log.Printf("Notification trigger %s failed for %s: %v", req.Type, req.UserID, err)
	}
}

func (s *NotificationService) BadgeEarnedTrigger(userID uuid.UUID, b badge.Badge) {
	s.trigger(&notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeBadgeEarned,
		Title:  "Badge earned!",
		Body:   fmt.Sprintf("%s %s: %s", b.Icon, b.Name, b.Description),
		Data:   map[string]any{"badge_key": b.Key, "tier": string(b.Tier), "points": b.Points},
	})
}

func (s *NotificationService) StreakMilestoneTrigger(userID uuid.UUID, days int) {
	s.trigger(&notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeStreakMilestone,
		Title:  "Streak milestone!",
		Body:   fmt.Sprintf("%d days in the water and counting", days),
		Data:   map[string]any{"days": days},
	})
}

func (s *NotificationService) LevelUpTrigger(userID uuid.UUID, st level.State) {
	s.trigger(&notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeLevelUp,
		Title:  fmt.Sprintf("Level %d reached", st.CurrentLevel),
		Body:   fmt.Sprintf("You are now a %s", st.Title),
		Data:   map[string]any{"level": st.CurrentLevel, "title": st.Title},
	})
}

func (s *NotificationService) ChallengeCompletedTrigger(userID uuid.UUID, challengeID uuid.UUID) {
	s.trigger(&notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeChallengeCompleted,
		Title:  "Challenge completed!",
		Body:   "You hit the challenge target. Check your rank.",
		Data:   map[string]any{"challenge_id": challengeID.String()},
	})
}

func (s *NotificationService) GoalCompletedTrigger(userID uuid.UUID, g *goal.Goal) {
	s.trigger(&notification.CreateNotificationRequest{
		UserID: userID,
		Type:   notification.TypeGoalCompleted,
		Title:  "Goal completed!",
		Body:   fmt.Sprintf("%s goal done: %d %s", g.Type, g.TargetValue, g.Unit),
		Data:   map[string]any{"goal_id": g.ID.String(), "reward_xp": g.RewardXP},
	})
}
