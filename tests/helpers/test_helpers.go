package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB connects to the test database, skipping the test when no
// database is configured so the suite stays runnable on a bare checkout.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes the rows a test created. User rows cascade to
// events, goals, streaks, badges and notifications.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// UniqueClerkID builds a clerk id that will not collide across test runs.
func UniqueClerkID(prefix string) string {
	return fmt.Sprintf("user_%s_%s", prefix, uuid.NewString()[:8])
}

// GenerateMockClerkJWT generates a mock JWT token for testing
func GenerateMockClerkJWT(clerkID string) (string, error) {
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// MockClerkWebhookPayload builds the webhook body Clerk would send.
func MockClerkWebhookPayload(eventType string, clerkID string) []byte {
	switch eventType {
	case "user.created", "user.updated":
		return []byte(fmt.Sprintf(`{
			"type": "%s",
			"data": {
				"id": "%s",
				"username": "testswimmer",
				"first_name": "Test",
				"last_name": "Swimmer",
				"image_url": "https://example.com/avatar.png",
				"email_addresses": [
					{"email_address": "test%s@example.com", "verification": {"status": "verified"}}
				]
			}
		}`, eventType, clerkID, clerkID))
	case "user.deleted":
		return []byte(fmt.Sprintf(`{
			"type": "user.deleted",
			"data": {"id": "%s"}
		}`, clerkID))
	}
	return []byte(`{}`)
}
