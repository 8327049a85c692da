package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimProgressAPI/handlers"
	"swimProgressAPI/internal/types/user"
	"swimProgressAPI/middleware"
	"swimProgressAPI/services"
	"swimProgressAPI/tests/helpers"
)

func TestGetLevel_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	levelService := services.NewLevelService(pool)
	levelHandler := handlers.NewLevelHandler(levelService)

	ctx := context.Background()
	clerkID := helpers.UniqueClerkID("auth")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testauth@example.com",
		Username: "testauth",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/level", nil)
	// Simulate the auth middleware having resolved the token.
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))

	rr := httptest.NewRecorder()
	levelHandler.GetLevel(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var payload struct {
		State struct {
			CurrentLevel int    `json:"current_level"`
			Title        string `json:"title"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	assert.Equal(t, 1, payload.State.CurrentLevel)
	assert.Equal(t, "Minnow", payload.State.Title)
}

func TestGetLevel_Unauthenticated(t *testing.T) {
	levelHandler := handlers.NewLevelHandler(services.NewLevelService(nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/level", nil)
	rr := httptest.NewRecorder()
	levelHandler.GetLevel(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGenerateMockClerkJWT(t *testing.T) {
	token, err := helpers.GenerateMockClerkJWT("user_test_123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
