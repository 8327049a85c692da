package integration

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimProgressAPI/handlers"
	"swimProgressAPI/services"
	"swimProgressAPI/tests/helpers"
)

func TestClerkWebhook_UserLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	// No secret set: the handler skips signature verification.
	os.Unsetenv("CLERK_WEBHOOK_SECRET")

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	clerkID := helpers.UniqueClerkID("hook")

	// user.created
	body := helpers.MockClerkWebhookPayload("user.created", clerkID)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	created, err := userService.GetUserByClerkID(req.Context(), clerkID)
	require.NoError(t, err)
	assert.Equal(t, clerkID, created.ClerkID)

	// Replaying user.created is an idempotent upsert, not an error.
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	// user.deleted removes the row.
	body = helpers.MockClerkWebhookPayload("user.deleted", clerkID)
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	_, err = userService.GetUserByClerkID(req.Context(), clerkID)
	assert.Error(t, err, "deleted user should not resolve")
}

func TestClerkWebhook_BadSignatureRejected(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	os.Setenv("CLERK_WEBHOOK_SECRET", "whsec_test")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	userService := services.NewUserService(pool)
	webhookHandler := handlers.NewWebhookHandler(userService)

	body := helpers.MockClerkWebhookPayload("user.created", helpers.UniqueClerkID("sig"))
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	req.Header.Set("svix-id", "msg_test")
	req.Header.Set("svix-timestamp", "1700000000")
	req.Header.Set("svix-signature", "v1,deadbeef")

	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
