package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/challenge"
	"swimProgressAPI/internal/types/user"
	"swimProgressAPI/services"
	"swimProgressAPI/tests/helpers"
)

func createTestUser(t *testing.T, svc *services.UserService, tag string) string {
	t.Helper()
	clerkID := helpers.UniqueClerkID(tag)
	_, err := svc.CreateUser(context.Background(), &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "test" + clerkID + "@example.com",
		Username: tag + "-" + clerkID,
	})
	require.NoError(t, err)
	return clerkID
}

func TestChallengeJoin_CapacityAndIdempotence(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	challengeService := services.NewChallengeService(pool)

	ctx := context.Background()
	creator := createTestUser(t, userService, "creator")
	second := createTestUser(t, userService, "second")
	third := createTestUser(t, userService, "third")

	// Capacity 2: the creator occupies one slot on creation.
	created, err := challengeService.CreateChallenge(ctx, creator, &challenge.CreateChallengeRequest{
		Name:            "March Distance Derby",
		Category:        challenge.CategoryDistance,
		TargetValue:     10_000,
		Unit:            "meters",
		StartDate:       time.Now().AddDate(0, 0, -1),
		EndDate:         time.Now().AddDate(0, 0, 13),
		MaxParticipants: 2,
		RewardXP:        250,
	})
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusActive, created.Status)

	p, err := challengeService.JoinChallenge(ctx, second, created.ID)
	require.NoError(t, err)
	assert.Equal(t, challenge.ParticipantJoined, p.Status)

	// Joining again is a no-op success, not a second slot.
	again, err := challengeService.JoinChallenge(ctx, second, created.ID)
	require.NoError(t, err)
	assert.Equal(t, p.JoinedAt.Unix(), again.JoinedAt.Unix())

	// The challenge is now full.
	_, err = challengeService.JoinChallenge(ctx, third, created.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindCapacity), "got %v", err)

	// Leaving frees the slot.
	require.NoError(t, challengeService.LeaveChallenge(ctx, second, created.ID))
	_, err = challengeService.JoinChallenge(ctx, third, created.ID)
	require.NoError(t, err)

	detail, err := challengeService.GetChallenge(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Participants, 2)

	invite, err := challengeService.GetInvite(ctx, created.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, invite.QrCodeBase64)
	assert.Contains(t, invite.ShareLink, created.ID.String())
}
