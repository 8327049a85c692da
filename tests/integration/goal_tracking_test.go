package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/internal/types/challenge"
	"swimProgressAPI/internal/types/goal"
	"swimProgressAPI/internal/types/user"
	"swimProgressAPI/services"
	"swimProgressAPI/tests/helpers"
)

func TestStreakGoal_TracksConsecutiveDays(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	activityService := services.NewActivityService(pool, nil)
	goalService := services.NewGoalService(pool, nil)

	ctx := context.Background()
	clerkID := helpers.UniqueClerkID("streakgoal")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "teststreakgoal@example.com",
		Username: "teststreakgoal",
	})
	require.NoError(t, err)

	created, err := goalService.CreateGoal(ctx, clerkID, &goal.CreateGoalRequest{
		Type:        goal.TypeStreak,
		TargetValue: 3,
		Unit:        "days",
		StartDate:   time.Now().AddDate(0, 0, -3),
		EndDate:     time.Now().AddDate(0, 0, 7),
		RewardXP:    150,
	})
	require.NoError(t, err)

	// Three swims on consecutive days build a 3-day streak.
	var last *services.IngestResult
	for d := 2; d >= 0; d-- {
		last, err = activityService.IngestActivity(ctx, clerkID, &activity.IngestRequest{
			EventID:         uuid.NewString(),
			OccurredAt:      time.Now().AddDate(0, 0, -d),
			DistanceMeters:  1000,
			DurationSeconds: 1200,
		})
		require.NoError(t, err)
	}
	require.NotNil(t, last.Streak)
	require.Equal(t, 3, last.Streak.CurrentStreak)

	var tracked *goal.Goal
	for _, g := range last.UpdatedGoals {
		if g.ID == created.ID {
			tracked = g
		}
	}
	require.NotNil(t, tracked, "streak goal should follow the streak tracker")
	assert.Equal(t, 3, tracked.CurrentValue)
	assert.True(t, tracked.Completable)

	completed, xp, err := goalService.CompleteGoal(ctx, clerkID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, goal.StatusCompleted, completed.Status)
	assert.GreaterOrEqual(t, xp, 150)
}

func TestChallengeLinkedGoal_MirrorsChallengeProgress(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	activityService := services.NewActivityService(pool, nil)
	goalService := services.NewGoalService(pool, nil)
	challengeService := services.NewChallengeService(pool)

	ctx := context.Background()
	clerkID := helpers.UniqueClerkID("chalgoal")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testchalgoal@example.com",
		Username: "testchalgoal",
	})
	require.NoError(t, err)

	// The creator joins at creation time, so ingests count immediately.
	c, err := challengeService.CreateChallenge(ctx, clerkID, &challenge.CreateChallengeRequest{
		Name:        "2k sprint",
		Category:    challenge.CategoryDistance,
		TargetValue: 2000,
		Unit:        "meters",
		StartDate:   time.Now().AddDate(0, 0, -1),
		EndDate:     time.Now().AddDate(0, 0, 7),
		RewardXP:    80,
	})
	require.NoError(t, err)
	require.Equal(t, challenge.StatusActive, c.Status)

	created, err := goalService.CreateGoal(ctx, clerkID, &goal.CreateGoalRequest{
		Type:        goal.TypeChallengeLinked,
		TargetValue: 2000,
		Unit:        "meters",
		StartDate:   time.Now().AddDate(0, 0, -1),
		EndDate:     time.Now().AddDate(0, 0, 7),
		RewardXP:    50,
		ChallengeID: &c.ID,
	})
	require.NoError(t, err)

	res, err := activityService.IngestActivity(ctx, clerkID, &activity.IngestRequest{
		EventID:         uuid.NewString(),
		OccurredAt:      time.Now(),
		DistanceMeters:  2500,
		DurationSeconds: 1800,
	})
	require.NoError(t, err)
	assert.Contains(t, res.CompletedChallenges, c.ID)

	// The goal mirrors the capped participant progress, not the raw swim.
	var tracked *goal.Goal
	for _, g := range res.UpdatedGoals {
		if g.ID == created.ID {
			tracked = g
		}
	}
	require.NotNil(t, tracked, "challenge-linked goal should follow the challenge tracker")
	assert.Equal(t, 2000, tracked.CurrentValue)
	assert.True(t, tracked.Completable)
}

func TestDeleteGoal_TerminalOnly(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	userService := services.NewUserService(pool)
	goalService := services.NewGoalService(pool, nil)

	ctx := context.Background()
	clerkID := helpers.UniqueClerkID("delgoal")

	_, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:  clerkID,
		Email:    "testdelgoal@example.com",
		Username: "testdelgoal",
	})
	require.NoError(t, err)

	created, err := goalService.CreateGoal(ctx, clerkID, &goal.CreateGoalRequest{
		Type:        goal.TypeWeeklyDistance,
		TargetValue: 5000,
		Unit:        "meters",
		StartDate:   time.Now(),
		EndDate:     time.Now().AddDate(0, 0, 7),
		RewardXP:    100,
	})
	require.NoError(t, err)

	err = goalService.DeleteGoal(ctx, clerkID, created.ID)
	require.Error(t, err, "active goals are not deletable")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	require.NoError(t, goalService.CancelGoal(ctx, clerkID, created.ID))
	require.NoError(t, goalService.DeleteGoal(ctx, clerkID, created.ID))

	goals, err := goalService.ListGoals(ctx, clerkID, "")
	require.NoError(t, err)
	for _, g := range goals {
		assert.NotEqual(t, created.ID, g.ID, "deleted goal must not be listed")
	}

	err = goalService.DeleteGoal(ctx, clerkID, created.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
