package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/internal/types/leaderboard"
	"swimProgressAPI/middleware"
	"swimProgressAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	metric := leaderboard.Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = leaderboard.MetricXP
	}
	stroke := activity.Stroke(r.URL.Query().Get("stroke"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	board, err := h.leaderboardService.GetLeaderboard(ctx, metric, stroke, limit)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetMyRank(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	metric := leaderboard.Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = leaderboard.MetricXP
	}
	stroke := activity.Stroke(r.URL.Query().Get("stroke"))

	rank, err := h.leaderboardService.GetMyRank(ctx, clerkID, metric, stroke)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch rank")
		return
	}

	respondWithJSON(w, http.StatusOK, rank)
}
