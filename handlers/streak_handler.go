package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"swimProgressAPI/internal/types/streak"
	"swimProgressAPI/middleware"
	"swimProgressAPI/services"
)

type StreakHandler struct {
	streakService *services.StreakService
}

func NewStreakHandler(streakService *services.StreakService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
	}
}

func (h *StreakHandler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	streaks, err := h.streakService.GetStreaks(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch streaks")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"streaks": streaks})
}

func (h *StreakHandler) GrantFreezeTokens(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		StreakType string `json:"streak_type"`
		Tokens     int    `json:"tokens"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.streakService.GrantFreezeTokens(ctx, clerkID, streak.Type(req.StreakType), req.Tokens)
	if err != nil {
		respondWithAppError(w, err, "Failed to grant freeze tokens")
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}
