package handlers

import (
	"context"
	"net/http"
	"time"

	"swimProgressAPI/middleware"
	"swimProgressAPI/services"
)

type LevelHandler struct {
	levelService *services.LevelService
}

func NewLevelHandler(levelService *services.LevelService) *LevelHandler {
	return &LevelHandler{
		levelService: levelService,
	}
}

func (h *LevelHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	state, err := h.levelService.GetLevelState(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch level")
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}
