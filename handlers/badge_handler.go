package handlers

import (
	"context"
	"net/http"
	"time"

	"swimProgressAPI/internal/types/badge"
	"swimProgressAPI/middleware"
	"swimProgressAPI/services"
)

type BadgeHandler struct {
	badgeService *services.BadgeService
}

func NewBadgeHandler(badgeService *services.BadgeService) *BadgeHandler {
	return &BadgeHandler{
		badgeService: badgeService,
	}
}

// GetCatalog serves the badge definitions. No auth, no earned status.
func (h *BadgeHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"badges": badge.Catalog})
}

// GetMyBadges serves every badge with the caller's earned flag and date.
func (h *BadgeHandler) GetMyBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	badges, err := h.badgeService.GetCatalog(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch badges")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}

// GetEarnedBadges is the trophy-case view, earned badges only.
func (h *BadgeHandler) GetEarnedBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	badges, err := h.badgeService.GetMyBadges(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch badges")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"badges": badges})
}

func (h *BadgeHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	stats, err := h.badgeService.GetStats(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

// GetPeriodStats serves week/month/year/all-time activity breakdowns.
func (h *BadgeHandler) GetPeriodStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	periods, err := h.badgeService.GetPeriodStats(ctx, clerkID)
	if err != nil {
		respondWithAppError(w, err, "Failed to fetch period stats")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"periods": periods})
}
