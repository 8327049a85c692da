package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"swimProgressAPI/internal/types/goal"
	"swimProgressAPI/middleware"
	"swimProgressAPI/services"
)

type GoalHandler struct {
	goalService   *services.GoalService
	streakService *services.StreakService
}

func NewGoalHandler(goalService *services.GoalService, streakService *services.StreakService) *GoalHandler {
	return &GoalHandler{
		goalService:   goalService,
		streakService: streakService,
	}
}

func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req goal.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.goalService.CreateGoal(ctx, clerkID, &req)
	if err != nil {
		respondWithAppError(w, err, "Failed to create goal")
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	status := goal.Status(r.URL.Query().Get("status"))

	goals, err := h.goalService.ListGoals(ctx, clerkID, status)
	if err != nil {
		respondWithAppError(w, err, "Failed to list goals")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"goals": goals})
}

func (h *GoalHandler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goalID, err := uuid.Parse(mux.Vars(r)["goalId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	completed, xpGranted, err := h.goalService.CompleteGoal(ctx, clerkID, goalID)
	if err != nil {
		respondWithAppError(w, err, "Failed to complete goal")
		return
	}

	middleware.GoalsCompleted.Inc()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"goal":       completed,
		"xp_granted": xpGranted,
	})
}

func (h *GoalHandler) CancelGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goalID, err := uuid.Parse(mux.Vars(r)["goalId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	if err := h.goalService.CancelGoal(ctx, clerkID, goalID); err != nil {
		respondWithAppError(w, err, "Failed to cancel goal")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	goalID, err := uuid.Parse(mux.Vars(r)["goalId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	if err := h.goalService.DeleteGoal(ctx, clerkID, goalID); err != nil {
		respondWithAppError(w, err, "Failed to delete goal")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *GoalHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	dashboard, err := h.goalService.GetDashboard(ctx, clerkID, h.streakService)
	if err != nil {
		respondWithAppError(w, err, "Failed to load dashboard")
		return
	}

	respondWithJSON(w, http.StatusOK, dashboard)
}
