package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/internal/types/activity"
	"swimProgressAPI/middleware"
	"swimProgressAPI/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
}

func NewActivityHandler(activityService *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
	}
}

func (h *ActivityHandler) IngestActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req activity.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.activityService.IngestActivity(ctx, clerkID, &req)
	if err != nil {
		middleware.EventsIngested.WithLabelValues("rejected").Inc()
		respondWithAppError(w, err, "Failed to ingest activity")
		return
	}

	if result.Duplicate {
		middleware.EventsIngested.WithLabelValues("duplicate").Inc()
		respondWithJSON(w, http.StatusOK, result)
		return
	}

	middleware.EventsIngested.WithLabelValues("processed").Inc()
	middleware.BadgesAwarded.Add(float64(len(result.NewBadges)))
	respondWithJSON(w, http.StatusCreated, result)
}

// Helper functions

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithAppError maps classified engine errors to their status; anything
// unclassified logs and reads as a 500 with the fallback message.
func respondWithAppError(w http.ResponseWriter, err error, fallback string) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		respondWithJSON(w, apperr.HTTPStatus(err), map[string]string{
			"error": ae.Message,
			"kind":  string(ae.Kind),
		})
		return
	}
	log.Printf("Unhandled service error: %v", err)
	respondWithError(w, http.StatusInternalServerError, fallback)
}
