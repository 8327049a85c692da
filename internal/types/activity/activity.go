package activity

import (
	"time"

	"github.com/google/uuid"

	"swimProgressAPI/internal/apperr"
	"swimProgressAPI/utils"
)

type Stroke string

const (
	StrokeFreestyle    Stroke = "freestyle"
	StrokeBackstroke   Stroke = "backstroke"
	StrokeBreaststroke Stroke = "breaststroke"
	StrokeButterfly    Stroke = "butterfly"
	StrokeMedley       Stroke = "medley"
)

var knownStrokes = map[Stroke]bool{
	StrokeFreestyle:    true,
	StrokeBackstroke:   true,
	StrokeBreaststroke: true,
	StrokeButterfly:    true,
	StrokeMedley:       true,
}

// IngestRequest is the raw payload from the client. EventID is the
// idempotency key: re-sending the same id must not double-count.
type IngestRequest struct {
	EventID         string         `json:"event_id"`
	OccurredAt      time.Time      `json:"occurred_at"`
	DistanceMeters  int            `json:"distance_meters"`
	DurationSeconds int            `json:"duration_seconds"`
	StrokeBreakdown map[Stroke]int `json:"stroke_breakdown,omitempty"`
	Calories        *int           `json:"calories,omitempty"`
}

// Event is the canonical, validated activity event handed to every
// downstream component. Immutable once ingested.
type Event struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	UserID          uuid.UUID      `json:"user_id" db:"user_id"`
	OccurredOn      time.Time      `json:"occurred_on" db:"occurred_on"`
	DistanceMeters  int            `json:"distance_meters" db:"distance_m"`
	DurationSeconds int            `json:"duration_seconds" db:"duration_s"`
	StrokeBreakdown map[Stroke]int `json:"stroke_breakdown" db:"stroke_breakdown"`
	Calories        *int           `json:"calories,omitempty" db:"calories"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}

// Normalize validates the raw payload and produces the canonical event.
// Pure transform, no side effects; every violation is a validation error.
func Normalize(req *IngestRequest, userID uuid.UUID, now time.Time) (*Event, error) {
	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		return nil, apperr.Validation("event_id must be a valid uuid")
	}
	if req.DistanceMeters <= 0 {
		return nil, apperr.Validation("distance_meters must be positive")
	}
	if req.DurationSeconds <= 0 {
		return nil, apperr.Validation("duration_seconds must be positive")
	}
	if req.OccurredAt.IsZero() {
		return nil, apperr.Validation("occurred_at is required")
	}
	if utils.DayOf(req.OccurredAt).After(utils.DayOf(now)) {
		return nil, apperr.Validation("occurred_at cannot be in the future")
	}

	if len(req.StrokeBreakdown) > 0 {
		sum := 0
		for stroke, meters := range req.StrokeBreakdown {
			if !knownStrokes[stroke] {
				return nil, apperr.Validation("unknown stroke %q", stroke)
			}
			if meters < 0 {
				return nil, apperr.Validation("stroke %q has negative distance", stroke)
			}
			sum += meters
		}
		if sum != req.DistanceMeters {
			return nil, apperr.Validation("stroke distances sum to %d, total is %d", sum, req.DistanceMeters)
		}
	}
	if req.Calories != nil && *req.Calories < 0 {
		return nil, apperr.Validation("calories cannot be negative")
	}

	return &Event{
		ID:              eventID,
		UserID:          userID,
		OccurredOn:      utils.DayOf(req.OccurredAt),
		DistanceMeters:  req.DistanceMeters,
		DurationSeconds: req.DurationSeconds,
		StrokeBreakdown: req.StrokeBreakdown,
		Calories:        req.Calories,
	}, nil
}
