package activity

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"swimProgressAPI/internal/apperr"
)

var testNow = time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)

func validRequest() *IngestRequest {
	return &IngestRequest{
		EventID:         uuid.NewString(),
		OccurredAt:      testNow.Add(-2 * time.Hour),
		DistanceMeters:  1500,
		DurationSeconds: 1800,
	}
}

func TestNormalizeValid(t *testing.T) {
	userID := uuid.New()
	req := validRequest()
	req.StrokeBreakdown = map[Stroke]int{
		StrokeFreestyle: 1000,
		StrokeButterfly: 500,
	}

	ev, err := Normalize(req, userID, testNow)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if ev.UserID != userID {
		t.Errorf("UserID = %v, want %v", ev.UserID, userID)
	}
	if ev.DistanceMeters != 1500 || ev.DurationSeconds != 1800 {
		t.Errorf("totals not carried over: %+v", ev)
	}
	wantDay := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	if !ev.OccurredOn.Equal(wantDay) {
		t.Errorf("OccurredOn = %v, want %v", ev.OccurredOn, wantDay)
	}
}

func TestNormalizeRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*IngestRequest)
	}{
		{"bad event id", func(r *IngestRequest) { r.EventID = "not-a-uuid" }},
		{"zero distance", func(r *IngestRequest) { r.DistanceMeters = 0 }},
		{"negative duration", func(r *IngestRequest) { r.DurationSeconds = -5 }},
		{"missing occurred_at", func(r *IngestRequest) { r.OccurredAt = time.Time{} }},
		{"future day", func(r *IngestRequest) { r.OccurredAt = testNow.AddDate(0, 0, 1) }},
		{"unknown stroke", func(r *IngestRequest) {
			r.StrokeBreakdown = map[Stroke]int{"doggy_paddle": 1500}
		}},
		{"negative stroke distance", func(r *IngestRequest) {
			r.StrokeBreakdown = map[Stroke]int{StrokeFreestyle: 1600, StrokeMedley: -100}
		}},
		{"breakdown sum mismatch", func(r *IngestRequest) {
			r.StrokeBreakdown = map[Stroke]int{StrokeFreestyle: 1000}
		}},
		{"negative calories", func(r *IngestRequest) {
			neg := -10
			r.Calories = &neg
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validRequest()
			c.mutate(req)
			_, err := Normalize(req, uuid.New(), testNow)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("error kind = %v, want validation", err)
			}
		})
	}
}

func TestNormalizeFutureClockSameDay(t *testing.T) {
	// Later clock time on the same calendar day is fine.
	req := validRequest()
	req.OccurredAt = testNow.Add(3 * time.Hour)
	if _, err := Normalize(req, uuid.New(), testNow); err != nil {
		t.Errorf("same-day later clock time rejected: %v", err)
	}
}
