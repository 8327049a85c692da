package goal

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"swimProgressAPI/internal/types/activity"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestProgressPercentage(t *testing.T) {
	cases := []struct {
		current, target, want int
	}{
		{0, 1000, 0},
		{-5, 1000, 0},
		{500, 1000, 50},
		{1000, 1000, 100},
		{1500, 1000, 100}, // overshoot clamps
		{333, 1000, 33},
		{1, 3, 33},
		{2, 3, 67}, // rounded, not truncated
		{5, 0, 100},
	}
	for _, c := range cases {
		if got := ProgressPercentage(c.current, c.target); got != c.want {
			t.Errorf("ProgressPercentage(%d, %d) = %d, want %d", c.current, c.target, got, c.want)
		}
	}
}

func activeGoal(typ Type) *Goal {
	return &Goal{
		Type:        typ,
		TargetValue: 10_000,
		Status:      StatusActive,
		StartDate:   day(2025, time.March, 1),
		EndDate:     day(2025, time.March, 31),
	}
}

func sampleEvent() *activity.Event {
	return &activity.Event{
		OccurredOn:      day(2025, time.March, 14),
		DistanceMeters:  2000,
		DurationSeconds: 1800,
		StrokeBreakdown: map[activity.Stroke]int{
			activity.StrokeFreestyle: 1500,
			activity.StrokeButterfly: 500,
		},
	}
}

func TestContributionByType(t *testing.T) {
	ev := sampleEvent()
	fly := activity.StrokeButterfly

	cases := []struct {
		name string
		goal *Goal
		want int
	}{
		{"weekly distance", activeGoal(TypeWeeklyDistance), 2000},
		{"monthly distance", activeGoal(TypeMonthlyDistance), 2000},
		{"session count", activeGoal(TypeSessionCount), 1},
		{"duration in minutes", activeGoal(TypeDuration), 30},
		{"streak moves via its own tracker", activeGoal(TypeStreak), 0},
		{"challenge linked moves via its own tracker", activeGoal(TypeChallengeLinked), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Contribution(c.goal, ev); got != c.want {
				t.Errorf("Contribution = %d, want %d", got, c.want)
			}
		})
	}

	stroke := activeGoal(TypeStrokeMastery)
	stroke.StrokeType = &fly
	if got := Contribution(stroke, ev); got != 500 {
		t.Errorf("stroke mastery contribution = %d, want 500", got)
	}

	noStroke := activeGoal(TypeStrokeMastery)
	if got := Contribution(noStroke, ev); got != 0 {
		t.Errorf("stroke mastery without stroke = %d, want 0", got)
	}
}

func TestTrackedStreakGoal(t *testing.T) {
	ev := sampleEvent()

	g := activeGoal(TypeStreak)
	g.TargetValue = 7

	v, ok := Tracked(g, ev, 7, nil)
	if !ok || v != 7 {
		t.Fatalf("Tracked = %d, %v, want 7, true", v, ok)
	}
	g.CurrentValue = v
	g.Finalize()
	if !g.Completable {
		t.Error("streak goal at target must read as completable")
	}

	// The mirrored value never regresses.
	if _, ok := Tracked(g, ev, 5, nil); ok {
		t.Error("shorter streak must not move the goal")
	}
	if _, ok := Tracked(g, ev, 7, nil); ok {
		t.Error("unchanged streak must not move the goal")
	}

	early := activeGoal(TypeStreak)
	early.StartDate = day(2025, time.March, 15)
	if _, ok := Tracked(early, ev, 4, nil); ok {
		t.Error("event before the goal window must not move the goal")
	}

	done := activeGoal(TypeStreak)
	done.Status = StatusCompleted
	if _, ok := Tracked(done, ev, 4, nil); ok {
		t.Error("terminal goal must not move")
	}
}

func TestTrackedChallengeLinkedGoal(t *testing.T) {
	ev := sampleEvent()
	cid := uuid.New()

	g := activeGoal(TypeChallengeLinked)
	g.TargetValue = 2000
	g.ChallengeID = &cid

	progress := map[uuid.UUID]int{cid: 1500}
	v, ok := Tracked(g, ev, 0, progress)
	if !ok || v != 1500 {
		t.Fatalf("Tracked = %d, %v, want 1500, true", v, ok)
	}
	g.CurrentValue = v

	// Capped challenge progress carries straight through.
	progress[cid] = 2000
	v, ok = Tracked(g, ev, 0, progress)
	if !ok || v != 2000 {
		t.Fatalf("Tracked = %d, %v, want 2000, true", v, ok)
	}
	g.CurrentValue = v
	g.Finalize()
	if !g.Completable {
		t.Error("challenge-linked goal at target must read as completable")
	}

	other := activeGoal(TypeChallengeLinked)
	if _, ok := Tracked(other, ev, 0, progress); ok {
		t.Error("goal without a challenge id must not move")
	}

	unrelated := uuid.New()
	g2 := activeGoal(TypeChallengeLinked)
	g2.ChallengeID = &unrelated
	if _, ok := Tracked(g2, ev, 0, progress); ok {
		t.Error("progress on another challenge must not move the goal")
	}

	distance := activeGoal(TypeWeeklyDistance)
	if _, ok := Tracked(distance, ev, 9, progress); ok {
		t.Error("event-driven goal types must not mirror tracker state")
	}
}

func TestContributionRespectsWindowAndStatus(t *testing.T) {
	ev := sampleEvent()

	early := activeGoal(TypeWeeklyDistance)
	early.StartDate = day(2025, time.March, 15)
	if got := Contribution(early, ev); got != 0 {
		t.Errorf("event before start contributed %d", got)
	}

	late := activeGoal(TypeWeeklyDistance)
	late.EndDate = day(2025, time.March, 13)
	if got := Contribution(late, ev); got != 0 {
		t.Errorf("event after end contributed %d", got)
	}

	done := activeGoal(TypeWeeklyDistance)
	done.Status = StatusCompleted
	if got := Contribution(done, ev); got != 0 {
		t.Errorf("completed goal accepted %d", got)
	}

	// Boundary days are inclusive.
	edge := activeGoal(TypeWeeklyDistance)
	edge.StartDate = day(2025, time.March, 14)
	edge.EndDate = day(2025, time.March, 14)
	if got := Contribution(edge, ev); got != 2000 {
		t.Errorf("boundary day contribution = %d, want 2000", got)
	}
}

func TestFinalize(t *testing.T) {
	g := activeGoal(TypeWeeklyDistance)
	g.CurrentValue = 10_000
	g.Finalize()
	if !g.Completable {
		t.Error("goal at target must read as completable")
	}
	if g.ProgressPct != 100 {
		t.Errorf("ProgressPct = %d, want 100", g.ProgressPct)
	}

	// Reaching the target never flips status by itself.
	if g.Status != StatusActive {
		t.Errorf("Finalize changed status to %s", g.Status)
	}

	cancelled := activeGoal(TypeWeeklyDistance)
	cancelled.CurrentValue = 10_000
	cancelled.Status = StatusCancelled
	cancelled.Finalize()
	if cancelled.Completable {
		t.Error("non-active goal must not be completable")
	}
}

func TestValidType(t *testing.T) {
	if !ValidType(TypeWeeklyDistance) || !ValidType(TypeChallengeLinked) {
		t.Error("known types rejected")
	}
	if ValidType("marathon") {
		t.Error("unknown type accepted")
	}
}
