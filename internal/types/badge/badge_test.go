package badge

import (
	"testing"

	"swimProgressAPI/internal/types/activity"
)

func TestEarnedDispatch(t *testing.T) {
	snap := StatsSnapshot{
		TotalDistanceMeters:  60_000,
		TotalDurationSeconds: 10 * 3600,
		TotalSessions:        30,
		StrokeMeters:         map[activity.Stroke]int{activity.StrokeButterfly: 12_000},
		LongestStreak:        8,
		GoalsCompleted:       3,
		BadgesEarned:         2,
	}

	cases := []struct {
		key  string
		want bool
	}{
		{"first_splash", true},
		{"pool_regular", true},
		{"centurion", false},
		{"fifty_k_club", true},
		{"channel_distance", false},
		{"week_of_water", true},
		{"tidal_month", false},
		{"butterfly_wings", true},
		{"freestyle_fifty", false},
		{"goal_getter", false},
		{"day_in_the_water", false},
		{"collector", false},
	}
	for _, c := range cases {
		b, ok := ByKey[c.key]
		if !ok {
			t.Fatalf("catalog missing %q", c.key)
		}
		if got := b.Earned(snap); got != c.want {
			t.Errorf("%s.Earned = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestStrokeRuleNeedsStroke(t *testing.T) {
	b := Badge{Rule: RuleStrokeDistance, Threshold: 1}
	if b.Earned(StatsSnapshot{StrokeMeters: map[activity.Stroke]int{activity.StrokeFreestyle: 100}}) {
		t.Error("stroke rule with no stroke must never fire")
	}
}

func TestNewlyEarnedSkipsAlreadyEarned(t *testing.T) {
	snap := StatsSnapshot{TotalSessions: 1, TotalDistanceMeters: 5_000}
	already := map[string]bool{"first_splash": true}

	got := NewlyEarned(Catalog, snap, already)
	if len(got) != 1 || got[0].Key != "five_k_club" {
		keys := make([]string, len(got))
		for i, b := range got {
			keys[i] = b.Key
		}
		t.Errorf("NewlyEarned = %v, want [five_k_club]", keys)
	}
}

func TestNewlyEarnedPreservesCatalogOrder(t *testing.T) {
	snap := StatsSnapshot{TotalSessions: 25, TotalDistanceMeters: 5_000, LongestStreak: 7}
	got := NewlyEarned(Catalog, snap, nil)
	want := []string{"first_splash", "pool_regular", "five_k_club", "week_of_water"}
	if len(got) != len(want) {
		t.Fatalf("got %d badges, want %d", len(got), len(want))
	}
	for i, b := range got {
		if b.Key != want[i] {
			t.Errorf("position %d: got %s, want %s", i, b.Key, want[i])
		}
	}
}

func TestXPForTier(t *testing.T) {
	cases := map[Tier]int{
		TierBronze:   50,
		TierSilver:   100,
		TierGold:     200,
		TierPlatinum: 400,
		Tier("wood"): 0,
	}
	for tier, want := range cases {
		if got := XPForTier(tier); got != want {
			t.Errorf("XPForTier(%s) = %d, want %d", tier, got, want)
		}
	}
}

func TestCatalogKeysUnique(t *testing.T) {
	if len(ByKey) != len(Catalog) {
		t.Errorf("catalog has duplicate keys: %d unique of %d", len(ByKey), len(Catalog))
	}
}
