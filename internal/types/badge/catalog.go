package badge

import "swimProgressAPI/internal/types/activity"

func strokePtr(s activity.Stroke) *activity.Stroke { return &s }

// Catalog is the fixed badge set. Order matters: evaluation walks it top to
// bottom, so meta badges (badge_count) sit last and see same-pass earns only
// on the next evaluation.
var Catalog = []Badge{
	{Key: "first_splash", Name: "First Splash", Description: "Log your first swim", Icon: "🌊", Tier: TierBronze, Category: "distance", Points: 10, Rule: RuleSessionCount, Threshold: 1},
	{Key: "pool_regular", Name: "Pool Regular", Description: "Complete 25 sessions", Icon: "🏊", Tier: TierSilver, Category: "consistency", Points: 25, Rule: RuleSessionCount, Threshold: 25},
	{Key: "centurion", Name: "Centurion", Description: "Complete 100 sessions", Icon: "💯", Tier: TierGold, Category: "consistency", Points: 60, Rule: RuleSessionCount, Threshold: 100},
	{Key: "five_k_club", Name: "5K Club", Description: "Swim 5 km in total", Icon: "📏", Tier: TierBronze, Category: "distance", Points: 15, Rule: RuleTotalDistance, Threshold: 5_000},
	{Key: "fifty_k_club", Name: "50K Club", Description: "Swim 50 km in total", Icon: "🛣️", Tier: TierSilver, Category: "distance", Points: 35, Rule: RuleTotalDistance, Threshold: 50_000},
	{Key: "channel_distance", Name: "Channel Distance", Description: "Swim 250 km in total", Icon: "⛴️", Tier: TierGold, Category: "distance", Points: 75, Rule: RuleTotalDistance, Threshold: 250_000},
	{Key: "million_meters", Name: "Million Meters", Description: "Swim 1,000 km in total", Icon: "🌍", Tier: TierPlatinum, Category: "distance", Points: 150, Rule: RuleTotalDistance, Threshold: 1_000_000},
	{Key: "week_of_water", Name: "Week of Water", Description: "7-day swimming streak", Icon: "🔥", Tier: TierBronze, Category: "streak", Points: 15, Rule: RuleStreak, Threshold: 7},
	{Key: "tidal_month", Name: "Tidal Month", Description: "30-day swimming streak", Icon: "🌙", Tier: TierSilver, Category: "streak", Points: 40, Rule: RuleStreak, Threshold: 30},
	{Key: "unbroken_hundred", Name: "Unbroken Hundred", Description: "100-day swimming streak", Icon: "⚡", Tier: TierGold, Category: "streak", Points: 90, Rule: RuleStreak, Threshold: 100},
	{Key: "year_of_the_fish", Name: "Year of the Fish", Description: "365-day swimming streak", Icon: "🐟", Tier: TierPlatinum, Category: "streak", Points: 200, Rule: RuleStreak, Threshold: 365},
	{Key: "butterfly_wings", Name: "Butterfly Wings", Description: "10 km of butterfly", Icon: "🦋", Tier: TierSilver, Category: "stroke", Points: 40, Rule: RuleStrokeDistance, Threshold: 10_000, Stroke: strokePtr(activity.StrokeButterfly)},
	{Key: "backstroke_baron", Name: "Backstroke Baron", Description: "25 km of backstroke", Icon: "🛶", Tier: TierSilver, Category: "stroke", Points: 40, Rule: RuleStrokeDistance, Threshold: 25_000, Stroke: strokePtr(activity.StrokeBackstroke)},
	{Key: "breaststroke_boss", Name: "Breaststroke Boss", Description: "25 km of breaststroke", Icon: "🐸", Tier: TierSilver, Category: "stroke", Points: 40, Rule: RuleStrokeDistance, Threshold: 25_000, Stroke: strokePtr(activity.StrokeBreaststroke)},
	{Key: "freestyle_fifty", Name: "Freestyle Fifty", Description: "50 km of freestyle", Icon: "🚀", Tier: TierGold, Category: "stroke", Points: 60, Rule: RuleStrokeDistance, Threshold: 50_000, Stroke: strokePtr(activity.StrokeFreestyle)},
	{Key: "goal_getter", Name: "Goal Getter", Description: "Complete 5 goals", Icon: "🎯", Tier: TierBronze, Category: "goals", Points: 20, Rule: RuleGoalCompletions, Threshold: 5},
	{Key: "serial_finisher", Name: "Serial Finisher", Description: "Complete 25 goals", Icon: "🏅", Tier: TierGold, Category: "goals", Points: 70, Rule: RuleGoalCompletions, Threshold: 25},
	{Key: "day_in_the_water", Name: "Day in the Water", Description: "24 hours of swim time", Icon: "⏱️", Tier: TierSilver, Category: "endurance", Points: 45, Rule: RuleTotalDuration, Threshold: 24 * 3600},
	{Key: "collector", Name: "Collector", Description: "Earn 10 badges", Icon: "🗃️", Tier: TierGold, Category: "meta", Points: 50, Rule: RuleBadgeCount, Threshold: 10},
}

// ByKey indexes the catalog; built once at init.
var ByKey = func() map[string]Badge {
	m := make(map[string]Badge, len(Catalog))
	for _, b := range Catalog {
		m[b.Key] = b
	}
	return m
}()
