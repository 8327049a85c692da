package level

// The level curve is a closed, versioned table shared with the client. Levels
// are always derived from total XP at read time, never stored, so they cannot
// drift from the XP balance.

type Definition struct {
	Level      int      `json:"level"`
	RequiredXP int      `json:"required_xp"`
	Title      string   `json:"title"`
	Perks      []string `json:"perks"`
}

var Table = []Definition{
	{Level: 1, RequiredXP: 0, Title: "Minnow", Perks: []string{"basic_goals"}},
	{Level: 2, RequiredXP: 100, Title: "Tadpole", Perks: []string{"daily_recommendations"}},
	{Level: 3, RequiredXP: 250, Title: "Paddler", Perks: []string{"custom_goal_units"}},
	{Level: 4, RequiredXP: 500, Title: "Swimmer", Perks: []string{"weekly_reports"}},
	{Level: 5, RequiredXP: 900, Title: "Lap Regular", Perks: []string{"streak_freeze_slot"}},
	{Level: 6, RequiredXP: 1500, Title: "Pacesetter", Perks: []string{"challenge_creation"}},
	{Level: 7, RequiredXP: 2400, Title: "Open Water Ready", Perks: []string{"stroke_analytics"}},
	{Level: 8, RequiredXP: 3600, Title: "Distance Hunter", Perks: []string{"extra_freeze_slot"}},
	{Level: 9, RequiredXP: 5200, Title: "Channel Chaser", Perks: []string{"priority_leaderboards"}},
	{Level: 10, RequiredXP: 7300, Title: "Ironlungs", Perks: []string{"custom_badges_display"}},
	{Level: 11, RequiredXP: 10000, Title: "Tide Master", Perks: []string{"mentor_flair"}},
	{Level: 12, RequiredXP: 13500, Title: "Poseidon", Perks: []string{"golden_profile"}},
}

type State struct {
	TotalXP      int      `json:"total_xp"`
	CurrentLevel int      `json:"current_level"`
	Title        string   `json:"title"`
	ProgressPct  int      `json:"progress_percentage"`
	NextLevelXP  *int     `json:"next_level_xp,omitempty"`
	NextTitle    *string  `json:"next_title,omitempty"`
	Perks        []string `json:"perks"`
}

// Derive resolves the level state for a total XP balance. An XP amount
// exactly at a threshold resolves to the level that threshold unlocks.
func Derive(totalXP int) State {
	if totalXP < 0 {
		totalXP = 0
	}
	idx := 0
	for i, def := range Table {
		if def.RequiredXP <= totalXP {
			idx = i
		}
	}
	cur := Table[idx]
	st := State{
		TotalXP:      totalXP,
		CurrentLevel: cur.Level,
		Title:        cur.Title,
		Perks:        cur.Perks,
	}
	if idx == len(Table)-1 {
		st.ProgressPct = 100
		return st
	}
	next := Table[idx+1]
	span := next.RequiredXP - cur.RequiredXP
	st.ProgressPct = (totalXP - cur.RequiredXP) * 100 / span
	st.NextLevelXP = &next.RequiredXP
	st.NextTitle = &next.Title
	return st
}
