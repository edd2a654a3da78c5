package events

import "github.com/talgya/undercurrent/internal/pulse"

// GlobalPool is the built-in set of national shocks. It is code, not
// content: cities author their own city and neighborhood templates but share
// one country.
func GlobalPool() []GlobalEventTemplate {
	return []GlobalEventTemplate{
		{
			Type:        GlobalExecutive,
			Title:       "Executive order widens enforcement priorities",
			Description: "A new directive makes nearly every undocumented resident a priority for removal.",
			Weight:      1.2,
			BaseEffects: map[pulse.GlobalField]float64{pulse.EnforcementClimate: 3, pulse.PoliticalVolatility: 2, pulse.MediaNarrative: 2},
		},
		{
			Type:        GlobalExecutive,
			Title:       "Administration pauses removals",
			Description: "A temporary moratorium on most deportations is announced pending review.",
			Weight:      0.6,
			BaseEffects: map[pulse.GlobalField]float64{pulse.EnforcementClimate: -3, pulse.PoliticalVolatility: 1},
		},
		{
			Type:        GlobalJudicial,
			Title:       "Federal court blocks detention policy",
			Description: "A district judge enjoins the expanded detention program nationwide.",
			Weight:      1,
			BaseEffects: map[pulse.GlobalField]float64{pulse.JudicialAlignment: 3, pulse.EnforcementClimate: -2},
		},
		{
			Type:        GlobalJudicial,
			Title:       "Appeals court upholds expanded detention",
			Description: "The circuit court lifts the injunction; detention without bond resumes.",
			Weight:      1,
			BaseEffects: map[pulse.GlobalField]float64{pulse.JudicialAlignment: -3, pulse.EnforcementClimate: 2},
		},
		{
			Type:        GlobalMedia,
			Title:       "Investigation exposes detention conditions",
			Description: "A national series documents deaths and neglect inside detention centers.",
			Weight:      1,
			BaseEffects: map[pulse.GlobalField]float64{pulse.MediaNarrative: -4, pulse.PoliticalVolatility: 1},
		},
		{
			Type:        GlobalMedia,
			Title:       "Crime story dominates cable news",
			Description: "A single case is replayed for weeks as proof of an immigrant crime wave.",
			Weight:      1,
			BaseEffects: map[pulse.GlobalField]float64{pulse.MediaNarrative: 5, pulse.EnforcementClimate: 1, pulse.PoliticalVolatility: 2},
		},
		{
			Type:        GlobalSecurity,
			Title:       "Border emergency declared",
			Description: "Emergency powers redirect federal agents and funds toward interior enforcement.",
			Weight:      0.8,
			BaseEffects: map[pulse.GlobalField]float64{pulse.EnforcementClimate: 4, pulse.PoliticalVolatility: 3, pulse.MediaNarrative: 2},
		},
	}
}
