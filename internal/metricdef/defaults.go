package metricdef

// DefaultDefinitions returns the built-in beta gate criteria. Quantitative
// weights sum to 0.70 and qualitative to 0.30.
func DefaultDefinitions() []Definition {
	return []Definition{
		{
			ID:         "session_length",
			Name:       "Average session length",
			Category:   CategoryQuantitative,
			Kind:       KindContinuous,
			Direction:  DirectionHigherBetter,
			Minimum:    12,
			Target:     15,
			Weight:     0.12,
			MinSamples: 30,
			Unit:       "minutes",
			Action:     "tighten the early-game goal loop so sessions have a clear next objective",
		},
		{
			ID:         "retention_d1",
			Name:       "Day-1 retention",
			Category:   CategoryQuantitative,
			Kind:       KindRate,
			Direction:  DirectionHigherBetter,
			Minimum:    0.30,
			Target:     0.40,
			Weight:     0.12,
			MinSamples: 30,
			Unit:       "fraction",
			Action:     "add a day-1 comeback hook (resource regrowth, pending craft results)",
		},
		{
			ID:         "retention_d7",
			Name:       "Day-7 retention",
			Category:   CategoryQuantitative,
			Kind:       KindRate,
			Direction:  DirectionHigherBetter,
			Minimum:    0.15,
			Target:     0.20,
			Weight:     0.10,
			MinSamples: 30,
			Unit:       "fraction",
			Action:     "extend the mid-game progression ladder past the first building tier",
		},
		{
			ID:         "crafting_adoption",
			Name:       "Crafting pipeline adoption",
			Category:   CategoryQuantitative,
			Kind:       KindRate,
			Direction:  DirectionHigherBetter,
			Minimum:    0.50,
			Target:     0.65,
			Weight:     0.08,
			MinSamples: 30,
			Unit:       "fraction",
			Action:     "surface craftable recipes earlier and cut the first recipe's resource cost",
		},
		{
			ID:         "tutorial_completion",
			Name:       "Tutorial completion",
			Category:   CategoryQuantitative,
			Kind:       KindRate,
			Direction:  DirectionHigherBetter,
			Minimum:    0.60,
			Target:     0.80,
			Weight:     0.08,
			MinSamples: 30,
			Unit:       "fraction",
			Action:     "shorten tutorial steps that show the highest drop-off",
		},
		{
			ID:         "avg_fps",
			Name:       "Average frame rate",
			Category:   CategoryQuantitative,
			Kind:       KindContinuous,
			Direction:  DirectionHigherBetter,
			Minimum:    25,
			Target:     30,
			Weight:     0.08,
			MinSamples: 30,
			Unit:       "fps",
			Action:     "profile dense build zones and cull offscreen resource nodes",
		},
		{
			ID:         "crash_rate",
			Name:       "Session crash rate",
			Category:   CategoryQuantitative,
			Kind:       KindRate,
			Direction:  DirectionLowerBetter,
			Target:     0.05,
			Maximum:    0.10,
			Weight:     0.07,
			MinSamples: 30,
			Unit:       "fraction",
			Action:     "triage the top crash signatures from session logs before the next build",
		},
		{
			ID:         "bug_severity",
			Name:       "Mean reported bug severity",
			Category:   CategoryQuantitative,
			Kind:       KindContinuous,
			Direction:  DirectionLowerBetter,
			Target:     2.0,
			Maximum:    3.5,
			Weight:     0.05,
			MinSamples: 10,
			Unit:       "severity 1-5",
			Action:     "burn down open severity-3+ bugs before adding features",
		},
		{
			ID:         "fun_rating",
			Name:       "Survey: fun rating",
			Category:   CategoryQualitative,
			Kind:       KindContinuous,
			Direction:  DirectionHigherBetter,
			Minimum:    3.0,
			Target:     4.0,
			Weight:     0.12,
			MinSamples: 10,
			Unit:       "rating 1-5",
			Action:     "interview low-scoring testers about where the loop stops being rewarding",
		},
		{
			ID:         "clarity_rating",
			Name:       "Survey: goal clarity rating",
			Category:   CategoryQualitative,
			Kind:       KindContinuous,
			Direction:  DirectionHigherBetter,
			Minimum:    3.0,
			Target:     3.8,
			Weight:     0.08,
			MinSamples: 10,
			Unit:       "rating 1-5",
			Action:     "add objective markers for the current crafting or building goal",
		},
		{
			ID:         "recommend_rating",
			Name:       "Survey: would-recommend rating",
			Category:   CategoryQualitative,
			Kind:       KindContinuous,
			Direction:  DirectionHigherBetter,
			Minimum:    3.2,
			Target:     4.0,
			Weight:     0.10,
			MinSamples: 10,
			Unit:       "rating 1-5",
			Action:     "follow up with detractor testers for the single biggest blocker",
		},
	}
}
