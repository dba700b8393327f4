package evaluation

import "github.com/aquaticmetropolis/betagate/internal/metricdef"

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Normalize maps an aggregated value onto [0,1] against the metric's
// thresholds. Higher-is-better metrics scale linearly from minimum (0) to
// target (1); lower-is-better metrics scale from the hard ceiling (0) down
// to the target (1). Values beyond either end clamp.
func Normalize(def metricdef.Definition, aggregated float64) float64 {
	if def.Direction == metricdef.DirectionLowerBetter {
		return clamp((def.Maximum-aggregated)/(def.Maximum-def.Target), 0, 1)
	}
	return clamp((aggregated-def.Minimum)/(def.Target-def.Minimum), 0, 1)
}
