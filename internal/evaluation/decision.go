package evaluation

// Gate thresholds, applied to the weighted total expressed as a percentage.
// Exact boundaries resolve to the higher category.
const (
	PassThreshold        = 85.0
	ConditionalThreshold = 70.0
)

// WeightedTotal combines per-metric normalized scores into a percentage.
// Weights across all metrics sum to 1.0 (0.70 quantitative + 0.30
// qualitative), so the total lands in [0,100].
func WeightedTotal(scores map[string]float64, weights map[string]float64) float64 {
	total := 0.0
	for id, score := range scores {
		total += score * weights[id]
	}
	return total * 100
}

// Decide applies the gate rule. Deterministic: the same summaries always
// yield the same decision.
func Decide(weightedTotal float64) Decision {
	switch {
	case weightedTotal >= PassThreshold:
		return DecisionPass
	case weightedTotal >= ConditionalThreshold:
		return DecisionConditional
	default:
		return DecisionFail
	}
}
