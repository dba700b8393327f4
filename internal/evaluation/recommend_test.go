package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaticmetropolis/betagate/internal/metricdef"
)

func TestRecommendPriorities(t *testing.T) {
	defs := []metricdef.Definition{
		{ID: "at_minimum", Name: "At Minimum", Direction: metricdef.DirectionHigherBetter, Weight: 0.2, Minimum: 10, Target: 20, Action: "fix it"},
		{ID: "partway", Name: "Partway", Direction: metricdef.DirectionHigherBetter, Weight: 0.2, Minimum: 10, Target: 20},
		{ID: "on_target", Name: "On Target", Direction: metricdef.DirectionHigherBetter, Weight: 0.3, Minimum: 10, Target: 20},
		{ID: "crash_rate", Name: "Crash Rate", Direction: metricdef.DirectionLowerBetter, Weight: 0.3, Target: 0.05, Maximum: 0.10},
	}
	scores := map[string]float64{
		"at_minimum": 0.0,
		"partway":    0.5,
		"on_target":  1.0,
		"crash_rate": 1.0,
	}
	summaries := map[string]PeriodSummary{
		"at_minimum": {MetricID: "at_minimum", AggregatedValue: 10, SampleCount: 50},
		"partway":    {MetricID: "partway", AggregatedValue: 15, SampleCount: 50},
		"on_target":  {MetricID: "on_target", AggregatedValue: 22, SampleCount: 50},
		"crash_rate": {MetricID: "crash_rate", AggregatedValue: 0.03, SampleCount: 50},
	}

	recs := Recommend(defs, scores, summaries)
	require.Len(t, recs, 3)

	byMetric := make(map[string]Recommendation)
	for _, r := range recs {
		byMetric[r.MetricID] = r
	}

	assert.Equal(t, PriorityHigh, byMetric["at_minimum"].Priority)
	assert.Equal(t, PriorityMedium, byMetric["partway"].Priority)
	// crash rate met its target but still crashes, so a low-priority nudge
	assert.Equal(t, PriorityLow, byMetric["crash_rate"].Priority)
	assert.NotContains(t, byMetric, "on_target")

	assert.Contains(t, byMetric["at_minimum"].Message, "fix it")
}

func TestRecommendLowerBetterAtFloorIsSilent(t *testing.T) {
	defs := []metricdef.Definition{
		{ID: "crash_rate", Direction: metricdef.DirectionLowerBetter, Weight: 1, Target: 0.05, Maximum: 0.10},
	}
	scores := map[string]float64{"crash_rate": 1.0}
	summaries := map[string]PeriodSummary{
		"crash_rate": {MetricID: "crash_rate", AggregatedValue: 0, SampleCount: 50},
	}

	assert.Empty(t, Recommend(defs, scores, summaries))
}

func TestRecommendOrdering(t *testing.T) {
	defs := []metricdef.Definition{
		{ID: "light", Direction: metricdef.DirectionHigherBetter, Weight: 0.1, Minimum: 0, Target: 1},
		{ID: "heavy", Direction: metricdef.DirectionHigherBetter, Weight: 0.4, Minimum: 0, Target: 1},
		{ID: "worst", Direction: metricdef.DirectionHigherBetter, Weight: 0.1, Minimum: 0, Target: 1},
	}
	scores := map[string]float64{
		"light": 0.5,
		"heavy": 0.5,
		"worst": 0.1,
	}
	summaries := map[string]PeriodSummary{
		"light": {MetricID: "light"},
		"heavy": {MetricID: "heavy"},
		"worst": {MetricID: "worst"},
	}

	recs := Recommend(defs, scores, summaries)
	require.Len(t, recs, 3)

	// Worst score first, then heavier weight on the tie
	assert.Equal(t, "worst", recs[0].MetricID)
	assert.Equal(t, "heavy", recs[1].MetricID)
	assert.Equal(t, "light", recs[2].MetricID)
}
