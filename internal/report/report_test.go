package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaticmetropolis/betagate/internal/evaluation"
	"github.com/aquaticmetropolis/betagate/internal/metricdef"
)

func testRegistry(t *testing.T) *metricdef.Registry {
	t.Helper()
	registry, err := metricdef.NewRegistry([]metricdef.Definition{
		{
			ID: "session_length", Name: "Average Session Length",
			Category: metricdef.CategoryQuantitative, Kind: metricdef.KindContinuous,
			Direction: metricdef.DirectionHigherBetter,
			Minimum:   12, Target: 15, Weight: 0.70, MinSamples: 1, Unit: "minutes",
		},
		{
			ID: "fun_rating", Name: "Fun Rating",
			Category: metricdef.CategoryQualitative, Kind: metricdef.KindContinuous,
			Direction: metricdef.DirectionHigherBetter,
			Minimum:   3, Target: 4, Weight: 0.30, MinSamples: 1, Unit: "points",
		},
	})
	require.NoError(t, err)
	return registry
}

func testResult() *evaluation.Result {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	return &evaluation.Result{
		ID:          evaluation.ResultID(start, end),
		PeriodStart: start,
		PeriodEnd:   end,
		Scores:      map[string]float64{"session_length": 0.5, "fun_rating": 1},
		Summaries: []evaluation.PeriodSummary{
			{MetricID: "session_length", AggregatedValue: 13.5, SampleCount: 40},
			{MetricID: "fun_rating", AggregatedValue: 4.4, SampleCount: 25},
		},
		WeightedTotal: 65,
		Decision:      evaluation.DecisionConditional,
		Recommendations: []evaluation.Recommendation{
			{MetricID: "session_length", Priority: evaluation.PriorityMedium, Message: "extend early-game goals"},
		},
	}
}

func TestRenderReport(t *testing.T) {
	text, err := Render(testRegistry(t), testResult())
	require.NoError(t, err)

	assert.Contains(t, text, "BETA GATE REPORT gate-20260301T000000Z-20260308T000000Z")
	assert.Contains(t, text, "DECISION: CONDITIONAL PASS")
	assert.Contains(t, text, "65.00 / 100.00")
	assert.Contains(t, text, "Average Session Length")
	assert.Contains(t, text, "Fun Rating")
	assert.Contains(t, text, "[medium] extend early-game goals")
}

func TestRenderReportWithoutRecommendations(t *testing.T) {
	result := testResult()
	result.Recommendations = nil
	result.Decision = evaluation.DecisionPass
	result.WeightedTotal = 92

	text, err := Render(testRegistry(t), result)
	require.NoError(t, err)

	assert.Contains(t, text, "DECISION: PASS")
	assert.Contains(t, text, "No recommendations")
	assert.NotContains(t, text, "RECOMMENDATIONS")
}

func TestRenderSkipsUnknownMetrics(t *testing.T) {
	result := testResult()
	result.Scores["retired_metric"] = 0.2

	text, err := Render(testRegistry(t), result)
	require.NoError(t, err)
	assert.NotContains(t, text, "retired_metric")
}
