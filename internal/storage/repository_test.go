package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaticmetropolis/betagate/internal/evaluation"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := NewDB(t.TempDir(), "gate_test.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestWriteAndReadSamples(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	inside := types.MetricSample{
		MetricID: "session_length", SessionID: "s1", Value: 14,
		Timestamp: start.Add(time.Hour),
	}
	atEnd := types.MetricSample{
		MetricID: "session_length", SessionID: "s2", Value: 16,
		Timestamp: end,
	}
	otherMetric := types.MetricSample{
		MetricID: "fun_rating", SessionID: "s1", Value: 4,
		Timestamp: start.Add(time.Hour),
	}

	require.NoError(t, repo.WriteSample(ctx, inside))
	require.NoError(t, repo.WriteSample(ctx, atEnd))
	require.NoError(t, repo.WriteSample(ctx, otherMetric))

	samples, err := repo.SamplesForPeriod(ctx, "session_length", start, end)
	require.NoError(t, err)

	// period end is exclusive, other metrics are filtered
	require.Len(t, samples, 1)
	assert.Equal(t, "s1", samples[0].SessionID)
	assert.InDelta(t, 14.0, samples[0].Value, 1e-9)
}

func storedResult() *evaluation.Result {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	return &evaluation.Result{
		ID:          evaluation.ResultID(start, end),
		PeriodStart: start,
		PeriodEnd:   end,
		Scores:      map[string]float64{"session_length": 0.5, "fun_rating": 1},
		Summaries: []evaluation.PeriodSummary{
			{MetricID: "session_length", PeriodStart: start, PeriodEnd: end, AggregatedValue: 13.5, SampleCount: 40},
			{MetricID: "fun_rating", PeriodStart: start, PeriodEnd: end, AggregatedValue: 4.4, SampleCount: 25},
		},
		WeightedTotal: 65,
		Decision:      evaluation.DecisionFail,
		Recommendations: []evaluation.Recommendation{
			{MetricID: "session_length", Priority: evaluation.PriorityMedium, Message: "extend early-game goals"},
		},
	}
}

func TestSaveAndGetResult(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	want := storedResult()
	require.NoError(t, repo.SaveResult(ctx, want))

	got, err := repo.GetResult(ctx, want.ID)
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Decision, got.Decision)
	assert.InDelta(t, want.WeightedTotal, got.WeightedTotal, 1e-9)
	assert.Equal(t, want.Scores, got.Scores)
	assert.Equal(t, want.Summaries, got.Summaries)
	assert.Equal(t, want.Recommendations, got.Recommendations)
}

func TestSaveResultIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	result := storedResult()
	require.NoError(t, repo.SaveResult(ctx, result))

	// Re-evaluating the same closed period saves the identical result and
	// must leave stored history untouched.
	require.NoError(t, repo.SaveResult(ctx, result))

	got, err := repo.GetResult(ctx, result.ID)
	require.NoError(t, err)
	assert.Len(t, got.Recommendations, 1)
}

func TestGetResultNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetResult(context.Background(), "gate-missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLatestResult(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	first := storedResult()
	require.NoError(t, repo.SaveResult(ctx, first))

	secondStart := first.PeriodEnd
	secondEnd := secondStart.Add(7 * 24 * time.Hour)
	second := storedResult()
	second.ID = evaluation.ResultID(secondStart, secondEnd)
	second.PeriodStart = secondStart
	second.PeriodEnd = secondEnd
	second.Decision = evaluation.DecisionConditional
	second.WeightedTotal = 78
	require.NoError(t, repo.SaveResult(ctx, second))

	got, err := repo.LatestResult(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}
