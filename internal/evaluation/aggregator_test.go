package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaticmetropolis/betagate/internal/errors"
	"github.com/aquaticmetropolis/betagate/internal/metricdef"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

var (
	periodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
)

func sample(metricID, sessionID string, value float64) types.MetricSample {
	return types.MetricSample{
		MetricID:  metricID,
		SessionID: sessionID,
		Value:     value,
		Timestamp: periodStart.Add(time.Hour),
	}
}

func TestAggregateContinuousMean(t *testing.T) {
	def := metricdef.Definition{
		ID:         "session_length",
		Kind:       metricdef.KindContinuous,
		MinSamples: 2,
	}

	samples := []types.MetricSample{
		sample("session_length", "s1", 10),
		sample("session_length", "s2", 20),
		sample("session_length", "s3", 30),
	}

	summary, err := Aggregate(def, samples, periodStart, periodEnd)
	require.NoError(t, err)

	assert.InDelta(t, 20.0, summary.AggregatedValue, 1e-9)
	assert.Equal(t, 3, summary.SampleCount)
	assert.Equal(t, periodStart, summary.PeriodStart)
	assert.Equal(t, periodEnd, summary.PeriodEnd)
}

func TestAggregateRateOverSessions(t *testing.T) {
	def := metricdef.Definition{
		ID:         "retention_d1",
		Kind:       metricdef.KindRate,
		MinSamples: 3,
	}

	// Four distinct sessions; s1 and s2 qualify. Multiple samples in one
	// session count that session once.
	samples := []types.MetricSample{
		sample("retention_d1", "s1", 1),
		sample("retention_d1", "s1", 1),
		sample("retention_d1", "s2", 1),
		sample("retention_d1", "s3", 0),
		sample("retention_d1", "s4", 0),
	}

	summary, err := Aggregate(def, samples, periodStart, periodEnd)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.SampleCount)
	assert.InDelta(t, 0.5, summary.AggregatedValue, 1e-9)
}

func TestAggregateInsufficientData(t *testing.T) {
	tests := []struct {
		name string
		def  metricdef.Definition
	}{
		{
			name: "continuous below min samples",
			def:  metricdef.Definition{ID: "avg_fps", Kind: metricdef.KindContinuous, MinSamples: 5},
		},
		{
			name: "rate below min sessions",
			def:  metricdef.Definition{ID: "retention_d7", Kind: metricdef.KindRate, MinSamples: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := []types.MetricSample{
				sample(tt.def.ID, "s1", 1),
				sample(tt.def.ID, "s2", 1),
			}

			_, err := Aggregate(tt.def, samples, periodStart, periodEnd)
			require.Error(t, err)
			assert.True(t, errors.IsInsufficientData(err))
		})
	}
}

func TestAggregateNoSamples(t *testing.T) {
	def := metricdef.Definition{ID: "fun_rating", Kind: metricdef.KindContinuous, MinSamples: 1}

	_, err := Aggregate(def, nil, periodStart, periodEnd)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientData(err))
}
