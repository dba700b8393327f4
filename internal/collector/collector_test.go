package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquaticmetropolis/betagate/internal/metricdef"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

type recordingWriter struct {
	mu      sync.Mutex
	written []types.MetricSample
	failOn  map[string]bool
}

func (w *recordingWriter) WriteSample(_ context.Context, s types.MetricSample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn[s.SessionID] {
		return fmt.Errorf("backend unavailable")
	}
	w.written = append(w.written, s)
	return nil
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

func testRegistry(t *testing.T) *metricdef.Registry {
	t.Helper()
	registry, err := metricdef.NewRegistry([]metricdef.Definition{
		{
			ID: "session_length", Category: metricdef.CategoryQuantitative,
			Kind: metricdef.KindContinuous, Direction: metricdef.DirectionHigherBetter,
			Minimum: 12, Target: 15, Weight: 0.70, MinSamples: 1,
		},
		{
			ID: "fun_rating", Category: metricdef.CategoryQualitative,
			Kind: metricdef.KindContinuous, Direction: metricdef.DirectionHigherBetter,
			Minimum: 3, Target: 4, Weight: 0.30, MinSamples: 1,
		},
	})
	require.NoError(t, err)
	return registry
}

func validSample(metricID, sessionID string) types.MetricSample {
	return types.MetricSample{
		MetricID:  metricID,
		SessionID: sessionID,
		Value:     13,
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*types.MetricSample)
		wantReason string
	}{
		{
			name:       "missing metric id",
			mutate:     func(s *types.MetricSample) { s.MetricID = "" },
			wantReason: "missing metric_id",
		},
		{
			name:       "unknown metric",
			mutate:     func(s *types.MetricSample) { s.MetricID = "nope" },
			wantReason: "unknown metric",
		},
		{
			name:       "missing session id",
			mutate:     func(s *types.MetricSample) { s.SessionID = "" },
			wantReason: "missing session_id",
		},
		{
			name:       "nan value",
			mutate:     func(s *types.MetricSample) { s.Value = math.NaN() },
			wantReason: "non-finite value",
		},
		{
			name:       "missing timestamp",
			mutate:     func(s *types.MetricSample) { s.Timestamp = time.Time{} },
			wantReason: "missing timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := &recordingWriter{}
			c := New(testRegistry(t), writer, nil, 10, time.Minute)

			bad := validSample("session_length", "s1")
			tt.mutate(&bad)

			resp := c.Ingest([]types.MetricSample{bad, validSample("fun_rating", "s2")})

			assert.Equal(t, 1, resp.Accepted)
			assert.Equal(t, 1, resp.Rejected)
			require.Len(t, resp.Reasons, 1)
			assert.Contains(t, resp.Reasons[0], tt.wantReason)
		})
	}
}

func TestIngestBadSampleNeverRejectsBatch(t *testing.T) {
	writer := &recordingWriter{}
	c := New(testRegistry(t), writer, nil, 100, time.Minute)

	batch := []types.MetricSample{
		validSample("session_length", "s1"),
		{MetricID: "bogus", SessionID: "s2", Value: 1, Timestamp: time.Now()},
		validSample("fun_rating", "s3"),
	}

	resp := c.Ingest(batch)
	assert.Equal(t, 2, resp.Accepted)
	assert.Equal(t, 1, resp.Rejected)
	assert.Equal(t, 2, c.Pending())
}

func TestFlushAtThreshold(t *testing.T) {
	writer := &recordingWriter{}
	c := New(testRegistry(t), writer, nil, 3, time.Minute)

	c.Ingest([]types.MetricSample{
		validSample("session_length", "s1"),
		validSample("session_length", "s2"),
	})
	assert.Equal(t, 0, writer.count())

	c.Ingest([]types.MetricSample{validSample("session_length", "s3")})
	assert.Equal(t, 3, writer.count())
	assert.Equal(t, 0, c.Pending())
}

func TestFlushDropsFailedWrites(t *testing.T) {
	writer := &recordingWriter{failOn: map[string]bool{"s2": true}}
	c := New(testRegistry(t), writer, nil, 100, time.Minute)

	c.Ingest([]types.MetricSample{
		validSample("session_length", "s1"),
		validSample("session_length", "s2"),
		validSample("session_length", "s3"),
	})
	c.Flush(context.Background())

	// Failed write is dropped, remaining samples still land
	assert.Equal(t, 2, writer.count())
	assert.Equal(t, 0, c.Pending())
}

func TestStopDrainsBuffer(t *testing.T) {
	writer := &recordingWriter{}
	c := New(testRegistry(t), writer, nil, 100, time.Hour)
	c.Start()

	c.Ingest([]types.MetricSample{validSample("fun_rating", "s1")})
	c.Stop()

	assert.Equal(t, 1, writer.count())
	assert.Equal(t, 0, c.Pending())
}
