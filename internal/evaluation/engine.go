package evaluation

import (
	"context"
	"log/slog"
	"time"

	"github.com/aquaticmetropolis/betagate/internal/errors"
	"github.com/aquaticmetropolis/betagate/internal/metricdef"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

// SampleSource provides a snapshot of recorded samples for a closed period.
type SampleSource interface {
	SamplesForPeriod(ctx context.Context, metricID string, periodStart, periodEnd time.Time) ([]types.MetricSample, error)
}

// Engine runs the full gate pipeline: snapshot read, aggregation, threshold
// scoring, weighted decision, recommendations. Stateless between runs.
type Engine struct {
	registry *metricdef.Registry
	source   SampleSource
}

// NewEngine creates an evaluation engine over a sample source.
func NewEngine(registry *metricdef.Registry, source SampleSource) *Engine {
	return &Engine{registry: registry, source: source}
}

// Evaluate produces the gate Result for a closed period, or fails without
// partial output. The period must be closed (end not in the future) so the
// snapshot is reproducible; in-flight samples for an open period are never
// scored.
func (e *Engine) Evaluate(ctx context.Context, periodStart, periodEnd time.Time) (*Result, error) {
	if !periodEnd.After(periodStart) {
		return nil, errors.NewValidationError("period end must be after period start")
	}
	if periodEnd.After(time.Now()) {
		return nil, errors.NewValidationError("period is still open; evaluation covers closed periods only")
	}

	defs := e.registry.All()
	scores := make(map[string]float64, len(defs))
	weights := make(map[string]float64, len(defs))
	summariesByID := make(map[string]PeriodSummary, len(defs))
	summaries := make([]PeriodSummary, 0, len(defs))

	for _, def := range defs {
		samples, err := e.source.SamplesForPeriod(ctx, def.ID, periodStart, periodEnd)
		if err != nil {
			return nil, errors.WrapError(err, "failed to read samples for %s", def.ID)
		}

		summary, err := Aggregate(def, samples, periodStart, periodEnd)
		if err != nil {
			// insufficient data defers the whole evaluation
			return nil, err
		}

		score := Normalize(def, summary.AggregatedValue)
		scores[def.ID] = score
		weights[def.ID] = def.Weight
		summariesByID[def.ID] = summary
		summaries = append(summaries, summary)

		slog.Debug("Metric scored",
			"metric_id", def.ID,
			"aggregated_value", summary.AggregatedValue,
			"sample_count", summary.SampleCount,
			"score", score)
	}

	total := WeightedTotal(scores, weights)

	result := &Result{
		ID:              ResultID(periodStart, periodEnd),
		PeriodStart:     periodStart.UTC(),
		PeriodEnd:       periodEnd.UTC(),
		Scores:          scores,
		Summaries:       summaries,
		WeightedTotal:   total,
		Decision:        Decide(total),
		Recommendations: Recommend(defs, scores, summariesByID),
	}

	return result, nil
}
