package evaluation

import (
	"time"

	"github.com/aquaticmetropolis/betagate/internal/errors"
	"github.com/aquaticmetropolis/betagate/internal/metricdef"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

// Aggregate rolls the samples for one metric over one period into a
// PeriodSummary.
//
// Rate metrics: a session qualifies when any of its samples has a positive
// value; the aggregate is qualifying sessions / total sessions. Continuous
// metrics: arithmetic mean over all samples. Returns an insufficient-data
// error when the count is below the definition's min_samples, so noisy
// periods defer the decision instead of skewing it.
func Aggregate(def metricdef.Definition, samples []types.MetricSample, periodStart, periodEnd time.Time) (PeriodSummary, error) {
	summary := PeriodSummary{
		MetricID:    def.ID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	switch def.Kind {
	case metricdef.KindRate:
		qualifying := make(map[string]bool)
		total := make(map[string]bool)
		for _, s := range samples {
			total[s.SessionID] = true
			if s.Value > 0 {
				qualifying[s.SessionID] = true
			}
		}
		summary.SampleCount = len(total)
		if summary.SampleCount < def.MinSamples {
			return PeriodSummary{}, errors.NewInsufficientDataError(def.ID, summary.SampleCount, def.MinSamples)
		}
		summary.AggregatedValue = float64(len(qualifying)) / float64(len(total))

	default: // continuous
		summary.SampleCount = len(samples)
		if summary.SampleCount < def.MinSamples {
			return PeriodSummary{}, errors.NewInsufficientDataError(def.ID, summary.SampleCount, def.MinSamples)
		}
		sum := 0.0
		for _, s := range samples {
			sum += s.Value
		}
		summary.AggregatedValue = sum / float64(len(samples))
	}

	return summary, nil
}
