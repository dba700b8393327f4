package evaluation

import (
	"fmt"
	"sort"

	"github.com/aquaticmetropolis/betagate/internal/metricdef"
)

// Recommend generates prioritized improvement actions for metrics short of
// their targets.
//
// Priority: high when the metric sits at or below its minimum (score 0),
// medium when it is between minimum and target. Lower-is-better metrics
// that meet their target but are still above the theoretical floor get a
// low-priority nudge. Ordering: worst score first, heavier weight first on
// ties, metric id as the final tiebreak.
func Recommend(defs []metricdef.Definition, scores map[string]float64, summaries map[string]PeriodSummary) []Recommendation {
	type ranked struct {
		rec    Recommendation
		score  float64
		weight float64
	}

	var out []ranked
	for _, def := range defs {
		score, ok := scores[def.ID]
		if !ok {
			continue
		}
		summary := summaries[def.ID]

		switch {
		case score <= 0:
			out = append(out, ranked{
				rec: Recommendation{
					MetricID: def.ID,
					Priority: PriorityHigh,
					Message:  message(def, summary),
				},
				score:  score,
				weight: def.Weight,
			})
		case score < 1:
			out = append(out, ranked{
				rec: Recommendation{
					MetricID: def.ID,
					Priority: PriorityMedium,
					Message:  message(def, summary),
				},
				score:  score,
				weight: def.Weight,
			})
		case def.Direction == metricdef.DirectionLowerBetter && summary.AggregatedValue > 0:
			// target met, but not at the ideal floor
			out = append(out, ranked{
				rec: Recommendation{
					MetricID: def.ID,
					Priority: PriorityLow,
					Message:  message(def, summary),
				},
				score:  score,
				weight: def.Weight,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score < out[j].score
		}
		if out[i].weight != out[j].weight {
			return out[i].weight > out[j].weight
		}
		return out[i].rec.MetricID < out[j].rec.MetricID
	})

	recs := make([]Recommendation, len(out))
	for i, r := range out {
		recs[i] = r.rec
	}
	return recs
}

func message(def metricdef.Definition, summary PeriodSummary) string {
	name := def.Name
	if name == "" {
		name = def.ID
	}

	var thresholds string
	if def.Direction == metricdef.DirectionLowerBetter {
		thresholds = fmt.Sprintf("target %g, ceiling %g", def.Target, def.Maximum)
	} else {
		thresholds = fmt.Sprintf("minimum %g, target %g", def.Minimum, def.Target)
	}

	msg := fmt.Sprintf("%s is %.3g %s over %d samples (%s)",
		name, summary.AggregatedValue, def.Unit, summary.SampleCount, thresholds)
	if def.Action != "" {
		msg += ": " + def.Action
	}
	return msg
}
