package evaluation

import (
	"fmt"
	"time"
)

// Decision is the gate outcome for an evaluation period.
type Decision string

const (
	DecisionPass        Decision = "pass"
	DecisionConditional Decision = "conditional"
	DecisionFail        Decision = "fail"
)

// Priority ranks how urgently a recommendation should be acted on.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// PeriodSummary is the aggregate for one metric over one closed period.
// Never mutated after finalization; re-evaluation recomputes it.
type PeriodSummary struct {
	MetricID        string    `json:"metric_id"`
	PeriodStart     time.Time `json:"period_start"`
	PeriodEnd       time.Time `json:"period_end"`
	AggregatedValue float64   `json:"aggregated_value"`
	SampleCount     int       `json:"sample_count"`
}

// Recommendation is a prioritized improvement action for a metric that is
// short of its target.
type Recommendation struct {
	MetricID string   `json:"metric_id"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// Result is an immutable gate decision for one period. Re-evaluating the
// same closed sample set reproduces it bit for bit; the id is derived from
// the period window so history is keyed, never overwritten.
type Result struct {
	ID              string             `json:"id"`
	PeriodStart     time.Time          `json:"period_start"`
	PeriodEnd       time.Time          `json:"period_end"`
	Scores          map[string]float64 `json:"scores"`
	Summaries       []PeriodSummary    `json:"summaries"`
	WeightedTotal   float64            `json:"weighted_total"` // percent
	Decision        Decision           `json:"decision"`
	Recommendations []Recommendation   `json:"recommendations"`
}

// ResultID derives the deterministic result id for a period window.
func ResultID(periodStart, periodEnd time.Time) string {
	return fmt.Sprintf("gate-%s-%s",
		periodStart.UTC().Format("20060102T150405Z"),
		periodEnd.UTC().Format("20060102T150405Z"))
}
