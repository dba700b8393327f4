package metricdef

import (
	"fmt"
	"math"
	"sort"
)

// Category separates machine-measured metrics from survey-derived ones.
type Category string

const (
	CategoryQuantitative Category = "quantitative"
	CategoryQualitative  Category = "qualitative"
)

// Kind selects the aggregation rule for a metric.
type Kind string

const (
	// KindRate metrics aggregate as qualifying sessions / total sessions.
	KindRate Kind = "rate"
	// KindContinuous metrics aggregate as the arithmetic mean.
	KindContinuous Kind = "continuous"
)

// Direction states which way a metric improves.
type Direction string

const (
	DirectionHigherBetter Direction = "higher_better"
	DirectionLowerBetter  Direction = "lower_better"
)

// Weight budget per category. All definitions together must sum to 1.0.
const (
	QuantitativeWeightBudget = 0.70
	QualitativeWeightBudget  = 0.30
	weightEpsilon            = 1e-9
)

// Definition is the static configuration for a single gate metric.
//
// For higher-is-better metrics Minimum <= Target bounds the scoring band.
// For lower-is-better metrics Target <= Maximum, with Maximum acting as the
// hard ceiling beyond which the score is zero.
type Definition struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   Category  `json:"category"`
	Kind       Kind      `json:"kind"`
	Direction  Direction `json:"direction"`
	Target     float64   `json:"target"`
	Minimum    float64   `json:"minimum"`
	Maximum    float64   `json:"maximum,omitempty"`
	Weight     float64   `json:"weight"`
	MinSamples int       `json:"min_samples"`
	Unit       string    `json:"unit,omitempty"`
	Action     string    `json:"action,omitempty"` // improvement action surfaced in recommendations
}

// Validate checks a single definition for internal consistency.
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("metric definition has empty id")
	}
	if d.Category != CategoryQuantitative && d.Category != CategoryQualitative {
		return fmt.Errorf("metric %s: unknown category %q", d.ID, d.Category)
	}
	if d.Kind != KindRate && d.Kind != KindContinuous {
		return fmt.Errorf("metric %s: unknown kind %q", d.ID, d.Kind)
	}
	if d.Weight <= 0 {
		return fmt.Errorf("metric %s: weight must be positive, got %v", d.ID, d.Weight)
	}
	if d.MinSamples < 1 {
		return fmt.Errorf("metric %s: min_samples must be at least 1, got %d", d.ID, d.MinSamples)
	}
	switch d.Direction {
	case DirectionHigherBetter:
		if d.Minimum > d.Target {
			return fmt.Errorf("metric %s: minimum %v exceeds target %v", d.ID, d.Minimum, d.Target)
		}
		if d.Minimum == d.Target {
			return fmt.Errorf("metric %s: minimum and target must differ", d.ID)
		}
	case DirectionLowerBetter:
		if d.Maximum <= d.Target {
			return fmt.Errorf("metric %s: maximum %v must exceed target %v", d.ID, d.Maximum, d.Target)
		}
	default:
		return fmt.Errorf("metric %s: unknown direction %q", d.ID, d.Direction)
	}
	return nil
}

// ValidateSet checks a full definition set: per-definition consistency,
// unique ids, and the category weight budgets (quantitative 0.70,
// qualitative 0.30, together 1.0).
func ValidateSet(defs []Definition) error {
	seen := make(map[string]bool, len(defs))
	var quantSum, qualSum float64

	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate metric definition %s", d.ID)
		}
		seen[d.ID] = true

		switch d.Category {
		case CategoryQuantitative:
			quantSum += d.Weight
		case CategoryQualitative:
			qualSum += d.Weight
		}
	}

	if math.Abs(quantSum-QuantitativeWeightBudget) > weightEpsilon {
		return fmt.Errorf("quantitative weights sum to %v, want %v", quantSum, QuantitativeWeightBudget)
	}
	if math.Abs(qualSum-QualitativeWeightBudget) > weightEpsilon {
		return fmt.Errorf("qualitative weights sum to %v, want %v", qualSum, QualitativeWeightBudget)
	}
	return nil
}

// SortedIDs returns definition ids in lexical order. Evaluation iterates in
// this order so results are deterministic.
func SortedIDs(defs []Definition) []string {
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}
