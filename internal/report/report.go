// Package report renders gate decisions as plain-text summaries for
// distribution to stakeholders outside the API.
package report

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/aquaticmetropolis/betagate/internal/evaluation"
	"github.com/aquaticmetropolis/betagate/internal/metricdef"
)

const reportTemplate = `BETA GATE REPORT {{.Result.ID}}
Period: {{.PeriodStart}} to {{.PeriodEnd}}

DECISION: {{.DecisionLabel}}
Weighted total: {{printf "%.2f" .Result.WeightedTotal}} / 100.00

METRIC SCORES
{{range .Rows -}}
  {{printf "%-24s" .Name}} {{printf "%8.4f" .Score}}  (weight {{printf "%.2f" .Weight}}, {{.SampleCount}} samples, value {{printf "%.4f" .Value}}{{if .Unit}} {{.Unit}}{{end}})
{{end}}
{{- if .Result.Recommendations}}
RECOMMENDATIONS
{{range .Result.Recommendations -}}
  [{{.Priority}}] {{.Message}}
{{end}}
{{- else}}
No recommendations. All metrics at or above target.
{{end}}`

var tmpl = template.Must(template.New("gate_report").Parse(reportTemplate))

type row struct {
	Name        string
	Score       float64
	Weight      float64
	SampleCount int
	Value       float64
	Unit        string
}

type reportData struct {
	Result        *evaluation.Result
	PeriodStart   string
	PeriodEnd     string
	DecisionLabel string
	Rows          []row
}

func decisionLabel(d evaluation.Decision) string {
	switch d {
	case evaluation.DecisionPass:
		return "PASS"
	case evaluation.DecisionConditional:
		return "CONDITIONAL PASS"
	default:
		return "FAIL"
	}
}

// Render produces the plain-text report for an evaluation result.
// Rows follow the registry's stable metric ordering.
func Render(registry *metricdef.Registry, result *evaluation.Result) (string, error) {
	data := reportData{
		Result:        result,
		PeriodStart:   result.PeriodStart.UTC().Format(time.RFC3339),
		PeriodEnd:     result.PeriodEnd.UTC().Format(time.RFC3339),
		DecisionLabel: decisionLabel(result.Decision),
	}

	for _, id := range registry.IDs() {
		def, ok := registry.Get(id)
		if !ok {
			continue
		}
		score, ok := result.Scores[id]
		if !ok {
			continue
		}

		r := row{
			Name:   def.Name,
			Score:  score,
			Weight: def.Weight,
			Unit:   def.Unit,
		}
		for _, s := range result.Summaries {
			if s.MetricID == id {
				r.SampleCount = s.SampleCount
				r.Value = s.AggregatedValue
				break
			}
		}
		data.Rows = append(data.Rows, r)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return sb.String(), nil
}
