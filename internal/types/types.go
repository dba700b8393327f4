package types

import "time"

// MetricSample is a single raw observation recorded during a play session.
// Samples are immutable once recorded.
type MetricSample struct {
	MetricID  string    `json:"metric_id" binding:"required"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id" binding:"required"`
}

// IngestRequest is the request body for the sample ingestion endpoint.
// A batch may mix metrics and sessions freely.
type IngestRequest struct {
	Samples []MetricSample `json:"samples" binding:"required"`
}

// IngestResponse reports the per-batch outcome of an ingestion call.
type IngestResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Reasons  []string `json:"reasons,omitempty"`
}

// EvaluateRequest selects the period window for a gate evaluation.
type EvaluateRequest struct {
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
}
