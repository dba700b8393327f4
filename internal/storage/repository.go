package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aquaticmetropolis/betagate/internal/errors"
	"github.com/aquaticmetropolis/betagate/internal/evaluation"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

// SampleWriter persists individual samples. Implemented by Repository and
// by QuorumStore.
type SampleWriter interface {
	WriteSample(ctx context.Context, sample types.MetricSample) error
}

// Repository handles database operations for samples and gate results.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// WriteSample records one immutable sample row.
func (r *Repository) WriteSample(ctx context.Context, sample types.MetricSample) error {
	stmt, err := r.db.GetPreparedStatement("insert_sample")
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		uuid.New().String(),
		sample.MetricID,
		sample.Value,
		sample.SessionID,
		sample.Timestamp.UTC(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sample: %w", err)
	}

	return nil
}

// SamplesForPeriod returns the snapshot of samples for one metric inside
// [periodStart, periodEnd). Callers only pass closed periods, so the
// snapshot is reproducible.
func (r *Repository) SamplesForPeriod(ctx context.Context, metricID string, periodStart, periodEnd time.Time) ([]types.MetricSample, error) {
	stmt, err := r.db.GetPreparedStatement("samples_for_period")
	if err != nil {
		return nil, err
	}

	rows, err := stmt.QueryContext(ctx, metricID, periodStart.UTC(), periodEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []types.MetricSample
	for rows.Next() {
		var s types.MetricSample
		if err := rows.Scan(&s.MetricID, &s.Value, &s.SessionID, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		samples = append(samples, s)
	}

	return samples, rows.Err()
}

// SaveResult persists an evaluation result and its recommendations in one
// transaction. Results are keyed by their deterministic id; re-evaluating
// the same period inserts nothing new and never overwrites history.
func (r *Repository) SaveResult(ctx context.Context, result *evaluation.Result) error {
	scores, err := json.Marshal(result.Scores)
	if err != nil {
		return fmt.Errorf("failed to encode scores: %w", err)
	}
	summaries, err := json.Marshal(result.Summaries)
	if err != nil {
		return fmt.Errorf("failed to encode summaries: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO evaluation_results (
		id, period_start, period_end, weighted_total, decision, scores, summaries, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.PeriodStart,
		result.PeriodEnd,
		result.WeightedTotal,
		string(result.Decision),
		string(scores),
		string(summaries),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check insert: %w", err)
	}
	if inserted == 0 {
		// already evaluated; history stays untouched
		return nil
	}

	for i, rec := range result.Recommendations {
		_, err := tx.ExecContext(ctx, `INSERT INTO recommendations (
			result_id, position, metric_id, priority, message
		) VALUES (?, ?, ?, ?, ?)`,
			result.ID, i, rec.MetricID, string(rec.Priority), rec.Message)
		if err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	return tx.Commit()
}

// GetResult loads a stored result by id.
func (r *Repository) GetResult(ctx context.Context, id string) (*evaluation.Result, error) {
	stmt, err := r.db.GetPreparedStatement("get_result")
	if err != nil {
		return nil, err
	}
	return r.scanResult(ctx, stmt.QueryRowContext(ctx, id))
}

// LatestResult loads the most recently evaluated result.
func (r *Repository) LatestResult(ctx context.Context) (*evaluation.Result, error) {
	stmt, err := r.db.GetPreparedStatement("latest_result")
	if err != nil {
		return nil, err
	}
	return r.scanResult(ctx, stmt.QueryRowContext(ctx))
}

func (r *Repository) scanResult(ctx context.Context, row *sql.Row) (*evaluation.Result, error) {
	var result evaluation.Result
	var decision, scores, summaries string

	err := row.Scan(&result.ID, &result.PeriodStart, &result.PeriodEnd,
		&result.WeightedTotal, &decision, &scores, &summaries)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("evaluation result not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan result: %w", err)
	}

	result.Decision = evaluation.Decision(decision)
	if err := json.Unmarshal([]byte(scores), &result.Scores); err != nil {
		return nil, fmt.Errorf("failed to decode scores: %w", err)
	}
	if err := json.Unmarshal([]byte(summaries), &result.Summaries); err != nil {
		return nil, fmt.Errorf("failed to decode summaries: %w", err)
	}

	recStmt, err := r.db.GetPreparedStatement("get_recommendations")
	if err != nil {
		return nil, err
	}
	rows, err := recStmt.QueryContext(ctx, result.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec evaluation.Recommendation
		var priority string
		if err := rows.Scan(&rec.MetricID, &priority, &rec.Message); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		rec.Priority = evaluation.Priority(priority)
		result.Recommendations = append(result.Recommendations, rec)
	}

	return &result, rows.Err()
}
