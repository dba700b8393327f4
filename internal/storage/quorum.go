package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aquaticmetropolis/betagate/internal/types"
)

// QuorumStore fans a sample write out to N backends and succeeds once a
// write quorum acknowledges. Replaces ad hoc retry loops for redundant
// persistence: a degraded backend costs availability of itself, not of the
// collector.
type QuorumStore struct {
	backends []SampleWriter
	quorum   int
}

// NewQuorumStore creates a quorum writer. Quorum defaults to a majority and
// is never below 1 or above the backend count.
func NewQuorumStore(backends []SampleWriter, quorum int) (*QuorumStore, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("quorum store requires at least one backend")
	}
	if quorum < 1 {
		quorum = len(backends)/2 + 1
	}
	if quorum > len(backends) {
		return nil, fmt.Errorf("quorum %d exceeds backend count %d", quorum, len(backends))
	}
	return &QuorumStore{backends: backends, quorum: quorum}, nil
}

// WriteSample writes to every backend and succeeds when the quorum acks.
func (q *QuorumStore) WriteSample(ctx context.Context, sample types.MetricSample) error {
	acked := 0
	var lastErr error

	for i, backend := range q.backends {
		if err := backend.WriteSample(ctx, sample); err != nil {
			lastErr = err
			slog.Warn("Sample write failed on backend",
				"backend", i,
				"metric_id", sample.MetricID,
				"error", err)
			continue
		}
		acked++
	}

	if acked < q.quorum {
		return fmt.Errorf("sample write quorum not met (%d of %d required): %w", acked, q.quorum, lastErr)
	}

	return nil
}

// Quorum returns the configured write quorum.
func (q *QuorumStore) Quorum() int {
	return q.quorum
}

// Backends returns the number of configured backends.
func (q *QuorumStore) Backends() int {
	return len(q.backends)
}
