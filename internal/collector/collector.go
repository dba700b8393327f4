package collector

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/aquaticmetropolis/betagate/internal/metricdef"
	"github.com/aquaticmetropolis/betagate/internal/monitoring"
	"github.com/aquaticmetropolis/betagate/internal/storage"
	"github.com/aquaticmetropolis/betagate/internal/types"
)

// Collector buffers validated samples from concurrent sessions and flushes
// them to storage in batches. At-least-once: a flush retries nothing and
// drops nothing except individually failed writes, which are logged and
// counted but never abort the batch.
type Collector struct {
	registry   *metricdef.Registry
	writer     storage.SampleWriter
	metrics    *monitoring.Metrics
	flushSize  int
	flushEvery time.Duration

	mu     sync.Mutex
	buffer []types.MetricSample

	stop chan struct{}
	done chan struct{}
}

// New creates a collector writing through the given sample writer.
func New(registry *metricdef.Registry, writer storage.SampleWriter, metrics *monitoring.Metrics, flushSize int, flushEvery time.Duration) *Collector {
	if flushSize <= 0 {
		flushSize = 256
	}
	if flushEvery <= 0 {
		flushEvery = 5 * time.Second
	}
	return &Collector{
		registry:   registry,
		writer:     writer,
		metrics:    metrics,
		flushSize:  flushSize,
		flushEvery: flushEvery,
		buffer:     make([]types.MetricSample, 0, flushSize),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Ingest validates and buffers a batch of samples. Safe for concurrent
// callers. Returns the per-batch outcome; rejected samples carry a reason.
func (c *Collector) Ingest(samples []types.MetricSample) types.IngestResponse {
	resp := types.IngestResponse{}
	accepted := make([]types.MetricSample, 0, len(samples))

	for _, s := range samples {
		if reason, ok := c.validate(s); !ok {
			resp.Rejected++
			resp.Reasons = append(resp.Reasons, reason)
			continue
		}
		accepted = append(accepted, s)
		resp.Accepted++
	}

	if len(accepted) > 0 {
		c.mu.Lock()
		c.buffer = append(c.buffer, accepted...)
		shouldFlush := len(c.buffer) >= c.flushSize
		c.mu.Unlock()

		if shouldFlush {
			c.Flush(context.Background())
		}
	}

	if c.metrics != nil {
		c.metrics.AddSamplesAccepted(resp.Accepted)
		c.metrics.AddSamplesRejected(resp.Rejected)
	}

	return resp
}

func (c *Collector) validate(s types.MetricSample) (string, bool) {
	if s.MetricID == "" {
		return "missing metric_id", false
	}
	if _, ok := c.registry.Get(s.MetricID); !ok {
		return "unknown metric " + s.MetricID, false
	}
	if s.SessionID == "" {
		return s.MetricID + ": missing session_id", false
	}
	if math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return s.MetricID + ": non-finite value", false
	}
	if s.Timestamp.IsZero() {
		return s.MetricID + ": missing timestamp", false
	}
	return "", true
}

// Flush drains the buffer and writes every sample through the writer.
// Individual write failures are logged and dropped; the rest of the batch
// continues.
func (c *Collector) Flush(ctx context.Context) {
	c.mu.Lock()
	if len(c.buffer) == 0 {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = make([]types.MetricSample, 0, c.flushSize)
	c.mu.Unlock()

	failed := 0
	for _, s := range batch {
		if err := c.writer.WriteSample(ctx, s); err != nil {
			failed++
			slog.Warn("Dropping sample after failed write",
				"metric_id", s.MetricID,
				"session_id", s.SessionID,
				"error", err)
			if c.metrics != nil {
				c.metrics.IncrementSampleWriteFailure()
			}
		}
	}

	if c.metrics != nil {
		c.metrics.IncrementFlush()
	}

	slog.Debug("Collector flush complete",
		"written", len(batch)-failed,
		"dropped", failed)
}

// Start runs the periodic flush loop until Stop is called.
func (c *Collector) Start() {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.Flush(context.Background())
			case <-c.stop:
				c.Flush(context.Background())
				return
			}
		}
	}()
}

// Stop stops the flush loop after a final drain.
func (c *Collector) Stop() {
	close(c.stop)
	<-c.done
}

// Pending returns the number of buffered samples awaiting flush.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}
