// Package metrics provides the shared OpenTelemetry instrument set used
// by the Orchestrator, worker pool, and Router so every component emits
// measurements under one consistent meter and naming scheme.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "cynic"

// Recorder bundles the counters and histograms shared across components.
// A nil *Recorder is always safe to use (every method is a no-op), as is
// the Recorder NoopRecorder returns.
type Recorder struct {
	judgmentsTotal   metric.Int64Counter
	judgmentLatency  metric.Float64Histogram
	votesTotal       metric.Int64Counter
	blocksTotal      metric.Int64Counter
	tasksSubmitted   metric.Int64Counter
	tasksCompleted   metric.Int64Counter
	queueDepth       metric.Int64UpDownCounter
	routingEscalated metric.Int64Counter
}

// New builds a Recorder against the given MeterProvider. Pass
// otel.GetMeterProvider() to use the process-wide default.
func New(provider metric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(meterName)

	judgmentsTotal, err := meter.Int64Counter("cynic.judgments.total", metric.WithDescription("total judgments produced"))
	if err != nil {
		return nil, err
	}
	judgmentLatency, err := meter.Float64Histogram("cynic.judgment.latency_ms", metric.WithDescription("judgment latency in milliseconds"))
	if err != nil {
		return nil, err
	}
	votesTotal, err := meter.Int64Counter("cynic.votes.total", metric.WithDescription("total voter responses"))
	if err != nil {
		return nil, err
	}
	blocksTotal, err := meter.Int64Counter("cynic.blocks.total", metric.WithDescription("judgments blocked by a voter"))
	if err != nil {
		return nil, err
	}
	tasksSubmitted, err := meter.Int64Counter("cynic.tasks.submitted", metric.WithDescription("tasks submitted to the worker pool"))
	if err != nil {
		return nil, err
	}
	tasksCompleted, err := meter.Int64Counter("cynic.tasks.completed", metric.WithDescription("tasks that reached a terminal state"))
	if err != nil {
		return nil, err
	}
	queueDepth, err := meter.Int64UpDownCounter("cynic.tasks.queue_depth", metric.WithDescription("pending tasks in the worker pool queue"))
	if err != nil {
		return nil, err
	}
	routingEscalated, err := meter.Int64Counter("cynic.routing.escalated", metric.WithDescription("routing decisions escalated to synthesis"))
	if err != nil {
		return nil, err
	}

	return &Recorder{
		judgmentsTotal:   judgmentsTotal,
		judgmentLatency:  judgmentLatency,
		votesTotal:       votesTotal,
		blocksTotal:      blocksTotal,
		tasksSubmitted:   tasksSubmitted,
		tasksCompleted:   tasksCompleted,
		queueDepth:       queueDepth,
		routingEscalated: routingEscalated,
	}, nil
}

// NoopRecorder returns a Recorder backed by the global no-op meter
// provider, safe to use when telemetry export is not configured.
func NoopRecorder() *Recorder {
	r, _ := New(otel.GetMeterProvider())
	return r
}

// RecordJudgment records one completed judgment's verdict and latency.
func (r *Recorder) RecordJudgment(ctx context.Context, verdict string, itemType string, latencyMs int64) {
	if r == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("verdict", verdict), attribute.String("itemType", itemType))
	r.judgmentsTotal.Add(ctx, 1, attrs)
	r.judgmentLatency.Record(ctx, float64(latencyMs), attrs)
}

// RecordVote records one voter's response.
func (r *Recorder) RecordVote(ctx context.Context, voterID, response string) {
	if r == nil {
		return
	}
	r.votesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("voter", voterID), attribute.String("response", response)))
}

// RecordBlock records a blocking override.
func (r *Recorder) RecordBlock(ctx context.Context, voterID string) {
	if r == nil {
		return
	}
	r.blocksTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("voter", voterID)))
}

// RecordTaskSubmitted records a task entering the worker pool.
func (r *Recorder) RecordTaskSubmitted(ctx context.Context, taskType string) {
	if r == nil {
		return
	}
	r.tasksSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", taskType)))
}

// RecordTaskCompleted records a task reaching a terminal state.
func (r *Recorder) RecordTaskCompleted(ctx context.Context, taskType, status string) {
	if r == nil {
		return
	}
	r.tasksCompleted.Add(ctx, 1, metric.WithAttributes(attribute.String("type", taskType), attribute.String("status", status)))
}

// SetQueueDepth adjusts the queue-depth gauge by delta (positive on
// enqueue, negative on dequeue).
func (r *Recorder) SetQueueDepth(ctx context.Context, delta int64) {
	if r == nil {
		return
	}
	r.queueDepth.Add(ctx, delta)
}

// RecordEscalation records a routing decision that escalated to the
// synthesis agent.
func (r *Recorder) RecordEscalation(ctx context.Context, taskType string) {
	if r == nil {
		return
	}
	r.routingEscalated.Add(ctx, 1, metric.WithAttributes(attribute.String("taskType", taskType)))
}
