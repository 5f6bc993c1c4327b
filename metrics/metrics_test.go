package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewAndRecordDoNotPanic(t *testing.T) {
	provider := sdkmetric.NewMeterProvider()
	r, err := New(provider)
	require.NoError(t, err)

	ctx := context.Background()
	r.RecordJudgment(ctx, "HOWL", "code-review", 42)
	r.RecordVote(ctx, "scribe", "allow")
	r.RecordBlock(ctx, "guardian")
	r.RecordTaskSubmitted(ctx, "score")
	r.RecordTaskCompleted(ctx, "score", "completed")
	r.SetQueueDepth(ctx, 1)
	r.SetQueueDepth(ctx, -1)
	r.RecordEscalation(ctx, "code-review")
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		ctx := context.Background()
		r.RecordJudgment(ctx, "HOWL", "x", 1)
		r.RecordVote(ctx, "v", "allow")
		r.RecordBlock(ctx, "v")
		r.RecordTaskSubmitted(ctx, "t")
		r.RecordTaskCompleted(ctx, "t", "completed")
		r.SetQueueDepth(ctx, 1)
		r.RecordEscalation(ctx, "t")
	})
}

func TestNoopRecorderWorks(t *testing.T) {
	r := NoopRecorder()
	require.NotNil(t, r)
	r.RecordJudgment(context.Background(), "WAG", "x", 10)
}
