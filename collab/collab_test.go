package collab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/learning"
)

func TestInMemoryKnowledgeStoreRoundTrips(t *testing.T) {
	store := NewInMemoryKnowledgeStore()
	store.RecordPattern("code-review", "prefers small diffs")
	store.RecordJudgment("code-review", judgment.Judgment{ID: "j1", GlobalScore: 80})
	store.SetProcedure("code-review", "run linter then review")

	ctx := context.Background()
	patterns, err := store.RelevantPatterns(ctx, "code-review")
	require.NoError(t, err)
	assert.Equal(t, []string{"prefers small diffs"}, patterns)

	similar, err := store.SimilarJudgments(ctx, "code-review", 5)
	require.NoError(t, err)
	assert.Len(t, similar, 1)

	proc, err := store.Procedure(ctx, "code-review")
	require.NoError(t, err)
	assert.Equal(t, "run linter then review", proc)
}

func TestKnowledgeContextProviderToleratesNilCollaborators(t *testing.T) {
	p := NewKnowledgeContextProvider(context.Background(), nil, nil)
	assert.Nil(t, p.RelevantPatterns("x"))
	assert.Nil(t, p.LearnedWeights())
	assert.Nil(t, p.SimilarJudgments("x"))
	assert.Equal(t, "", p.Procedure("x"))
}

func TestKnowledgeContextProviderReadsThroughCollaborators(t *testing.T) {
	store := NewInMemoryKnowledgeStore()
	store.RecordPattern("general", "pattern-a")
	svc := learning.New(learning.NewConfig(), nil)

	p := NewKnowledgeContextProvider(context.Background(), store, svc)
	assert.Equal(t, []string{"pattern-a"}, p.RelevantPatterns("general"))
	assert.NotNil(t, p.LearnedWeights())
}

func TestNoopEventBusDiscards(t *testing.T) {
	var bus EventBus = NoopEventBus{}
	assert.NoError(t, bus.Publish(context.Background(), Event{Kind: "test"}))
}

func TestHealthStatusPredicates(t *testing.T) {
	h := NewHealthyStatus(0)
	assert.True(t, h.IsHealthy())
	assert.False(t, h.IsDegraded())

	d := NewDegradedStatus("slow", 0)
	assert.True(t, d.IsDegraded())

	u := NewUnhealthyStatus("down")
	assert.True(t, u.IsUnhealthy())
}
