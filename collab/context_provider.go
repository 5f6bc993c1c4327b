package collab

import (
	"context"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/learning"
	"github.com/ragnar-no-sleep/cynic/orchestrator"
)

// KnowledgeContextProvider adapts a context-aware KnowledgeStore and a
// learning Service into orchestrator.ContextProvider's synchronous
// interface, so the Orchestrator's step-1 context injection can consult
// out-of-process collaborators without importing collab itself.
type KnowledgeContextProvider struct {
	store    KnowledgeStore
	learning *learning.Service
	ctx      context.Context
}

// NewKnowledgeContextProvider builds a provider. store may be nil, in
// which case pattern/similarity/procedure lookups return zero values;
// learningSvc may be nil, in which case LearnedWeights returns nil.
func NewKnowledgeContextProvider(ctx context.Context, store KnowledgeStore, learningSvc *learning.Service) *KnowledgeContextProvider {
	if ctx == nil {
		ctx = context.Background()
	}
	return &KnowledgeContextProvider{store: store, learning: learningSvc, ctx: ctx}
}

var _ orchestrator.ContextProvider = (*KnowledgeContextProvider)(nil)

// RelevantPatterns implements orchestrator.ContextProvider.
func (p *KnowledgeContextProvider) RelevantPatterns(queryType string) []string {
	if p.store == nil {
		return nil
	}
	out, err := p.store.RelevantPatterns(p.ctx, queryType)
	if err != nil {
		return nil
	}
	return out
}

// LearnedWeights implements orchestrator.ContextProvider.
func (p *KnowledgeContextProvider) LearnedWeights() map[string]float64 {
	if p.learning == nil {
		return nil
	}
	return p.learning.Snapshot().WeightModifiers
}

// SimilarJudgments implements orchestrator.ContextProvider.
func (p *KnowledgeContextProvider) SimilarJudgments(queryType string) []judgment.Judgment {
	if p.store == nil {
		return nil
	}
	out, err := p.store.SimilarJudgments(p.ctx, queryType, 3)
	if err != nil {
		return nil
	}
	return out
}

// Procedure implements orchestrator.ContextProvider.
func (p *KnowledgeContextProvider) Procedure(itemType string) string {
	if p.store == nil {
		return ""
	}
	out, err := p.store.Procedure(p.ctx, itemType)
	if err != nil {
		return ""
	}
	return out
}
