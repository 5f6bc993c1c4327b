// Package collab holds the external collaborator interfaces the core is
// built to consult (spec §6): feedback, knowledge, task persistence, an
// event bus, health, and the wiring between an Agent and the Router's
// dispatch surface. Every collaborator is optional, so the core runs
// standalone with nothing wired in; this package supplies NoopEventBus and
// InMemoryKnowledgeStore, and has no implementation of TasksRepository.
package collab

import (
	"context"
	"sync"
	"time"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/learning"
	"github.com/ragnar-no-sleep/cynic/residual"
	"github.com/ragnar-no-sleep/cynic/router"
)

// AgentHandler is the collaborator-facing name for router.Handler: an
// agent that can accept a dispatched task. Kept as an alias rather than a
// re-declaration so router and collab never need to import each other's
// concrete types, only this package depends on router.
type AgentHandler = router.Handler

// FeedbackRepository is the persistence collaborator behind the Learning
// Service (spec §4.6, §6).
type FeedbackRepository = learning.Repository

// ResidualStorage is the persistence collaborator behind the Residual
// Detector (spec §4.3, §6).
type ResidualStorage = residual.StorageAdapter

// Governance is the collaborator that approves/rejects discovered
// dimensions (spec §4.3, §6).
type Governance = residual.Governance

// KnowledgeStore is the optional collaborator supplying cross-judgment
// context: relevant shared patterns, similar historical judgments, and
// per-item-type procedures (feeds the Orchestrator's InjectedContext).
type KnowledgeStore interface {
	RelevantPatterns(ctx context.Context, queryType string) ([]string, error)
	SimilarJudgments(ctx context.Context, queryType string, limit int) ([]judgment.Judgment, error)
	Procedure(ctx context.Context, itemType string) (string, error)
}

// TasksRepository persists Task records submitted to the worker pool,
// independent of the in-process Pool bookkeeping.
type TasksRepository interface {
	Save(ctx context.Context, task judgment.Task) error
	Get(ctx context.Context, id string) (judgment.Task, bool, error)
	ListPending(ctx context.Context) ([]judgment.Task, error)
}

// Event is a notification published to the event bus when a judgment,
// escalation, discovery, or strategy switch occurs.
type Event struct {
	Kind      string
	Subject   string
	Payload   map[string]any
	Timestamp time.Time
}

// EventBus decouples the core from whatever downstream system (queue,
// webhook, log shipper) consumes its notifications.
type EventBus interface {
	Publish(ctx context.Context, ev Event) error
}

// NoopEventBus discards every event. It is the default when nothing is
// wired in.
type NoopEventBus struct{}

// Publish implements EventBus by doing nothing.
func (NoopEventBus) Publish(context.Context, Event) error { return nil }

// InMemoryKnowledgeStore is a process-local KnowledgeStore useful for
// tests and single-process deployments; it never persists across restarts.
type InMemoryKnowledgeStore struct {
	mu         sync.RWMutex
	patterns   map[string][]string
	judgments  map[string][]judgment.Judgment
	procedures map[string]string
}

// NewInMemoryKnowledgeStore builds an empty store.
func NewInMemoryKnowledgeStore() *InMemoryKnowledgeStore {
	return &InMemoryKnowledgeStore{
		patterns:   make(map[string][]string),
		judgments:  make(map[string][]judgment.Judgment),
		procedures: make(map[string]string),
	}
}

// RecordPattern appends a pattern string under queryType.
func (s *InMemoryKnowledgeStore) RecordPattern(queryType, pattern string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[queryType] = append(s.patterns[queryType], pattern)
}

// RecordJudgment appends a historical judgment under queryType.
func (s *InMemoryKnowledgeStore) RecordJudgment(queryType string, j judgment.Judgment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.judgments[queryType] = append(s.judgments[queryType], j)
}

// SetProcedure records the standard procedure text for an item type.
func (s *InMemoryKnowledgeStore) SetProcedure(itemType, procedure string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procedures[itemType] = procedure
}

// RelevantPatterns implements KnowledgeStore.
func (s *InMemoryKnowledgeStore) RelevantPatterns(_ context.Context, queryType string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.patterns[queryType]))
	copy(out, s.patterns[queryType])
	return out, nil
}

// SimilarJudgments implements KnowledgeStore.
func (s *InMemoryKnowledgeStore) SimilarJudgments(_ context.Context, queryType string, limit int) ([]judgment.Judgment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.judgments[queryType]
	if limit > 0 && limit < len(all) {
		all = all[len(all)-limit:]
	}
	out := make([]judgment.Judgment, len(all))
	copy(out, all)
	return out, nil
}

// Procedure implements KnowledgeStore.
func (s *InMemoryKnowledgeStore) Procedure(_ context.Context, itemType string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.procedures[itemType], nil
}
