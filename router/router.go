// Package router implements the Intelligent Router: classify, score,
// select, dispatch, escalate, record (spec §4.8).
package router

import (
	"context"
	"sync"
	"time"

	"github.com/ragnar-no-sleep/cynic/capability"
	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/metrics"
	"github.com/ragnar-no-sleep/cynic/taskdesc"
)

// SynthesisAgent is the name of the fallback "CYNIC" synthesis agent that
// the Router escalates to when no candidate fits or a handler fails.
const SynthesisAgent = "CYNIC"

// Decision is the outcome of the Router's select step, passed through to
// the chosen Handler so it can see why it was picked.
type Decision struct {
	SelectedAgent string
	Candidates    []string
	Confidence    float64
	Escalated     bool
	Blocked       bool
	Reason        string
}

// HandlerOutcome is what a Handler reports back after handling a task.
type HandlerOutcome struct {
	Score      float64
	Verdict    judgment.Verdict
	Response   judgment.VoteResponse
	Dimensions map[string]float64
	Insights   []string
	Blocked    bool
	Reason     string
	Success    bool
}

// Handler is the external "Agent handler" collaborator from spec §6.
// collab.AgentHandler is an alias of this interface so out-of-process
// (e.g. gRPC) handlers can be registered without router importing collab.
type Handler interface {
	Handle(ctx context.Context, task judgment.Task, decision Decision) (HandlerOutcome, error)
}

type routingRecord struct {
	taskType  taskdesc.TaskType
	agent     string
	success   bool
	escalated bool
	timestamp time.Time
}

const maxHistory = 500

// Stats is a snapshot of per-agent routing outcomes.
type Stats struct {
	Total, Success, Escalated int
}

// Router is the Intelligent Router component.
type Router struct {
	mu         sync.Mutex
	classifier *taskdesc.Classifier
	matrix     *capability.Matrix
	handlers   map[string]Handler
	history    []routingRecord
	stats      map[string]*Stats
	metrics    *metrics.Recorder
}

// WithMetrics attaches a metrics.Recorder so escalations are reported to
// the configured MeterProvider instead of discarded.
func (r *Router) WithMetrics(m *metrics.Recorder) *Router {
	r.metrics = m
	return r
}

// New builds a Router over a classifier and capability matrix. Handlers
// must be registered with RegisterHandler before Route is called;
// spec §9 redesigns the source's "fallback mock" into a construction-time
// registration requirement rather than a synthesized fake vote.
func New(classifier *taskdesc.Classifier, matrix *capability.Matrix) *Router {
	return &Router{
		classifier: classifier,
		matrix:     matrix,
		handlers:   make(map[string]Handler),
		stats:      make(map[string]*Stats),
		metrics:    metrics.NoopRecorder(),
	}
}

// RegisterHandler attaches the Handler invoked when agent is dispatched.
func (r *Router) RegisterHandler(agent string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[agent] = h
}

// ErrUnregisteredHandler is returned by Route when a task escalates all
// the way to the synthesis agent and even that has no handler
// registered -- a configuration error, not a runtime failure mode.
var ErrUnregisteredHandler = judgment.NewResultError(judgment.ErrCodeConfig, "router", "no handler registered for synthesis agent")

// Route runs the full Classify -> Score -> Select -> Dispatch ->
// Escalate -> Record state machine for one piece of raw input text.
func (r *Router) Route(ctx context.Context, text string) (Decision, HandlerOutcome, error) {
	desc := r.classifier.Classify(text)
	decision := r.selectAgent(desc)

	handler, ok := r.handlerFor(decision.SelectedAgent)
	if !ok {
		decision = r.walkToNextHandler(decision)
		handler, ok = r.handlerFor(decision.SelectedAgent)
		if !ok {
			return decision, HandlerOutcome{}, ErrUnregisteredHandler
		}
	}

	task := judgment.Task{ID: "", Type: string(desc.PrimaryType), Payload: text, Status: judgment.TaskRunning, CreatedAt: time.Now()}
	outcome, err := handler.Handle(ctx, task, decision)
	if err != nil {
		retryOutcome, retryDecision, retryErr := r.retryWithSynthesis(ctx, task, decision)
		if retryErr == nil {
			r.record(ctx, desc.PrimaryType, retryDecision.SelectedAgent, retryOutcome.Success, true)
			return retryDecision, retryOutcome, nil
		}
		r.record(ctx, desc.PrimaryType, decision.SelectedAgent, false, decision.Escalated)
		return decision, HandlerOutcome{}, judgment.NewResultError(judgment.ErrCodeEscalation, "router", "handler and synthesis retry both failed").
			WithCause(err).WithDetail("retryError", retryErr.Error())
	}

	r.record(ctx, desc.PrimaryType, decision.SelectedAgent, outcome.Success, decision.Escalated)
	return decision, outcome, nil
}

// selectAgent implements spec §4.8's selection rules.
func (r *Router) selectAgent(desc taskdesc.Descriptor) Decision {
	candidates := r.matrix.FindBestAgents(desc, 5)

	hasAffinity := false
	for _, c := range candidates {
		if cap, ok := r.matrix.Get(c); ok && cap.TaskAffinities[desc.PrimaryType] > 0 {
			hasAffinity = true
			break
		}
	}
	if !hasAffinity {
		return Decision{SelectedAgent: SynthesisAgent, Candidates: candidates, Confidence: judgment.PhiInv2, Escalated: true, Reason: "no candidate has positive affinity"}
	}

	selected := candidates[0]
	confidence := r.matrix.ScoreAgentForTask(selected, desc)

	if desc.Risk == taskdesc.RiskHigh || desc.Risk == taskdesc.RiskCritical {
		if guardian := findGuardian(candidates); guardian != "" {
			return Decision{SelectedAgent: guardian, Candidates: candidates, Confidence: confidence, Reason: "guardian preferred for elevated risk"}
		}
		if cap, ok := r.matrix.Get(selected); !ok || !cap.CanBlock {
			return Decision{SelectedAgent: SynthesisAgent, Candidates: candidates, Confidence: judgment.PhiInv2, Escalated: true, Reason: "selected agent cannot block a high-risk task"}
		}
	}

	return Decision{SelectedAgent: selected, Candidates: candidates, Confidence: confidence}
}

func findGuardian(candidates []string) string {
	for _, c := range candidates {
		if c == "guardian" || c == "Guardian" {
			return c
		}
	}
	return ""
}

func (r *Router) handlerFor(agent string) (Handler, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handlers[agent]
	return h, ok
}

func (r *Router) walkToNextHandler(decision Decision) Decision {
	for _, c := range decision.Candidates {
		if _, ok := r.handlerFor(c); ok {
			decision.SelectedAgent = c
			return decision
		}
	}
	decision.SelectedAgent = SynthesisAgent
	decision.Escalated = true
	return decision
}

func (r *Router) retryWithSynthesis(ctx context.Context, task judgment.Task, decision Decision) (HandlerOutcome, Decision, error) {
	if decision.SelectedAgent == SynthesisAgent {
		return HandlerOutcome{}, decision, ErrUnregisteredHandler
	}
	handler, ok := r.handlerFor(SynthesisAgent)
	if !ok {
		return HandlerOutcome{}, decision, ErrUnregisteredHandler
	}
	decision.Escalated = true
	decision.SelectedAgent = SynthesisAgent
	outcome, err := handler.Handle(ctx, task, decision)
	if err != nil {
		return HandlerOutcome{}, decision, err
	}
	return outcome, decision, nil
}

func (r *Router) record(ctx context.Context, taskType taskdesc.TaskType, agent string, success, escalated bool) {
	r.mu.Lock()
	r.history = append(r.history, routingRecord{taskType: taskType, agent: agent, success: success, escalated: escalated, timestamp: time.Now()})
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
	st, ok := r.stats[agent]
	if !ok {
		st = &Stats{}
		r.stats[agent] = st
	}
	st.Total++
	if success {
		st.Success++
	}
	if escalated {
		st.Escalated++
	}
	r.mu.Unlock()

	if escalated {
		r.metrics.RecordEscalation(ctx, string(taskType))
	}
	r.matrix.RecordOutcome(agent, taskType, success)
}

// StatsFor returns a snapshot of routing outcomes for agent.
func (r *Router) StatsFor(agent string) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.stats[agent]; ok {
		return *st
	}
	return Stats{}
}
