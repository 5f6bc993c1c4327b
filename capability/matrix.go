// Package capability implements the Capability Matrix: agent-task
// affinity scoring with learned adjustments (spec §4.7).
package capability

import (
	"math"
	"sort"
	"sync"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/taskdesc"
)

// Capability is a single agent's declared fitness profile (spec §3
// AgentCapability).
type Capability struct {
	Name            string
	TaskAffinities  map[taskdesc.TaskType]float64
	MinComplexity   taskdesc.Complexity
	MaxComplexity   taskdesc.Complexity
	RiskTolerance   taskdesc.Risk
	Specialties     []string
	ModelTier       string
	CanBlock        bool
	CanEscalate     bool
}

var complexityOrder = map[taskdesc.Complexity]int{
	taskdesc.ComplexityTrivial:  0,
	taskdesc.ComplexitySimple:   1,
	taskdesc.ComplexityModerate: 2,
	taskdesc.ComplexityComplex:  3,
	taskdesc.ComplexityCritical: 4,
}

var riskOrder = map[taskdesc.Risk]int{
	taskdesc.RiskNone:     0,
	taskdesc.RiskLow:      1,
	taskdesc.RiskMedium:   2,
	taskdesc.RiskHigh:     3,
	taskdesc.RiskCritical: 4,
}

const (
	adjustmentStep = judgment.PhiInv3
	adjustmentMin  = -0.2
	adjustmentMax  = 0.2
)

// Store is the optional persisted-capability-registry collaborator,
// generalizing the teacher's etcd-backed service registry from service
// discovery to agent-capability discovery (spec §4.12 domain stack).
// A nil Store means in-memory only.
type Store interface {
	Put(name string, c Capability) error
	List() ([]Capability, error)
}

// Matrix scores agents against task descriptors and tracks learned
// per-(agent,taskType) affinity adjustments.
type Matrix struct {
	mu          sync.RWMutex
	agents      map[string]Capability
	adjustments map[string]map[taskdesc.TaskType]float64
	store       Store
}

// New builds a Matrix, optionally backed by a persisted Store.
func New(store Store) *Matrix {
	m := &Matrix{
		agents:      make(map[string]Capability),
		adjustments: make(map[string]map[taskdesc.TaskType]float64),
		store:       store,
	}
	if store != nil {
		if agents, err := store.List(); err == nil {
			for _, a := range agents {
				m.agents[a.Name] = a
			}
		}
	}
	return m
}

// Register adds or replaces an agent's capability profile.
func (m *Matrix) Register(c Capability) error {
	m.mu.Lock()
	m.agents[c.Name] = c
	m.mu.Unlock()
	if m.store != nil {
		return m.store.Put(c.Name, c)
	}
	return nil
}

// Agents returns a snapshot of all registered agent names.
func (m *Matrix) Agents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.agents))
	for name := range m.agents {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Get returns the named agent's capability profile.
func (m *Matrix) Get(name string) (Capability, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.agents[name]
	return c, ok
}

// ScoreAgentForTask is the weighted-sum fitness score from spec §4.7: a
// mix of primary/secondary affinity, complexity fit, risk fit, and
// learned adjustment, clamped at phi^-1.
func (m *Matrix) ScoreAgentForTask(agent string, task taskdesc.Descriptor) float64 {
	cap, ok := m.Get(agent)
	if !ok {
		return 0
	}

	primaryAffinity := cap.TaskAffinities[task.PrimaryType]
	learnedAdj := m.adjustmentFor(agent, task.PrimaryType)

	var secondaryMean float64
	if len(task.Types) > 1 {
		var total float64
		n := 0
		for _, t := range task.Types[1:] {
			total += cap.TaskAffinities[t]
			n++
		}
		if n > 0 {
			secondaryMean = total / float64(n)
		}
	}

	complexityFit := m.complexityFit(cap, task.Complexity)
	riskFit := m.riskFit(cap, task.Risk)

	weightedTotal := 0.4 + 0.2 + 0.2 + 0.2
	score := 0.4*(primaryAffinity+learnedAdj) + 0.2*secondaryMean + 0.2*complexityFit + 0.2*riskFit
	score += 0.1 * learnedAdj

	score /= weightedTotal
	return judgment.ClampConfidence(math.Max(0, score))
}

func (m *Matrix) complexityFit(cap Capability, taskComplexity taskdesc.Complexity) float64 {
	lo, hi := complexityOrder[cap.MinComplexity], complexityOrder[cap.MaxComplexity]
	tc := complexityOrder[taskComplexity]
	if tc >= lo && tc <= hi {
		return 1.0
	}
	if tc == lo-1 || tc == hi+1 {
		return 0.5
	}
	return 0
}

func (m *Matrix) riskFit(cap Capability, taskRisk taskdesc.Risk) float64 {
	if riskOrder[taskRisk] <= riskOrder[cap.RiskTolerance] {
		return 1.0
	}
	if cap.CanBlock {
		return 0.75
	}
	return 0
}

// FindBestAgents returns the top-k agent names ranked by
// ScoreAgentForTask, highest first.
func (m *Matrix) FindBestAgents(task taskdesc.Descriptor, k int) []string {
	names := m.Agents()
	type scored struct {
		name  string
		score float64
	}
	ranked := make([]scored, 0, len(names))
	for _, n := range names {
		ranked = append(ranked, scored{n, m.ScoreAgentForTask(n, task)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	if k > len(ranked) {
		k = len(ranked)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = ranked[i].name
	}
	return out
}

// RecordOutcome moves the learned adjustment for (agent, taskType) by
// +/- phi^-3, clamped to [-0.2, 0.2] (spec §4.7).
func (m *Matrix) RecordOutcome(agent string, taskType taskdesc.TaskType, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adjustments[agent] == nil {
		m.adjustments[agent] = make(map[taskdesc.TaskType]float64)
	}
	cur := m.adjustments[agent][taskType]
	delta := adjustmentStep
	if !success {
		delta = -adjustmentStep
	}
	next := cur + delta
	if next < adjustmentMin {
		next = adjustmentMin
	}
	if next > adjustmentMax {
		next = adjustmentMax
	}
	m.adjustments[agent][taskType] = next
}

func (m *Matrix) adjustmentFor(agent string, taskType taskdesc.TaskType) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if per, ok := m.adjustments[agent]; ok {
		return per[taskType]
	}
	return 0
}
