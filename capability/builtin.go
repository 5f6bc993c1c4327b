package capability

import (
	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/taskdesc"
)

// affinity builds a TaskAffinities map from a list of (type, value) pairs,
// using the standard golden-ratio affinity tiers (spec §3/§4.7): phi^-1
// for a primary specialty, phi^-2 for a secondary one, phi^-3 for a
// tangential one.
func affinity(primary, secondary, tangential []taskdesc.TaskType) map[taskdesc.TaskType]float64 {
	m := make(map[taskdesc.TaskType]float64, len(primary)+len(secondary)+len(tangential))
	for _, t := range primary {
		m[t] = judgment.PhiInv
	}
	for _, t := range secondary {
		m[t] = judgment.PhiInv2
	}
	for _, t := range tangential {
		m[t] = judgment.PhiInv3
	}
	return m
}

// BuiltinAgents returns the eleven built-in agent capability profiles
// (spec §3/§4.7), spanning Guardian (the risk-blocking agent the Router
// prefers for high-risk tasks) and CYNIC (the synthesis/escalation
// agent) plus nine specialist agents covering the rest of the task-type
// enumeration.
func BuiltinAgents() []Capability {
	return []Capability{
		{
			Name:           "Guardian",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeSecurityAudit, taskdesc.TypeSecurityFix}, []taskdesc.TaskType{taskdesc.TypeCodeReview}, nil),
			MinComplexity:  taskdesc.ComplexitySimple,
			MaxComplexity:  taskdesc.ComplexityCritical,
			RiskTolerance:  taskdesc.RiskCritical,
			Specialties:    []string{"security", "risk-blocking"},
			ModelTier:      "tier-1",
			CanBlock:       true,
			CanEscalate:    true,
		},
		{
			Name: "CYNIC",
			TaskAffinities: affinity(
				nil,
				[]taskdesc.TaskType{taskdesc.TypeAnalysis, taskdesc.TypeQuestion, taskdesc.TypePlanning},
				[]taskdesc.TaskType{taskdesc.TypeCodeReview, taskdesc.TypeResearch, taskdesc.TypeDocumentation},
			),
			MinComplexity: taskdesc.ComplexityTrivial,
			MaxComplexity: taskdesc.ComplexityCritical,
			RiskTolerance: taskdesc.RiskHigh,
			Specialties:   []string{"synthesis", "escalation"},
			ModelTier:     "tier-1",
			CanBlock:      true,
			CanEscalate:   true,
		},
		{
			Name:           "Scribe",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeDocumentation}, []taskdesc.TaskType{taskdesc.TypeCodeReview}, []taskdesc.TaskType{taskdesc.TypeResearch}),
			MinComplexity:  taskdesc.ComplexityTrivial,
			MaxComplexity:  taskdesc.ComplexityModerate,
			RiskTolerance:  taskdesc.RiskLow,
			Specialties:    []string{"documentation", "writing"},
			ModelTier:      "tier-3",
		},
		{
			Name:           "Herald",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeCodeReview}, []taskdesc.TaskType{taskdesc.TypeCodeRefactor}, []taskdesc.TaskType{taskdesc.TypeCodeTest}),
			MinComplexity:  taskdesc.ComplexitySimple,
			MaxComplexity:  taskdesc.ComplexityComplex,
			RiskTolerance:  taskdesc.RiskMedium,
			Specialties:    []string{"code-review", "communication"},
			ModelTier:      "tier-2",
		},
		{
			Name:           "Archivist",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeResearch, taskdesc.TypeAnalysis}, []taskdesc.TaskType{taskdesc.TypeExploration}, []taskdesc.TaskType{taskdesc.TypeQuestion}),
			MinComplexity:  taskdesc.ComplexityTrivial,
			MaxComplexity:  taskdesc.ComplexityComplex,
			RiskTolerance:  taskdesc.RiskLow,
			Specialties:    []string{"research", "analysis"},
			ModelTier:      "tier-2",
		},
		{
			Name:           "Smith",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeCodeWrite, taskdesc.TypeCodeRefactor}, []taskdesc.TaskType{taskdesc.TypeCodeTest}, []taskdesc.TaskType{taskdesc.TypeCodeDebug}),
			MinComplexity:  taskdesc.ComplexitySimple,
			MaxComplexity:  taskdesc.ComplexityCritical,
			RiskTolerance:  taskdesc.RiskMedium,
			Specialties:    []string{"implementation", "refactoring"},
			ModelTier:      "tier-1",
		},
		{
			Name:           "Warden",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeSecurityFix}, []taskdesc.TaskType{taskdesc.TypeSecurityAudit, taskdesc.TypeCodeDebug}, nil),
			MinComplexity:  taskdesc.ComplexityModerate,
			MaxComplexity:  taskdesc.ComplexityCritical,
			RiskTolerance:  taskdesc.RiskCritical,
			Specialties:    []string{"incident-response"},
			ModelTier:      "tier-1",
			CanBlock:       true,
		},
		{
			Name:           "Pathfinder",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeNavigation, taskdesc.TypeSearch, taskdesc.TypeMapping}, []taskdesc.TaskType{taskdesc.TypeExploration}, nil),
			MinComplexity:  taskdesc.ComplexityTrivial,
			MaxComplexity:  taskdesc.ComplexityModerate,
			RiskTolerance:  taskdesc.RiskLow,
			Specialties:    []string{"codebase-navigation"},
			ModelTier:      "tier-3",
		},
		{
			Name:           "Mechanic",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeDeployment, taskdesc.TypeInfra}, []taskdesc.TaskType{taskdesc.TypeMaintenance, taskdesc.TypeCleanup}, nil),
			MinComplexity:  taskdesc.ComplexitySimple,
			MaxComplexity:  taskdesc.ComplexityComplex,
			RiskTolerance:  taskdesc.RiskHigh,
			Specialties:    []string{"deployment", "infrastructure"},
			ModelTier:      "tier-2",
			CanBlock:       true,
		},
		{
			Name:           "Oracle",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypePlanning, taskdesc.TypeArchitecture}, []taskdesc.TaskType{taskdesc.TypeDesign}, nil),
			MinComplexity:  taskdesc.ComplexityModerate,
			MaxComplexity:  taskdesc.ComplexityCritical,
			RiskTolerance:  taskdesc.RiskMedium,
			Specialties:    []string{"architecture", "planning"},
			ModelTier:      "tier-1",
			CanEscalate:    true,
		},
		{
			Name:           "Sentinel",
			TaskAffinities: affinity([]taskdesc.TaskType{taskdesc.TypeMonitoring}, []taskdesc.TaskType{taskdesc.TypeProfiling, taskdesc.TypeOptimization}, nil),
			MinComplexity:  taskdesc.ComplexitySimple,
			MaxComplexity:  taskdesc.ComplexityComplex,
			RiskTolerance:  taskdesc.RiskMedium,
			Specialties:    []string{"observability", "performance"},
			ModelTier:      "tier-2",
		},
	}
}

// RegisterBuiltins registers the eleven built-in agents, skipping any
// name the caller already registered so a caller's custom profile always
// wins.
func (m *Matrix) RegisterBuiltins() error {
	for _, c := range BuiltinAgents() {
		if _, ok := m.Get(c.Name); ok {
			continue
		}
		if err := m.Register(c); err != nil {
			return err
		}
	}
	return nil
}
