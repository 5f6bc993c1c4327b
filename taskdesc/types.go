// Package taskdesc implements the Task Descriptor: classification of raw
// text input into a TaskDescriptor (spec §4.6).
package taskdesc

// TaskType is one member of the closed task-type enumeration.
type TaskType string

const (
	TypeCodeReview    TaskType = "code_review"
	TypeCodeWrite     TaskType = "code_write"
	TypeCodeDebug     TaskType = "code_debug"
	TypeCodeRefactor  TaskType = "code_refactor"
	TypeCodeTest      TaskType = "code_test"
	TypeDesign        TaskType = "design"
	TypeArchitecture  TaskType = "architecture"
	TypePlanning      TaskType = "planning"
	TypeSecurityAudit TaskType = "security_audit"
	TypeSecurityFix   TaskType = "security_fix"
	TypeResearch      TaskType = "research"
	TypeExploration   TaskType = "exploration"
	TypeDocumentation TaskType = "documentation"
	TypeDeployment    TaskType = "deployment"
	TypeInfra         TaskType = "infrastructure"
	TypeMonitoring    TaskType = "monitoring"
	TypeAnalysis      TaskType = "analysis"
	TypeOptimization  TaskType = "optimization"
	TypeProfiling     TaskType = "profiling"
	TypeCleanup       TaskType = "cleanup"
	TypeMaintenance   TaskType = "maintenance"
	TypeNavigation    TaskType = "navigation"
	TypeSearch        TaskType = "search"
	TypeMapping       TaskType = "mapping"
	TypeQuestion      TaskType = "question"
	TypeUnknown       TaskType = "unknown"
)

// Complexity is the estimated difficulty of a task.
type Complexity string

const (
	ComplexityTrivial  Complexity = "trivial"
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityCritical Complexity = "critical"
)

// Risk is the estimated risk level of performing a task.
type Risk string

const (
	RiskNone     Risk = "none"
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

// Urgency is how soon a task needs attention.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Scope is how broad a task's blast radius is expected to be.
type Scope string

const (
	ScopeFile    Scope = "file"
	ScopeModule  Scope = "module"
	ScopeProject Scope = "project"
	ScopeUnknown Scope = "unknown"
)

// Descriptor is the classification of a raw text prompt (spec §3).
type Descriptor struct {
	PrimaryType TaskType   `json:"primaryType"`
	Types       []TaskType `json:"types"`
	Complexity  Complexity `json:"complexity"`
	Risk        Risk       `json:"risk"`
	Urgency     Urgency    `json:"urgency"`
	Scope       Scope      `json:"scope"`
	FilePaths   []string   `json:"filePaths,omitempty"`
	Tools       []string   `json:"tools,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	Confidence  float64    `json:"confidence"`
}
