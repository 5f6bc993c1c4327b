package taskdesc

// typeKeywords maps each task type to the phrases that signal it. Longer
// phrases are weighted higher on match (spec §4.6 step 1).
var typeKeywords = map[TaskType][]string{
	TypeCodeReview:    {"review this code", "code review", "review the pr", "review pull request"},
	TypeCodeWrite:     {"write a function", "implement", "add a feature", "create a new"},
	TypeCodeDebug:     {"fix the bug", "debug", "not working", "stack trace", "crashes"},
	TypeCodeRefactor:  {"refactor", "clean up the code", "restructure", "simplify this function"},
	TypeCodeTest:      {"write tests", "add test coverage", "unit test", "test this"},
	TypeDesign:        {"design a", "design the", "ux", "ui mockup"},
	TypeArchitecture:  {"system architecture", "architectural decision", "design the system"},
	TypePlanning:      {"make a plan", "roadmap", "project plan", "break this down"},
	TypeSecurityAudit: {"security audit", "audit the security", "vulnerability scan", "pentest"},
	TypeSecurityFix:   {"fix the vulnerability", "patch the exploit", "security patch"},
	TypeResearch:      {"research", "investigate", "look into"},
	TypeExploration:   {"explore the codebase", "explore this", "familiarize"},
	TypeDocumentation: {"write documentation", "document this", "update the readme"},
	TypeDeployment:    {"deploy", "release to production", "ship this"},
	TypeInfra:         {"infrastructure", "provision", "terraform", "kubernetes cluster"},
	TypeMonitoring:    {"monitor", "set up alerting", "dashboard"},
	TypeAnalysis:      {"analyze", "analysis of"},
	TypeOptimization:  {"optimize", "improve performance", "speed up"},
	TypeProfiling:     {"profile this", "profiling", "benchmark"},
	TypeCleanup:       {"clean up", "remove dead code", "tidy up"},
	TypeMaintenance:   {"maintenance", "routine upkeep", "dependency bump"},
	TypeNavigation:    {"find where", "navigate to", "locate the"},
	TypeSearch:        {"search for", "grep for", "find all occurrences"},
	TypeMapping:       {"map out", "inventory of"},
	TypeQuestion:      {"what is", "how does", "why does", "can you explain"},
}

// complexityKeywords is consulted high -> moderate -> low; the first
// matching band wins (spec §4.6 step 2).
var complexityKeywords = map[Complexity][]string{
	ComplexityCritical: {"critical system", "entire architecture", "company-wide"},
	ComplexityComplex:  {"complex", "multi-step", "across several modules", "large refactor"},
	ComplexityModerate: {"moderate", "a few files", "medium-sized"},
	ComplexitySimple:   {"simple", "small change", "quick fix", "trivial"},
}

// riskKeywords is consulted critical -> high -> medium -> low, descending
// severity (spec §4.6 step 3).
var riskKeywords = map[Risk][]string{
	RiskCritical: {"delete all", "drop database", "rm -rf", "wipe production", "revoke all access"},
	RiskHigh:     {"production database", "delete", "security", "credentials", "secrets", "exploit"},
	RiskMedium:   {"modify", "update configuration", "change permissions"},
	RiskLow:      {"read-only", "view", "list"},
}

var urgencyKeywords = map[Urgency][]string{
	UrgencyHigh:   {"urgent", "asap", "immediately", "production is down", "emergency"},
	UrgencyLow:    {"whenever you get a chance", "no rush", "low priority"},
}

var scopeKeywords = map[Scope][]string{
	ScopeFile:    {"this file", "in this file", "single file"},
	ScopeModule:  {"this module", "this package", "this component"},
	ScopeProject: {"the whole project", "entire codebase", "repo-wide", "project-wide"},
}

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "this": true,
	"that": true, "to": true, "of": true, "in": true, "on": true, "for": true,
	"and": true, "or": true, "please": true, "can": true, "you": true, "it": true,
}
