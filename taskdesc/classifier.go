package taskdesc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

var (
	filePathRE  = regexp.MustCompile("(?:`([^`]+\\.[a-zA-Z0-9]+)`)|(?:\\b[\\w./-]+/[\\w./-]+\\.[a-zA-Z0-9]{1,5}\\b)")
	toolNameRE  = regexp.MustCompile(`(?i)\b(grep|sed|awk|curl|docker|kubectl|terraform|git|npm|go|pytest|jest)\b`)
)

// ruleTier is one severity band of a risk/urgency ladder, compiled into a
// single CEL program that ORs its keyword-contains checks.
type ruleTier[T ~string] struct {
	value T
	prog  cel.Program
}

// Classifier compiles the risk and urgency keyword tables into CEL
// programs once at construction, then evaluates them against extracted
// text features per call — a data-driven replacement for a hardcoded
// if/else ladder.
type Classifier struct {
	env        *cel.Env
	riskTiers  []ruleTier[Risk]
	urgencyTiers []ruleTier[Urgency]
}

// New builds a Classifier, compiling the CEL rule tiers. Returns an error
// only on a CEL environment/compile failure, which indicates a
// programming error in the keyword tables, not a runtime input problem.
func New() (*Classifier, error) {
	env, err := cel.NewEnv(cel.Variable("text", cel.StringType))
	if err != nil {
		return nil, judgment.NewResultError(judgment.ErrCodeConfig, "taskdesc", "build cel env").WithCause(err)
	}

	c := &Classifier{env: env}

	for _, tier := range []struct {
		risk Risk
		kws  []string
	}{
		{RiskCritical, riskKeywords[RiskCritical]},
		{RiskHigh, riskKeywords[RiskHigh]},
		{RiskMedium, riskKeywords[RiskMedium]},
		{RiskLow, riskKeywords[RiskLow]},
	} {
		prog, err := c.compileContainsAny(tier.kws)
		if err != nil {
			return nil, err
		}
		c.riskTiers = append(c.riskTiers, ruleTier[Risk]{value: tier.risk, prog: prog})
	}

	for _, tier := range []struct {
		urgency Urgency
		kws     []string
	}{
		{UrgencyHigh, urgencyKeywords[UrgencyHigh]},
		{UrgencyLow, urgencyKeywords[UrgencyLow]},
	} {
		prog, err := c.compileContainsAny(tier.kws)
		if err != nil {
			return nil, err
		}
		c.urgencyTiers = append(c.urgencyTiers, ruleTier[Urgency]{value: tier.urgency, prog: prog})
	}

	return c, nil
}

func (c *Classifier) compileContainsAny(keywords []string) (cel.Program, error) {
	if len(keywords) == 0 {
		keywords = []string{"\x00__never_matches__\x00"}
	}
	clauses := make([]string, len(keywords))
	for i, kw := range keywords {
		escaped := strings.ReplaceAll(kw, `"`, `\"`)
		clauses[i] = fmt.Sprintf(`text.contains("%s")`, escaped)
	}
	expr := strings.Join(clauses, " || ")

	ast, iss := c.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, judgment.NewResultError(judgment.ErrCodeConfig, "taskdesc", "compile rule").WithCause(iss.Err())
	}
	prog, err := c.env.Program(ast)
	if err != nil {
		return nil, judgment.NewResultError(judgment.ErrCodeConfig, "taskdesc", "build program").WithCause(err)
	}
	return prog, nil
}

// Classify turns raw text into a Descriptor (spec §4.6). It never errors:
// an unmatched input degrades to the unknown/none/normal/unknown
// defaults.
func (c *Classifier) Classify(text string) Descriptor {
	lower := strings.ToLower(text)

	types, typeMatched := c.classifyTypes(lower)
	complexity := classifyComplexity(lower, text)
	risk := c.classifyRisk(lower)
	urgency := c.classifyUrgency(lower)
	scope := classifyScope(lower)
	files := extractFilePaths(text)
	tools := extractTools(text)
	keywords := extractKeywords(lower)

	confidence := 0.5
	if typeMatched {
		confidence += 0.2
	}
	if len(files) > 0 {
		confidence += 0.1
	}
	if len(tools) > 0 {
		confidence += 0.1
	}
	confidence = judgment.ClampConfidence(confidence)

	primary := TypeUnknown
	if len(types) > 0 {
		primary = types[0]
	}

	return Descriptor{
		PrimaryType: primary,
		Types:       types,
		Complexity:  complexity,
		Risk:        risk,
		Urgency:     urgency,
		Scope:       scope,
		FilePaths:   files,
		Tools:       tools,
		Keywords:    keywords,
		Confidence:  confidence,
	}
}

type typeScore struct {
	t     TaskType
	score int
}

func (c *Classifier) classifyTypes(lower string) ([]TaskType, bool) {
	var scores []typeScore
	for t, phrases := range typeKeywords {
		score := 0
		for _, phrase := range phrases {
			if strings.Contains(lower, phrase) {
				score += len(strings.Fields(phrase))
			}
		}
		if score > 0 {
			scores = append(scores, typeScore{t, score})
		}
	}
	if len(scores) == 0 {
		return []TaskType{TypeUnknown}, false
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].t < scores[j].t
	})
	n := len(scores)
	if n > 3 {
		n = 3
	}
	out := make([]TaskType, n)
	for i := 0; i < n; i++ {
		out[i] = scores[i].t
	}
	return out, true
}

func classifyComplexity(lower, raw string) Complexity {
	for _, tier := range []Complexity{ComplexityCritical, ComplexityComplex, ComplexityModerate, ComplexitySimple} {
		for _, kw := range complexityKeywords[tier] {
			if strings.Contains(lower, kw) {
				return tier
			}
		}
	}
	n := len(raw)
	switch {
	case n < 50:
		return ComplexityTrivial
	case n < 200:
		return ComplexitySimple
	default:
		return ComplexityModerate
	}
}

func (c *Classifier) classifyRisk(lower string) Risk {
	for _, tier := range c.riskTiers {
		out, _, err := tier.prog.Eval(map[string]any{"text": lower})
		if err == nil {
			if matched, ok := out.Value().(bool); ok && matched {
				return tier.value
			}
		}
	}
	return RiskNone
}

func (c *Classifier) classifyUrgency(lower string) Urgency {
	for _, tier := range c.urgencyTiers {
		out, _, err := tier.prog.Eval(map[string]any{"text": lower})
		if err == nil {
			if matched, ok := out.Value().(bool); ok && matched {
				return tier.value
			}
		}
	}
	return UrgencyNormal
}

func classifyScope(lower string) Scope {
	for _, s := range []Scope{ScopeProject, ScopeModule, ScopeFile} {
		for _, kw := range scopeKeywords[s] {
			if strings.Contains(lower, kw) {
				return s
			}
		}
	}
	return ScopeUnknown
}

func extractFilePaths(text string) []string {
	matches := filePathRE.FindAllStringSubmatch(text, -1)
	var out []string
	seen := make(map[string]bool)
	for _, m := range matches {
		candidate := m[1]
		if candidate == "" {
			candidate = m[0]
		}
		if candidate != "" && !seen[candidate] {
			seen[candidate] = true
			out = append(out, candidate)
		}
	}
	return out
}

func extractTools(text string) []string {
	matches := toolNameRE.FindAllString(text, -1)
	seen := make(map[string]bool)
	var out []string
	for _, m := range matches {
		lower := strings.ToLower(m)
		if !seen[lower] {
			seen[lower] = true
			out = append(out, lower)
		}
	}
	return out
}

const maxKeywords = 10

func extractKeywords(lower string) []string {
	words := strings.Fields(lower)
	var out []string
	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()[]{}")
		if w == "" || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= maxKeywords {
			break
		}
	}
	return out
}
