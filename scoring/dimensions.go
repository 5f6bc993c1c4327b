package scoring

import (
	"strings"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

// BuiltinDimensions is the default table of ~7 dimensions per axiom (spec
// §3). Weight and threshold are the starting values before any learned
// modifier or context multiplier is applied.
var BuiltinDimensions = buildBuiltinDimensions()

func buildBuiltinDimensions() []judgment.Dimension {
	type spec struct {
		name, desc string
	}
	table := map[judgment.Axiom][]spec{
		judgment.AxiomPhi: {
			{"STRUCTURE", "Fibonacci-scaled paragraph and clause structure"},
			{"BREVITY", "absence of verbosity and filler"},
			{"RHYTHM", "self-similar sentence-length cadence"},
			{"PROPORTION", "word-to-sentence and section balance"},
			{"SELF_SIMILARITY", "recurring structural motifs"},
			{"COHERENCE", "logical flow between statements"},
			{"ELEGANCE", "economy of expression"},
		},
		judgment.AxiomVerify: {
			{"EVIDENCE", "presence of supporting evidence"},
			{"SIGNATURE", "cryptographic or attributable signature"},
			{"REPRODUCIBILITY", "steps a third party could repeat"},
			{"SOURCING", "named, checkable sources"},
			{"REASONING", "explicit chain of reasoning"},
			{"PROVENANCE", "traceable origin of claims"},
			{"ACCURACY", "absence of contradiction"},
		},
		judgment.AxiomCulture: {
			{"AUTHORSHIP", "identifiable authored provenance"},
			{"RECENCY", "freshness within a sliding window"},
			{"RESONANCE", "emotional, non-corporate register"},
			{"ENGAGEMENT", "engagement/usage signal"},
			{"TAGGING", "descriptive tags present"},
			{"AUTHENTICITY", "absence of boilerplate"},
			{"CONTEXT", "situational relevance"},
		},
		judgment.AxiomBurn: {
			{"UTILITY", "declared practical utility"},
			{"CONTRIBUTION", "contribution to a shared goal"},
			{"IRREVERSIBILITY", "on-chain or otherwise irreversible commitment"},
			{"EFFICIENCY", "low resource use"},
			{"COMMITMENT_COST", "cost actually borne by the author"},
			{"SCARCITY", "non-dilutive, bounded claims"},
			{"IMPACT", "magnitude of declared effect"},
		},
		judgment.AxiomFidelity: {
			{"FOLLOWTHROUGH", "commitments followed through"},
			{"AUDITABILITY", "presence of an audit trail"},
			{"HONESTY", "absence of overclaiming"},
			{"HUMILITY", "acknowledged limitations"},
			{"CONSISTENCY", "internal consistency"},
			{"TESTABILITY", "presence of tests or verifiable claims"},
			{"TRANSPARENCY", "disclosure of method"},
		},
	}

	var dims []judgment.Dimension
	for _, axiom := range []judgment.Axiom{
		judgment.AxiomPhi, judgment.AxiomVerify, judgment.AxiomCulture,
		judgment.AxiomBurn, judgment.AxiomFidelity,
	} {
		for _, s := range table[axiom] {
			dims = append(dims, judgment.Dimension{
				Name: s.name, Axiom: axiom, Weight: 1.0, Threshold: 50,
				Description: s.desc,
			})
		}
	}
	return dims
}

// DimensionsByAxiom indexes BuiltinDimensions by axiom for fast lookup.
func DimensionsByAxiom() map[judgment.Axiom][]judgment.Dimension {
	out := make(map[judgment.Axiom][]judgment.Dimension)
	for _, d := range BuiltinDimensions {
		out[d.Axiom] = append(out[d.Axiom], d)
	}
	return out
}

func (r *Registry) registerBuiltins() {
	for _, d := range BuiltinDimensions {
		axiom, name := d.Axiom, d.Name
		r.Register(name, func(item judgment.Item, ctx Context) float64 {
			base := scoreForAxiom(axiom, item, ctx)
			delta, ok := dimensionDeltas[name]
			if !ok {
				return base
			}
			return judgment.Clamp01To100(base + delta(item, ctx))
		})
	}
}

// dimensionDeltas gives each dimension within an axiom its own additive
// adjustment on top of the axiom's shared base score, so dimensions in
// the same axiom diverge instead of collapsing to one value (spec §4.1:
// "each dimension has an individual scorer function").
var dimensionDeltas = map[string]func(judgment.Item, Context) float64{
	// PHI
	"STRUCTURE": func(item judgment.Item, _ Context) float64 {
		paras := strings.Count(item.Text(), "\n\n") + 1
		if paras >= 2 && paras <= 8 {
			return 8
		}
		return -4
	},
	"BREVITY": func(item judgment.Item, _ Context) float64 {
		text := item.Text()
		d := -FillerWordRatio(text) * 30
		if WordCount(text) < 100 {
			d += 6
		}
		return d
	},
	"RHYTHM": func(item judgment.Item, _ Context) float64 {
		if InFibonacciRange(WordsPerSentence(item.Text()), 8, 21) {
			return 8
		}
		return -5
	},
	"PROPORTION": func(item judgment.Item, _ Context) float64 {
		avg := AvgWordLength(item.Text())
		if avg >= 4 && avg <= 7 {
			return 7
		}
		return -4
	},
	"SELF_SIMILARITY": func(item judgment.Item, _ Context) float64 {
		return HalfSimilarity(item.Text())*16 - 4
	},
	"COHERENCE": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "because", "therefore", "thus", "so that") {
			return 9
		}
		return -3
	},
	"ELEGANCE": func(item judgment.Item, _ Context) float64 {
		text := item.Text()
		if AvgWordLength(text) < 6 && FillerWordRatio(text) < 0.05 {
			return 9
		}
		return -3
	},

	// VERIFY
	"EVIDENCE": func(item judgment.Item, _ Context) float64 {
		if hasDigitRE.MatchString(item.Text()) {
			return 8
		}
		return -3
	},
	"SIGNATURE": func(item judgment.Item, _ Context) float64 {
		if item.Signature != "" {
			return 12
		}
		return -4
	},
	"REPRODUCIBILITY": func(item judgment.Item, _ Context) float64 {
		if HasCodePattern(item.Text()) {
			return 10
		}
		return -3
	},
	"SOURCING": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "http://", "https://", "source:") {
			return 10
		}
		return -3
	},
	"REASONING": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "because", "therefore", "given that") {
			return 7
		}
		return -2
	},
	"PROVENANCE": func(item judgment.Item, _ Context) float64 {
		if item.Author != "" && item.CreatedAtMs > 0 {
			return 10
		}
		return -4
	},
	"ACCURACY": func(item judgment.Item, _ Context) float64 {
		text := item.Text()
		if !HasOverconfidentLanguage(text) && !HasTrustMeLanguage(text) {
			return 6
		}
		return -6
	},

	// CULTURE
	"AUTHORSHIP": func(item judgment.Item, _ Context) float64 {
		if item.Author != "" {
			return 10
		}
		return -4
	},
	"RECENCY": func(item judgment.Item, _ Context) float64 {
		if item.CreatedAtMs > 0 {
			return 8
		}
		return -2
	},
	"RESONANCE": func(item judgment.Item, _ Context) float64 {
		if HasCorporateJargon(item.Text()) {
			return -10
		}
		return 5
	},
	"ENGAGEMENT": func(item judgment.Item, _ Context) float64 {
		if item.UsageCount > 10 {
			return 9
		}
		if item.UsageCount > 0 {
			return 4
		}
		return -2
	},
	"TAGGING": func(item judgment.Item, _ Context) float64 {
		if len(item.Tags) >= 2 {
			return 8
		}
		return -3
	},
	"AUTHENTICITY": func(item judgment.Item, _ Context) float64 {
		if HasCorporateJargon(item.Text()) {
			return -14
		}
		return 4
	},
	"CONTEXT": func(_ judgment.Item, ctx Context) float64 {
		if ctx.QueryType != "" {
			return 6
		}
		return -2
	},

	// BURN
	"UTILITY": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "useful", "utility", "usable") {
			return 8
		}
		return -2
	},
	"CONTRIBUTION": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "contribute", "donate") {
			return 9
		}
		return -3
	},
	"IRREVERSIBILITY": func(item judgment.Item, _ Context) float64 {
		if item.OnChain {
			return 14
		}
		return -4
	},
	"EFFICIENCY": func(item judgment.Item, _ Context) float64 {
		if WordCount(item.Text()) < 150 {
			return 7
		}
		return -3
	},
	"COMMITMENT_COST": func(item judgment.Item, _ Context) float64 {
		if item.OnChain && item.Hash != "" {
			return 12
		}
		return -4
	},
	"SCARCITY": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "limited", "bounded", "scarce", "capped") {
			return 8
		}
		return -2
	},
	"IMPACT": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "impact", "significant", "material") {
			return 7
		}
		return -2
	},

	// FIDELITY
	"FOLLOWTHROUGH": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "completed", "shipped", "done") {
			return 9
		}
		return -3
	},
	"AUDITABILITY": func(item judgment.Item, _ Context) float64 {
		if item.Hash != "" || HasCodePattern(item.Text()) {
			return 9
		}
		return -3
	},
	"HONESTY": func(item judgment.Item, _ Context) float64 {
		if HasOverconfidentLanguage(item.Text()) {
			return -12
		}
		return 5
	},
	"HUMILITY": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "limitation", "caveat", "however") {
			return 8
		}
		return -2
	},
	"CONSISTENCY": func(item judgment.Item, _ Context) float64 {
		return HalfSimilarity(item.Text())*14 - 3
	},
	"TESTABILITY": func(item judgment.Item, _ Context) float64 {
		text := item.Text()
		if HasCodePattern(text) && ContainsAny(text, "test", "assert") {
			return 11
		}
		return -3
	},
	"TRANSPARENCY": func(item judgment.Item, _ Context) float64 {
		if ContainsAny(item.Text(), "method", "approach", "process") {
			return 7
		}
		return -2
	},
}

func scoreForAxiom(axiom judgment.Axiom, item judgment.Item, ctx Context) float64 {
	switch axiom {
	case judgment.AxiomPhi:
		return scorePhi(item, ctx)
	case judgment.AxiomVerify:
		return scoreVerify(item, ctx)
	case judgment.AxiomCulture:
		return scoreCulture(item, ctx)
	case judgment.AxiomBurn:
		return scoreBurn(item, ctx)
	case judgment.AxiomFidelity:
		return scoreFidelity(item, ctx)
	default:
		return 50.0
	}
}

// scorePhi rewards Fibonacci-ranged structure and penalizes verbosity and
// filler, per spec §4.1.
func scorePhi(item judgment.Item, _ Context) float64 {
	text := item.Text()
	score := 50.0

	wps := WordsPerSentence(text)
	if InFibonacciRange(wps, 13, 21) {
		score += 15
	} else if wps > 0 && wps < 5 {
		score -= 5
	}

	words := WordCount(text)
	if InFibonacciRange(float64(words), 21, 987) {
		score += 10
	}

	if n, ok := keyCount(item); ok && n >= 3 && n <= 13 {
		score += 10
	}

	score -= FillerWordRatio(text) * 40
	if words > 987 {
		score -= 10
	}

	return judgment.Clamp01To100(score - RiskPenalty(text))
}

func keyCount(item judgment.Item) (int, bool) {
	if item.Metadata == nil {
		return 0, false
	}
	return len(item.Metadata), true
}

// scoreVerify rewards signatures/hashes/reasoning/reproducibility and
// penalizes unverifiable assurance language.
func scoreVerify(item judgment.Item, _ Context) float64 {
	text := item.Text()
	score := 45.0

	if item.Signature != "" {
		score += 15
	}
	if item.Hash != "" {
		score += 10
	}
	if item.Verified {
		score += 10
	}
	if strings.Contains(strings.ToLower(text), "because") || strings.Contains(strings.ToLower(text), "therefore") {
		score += 8
	}
	if HasTrustMeLanguage(text) {
		score -= 15
	}
	if HasAnonymousClaim(text) {
		score -= 15
	}

	return judgment.Clamp01To100(score - RiskPenalty(text))
}

// scoreCulture rewards authored provenance, recency, tags, and
// non-corporate emotional register.
func scoreCulture(item judgment.Item, _ Context) float64 {
	text := item.Text()
	score := 50.0

	if item.Author != "" {
		score += 10
	}
	if len(item.Tags) > 0 {
		score += 8
	}
	if item.CreatedAtMs > 0 {
		score += 5
	}
	if item.UsageCount > 0 {
		score += 7
	}
	if HasCorporateJargon(text) {
		score -= 20
	}

	return judgment.Clamp01To100(score - RiskPenalty(text))
}

// scoreBurn rewards declared utility, contribution, and irreversibility;
// penalizes extractive keyword patterns.
func scoreBurn(item judgment.Item, _ Context) float64 {
	text := item.Text()
	score := 50.0

	if item.OnChain {
		score += 15
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "contribute") || strings.Contains(lower, "donate") {
		score += 10
	}
	if strings.Contains(lower, "open source") || strings.Contains(lower, "public good") {
		score += 8
	}

	return judgment.Clamp01To100(score - RiskPenalty(text))
}

// scoreFidelity rewards follow-through, audit trails, tests, and
// acknowledged limitations; penalizes overconfidence.
func scoreFidelity(item judgment.Item, _ Context) float64 {
	text := item.Text()
	score := 50.0

	if HasCodePattern(text) && (strings.Contains(strings.ToLower(text), "test") || strings.Contains(strings.ToLower(text), "assert")) {
		score += 12
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "limitation") || strings.Contains(lower, "caveat") || strings.Contains(lower, "however") {
		score += 8
	}
	if HasOverconfidentLanguage(text) {
		score -= 18
	}

	return judgment.Clamp01To100(score - RiskPenalty(text))
}
