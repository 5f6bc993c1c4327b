package judge

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/scoring"
)

// WeightProvider supplies a learned multiplier for a dimension's base
// weight (spec §4.2 step 2). A nil provider is equivalent to a provider
// that always returns 1.0; the Learning Service implements this
// interface without the Judge importing the learning package.
type WeightProvider interface {
	Modifier(dimension string) float64
}

type neutralWeights struct{}

func (neutralWeights) Modifier(string) float64 { return 1.0 }

// Judge aggregates per-dimension scores into a full Judgment (spec §4.2).
type Judge struct {
	cfg      Config
	registry *scoring.Registry
	weights  WeightProvider
}

// New builds a Judge over the given config and scorer registry. A nil
// registry defaults to scoring.NewRegistry(); a nil weights provider
// defaults to an identity (1.0) modifier for every dimension.
func New(cfg Config, registry *scoring.Registry, weights WeightProvider) *Judge {
	if registry == nil {
		registry = scoring.NewRegistry()
	}
	if weights == nil {
		weights = neutralWeights{}
	}
	return &Judge{cfg: cfg, registry: registry, weights: weights}
}

// Dimensions returns the dimension table this Judge scores against: the
// config's override table if non-empty, else the scoring package builtins.
func (j *Judge) Dimensions() []judgment.Dimension {
	if len(j.cfg.Dimensions) > 0 {
		return j.cfg.Dimensions
	}
	return scoring.BuiltinDimensions
}

// Judge computes a full Judgment for item under the given query context
// (spec §4.2 steps 1-7). It never errors: unscoreable dimensions degrade
// to the neutral score via the Scoring Kernel, and an unrecognized query
// type simply skips the context multiplier step.
func (j *Judge) Judge(item judgment.Item, ctx scoring.Context) judgment.Judgment {
	dims := j.Dimensions()

	dimScores := make(map[string]float64, len(dims))
	axiomWeighted := make(map[judgment.Axiom]float64)
	axiomWeightTotal := make(map[judgment.Axiom]float64)

	for _, d := range dims {
		raw := j.registry.Score(d.Name, item, ctx)
		dimScores[d.Name] = raw

		modifier := clampModifier(j.weights.Modifier(d.Name))
		effectiveWeight := d.Weight * modifier

		axiomWeighted[d.Axiom] += raw * effectiveWeight
		axiomWeightTotal[d.Axiom] += effectiveWeight
	}

	axiomScores := make(map[judgment.Axiom]float64, len(axiomWeighted))
	for axiom, weighted := range axiomWeighted {
		total := axiomWeightTotal[axiom]
		score := 50.0
		if total > 0 {
			score = weighted / total
		}
		if mult, ok := j.cfg.Multipliers[ctx.QueryType]; ok {
			if m, ok := mult[axiom]; ok {
				score *= clamp(m, multiplierMin, multiplierMax)
			}
		}
		axiomScores[axiom] = judgment.Clamp01To100(score)
	}

	globalScore := weightedAxiomMean(axiomScores, j.cfg.AxiomWeights)
	verdict := judgment.VerdictForScore(globalScore)
	weak := computeWeaknesses(axiomScores, globalScore)

	residual := computeResidual(globalScore, dimScores)
	confidence := computeConfidence(residual, len(dimScores))

	return judgment.Judgment{
		ID:          uuid.NewString(),
		ItemType:    ctx.QueryType,
		GlobalScore: globalScore,
		Verdict:     verdict,
		Dimensions:  dimScores,
		AxiomScores: axiomScores,
		Confidence:  confidence,
		Residual:    residual,
		Weaknesses:  weak,
		Timestamp:   time.Now(),
	}
}

func clampModifier(m float64) float64 {
	const lo = 1 - judgment.PhiInv2
	const hi = 1 + judgment.PhiInv2
	return clamp(m, lo, hi)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func weightedAxiomMean(axiomScores map[judgment.Axiom]float64, weights map[judgment.Axiom]float64) float64 {
	var num, den float64
	for axiom, score := range axiomScores {
		w := weights[axiom]
		if w == 0 {
			w = 1.0
		}
		num += score * w
		den += w
	}
	if den == 0 {
		return 50.0
	}
	return judgment.Clamp01To100(num / den)
}

func computeWeaknesses(axiomScores map[judgment.Axiom]float64, global float64) judgment.Weaknesses {
	if len(axiomScores) == 0 {
		return judgment.Weaknesses{}
	}
	var weakest judgment.Axiom
	min := math.Inf(1)
	for axiom, score := range axiomScores {
		if score < min {
			min = score
			weakest = axiom
		}
	}
	gap := global - min
	return judgment.Weaknesses{
		HasWeakness:  gap > 10,
		WeakestAxiom: weakest,
		Gap:          judgment.Clamp01To100(gap),
	}
}

// computeResidual is the variance between the global score and the mean
// of the non-meta dimensions, normalized into [0,1] (spec §4.2 step 6,
// §4.3 step 1).
func computeResidual(globalScore float64, dimScores map[string]float64) float64 {
	var total float64
	n := 0
	for name, score := range dimScores {
		if name == judgment.UnnameableDimension {
			continue
		}
		total += score
		n++
	}
	if n == 0 {
		return 0
	}
	mean := total / float64(n)
	residual := math.Abs(globalScore-mean) / 100.0
	if residual > 1 {
		residual = 1
	}
	return residual
}

// computeConfidence is a monotonic function of (1 - residual) and
// evidence count, capped at φ⁻¹ (spec §4.2 step 7).
func computeConfidence(residual float64, evidenceCount int) float64 {
	base := (1 - residual) * judgment.PhiInv
	evidenceFactor := 1.0
	if evidenceCount < 5 {
		evidenceFactor = 0.8
	}
	return judgment.ClampConfidence(base * evidenceFactor)
}

// Unnameable derives THE_UNNAMEABLE meta-dimension score from a
// judgment's residual, per spec §4.2 step 6 and the Open Question
// decision recorded in DESIGN.md.
func Unnameable(residual float64) float64 {
	return judgment.Clamp01To100(100 - residual*100)
}
