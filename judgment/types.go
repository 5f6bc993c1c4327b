// Package judgment holds the core data model shared by every component of
// the judgment and routing core: items, dimensions, axioms, judgments,
// votes, tasks, and the wrapped error type used at component boundaries.
package judgment

import (
	"math"
	"time"
)

// PhiInv is the golden-ratio inverse, φ⁻¹ ≈ 0.618033988749895. It is the
// universal ceiling for confidence values produced anywhere in the core.
const PhiInv = 0.6180339887498949

// PhiInv2 is φ⁻²: weight modifiers are clamped to 1 ± φ⁻², and it is the
// floor for several decayed confidences.
const PhiInv2 = PhiInv * PhiInv

// PhiInv3 is φ⁻³, used as a default learning rate and affinity step size.
const PhiInv3 = PhiInv2 * PhiInv

// Axiom is one of the five fixed families of scoring dimensions, plus the
// distinguished meta axiom for THE_UNNAMEABLE.
type Axiom string

const (
	AxiomPhi      Axiom = "PHI"
	AxiomVerify   Axiom = "VERIFY"
	AxiomCulture  Axiom = "CULTURE"
	AxiomBurn     Axiom = "BURN"
	AxiomFidelity Axiom = "FIDELITY"
	AxiomMeta     Axiom = "META"
)

// UnnameableDimension is the distinguished meta dimension representing
// variance not captured by the other named dimensions.
const UnnameableDimension = "THE_UNNAMEABLE"

// Verdict is the coarse classification of a judgment's global score.
type Verdict string

const (
	VerdictBark  Verdict = "BARK"
	VerdictGrowl Verdict = "GROWL"
	VerdictWag   Verdict = "WAG"
	VerdictHowl  Verdict = "HOWL"
)

// VerdictForScore derives the verdict from a global score using the fixed
// thresholds: HOWL >= 85, WAG >= 62, GROWL >= 38, BARK < 38.
func VerdictForScore(score float64) Verdict {
	switch {
	case score >= 85:
		return VerdictHowl
	case score >= 62:
		return VerdictWag
	case score >= 38:
		return VerdictGrowl
	default:
		return VerdictBark
	}
}

// Clamp01To100 clamps a score into [0,100] and rounds to one decimal place.
func Clamp01To100(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return math.Round(v*10) / 10
}

// ClampConfidence enforces I2: confidence is always in (0, φ⁻¹].
func ClampConfidence(c float64) float64 {
	if c > PhiInv {
		c = PhiInv
	}
	if c <= 0 {
		c = 0.01
	}
	return c
}

// Dimension is a single named scoring criterion attached to one axiom.
type Dimension struct {
	Name        string         `yaml:"name" json:"name"`
	Axiom       Axiom          `yaml:"axiom" json:"axiom"`
	Weight      float64        `yaml:"weight" json:"weight"`
	Threshold   float64        `yaml:"threshold" json:"threshold"`
	Description string         `yaml:"description" json:"description"`
	Meta        map[string]any `yaml:"meta,omitempty" json:"meta,omitempty"`
}

// Item is the object being evaluated: an untyped record with an identifier,
// a free-text payload, optional metadata, and an optional explicit score
// override map.
type Item struct {
	ID            string         `json:"id"`
	Content       string         `json:"content,omitempty"`
	Body          string         `json:"body,omitempty"`
	Text_         string         `json:"text,omitempty"`
	Data          string         `json:"data,omitempty"`
	Description   string         `json:"description,omitempty"`
	Author        string         `json:"author,omitempty"`
	CreatedAtMs   int64          `json:"createdAtMs,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	UsageCount    int64          `json:"usageCount,omitempty"`
	Signature     string         `json:"signature,omitempty"`
	Hash          string         `json:"hash,omitempty"`
	Verified      bool           `json:"verified,omitempty"`
	OnChain       bool           `json:"onChain,omitempty"`
	Scores        map[string]float64 `json:"scores,omitempty"`
	DerivedScores map[string]float64 `json:"derivedScores,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Text returns the first nonempty of content/body/text/data/description,
// matching the teacher's single-accessor idiom for loosely-typed payloads.
func (i Item) Text() string {
	for _, s := range []string{i.Content, i.Body, i.Text_, i.Data, i.Description} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Weaknesses summarizes the weakest axiom of a judgment and its gap to the
// axiom-score mean.
type Weaknesses struct {
	HasWeakness  bool    `json:"hasWeakness"`
	WeakestAxiom Axiom   `json:"weakestAxiom,omitempty"`
	Gap          float64 `json:"gap"`
}

// Judgment is the immutable output of the Judge or the Orchestrator.
type Judgment struct {
	ID          string             `json:"id"`
	ItemType    string             `json:"itemType,omitempty"`
	GlobalScore float64            `json:"globalScore"`
	Verdict     Verdict            `json:"verdict"`
	Dimensions  map[string]float64 `json:"dimensions"`
	AxiomScores map[Axiom]float64  `json:"axiomScores"`
	Confidence  float64            `json:"confidence"`
	Residual    float64            `json:"residual"`
	Weaknesses  Weaknesses         `json:"weaknesses"`
	Timestamp   time.Time          `json:"timestamp"`

	// Blocked/BlockedBy/Votes are populated only when the judgment is the
	// product of the Orchestrator's voter fan-out (§4.10).
	Blocked   bool    `json:"blocked,omitempty"`
	BlockedBy string  `json:"blockedBy,omitempty"`
	Votes     []Vote  `json:"votes,omitempty"`
	Insights  []string `json:"insights,omitempty"`
	LatencyMs int64   `json:"latencyMs,omitempty"`
}

// VoteResponse is a voter's disposition toward the item under evaluation.
type VoteResponse string

const (
	ResponseAllow   VoteResponse = "allow"
	ResponseBlock   VoteResponse = "block"
	ResponseApprove VoteResponse = "approve"
)

// Vote is one voter's contribution to an orchestrated judgment.
type Vote struct {
	VoterID    string             `json:"voterId"`
	Score      float64            `json:"score"`
	Verdict    Verdict            `json:"verdict,omitempty"`
	Response   VoteResponse       `json:"response"`
	Weight     float64            `json:"weight"`
	Blocking   bool               `json:"blocking,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
	Insights   []string           `json:"insights,omitempty"`
	Success    bool               `json:"success"`
	Error      string             `json:"error,omitempty"`
	LatencyMs  int64              `json:"latencyMs,omitempty"`
}
