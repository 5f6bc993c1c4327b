// Package residual implements the Residual Detector (THE_UNNAMEABLE):
// tracking unexplained variance between a judgment's global score and its
// named dimensions, clustering recurring anomalies, and proposing new
// dimensions for governance to accept.
package residual

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/scoring"
)

const (
	// anomalyThreshold is φ⁻², the residual value above which a judgment
	// is flagged as an anomaly (spec §4.3 step 2).
	anomalyThreshold = judgment.PhiInv2
	// weakDimensionCeiling is the score below which a dimension counts as
	// "weak" for clustering purposes.
	weakDimensionCeiling = 30.0

	maxAnomalies      = 1000
	maxCandidates      = 100
	defaultMinSamples  = 3
	dailyPromotionCap  = 3
)

// Anomaly is one recorded disagreement between a judgment's global score
// and the mean of its named dimensions.
type Anomaly struct {
	JudgmentID   string
	Residual     float64
	WeakDims     []string
	RecordedAt   time.Time
}

// Candidate is a clustered pattern of persistently weak named dimensions
// proposed as a potential new dimension.
type Candidate struct {
	Key           string
	WeakDims      []string
	SampleCount   int
	AvgResidual   float64
	SuggestedAxiom judgment.Axiom
	SuggestedName  string
	Confidence     float64
	FirstSeen      time.Time
	LastSeen       time.Time
}

// GovernanceDecision is what a governance collaborator (spec §6) returns
// for a promotion question.
type GovernanceDecision struct {
	Decision   string // "approve" or "reject"
	Confidence float64
	Votes      int
}

// Governance is the optional collaborator that decides whether a
// candidate is promoted to a registered dimension. A nil Governance
// means "auto-approve when candidate confidence >= phi^-1".
type Governance interface {
	Decide(candidate Candidate) (GovernanceDecision, error)
}

// StorageAdapter is the optional persistence collaborator from spec §6.
// A nil adapter means everything lives in memory only.
type StorageAdapter interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	LoadDiscoveredDimensions() ([]judgment.Dimension, error)
	SaveDiscoveredDimension(d judgment.Dimension) error
	MarkCandidatePromoted(key string) error
	MarkCandidateRejected(key string) error
	LogGovernanceDecision(decision GovernanceDecision) error
}

// Detector is the Residual Detector component (spec §4.3).
type Detector struct {
	mu          sync.Mutex
	anomalies   []Anomaly
	candidates  map[string]*Candidate
	discoveries []judgment.Dimension
	minSamples  int
	promotions  []time.Time
	storage     StorageAdapter
	governance  Governance
	dimAxiom    map[string]judgment.Axiom
}

// New builds a Detector. storage and governance may both be nil. The
// dimension->axiom map used by dominantAxiom is seeded from the built-in
// dimension table and extended with any dimensions storage had already
// discovered.
func New(storage StorageAdapter, governance Governance) *Detector {
	d := &Detector{
		candidates: make(map[string]*Candidate),
		minSamples: defaultMinSamples,
		storage:    storage,
		governance: governance,
		dimAxiom:   dimensionAxiomMap(scoring.BuiltinDimensions),
	}
	if storage != nil {
		if dims, err := storage.LoadDiscoveredDimensions(); err == nil {
			d.discoveries = dims
			for _, dim := range dims {
				d.dimAxiom[dim.Name] = dim.Axiom
			}
		}
	}
	return d
}

func dimensionAxiomMap(dims []judgment.Dimension) map[string]judgment.Axiom {
	out := make(map[string]judgment.Axiom, len(dims))
	for _, d := range dims {
		out[d.Name] = d.Axiom
	}
	return out
}

// Analyze records whether judgment is an anomaly and, if so, updates the
// candidate cluster it belongs to (spec §4.3 steps 1-3).
func (d *Detector) Analyze(j judgment.Judgment) (isAnomaly bool, residual float64) {
	residual = computeResidual(j)
	if residual <= anomalyThreshold {
		return false, residual
	}

	weak := weakDimensions(j)
	d.mu.Lock()
	defer d.mu.Unlock()

	d.recordAnomaly(j.ID, residual, weak)
	if len(weak) > 0 {
		d.updateCandidate(weak, residual)
	}
	return true, residual
}

func computeResidual(j judgment.Judgment) float64 {
	if j.Residual > 0 {
		return j.Residual
	}
	var total float64
	n := 0
	for name, score := range j.Dimensions {
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
	r := math.Abs(j.GlobalScore-mean) / 100.0
	if r > 1 {
		r = 1
	}
	return r
}

func weakDimensions(j judgment.Judgment) []string {
	var weak []string
	for name, score := range j.Dimensions {
		if name == judgment.UnnameableDimension {
			continue
		}
		if score < weakDimensionCeiling {
			weak = append(weak, name)
		}
	}
	sort.Strings(weak)
	return weak
}

func (d *Detector) recordAnomaly(judgmentID string, residual float64, weak []string) {
	d.anomalies = append(d.anomalies, Anomaly{
		JudgmentID: judgmentID, Residual: residual, WeakDims: weak, RecordedAt: time.Now(),
	})
	if len(d.anomalies) > maxAnomalies {
		d.anomalies = d.anomalies[len(d.anomalies)-maxAnomalies:]
	}
}

func (d *Detector) updateCandidate(weak []string, residual float64) {
	key := strings.Join(weak, "|")
	c, ok := d.candidates[key]
	if !ok {
		if len(d.candidates) >= maxCandidates {
			return
		}
		c = &Candidate{Key: key, WeakDims: weak, FirstSeen: time.Now()}
		d.candidates[key] = c
	}
	c.SampleCount++
	c.AvgResidual = (c.AvgResidual*float64(c.SampleCount-1) + residual) / float64(c.SampleCount)
	c.LastSeen = time.Now()

	if c.SampleCount >= d.minSamples {
		c.SuggestedAxiom = d.dominantAxiom(weak)
		c.SuggestedName = suggestedName(key)
		c.Confidence = judgment.ClampConfidence(
			math.Min(judgment.PhiInv, judgment.PhiInv2+judgment.PhiInv3*math.Sqrt(float64(c.SampleCount))/10),
		)
	}
}

// dominantAxiom picks the axiom owning the most weak dimensions, per
// spec §4.3 step 3. Dimensions with no known axiom (never registered,
// e.g. an already-discovered dimension loaded before its owning axiom
// was known) don't count toward any axiom's tally; ties are broken by
// axiom enumeration order, and an empty or entirely-unmapped tally
// defaults to META.
func (d *Detector) dominantAxiom(weak []string) judgment.Axiom {
	counts := make(map[judgment.Axiom]int, len(weak))
	for _, name := range weak {
		if axiom, ok := d.dimAxiom[name]; ok {
			counts[axiom]++
		}
	}

	best := judgment.AxiomMeta
	bestCount := 0
	for _, axiom := range []judgment.Axiom{
		judgment.AxiomPhi, judgment.AxiomVerify, judgment.AxiomCulture,
		judgment.AxiomBurn, judgment.AxiomFidelity,
	} {
		if counts[axiom] > bestCount {
			bestCount = counts[axiom]
			best = axiom
		}
	}
	return best
}

func suggestedName(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "UNNAMED_" + hex.EncodeToString(sum[:])[:8]
}

// Candidates returns a snapshot of candidates that have reached the
// minimum sample count and are therefore eligible for promotion.
func (d *Detector) Candidates() []Candidate {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []Candidate
	for _, c := range d.candidates {
		if c.SampleCount >= d.minSamples {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Promote attempts to promote a candidate to a registered discovery. It
// consults the governance collaborator when present, else auto-approves
// when the candidate's confidence reaches phi^-1. Promotion respects the
// hard daily cap of 3 (spec §4.3 invariants, P5).
func (d *Detector) Promote(key string) (judgment.Dimension, bool, error) {
	d.mu.Lock()
	c, ok := d.candidates[key]
	if !ok {
		d.mu.Unlock()
		return judgment.Dimension{}, false, nil
	}
	candidate := *c
	d.mu.Unlock()

	if !d.withinDailyBudget() {
		return judgment.Dimension{}, false, nil
	}

	approved := false
	if d.governance != nil {
		decision, err := d.governance.Decide(candidate)
		if err != nil {
			return judgment.Dimension{}, false, err
		}
		if d.storage != nil {
			_ = d.storage.LogGovernanceDecision(decision)
		}
		approved = decision.Decision == "approve"
	} else {
		approved = candidate.Confidence >= judgment.PhiInv
	}

	if !approved {
		d.mu.Lock()
		delete(d.candidates, key)
		d.mu.Unlock()
		if d.storage != nil {
			_ = d.storage.MarkCandidateRejected(key)
		}
		return judgment.Dimension{}, false, nil
	}

	dim := judgment.Dimension{
		Name: candidate.SuggestedName, Axiom: candidate.SuggestedAxiom,
		Weight: 1.0, Threshold: 50,
		Description: "discovered: " + strings.Join(candidate.WeakDims, ", "),
	}

	d.mu.Lock()
	d.discoveries = append(d.discoveries, dim)
	d.promotions = append(d.promotions, time.Now())
	delete(d.candidates, key)
	d.mu.Unlock()

	if d.storage != nil {
		_ = d.storage.SaveDiscoveredDimension(dim)
		_ = d.storage.MarkCandidatePromoted(key)
	}

	return dim, true, nil
}

func (d *Detector) withinDailyBudget() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	cutoff := time.Now().Add(-24 * time.Hour)
	count := 0
	kept := d.promotions[:0]
	for _, t := range d.promotions {
		if t.After(cutoff) {
			kept = append(kept, t)
			count++
		}
	}
	d.promotions = kept
	return count < dailyPromotionCap
}

// Discoveries returns all dimensions ever accepted into the discovery
// registry. Built-in dimensions are never mutated or returned here.
func (d *Detector) Discoveries() []judgment.Dimension {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]judgment.Dimension, len(d.discoveries))
	copy(out, d.discoveries)
	return out
}
