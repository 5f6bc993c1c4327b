// Package skeptic implements the Self-Skeptic layer: adversarial
// re-evaluation, time-based confidence decay, bias detection, and bounded
// meta-doubt applied on top of a Judgment.
package skeptic

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

const (
	maxHistory        = 100
	maxMetaDoubtLevel = 3
	// counterEvidenceWeight scales how much each adversarial reason's
	// confidence subtracts from the judgment's confidence (step 3).
	counterEvidenceWeight = 0.15
)

// Reason is one adversarial finding against a judgment's confidence.
type Reason struct {
	Label      string
	Confidence float64
}

// Result is the Self-Skeptic's verdict on a Judgment.
type Result struct {
	OriginalConfidence float64
	AdjustedConfidence float64
	Reasons            []Reason
	Biases             []string
	CounterHypotheses  []string
	Recommendations    []string
	MetaDoubtLevels    int
}

// Config tunes the Self-Skeptic's decay and damping behavior.
type Config struct {
	DecayRate time.Duration // informational; actual decay uses DecayPerHour
	DecayPerHour float64
	Logger       *slog.Logger
}

// NewConfig returns the default Self-Skeptic configuration: 5% confidence
// decay per hour of age, floored at phi^-2.
func NewConfig() Config {
	return Config{
		DecayPerHour: 0.05,
		Logger:       slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
}

// Skeptic holds the bounded judgment history used for bias detection.
type Skeptic struct {
	mu      sync.Mutex
	cfg     Config
	history []judgment.Judgment
}

// New builds a Skeptic. A zero Config uses NewConfig()'s defaults.
func New(cfg Config) *Skeptic {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	if cfg.DecayPerHour <= 0 {
		cfg.DecayPerHour = 0.05
	}
	return &Skeptic{cfg: cfg}
}

// Evaluate runs the full pipeline from spec §4.4 against j, given the
// age of the judgment and a rolling average score for its item type (0
// disables the deviation-from-rolling-average adversarial check).
func (s *Skeptic) Evaluate(j judgment.Judgment, age time.Duration, rollingAvg float64) Result {
	reasons := s.adversarialReasons(j, rollingAvg)

	confidence := s.applyTimeDecay(j.Confidence, age)
	confidence = s.applyAdversarialReduction(confidence, reasons)

	biases := s.detectBiases(j)

	confidence, levels := s.boundedMetaDoubt(confidence, len(reasons))

	result := Result{
		OriginalConfidence: j.Confidence,
		AdjustedConfidence: confidence,
		Reasons:            reasons,
		Biases:             biases,
		MetaDoubtLevels:    levels,
		CounterHypotheses:  counterHypotheses(j, reasons),
		Recommendations:    recommendations(reasons, biases),
	}

	s.mu.Lock()
	s.history = append(s.history, j)
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
	s.mu.Unlock()

	s.cfg.Logger.Debug("skeptic evaluation", "judgmentId", j.ID, "adjustedConfidence", confidence, "reasons", len(reasons))
	return result
}

// adversarialReasons finds reasons to doubt j: extreme scores, a
// suspiciously unanimous dimension vector, a known weakest axiom, and
// large deviation from a rolling average.
func (s *Skeptic) adversarialReasons(j judgment.Judgment, rollingAvg float64) []Reason {
	var reasons []Reason

	if j.GlobalScore >= 98 || j.GlobalScore <= 2 {
		reasons = append(reasons, Reason{Label: "extreme_score", Confidence: 0.4})
	}

	if isUnanimous(j.Dimensions) {
		reasons = append(reasons, Reason{Label: "suspiciously_unanimous_dimensions", Confidence: 0.35})
	}

	if j.Weaknesses.HasWeakness && j.Weaknesses.Gap > 20 {
		reasons = append(reasons, Reason{Label: fmt.Sprintf("weak_axiom:%s", j.Weaknesses.WeakestAxiom), Confidence: 0.3})
	}

	if rollingAvg > 0 {
		deviation := math.Abs(j.GlobalScore-rollingAvg) / 100.0
		if deviation > judgment.PhiInv2 {
			reasons = append(reasons, Reason{Label: "deviates_from_rolling_average", Confidence: math.Min(0.5, deviation)})
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, past := range s.history {
		if past.ItemType == j.ItemType && math.Abs(past.GlobalScore-j.GlobalScore) > 40 {
			reasons = append(reasons, Reason{Label: "contradicts_recent_judgment", Confidence: 0.3})
			break
		}
	}

	return reasons
}

func isUnanimous(dims map[string]float64) bool {
	if len(dims) < 3 {
		return false
	}
	var first float64
	i := 0
	for _, v := range dims {
		if i == 0 {
			first = v
		} else if math.Abs(v-first) > 1 {
			return false
		}
		i++
	}
	return true
}

// applyTimeDecay reduces confidence by (1-decayRate)^ageHours, floored
// at phi^-2 (spec §4.4 step 2).
func (s *Skeptic) applyTimeDecay(confidence float64, age time.Duration) float64 {
	hours := age.Hours()
	if hours <= 0 {
		return confidence
	}
	decayed := confidence * math.Pow(1-s.cfg.DecayPerHour, hours)
	if decayed < judgment.PhiInv2 {
		decayed = judgment.PhiInv2
	}
	return decayed
}

// applyAdversarialReduction subtracts sum(reason.confidence * weight)
// (spec §4.4 step 3).
func (s *Skeptic) applyAdversarialReduction(confidence float64, reasons []Reason) float64 {
	var reduction float64
	for _, r := range reasons {
		reduction += r.Confidence * counterEvidenceWeight
	}
	confidence -= reduction
	if confidence < 0.01 {
		confidence = 0.01
	}
	return judgment.ClampConfidence(confidence)
}

// detectBiases applies recency/confirmation/overgeneralization/
// overconfidence heuristics over the bounded judgment history.
func (s *Skeptic) detectBiases(j judgment.Judgment) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var biases []string
	if len(s.history) == 0 {
		return biases
	}

	recentSameVerdict := 0
	window := s.history
	if len(window) > 10 {
		window = window[len(window)-10:]
	}
	for _, past := range window {
		if past.Verdict == j.Verdict {
			recentSameVerdict++
		}
	}
	if len(window) >= 5 && recentSameVerdict == len(window) {
		biases = append(biases, "confirmation_bias_same_verdict_streak")
	}

	if j.Confidence >= judgment.PhiInv-0.01 && j.GlobalScore > 90 {
		biases = append(biases, "overconfidence")
	}

	if len(window) >= 3 {
		last := window[len(window)-1]
		if time.Since(last.Timestamp) < time.Minute && last.Verdict == j.Verdict {
			biases = append(biases, "recency_bias")
		}
	}

	return biases
}

// boundedMetaDoubt recurses doubt about the doubt itself, damped by
// phi^-1 each level, for at most maxMetaDoubtLevel levels, clamping the
// final confidence into [phi^-2, phi^-1] (spec §4.4 step 5).
func (s *Skeptic) boundedMetaDoubt(confidence float64, reasonCount int) (float64, int) {
	levels := 0
	for levels < maxMetaDoubtLevel && reasonCount > 0 {
		confidence *= judgment.PhiInv
		levels++
		reasonCount--
	}
	if confidence < judgment.PhiInv2 {
		confidence = judgment.PhiInv2
	}
	if confidence > judgment.PhiInv {
		confidence = judgment.PhiInv
	}
	return confidence, levels
}

func counterHypotheses(j judgment.Judgment, reasons []Reason) []string {
	hyps := []string{
		fmt.Sprintf("what if the true verdict is one tier below %s", j.Verdict),
	}
	for _, r := range reasons {
		hyps = append(hyps, "what if "+r.Label+" indicates a scoring blind spot")
		if len(hyps) >= 5 {
			break
		}
	}
	return hyps
}

func recommendations(reasons []Reason, biases []string) []string {
	var recs []string
	if len(reasons) > 0 {
		recs = append(recs, "re-run with an independent voter before acting on this judgment")
	}
	if len(biases) > 0 {
		recs = append(recs, "widen the comparison window before trusting this verdict")
	}
	if len(recs) == 0 {
		recs = append(recs, "no further scrutiny recommended")
	}
	return recs
}
