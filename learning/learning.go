// Package learning implements the Learning Service: feedback intake and
// bounded updates to per-dimension weight multipliers and per-item-type
// threshold offsets under the phi-bounded policy from spec §4.5.
package learning

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

// weightModifierMin/Max and thresholdAdjustmentMin/Max enforce I5.
const (
	thresholdAdjustmentMin = -15.0
	thresholdAdjustmentMax = 15.0
)

func weightModifierMin() float64 { return 1 - judgment.PhiInv2 }
func weightModifierMax() float64 { return 1 + judgment.PhiInv2 }

// Outcome is the caller's assessment of a prior judgment.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomePartial   Outcome = "partial"
)

// Feedback is one feedback record submitted to the Learning Service.
type Feedback struct {
	FeedbackID      string
	Outcome         Outcome
	ActualScore     *float64
	OriginalScore   float64
	ItemType        string
	DimensionScores map[string]float64
	Reason          string
}

// impliedActual resolves the actual score, applying the implied-actual-
// score rule when ActualScore is absent (spec §4.5): correct -> 0 delta,
// incorrect -> ±20 toward 50, partial -> ±10 toward 50.
func (f Feedback) impliedActual() float64 {
	if f.ActualScore != nil {
		return *f.ActualScore
	}
	actual := f.OriginalScore
	switch f.Outcome {
	case OutcomeIncorrect:
		if f.OriginalScore >= 50 {
			actual = f.OriginalScore - 20
		} else {
			actual = f.OriginalScore + 20
		}
	case OutcomePartial:
		if f.OriginalScore >= 50 {
			actual = f.OriginalScore - 10
		} else {
			actual = f.OriginalScore + 10
		}
	}
	return actual
}

// overestimate is original-actual: positive when the judgment scored the
// item higher than it should have. Weight/threshold updates move against
// this sign so a persistently over-scored dimension loses influence.
func (f Feedback) overestimate() float64 {
	return f.OriginalScore - f.impliedActual()
}

// Patterns tracks aggregate learning statistics (spec §3 LearningState).
type Patterns struct {
	ByItemType map[string]TypeStats `yaml:"byItemType"`
	ByDimension map[string]DimStats `yaml:"byDimension"`
	Overall    OverallStats         `yaml:"overall"`
}

type TypeStats struct {
	Total, Correct, Incorrect int
}

type DimStats struct {
	Total int
	SumError float64
}

type OverallStats struct {
	Total, Correct, Incorrect int
	AvgError                  float64
	Iterations                int
}

// State is the persisted LearningState (spec §3).
type State struct {
	WeightModifiers      map[string]float64            `yaml:"weightModifiers"`
	ThresholdAdjustments map[string]map[string]float64  `yaml:"thresholdAdjustments"`
	Patterns             Patterns                       `yaml:"patterns"`
}

func newState() State {
	return State{
		WeightModifiers:      make(map[string]float64),
		ThresholdAdjustments: make(map[string]map[string]float64),
		Patterns: Patterns{
			ByItemType:  make(map[string]TypeStats),
			ByDimension: make(map[string]DimStats),
		},
	}
}

// Repository is the optional feedback persistence collaborator (spec §6).
type Repository interface {
	FindUnapplied(limit int) ([]Feedback, error)
	MarkApplied(feedbackID string) error
}

// Config tunes the Learning Service's batching and decay policy.
type Config struct {
	MinFeedback  int
	LearningRate float64
	DecayRate    float64
}

// NewConfig returns the defaults from spec §4.5: batch size 3, learning
// rate phi^-3, decay 0.95.
func NewConfig() Config {
	return Config{MinFeedback: 3, LearningRate: judgment.PhiInv3, DecayRate: 0.95}
}

// Service is the Learning Service component.
type Service struct {
	mu    sync.Mutex
	cfg   Config
	state State
	batch []Feedback
	repo  Repository
}

// New builds a Service. repo may be nil (no persistence).
func New(cfg Config, repo Repository) *Service {
	return &Service{cfg: cfg, state: newState(), repo: repo}
}

// Modifier implements judge.WeightProvider: the learned multiplier for a
// dimension's base weight, defaulting to 1.0 when unseen.
func (s *Service) Modifier(dimension string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.state.WeightModifiers[dimension]; ok {
		return m
	}
	return 1.0
}

// ThresholdAdjustment returns the learned threshold delta for
// (itemType, dimension), defaulting to 0.
func (s *Service) ThresholdAdjustment(itemType, dimension string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.state.ThresholdAdjustments[itemType]; ok {
		return m[dimension]
	}
	return 0
}

// Submit adds feedback to the current batch, triggering a learning
// iteration once the batch reaches MinFeedback (spec §4.5).
func (s *Service) Submit(f Feedback) {
	s.mu.Lock()
	s.batch = append(s.batch, f)
	ready := len(s.batch) >= s.cfg.MinFeedback
	var batch []Feedback
	if ready {
		batch = s.batch
		s.batch = nil
	}
	s.mu.Unlock()

	if ready {
		s.learn(batch)
	}
}

// learn runs one learning iteration over a batch: decay of the existing
// state toward neutral, then per-item-type threshold adjustment and
// per-dimension weight-modifier adjustment.
func (s *Service) learn(batch []Feedback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Decay toward neutral first so that a sustained run of identical
	// feedback converges to exactly the I5 clamp rather than oscillating
	// just inside it (see DESIGN.md's S6 note).
	s.applyDecay()

	byType := make(map[string][]float64)
	byDim := make(map[string][]float64)

	for _, f := range batch {
		err := f.overestimate()
		if f.ItemType != "" {
			byType[f.ItemType] = append(byType[f.ItemType], err)
		}
		for dim := range f.DimensionScores {
			byDim[dim] = append(byDim[dim], err)
		}

		stats := s.state.Patterns.Overall
		stats.Total++
		stats.Iterations++
		switch f.Outcome {
		case OutcomeCorrect:
			stats.Correct++
		case OutcomeIncorrect:
			stats.Incorrect++
		}
		stats.AvgError = (stats.AvgError*float64(stats.Total-1) + abs(err)) / float64(stats.Total)
		s.state.Patterns.Overall = stats
	}

	for itemType, errs := range byType {
		if len(errs) < 2 {
			continue
		}
		mean := meanOf(errs)
		if abs(mean) <= 5 {
			continue
		}
		adj := -mean * s.cfg.LearningRate
		s.adjustThreshold(itemType, "__general__", adj)
	}

	for dim, errs := range byDim {
		if len(errs) < s.cfg.MinFeedback {
			continue
		}
		avgErr := meanOf(errs)
		if abs(avgErr) <= 10 {
			continue
		}
		adj := -avgErr * s.cfg.LearningRate * 0.01
		s.adjustWeightModifier(dim, adj)
	}

	if s.repo != nil {
		for _, f := range batch {
			if f.FeedbackID != "" {
				_ = s.repo.MarkApplied(f.FeedbackID)
			}
		}
	}
}

func (s *Service) adjustThreshold(itemType, dimension string, delta float64) {
	if s.state.ThresholdAdjustments[itemType] == nil {
		s.state.ThresholdAdjustments[itemType] = make(map[string]float64)
	}
	cur := s.state.ThresholdAdjustments[itemType][dimension]
	next := clamp(cur+delta, thresholdAdjustmentMin, thresholdAdjustmentMax)
	s.state.ThresholdAdjustments[itemType][dimension] = next
}

func (s *Service) adjustWeightModifier(dimension string, delta float64) {
	cur, ok := s.state.WeightModifiers[dimension]
	if !ok {
		cur = 1.0
	}
	next := clamp(cur+delta, weightModifierMin(), weightModifierMax())
	s.state.WeightModifiers[dimension] = next
}

// applyDecay pulls every weight modifier and threshold adjustment toward
// its neutral value by cfg.DecayRate, to prevent overfitting to a single
// noisy batch.
func (s *Service) applyDecay() {
	for dim, m := range s.state.WeightModifiers {
		s.state.WeightModifiers[dim] = 1.0 + (m-1.0)*s.cfg.DecayRate
	}
	for itemType, dims := range s.state.ThresholdAdjustments {
		for dim, v := range dims {
			s.state.ThresholdAdjustments[itemType][dim] = v * s.cfg.DecayRate
		}
	}
}

func meanOf(vs []float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var total float64
	for _, v := range vs {
		total += v
	}
	return total / float64(len(vs))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Snapshot returns a copy of the current learning state for inspection or
// persistence.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := newState()
	for k, v := range s.state.WeightModifiers {
		out.WeightModifiers[k] = v
	}
	for k, v := range s.state.ThresholdAdjustments {
		inner := make(map[string]float64, len(v))
		for kk, vv := range v {
			inner[kk] = vv
		}
		out.ThresholdAdjustments[k] = inner
	}
	out.Patterns = s.state.Patterns
	return out
}

// SaveFile persists the learning state as YAML, grounded on the
// teacher's config-as-YAML idiom.
func (s *Service) SaveFile(path string) error {
	snap := s.Snapshot()
	data, err := yaml.Marshal(snap)
	if err != nil {
		return judgment.NewResultError(judgment.ErrCodePersistence, "learning", "marshal state").WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return judgment.NewResultError(judgment.ErrCodePersistence, "learning", "write state").WithCause(err).WithRetryable(true)
	}
	return nil
}

// LoadFile restores a previously persisted learning state.
func (s *Service) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return judgment.NewResultError(judgment.ErrCodePersistence, "learning", "read state").WithCause(err)
	}
	var loaded State
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return judgment.NewResultError(judgment.ErrCodePersistence, "learning", "parse state").WithCause(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if loaded.WeightModifiers != nil {
		s.state.WeightModifiers = loaded.WeightModifiers
	}
	if loaded.ThresholdAdjustments != nil {
		s.state.ThresholdAdjustments = loaded.ThresholdAdjustments
	}
	s.state.Patterns = loaded.Patterns
	return nil
}
