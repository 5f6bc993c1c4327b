package scoring

import (
	"github.com/ragnar-no-sleep/cynic/judgment"
)

// Context carries the optional query context passed alongside an item,
// e.g. the recognized query type used by the Judge's axiom multiplier
// table (spec §4.2 step 3).
type Context struct {
	QueryType string
	Extra     map[string]any
}

// Func scores a single dimension for an item, returning a value in
// [0,100]. Implementations must never error: an unscoreable dimension
// degrades to the neutral score (50), per spec §7.3.
type Func func(item judgment.Item, ctx Context) float64

// Registry is a pluggable set of per-dimension scorer functions. New
// dimensions (including ones proposed by the Residual Detector) attach
// their own scorer here, or fall back to Neutral.
type Registry struct {
	scorers map[string]Func
}

// NewRegistry builds a registry pre-populated with the built-in axiom
// scorers keyed by their default dimension names (see dimensions.go).
func NewRegistry() *Registry {
	r := &Registry{scorers: make(map[string]Func)}
	r.registerBuiltins()
	return r
}

// Register attaches (or replaces) the scorer for a dimension name.
func (r *Registry) Register(name string, fn Func) {
	r.scorers[name] = fn
}

// Has reports whether a scorer is registered for name.
func (r *Registry) Has(name string) bool {
	_, ok := r.scorers[name]
	return ok
}

// Score computes the score for a single dimension, applying the item
// pre-scoring hook from spec §4.1: an explicit item.Scores[name] override
// wins outright; a derivedScores[nameLower+"Hint"] blends 70/30 with the
// computed score; otherwise the registered (or neutral) scorer runs.
func (r *Registry) Score(name string, item judgment.Item, ctx Context) float64 {
	if override, ok := item.Scores[name]; ok {
		return judgment.Clamp01To100(override)
	}

	fn, ok := r.scorers[name]
	if !ok {
		fn = Neutral
	}
	computed := judgment.Clamp01To100(fn(item, ctx))

	hintKey := lowerHintKey(name)
	if hint, ok := item.DerivedScores[hintKey]; ok {
		return judgment.Clamp01To100(0.7*computed + 0.3*hint)
	}
	return computed
}

func lowerHintKey(name string) string {
	out := make([]rune, 0, len(name)+4)
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			r = r - 'A' + 'a'
		}
		out = append(out, r)
	}
	return string(out) + "Hint"
}

// Neutral is the fallback scorer for unregistered dimension names: a flat
// neutral base, per spec §4.1.
func Neutral(item judgment.Item, _ Context) float64 {
	return 50.0
}
