package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ragnar-no-sleep/cynic/judgment"
)

func TestScoreOverrideWins(t *testing.T) {
	r := NewRegistry()
	item := judgment.Item{Scores: map[string]float64{"STRUCTURE": 12}}
	assert.Equal(t, 12.0, r.Score("STRUCTURE", item, Context{}))
}

func TestScoreUnknownDimensionIsNeutral(t *testing.T) {
	r := NewRegistry()
	item := judgment.Item{Content: "hello world"}
	assert.Equal(t, 50.0, r.Score("NOT_A_REAL_DIMENSION", item, Context{}))
}

func TestScoreAlwaysInRange(t *testing.T) {
	r := NewRegistry()
	for _, d := range BuiltinDimensions {
		item := judgment.Item{Content: "this is a scam, trust me, guaranteed returns, extract wallet"}
		s := r.Score(d.Name, item, Context{})
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
}

func TestRiskPenaltyCapped(t *testing.T) {
	text := "scam scam scam scam scam fraud ponzi rugpull phishing steal"
	p := RiskPenalty(text)
	assert.LessOrEqual(t, p, 60.0)
	assert.Greater(t, p, 0.0)
}

func TestStringSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, StringSimilarity("abc", "abc"))
	assert.Greater(t, StringSimilarity("hello", "hallo"), 0.5)
	assert.Equal(t, 1.0, StringSimilarity("", ""))
}

func TestHintBlend(t *testing.T) {
	r := NewRegistry()
	r.Register("X", func(judgment.Item, Context) float64 { return 40 })
	item := judgment.Item{DerivedScores: map[string]float64{"xHint": 100}}
	got := r.Score("X", item, Context{})
	assert.InDelta(t, 0.7*40+0.3*100, got, 0.5)
}

func TestAggregateScores(t *testing.T) {
	assert.Equal(t, 0.0, AggregateScores(nil))
	assert.InDelta(t, 71.0, AggregateScores([]float64{70, 65, 78}), 0.2)
}
