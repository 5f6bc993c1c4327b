package skeptic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

func TestEvaluateClampsIntoPhiBounds(t *testing.T) {
	s := New(NewConfig())
	j := judgment.Judgment{
		ID: "j1", GlobalScore: 99, Confidence: judgment.PhiInv,
		Dimensions: map[string]float64{"A": 99, "B": 99, "C": 99},
		Verdict:    judgment.VerdictHowl,
		Timestamp:  time.Now(),
	}
	result := s.Evaluate(j, 0, 0)
	assert.LessOrEqual(t, result.AdjustedConfidence, judgment.PhiInv+1e-9)
	assert.GreaterOrEqual(t, result.AdjustedConfidence, judgment.PhiInv2-1e-9)
	assert.NotEmpty(t, result.Reasons)
}

func TestTimeDecayFloorsAtPhiInv2(t *testing.T) {
	s := New(NewConfig())
	j := judgment.Judgment{ID: "j2", GlobalScore: 70, Confidence: judgment.PhiInv, Verdict: judgment.VerdictWag}
	result := s.Evaluate(j, 1000*time.Hour, 0)
	assert.GreaterOrEqual(t, result.AdjustedConfidence, judgment.PhiInv2-1e-9)
}

func TestBiasDetectionOnRepeatedVerdicts(t *testing.T) {
	s := New(NewConfig())
	for i := 0; i < 6; i++ {
		j := judgment.Judgment{ID: "j", GlobalScore: 70, Confidence: 0.5, Verdict: judgment.VerdictWag, Timestamp: time.Now().Add(-time.Hour)}
		s.Evaluate(j, time.Hour, 0)
	}
	j := judgment.Judgment{ID: "jlast", GlobalScore: 70, Confidence: 0.5, Verdict: judgment.VerdictWag, Timestamp: time.Now()}
	result := s.Evaluate(j, 0, 0)
	assert.Contains(t, result.Biases, "confirmation_bias_same_verdict_streak")
}
