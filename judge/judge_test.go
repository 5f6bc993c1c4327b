package judge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/scoring"
)

// P1: global score in [0,100] and verdict consistent with thresholds.
func TestJudgeProducesValidGlobalScoreAndVerdict(t *testing.T) {
	j := New(NewConfig(), nil, nil)
	item := judgment.Item{Content: "A well reasoned analysis because the evidence supports it, with tests and signatures."}
	result := j.Judge(item, scoring.Context{})

	assert.GreaterOrEqual(t, result.GlobalScore, 0.0)
	assert.LessOrEqual(t, result.GlobalScore, 100.0)
	assert.Equal(t, judgment.VerdictForScore(result.GlobalScore), result.Verdict)
}

// P2: confidence <= phi^-1 for every judgment.
func TestJudgeConfidenceNeverExceedsPhiInv(t *testing.T) {
	j := New(NewConfig(), nil, nil)
	for _, content := range []string{"", "x", "a scam guaranteed 100% returns trust me", "a perfectly ordinary sentence about nothing in particular."} {
		result := j.Judge(judgment.Item{Content: content}, scoring.Context{})
		assert.LessOrEqual(t, result.Confidence, judgment.PhiInv+1e-9)
		assert.Greater(t, result.Confidence, 0.0)
	}
}

func TestJudgeContextMultiplierBoostsSecurity(t *testing.T) {
	j := New(NewConfig(), nil, nil)
	item := judgment.Item{Content: "evidence because signatures hashes reproducibility", Signature: "sig", Hash: "hash", Verified: true}

	plain := j.Judge(item, scoring.Context{})
	security := j.Judge(item, scoring.Context{QueryType: "security"})

	require.Contains(t, plain.AxiomScores, judgment.AxiomVerify)
	require.Contains(t, security.AxiomScores, judgment.AxiomVerify)
	assert.GreaterOrEqual(t, security.AxiomScores[judgment.AxiomVerify], plain.AxiomScores[judgment.AxiomVerify])
}

func TestUnnameableDerivation(t *testing.T) {
	assert.Equal(t, 100.0, Unnameable(0))
	assert.Equal(t, 0.0, Unnameable(1))
	assert.Equal(t, 70.0, Unnameable(0.3))
}

// The Judge's global score is the axiom-weighted mean of axiom scores that
// are themselves means of the same dimensions, so with equal weights and no
// context multiplier it equals the named-dimension mean (25 here) and the
// residual is 0. The S3 anomaly case (globalScore 90 over weak dimensions)
// is exercised against the Residual Detector in residual/residual_test.go.
func TestJudgeResidualZeroWhenGlobalMatchesDimensionMean(t *testing.T) {
	j := New(NewConfig(), nil, nil)
	j.cfg.Dimensions = []judgment.Dimension{
		{Name: "COHERENCE", Axiom: judgment.AxiomPhi, Weight: 1},
		{Name: "ACCURACY", Axiom: judgment.AxiomVerify, Weight: 1},
		{Name: "UTILITY", Axiom: judgment.AxiomBurn, Weight: 1},
	}
	item := judgment.Item{Scores: map[string]float64{"COHERENCE": 20, "ACCURACY": 25, "UTILITY": 30}}
	result := j.Judge(item, scoring.Context{})
	assert.InDelta(t, 25.0, result.GlobalScore, 1e-9)
	assert.InDelta(t, 0.0, result.Residual, 1e-9)
}
