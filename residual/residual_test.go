package residual

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

// S3: judgment with globalScore 90 and weak dimensions should be anomalous.
func TestAnalyzeDetectsAnomaly(t *testing.T) {
	d := New(nil, nil)
	j := judgment.Judgment{
		ID:          "j1",
		GlobalScore: 90,
		Dimensions:  map[string]float64{"COHERENCE": 20, "ACCURACY": 25, "UTILITY": 30},
	}
	isAnomaly, residual := d.Analyze(j)
	assert.True(t, isAnomaly)
	assert.Greater(t, residual, judgment.PhiInv2)
}

// The suggested axiom should be the one owning the most weak dimensions,
// not an unconditional META fallback.
func TestUpdateCandidateSuggestsDominantAxiom(t *testing.T) {
	d := New(nil, nil)
	d.minSamples = 1
	j := judgment.Judgment{
		ID:          "j3",
		GlobalScore: 95,
		Dimensions:  map[string]float64{"STRUCTURE": 5, "BREVITY": 5, "RHYTHM": 5, "EVIDENCE": 5},
	}
	d.Analyze(j)
	cands := d.Candidates()
	require.NotEmpty(t, cands)
	assert.Equal(t, judgment.AxiomPhi, cands[0].SuggestedAxiom)
}

func TestAnalyzeIgnoresSmallResidual(t *testing.T) {
	d := New(nil, nil)
	j := judgment.Judgment{
		ID:          "j2",
		GlobalScore: 70,
		Dimensions:  map[string]float64{"A": 71, "B": 69, "C": 70},
	}
	isAnomaly, _ := d.Analyze(j)
	assert.False(t, isAnomaly)
}

// P5: no candidate exceeds phi^-1 confidence; no more than 3 promotions
// in a 24h window.
func TestCandidateConfidenceNeverExceedsPhiInv(t *testing.T) {
	d := New(nil, nil)
	j := judgment.Judgment{GlobalScore: 95, Dimensions: map[string]float64{"X": 5, "Y": 5}}
	for i := 0; i < 20; i++ {
		d.Analyze(j)
	}
	for _, c := range d.Candidates() {
		assert.LessOrEqual(t, c.Confidence, judgment.PhiInv+1e-9)
	}
}

// approveAll is a governance collaborator that approves every candidate,
// so the daily cap (not the auto-approve confidence bar) limits promotions.
type approveAll struct{}

func (approveAll) Decide(Candidate) (GovernanceDecision, error) {
	return GovernanceDecision{Decision: "approve"}, nil
}

func TestPromotionDailyCap(t *testing.T) {
	d := New(nil, approveAll{})
	promoted := 0
	for i := 0; i < 10; i++ {
		j := judgment.Judgment{
			GlobalScore: 95,
			Dimensions:  map[string]float64{"D1": 5, "D2": 5},
		}
		d.Analyze(j)
	}
	cands := d.Candidates()
	require.NotEmpty(t, cands)
	for i := 0; i < 6; i++ {
		key := cands[0].Key
		_, ok, err := d.Promote(key)
		require.NoError(t, err)
		if ok {
			promoted++
		}
		// re-seed the candidate so repeated promotion attempts have
		// something to promote within the same test.
		d.Analyze(judgment.Judgment{GlobalScore: 95, Dimensions: map[string]float64{"D1": 5, "D2": 5}})
		d.Analyze(judgment.Judgment{GlobalScore: 95, Dimensions: map[string]float64{"D1": 5, "D2": 5}})
		d.Analyze(judgment.Judgment{GlobalScore: 95, Dimensions: map[string]float64{"D1": 5, "D2": 5}})
	}
	assert.Equal(t, dailyPromotionCap, promoted)
}
