package learning

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

// S6: 100 feedback records, all "incorrect, actualScore 0, originalScore
// 100" for dimension COHERENCE. Expected: COHERENCE's weight modifier
// ends at exactly 1 - phi^-2, not below.
func TestLearningClampsAtLowerBound(t *testing.T) {
	svc := New(NewConfig(), nil)
	actual := 0.0
	for i := 0; i < 100; i++ {
		svc.Submit(Feedback{
			Outcome:         OutcomeIncorrect,
			ActualScore:     &actual,
			OriginalScore:   100,
			ItemType:        "code_review",
			DimensionScores: map[string]float64{"COHERENCE": 100},
		})
	}
	snap := svc.Snapshot()
	assert.InDelta(t, 1-judgment.PhiInv2, snap.WeightModifiers["COHERENCE"], 1e-9)
	assert.GreaterOrEqual(t, snap.WeightModifiers["COHERENCE"], 1-judgment.PhiInv2-1e-9)
}

// P3: weight modifiers and threshold adjustments never leave their bounds.
func TestModifiersAndThresholdsStayInBounds(t *testing.T) {
	svc := New(NewConfig(), nil)
	for i := 0; i < 50; i++ {
		actual := 10.0
		svc.Submit(Feedback{
			Outcome: OutcomePartial, ActualScore: &actual, OriginalScore: 90,
			ItemType: "security_audit", DimensionScores: map[string]float64{"VERIFY_EVIDENCE": 90},
		})
	}
	snap := svc.Snapshot()
	for _, m := range snap.WeightModifiers {
		assert.GreaterOrEqual(t, m, 1-judgment.PhiInv2-1e-9)
		assert.LessOrEqual(t, m, 1+judgment.PhiInv2+1e-9)
	}
	for _, dims := range snap.ThresholdAdjustments {
		for _, v := range dims {
			assert.GreaterOrEqual(t, v, -15.0-1e-9)
			assert.LessOrEqual(t, v, 15.0+1e-9)
		}
	}
}

func TestModifierDefaultsToOne(t *testing.T) {
	svc := New(NewConfig(), nil)
	assert.Equal(t, 1.0, svc.Modifier("UNSEEN"))
}
