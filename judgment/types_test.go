package judgment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerdictForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  Verdict
	}{
		{0, VerdictBark},
		{37.9, VerdictBark},
		{38, VerdictGrowl},
		{61.9, VerdictGrowl},
		{62, VerdictWag},
		{84.9, VerdictWag},
		{85, VerdictHowl},
		{100, VerdictHowl},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, VerdictForScore(c.score), "score=%v", c.score)
	}
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, PhiInv, ClampConfidence(1.0))
	assert.Equal(t, PhiInv, ClampConfidence(PhiInv))
	assert.InDelta(t, 0.3, ClampConfidence(0.3), 1e-9)
	assert.Greater(t, ClampConfidence(-1), 0.0)
}

func TestClamp01To100(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01To100(-5))
	assert.Equal(t, 100.0, Clamp01To100(150))
	assert.Equal(t, 50.5, Clamp01To100(50.46))
}

func TestItemText(t *testing.T) {
	i := Item{Description: "fallback", Body: "body wins"}
	assert.Equal(t, "body wins", i.Text())
	assert.Equal(t, "", Item{}.Text())
}

func TestResultErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	e := NewResultError(ErrCodeInput, "judge", "bad item").WithCause(cause)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "judge")
}
