package taskdesc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// P6: classification is idempotent -- re-describing the same raw input
// gives an identical descriptor.
func TestClassifyIsIdempotent(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	text := "Please review this code in src/app/main.go and write tests for it."
	a := c.Classify(text)
	b := c.Classify(text)
	assert.Equal(t, a, b)
}

// S4: "Delete all test files" should be classified as critical risk.
func TestClassifySecurityEscalationKeyword(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	d := c.Classify("Delete all test files")
	assert.Equal(t, RiskCritical, d.Risk)
}

func TestClassifyExtractsFilePathsAndTools(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	d := c.Classify("run `go test` on src/pkg/handler.go then grep for TODO")
	assert.Contains(t, d.FilePaths, "src/pkg/handler.go")
	assert.Contains(t, d.Tools, "grep")
}

func TestClassifyUnknownDefaultsGracefully(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	d := c.Classify("")
	assert.Equal(t, TypeUnknown, d.PrimaryType)
	assert.Equal(t, RiskNone, d.Risk)
	assert.Equal(t, UrgencyNormal, d.Urgency)
	assert.Greater(t, d.Confidence, 0.0)
	assert.LessOrEqual(t, d.Confidence, 0.618034)
}
