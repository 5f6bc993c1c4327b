package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/taskdesc"
)

func newTestMatrix() *Matrix {
	m := New(nil)
	_ = m.Register(Capability{
		Name:          "guardian",
		TaskAffinities: map[taskdesc.TaskType]float64{taskdesc.TypeSecurityAudit: judgment.PhiInv},
		MinComplexity: taskdesc.ComplexityModerate,
		MaxComplexity: taskdesc.ComplexityCritical,
		RiskTolerance: taskdesc.RiskCritical,
		CanBlock:      true,
	})
	_ = m.Register(Capability{
		Name:          "scribe",
		TaskAffinities: map[taskdesc.TaskType]float64{taskdesc.TypeDocumentation: judgment.PhiInv},
		MinComplexity: taskdesc.ComplexityTrivial,
		MaxComplexity: taskdesc.ComplexityModerate,
		RiskTolerance: taskdesc.RiskLow,
	})
	return m
}

func TestScoreAgentForTaskInRange(t *testing.T) {
	m := newTestMatrix()
	task := taskdesc.Descriptor{PrimaryType: taskdesc.TypeSecurityAudit, Complexity: taskdesc.ComplexityCritical, Risk: taskdesc.RiskCritical}
	score := m.ScoreAgentForTask("guardian", task)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, judgment.PhiInv+1e-9)
}

func TestFindBestAgentsRanksGuardianForSecurity(t *testing.T) {
	m := newTestMatrix()
	task := taskdesc.Descriptor{PrimaryType: taskdesc.TypeSecurityAudit, Complexity: taskdesc.ComplexityCritical, Risk: taskdesc.RiskCritical}
	best := m.FindBestAgents(task, 1)
	assert.Equal(t, []string{"guardian"}, best)
}

func TestRecordOutcomeClampsAdjustment(t *testing.T) {
	m := newTestMatrix()
	for i := 0; i < 100; i++ {
		m.RecordOutcome("guardian", taskdesc.TypeSecurityAudit, true)
	}
	assert.LessOrEqual(t, m.adjustmentFor("guardian", taskdesc.TypeSecurityAudit), 0.2+1e-9)
	for i := 0; i < 100; i++ {
		m.RecordOutcome("guardian", taskdesc.TypeSecurityAudit, false)
	}
	assert.GreaterOrEqual(t, m.adjustmentFor("guardian", taskdesc.TypeSecurityAudit), -0.2-1e-9)
}
