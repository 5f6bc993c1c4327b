package capability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragnar-no-sleep/cynic/taskdesc"
)

func TestBuiltinAgentsHasEleven(t *testing.T) {
	agents := BuiltinAgents()
	require.Len(t, agents, 11)
	seen := make(map[string]bool, len(agents))
	for _, a := range agents {
		assert.False(t, seen[a.Name], "duplicate agent name %s", a.Name)
		seen[a.Name] = true
		assert.NotEmpty(t, a.TaskAffinities)
	}
	assert.True(t, seen["Guardian"])
	assert.True(t, seen["CYNIC"])
}

func TestRegisterBuiltinsDoesNotOverrideCustomProfile(t *testing.T) {
	m := New(nil)
	require.NoError(t, m.Register(Capability{
		Name:          "Guardian",
		TaskAffinities: map[taskdesc.TaskType]float64{taskdesc.TypeSecurityAudit: 0.99},
	}))
	require.NoError(t, m.RegisterBuiltins())

	custom, ok := m.Get("Guardian")
	require.True(t, ok)
	assert.Equal(t, 0.99, custom.TaskAffinities[taskdesc.TypeSecurityAudit])

	_, ok = m.Get("CYNIC")
	assert.True(t, ok)
	assert.Len(t, m.Agents(), 11)
}
