package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

type stubVoter struct {
	result VoteResult
	err    error
	delay  time.Duration
}

func (s stubVoter) Vote(ctx context.Context, item judgment.Item, injected InjectedContext) (VoteResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return VoteResult{}, ctx.Err()
		}
	}
	return s.result, s.err
}

// S1: a blocking voter's block response always dominates the outcome,
// regardless of how many other voters approve.
func TestBlockerOverridesUnanimousApproval(t *testing.T) {
	voters := []VoterConfig{
		{ID: "scribe", Voter: stubVoter{result: VoteResult{Score: 90, Response: judgment.ResponseAllow}}},
		{ID: "herald", Voter: stubVoter{result: VoteResult{Score: 88, Response: judgment.ResponseAllow}}},
		{ID: "guardian", Blocking: true, Voter: stubVoter{result: VoteResult{Score: 10, Response: judgment.ResponseBlock, Reason: "unsafe"}}},
	}
	o := New(NewConfig(), voters, nil)
	j := o.Judge(context.Background(), judgment.Item{Content: "rm -rf /"}, ModeParallel, "code-debug")

	require.True(t, j.Blocked)
	assert.Equal(t, "guardian", j.BlockedBy)
	assert.Equal(t, judgment.VerdictBark, j.Verdict)
}

// A non-blocking voter returning response=block only weighs against the
// consensus ratio -- it never short-circuits the judgment the way a
// blocking voter's block response does.
func TestNonBlockingVoteDoesNotOverrideConsensus(t *testing.T) {
	voters := []VoterConfig{
		{ID: "scribe", Weight: 1, Voter: stubVoter{result: VoteResult{Score: 90, Response: judgment.ResponseAllow}}},
		{ID: "herald", Weight: 1, Voter: stubVoter{result: VoteResult{Score: 88, Response: judgment.ResponseAllow}}},
		{ID: "skeptic", Weight: 1, Voter: stubVoter{result: VoteResult{Score: 20, Response: judgment.ResponseBlock, Reason: "unconvinced"}}},
	}
	o := New(NewConfig(), voters, nil)
	j := o.Judge(context.Background(), judgment.Item{Content: "a decent analysis"}, ModeParallel, "documentation")

	require.False(t, j.Blocked)
	assert.Empty(t, j.BlockedBy)
}

// S2: when voters agree above the consensus threshold, the aggregated
// judgment reflects that consensus with a meaningful confidence.
func TestConsensusReachedAggregatesWeightedScore(t *testing.T) {
	voters := []VoterConfig{
		{ID: "scribe", Weight: 1, Voter: stubVoter{result: VoteResult{Score: 80, Response: judgment.ResponseAllow, Dimensions: map[string]float64{"clarity": 80}}}},
		{ID: "herald", Weight: 1, Voter: stubVoter{result: VoteResult{Score: 84, Response: judgment.ResponseAllow, Dimensions: map[string]float64{"clarity": 84}}}},
		{ID: "archivist", Weight: 1, Voter: stubVoter{result: VoteResult{Score: 82, Response: judgment.ResponseAllow, Dimensions: map[string]float64{"clarity": 82}}}},
	}
	o := New(NewConfig(), voters, nil)
	j := o.Judge(context.Background(), judgment.Item{Content: "a fine analysis"}, ModeParallel, "documentation")

	require.False(t, j.Blocked)
	assert.InDelta(t, 82, j.GlobalScore, 1.5)
	assert.Equal(t, judgment.VerdictWag, j.Verdict)
	assert.Greater(t, j.Confidence, 0.0)
	assert.LessOrEqual(t, j.Confidence, judgment.PhiInv+1e-9)
}

// P2: confidence is always within (0, phi^-1] regardless of voter mix,
// including error/timeout voters and split consensus.
func TestOrchestratorConfidenceAlwaysBounded(t *testing.T) {
	cases := [][]VoterConfig{
		{
			{ID: "a", Voter: stubVoter{result: VoteResult{Score: 50, Response: judgment.ResponseAllow}}},
			{ID: "b", Voter: stubVoter{err: assert.AnError}},
		},
		{
			{ID: "a", Voter: stubVoter{result: VoteResult{Score: 20, Response: judgment.ResponseAllow}}},
			{ID: "b", Voter: stubVoter{result: VoteResult{Score: 95, Response: judgment.ResponseApprove}}},
		},
		{
			{ID: "a", Voter: stubVoter{delay: 50 * time.Millisecond, result: VoteResult{Score: 70, Response: judgment.ResponseAllow}}, Timeout: 5 * time.Millisecond},
		},
	}
	for _, voters := range cases {
		o := New(NewConfig(), voters, nil)
		j := o.Judge(context.Background(), judgment.Item{Content: "x"}, ModeParallel, "general")
		assert.Greater(t, j.Confidence, 0.0)
		assert.LessOrEqual(t, j.Confidence, judgment.PhiInv+1e-9)
	}
}

func TestModeCriticalOnlySkipsNonBlockingVoters(t *testing.T) {
	voters := []VoterConfig{
		{ID: "scribe", Voter: stubVoter{result: VoteResult{Score: 99, Response: judgment.ResponseAllow}}},
		{ID: "guardian", Blocking: true, Voter: stubVoter{result: VoteResult{Score: 40, Response: judgment.ResponseAllow}}},
	}
	o := New(NewConfig(), voters, nil)
	j := o.Judge(context.Background(), judgment.Item{Content: "x"}, ModeCriticalOnly, "general")
	assert.InDelta(t, 40, j.GlobalScore, 0.5)
}

func TestSequentialModeStopsAtBlockingVote(t *testing.T) {
	voters := []VoterConfig{
		{ID: "guardian", Blocking: true, Voter: stubVoter{result: VoteResult{Score: 5, Response: judgment.ResponseBlock}}},
		{ID: "scribe", Voter: stubVoter{result: VoteResult{Score: 99, Response: judgment.ResponseAllow}}},
	}
	o := New(NewConfig(), voters, nil)
	j := o.Judge(context.Background(), judgment.Item{Content: "x"}, ModeSequential, "general")
	require.True(t, j.Blocked)
	assert.Len(t, j.Votes, 1)
}

func TestStatsForTracksOutcomes(t *testing.T) {
	voters := []VoterConfig{
		{ID: "scribe", Voter: stubVoter{result: VoteResult{Score: 70, Response: judgment.ResponseAllow}}},
	}
	o := New(NewConfig(), voters, nil)
	o.Judge(context.Background(), judgment.Item{Content: "x"}, ModeParallel, "general")
	o.Judge(context.Background(), judgment.Item{Content: "y"}, ModeParallel, "general")

	st := o.StatsFor("scribe")
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 2, st.Allow)
}
