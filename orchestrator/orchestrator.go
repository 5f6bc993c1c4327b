// Package orchestrator implements the parallel multi-voter engine
// ("DogOrchestrator"): voter fan-out, per-voter timeouts, blocker-override
// consensus, and aggregation into a Judgment (spec §4.10).
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/metrics"
)

// Mode selects which voters participate in a judge call (spec §4.10 step 2).
type Mode string

const (
	ModeParallel     Mode = "parallel"
	ModeSequential   Mode = "sequential"
	ModeCriticalOnly Mode = "critical-only"
	ModeFast         Mode = "fast"
)

// InjectedContext is the aggregated context built at step 1: immutable
// axioms, relevant shared patterns, learned dimension weights, similar
// historical judgments, the procedure for the item type, user
// preferences, and recent feedback. Every field is optional and supplied
// by whatever collaborators are wired in; a zero InjectedContext is valid.
type InjectedContext struct {
	QueryType         string
	Axioms            []judgment.Axiom
	RelevantPatterns  []string
	LearnedWeights    map[string]float64
	SimilarJudgments  []judgment.Judgment
	Procedure         string
	UserPreferences   map[string]any
	RecentFeedback    []string
}

// VoteResult is what a Voter reports back, before the orchestrator fills
// in voterId/weight/success.
type VoteResult struct {
	Score      float64
	Verdict    judgment.Verdict
	Response   judgment.VoteResponse
	Reason     string
	Dimensions map[string]float64
	Insights   []string
}

// Voter is one participant in the orchestrated judgment. Distinct from
// router.Handler: a voter judges an item, a router handler executes a
// task -- even though an implementation may do both.
type Voter interface {
	Vote(ctx context.Context, item judgment.Item, injected InjectedContext) (VoteResult, error)
}

// VoterConfig describes one registered voter's participation rules.
type VoterConfig struct {
	ID       string
	Voter    Voter
	Weight   float64
	Blocking bool
	Timeout  time.Duration
	Tier     string // used by ModeFast to select the lowest-tier voters
}

// VoterStats accumulates per-voter outcome counts across calls.
type VoterStats struct {
	Total, Allow, Block, Errors int
}

// ContextProvider supplies the optional collaborators behind
// InjectedContext. Any method may be left nil-safe by the caller's
// implementation; Orchestrator tolerates a nil ContextProvider entirely.
type ContextProvider interface {
	RelevantPatterns(queryType string) []string
	LearnedWeights() map[string]float64
	SimilarJudgments(queryType string) []judgment.Judgment
	Procedure(itemType string) string
}

// Config tunes the Orchestrator's consensus threshold and default voter
// weight.
type Config struct {
	ConsensusThreshold float64
	DefaultWeight      float64
	DefaultBlockWeight float64
}

// NewConfig returns the spec default: consensus threshold phi^-1, default
// voter weight 1, default blocking-voter weight 1.5.
func NewConfig() Config {
	return Config{ConsensusThreshold: judgment.PhiInv, DefaultWeight: 1.0, DefaultBlockWeight: 1.5}
}

// Orchestrator runs the registered voter roster against an item and
// aggregates their votes into a Judgment.
type Orchestrator struct {
	mu      sync.RWMutex
	cfg     Config
	voters  []VoterConfig
	stats   map[string]*VoterStats
	context ContextProvider
	tracer  trace.Tracer
	metrics *metrics.Recorder
}

// New builds an Orchestrator. ctxProvider may be nil.
func New(cfg Config, voters []VoterConfig, ctxProvider ContextProvider) *Orchestrator {
	for i := range voters {
		if voters[i].Weight == 0 {
			voters[i].Weight = cfg.DefaultWeight
			if voters[i].Blocking {
				voters[i].Weight = cfg.DefaultBlockWeight
			}
		}
		if voters[i].Timeout == 0 {
			voters[i].Timeout = 10 * time.Second
		}
	}
	stats := make(map[string]*VoterStats, len(voters))
	for _, v := range voters {
		stats[v.ID] = &VoterStats{}
	}
	return &Orchestrator{cfg: cfg, voters: voters, stats: stats, context: ctxProvider, tracer: otel.Tracer("cynic/orchestrator"), metrics: metrics.NoopRecorder()}
}

// WithMetrics attaches a metrics.Recorder so judgments and votes are
// reported to the configured MeterProvider instead of discarded.
func (o *Orchestrator) WithMetrics(r *metrics.Recorder) *Orchestrator {
	o.metrics = r
	return o
}

func (o *Orchestrator) votersForMode(mode Mode) []VoterConfig {
	switch mode {
	case ModeCriticalOnly:
		var out []VoterConfig
		for _, v := range o.voters {
			if v.Blocking {
				out = append(out, v)
			}
		}
		return out
	case ModeFast:
		lowest := lowestTier(o.voters)
		var out []VoterConfig
		for _, v := range o.voters {
			if v.Tier == lowest {
				out = append(out, v)
			}
		}
		return out
	default:
		return o.voters
	}
}

func lowestTier(voters []VoterConfig) string {
	tierRank := map[string]int{"tier-1": 1, "tier-2": 2, "tier-3": 3}
	lowest := ""
	best := int(^uint(0) >> 1)
	for _, v := range voters {
		r, ok := tierRank[v.Tier]
		if !ok {
			r = best
		}
		if r < best {
			best = r
			lowest = v.Tier
		}
	}
	return lowest
}

// buildInjectedContext assembles spec §4.10 step 1's aggregated context.
func (o *Orchestrator) buildInjectedContext(queryType string) InjectedContext {
	ic := InjectedContext{QueryType: queryType, Axioms: []judgment.Axiom{
		judgment.AxiomPhi, judgment.AxiomVerify, judgment.AxiomCulture, judgment.AxiomBurn, judgment.AxiomFidelity,
	}}
	if o.context == nil {
		return ic
	}
	patterns := o.context.RelevantPatterns(queryType)
	if len(patterns) > 5 {
		patterns = patterns[:5]
	}
	ic.RelevantPatterns = patterns
	ic.LearnedWeights = o.context.LearnedWeights()

	similar := o.context.SimilarJudgments(queryType)
	if len(similar) > 3 {
		similar = similar[:3]
	}
	ic.SimilarJudgments = similar
	ic.Procedure = o.context.Procedure(queryType)
	return ic
}

// Judge runs the voter fan-out for item under mode and returns the
// aggregated Judgment (spec §4.10 steps 1-7).
func (o *Orchestrator) Judge(ctx context.Context, item judgment.Item, mode Mode, queryType string) judgment.Judgment {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "orchestrator.Judge")
	defer span.End()

	injected := o.buildInjectedContext(queryType)
	voters := o.votersForMode(mode)

	var votes []judgment.Vote
	if mode == ModeSequential {
		votes = o.runSequential(ctx, item, injected, voters)
	} else {
		votes = o.runParallel(ctx, item, injected, voters)
	}

	o.recordStats(votes)
	for _, v := range votes {
		response := string(v.Response)
		if !v.Success {
			response = "error"
		}
		o.metrics.RecordVote(ctx, v.VoterID, response)
	}

	if blocker, ok := findBlocker(votes); ok {
		o.metrics.RecordBlock(ctx, blocker.VoterID)
		j := o.buildBlockedJudgment(item, votes, blocker, start, queryType)
		o.metrics.RecordJudgment(ctx, string(j.Verdict), queryType, j.LatencyMs)
		return j
	}

	j := o.aggregate(item, votes, start, queryType)
	o.metrics.RecordJudgment(ctx, string(j.Verdict), queryType, j.LatencyMs)
	return j
}

func (o *Orchestrator) runParallel(ctx context.Context, item judgment.Item, injected InjectedContext, voters []VoterConfig) []judgment.Vote {
	results := make(chan judgment.Vote, len(voters))
	var wg sync.WaitGroup
	for _, v := range voters {
		wg.Add(1)
		go func(vc VoterConfig) {
			defer wg.Done()
			results <- o.invokeVoter(ctx, vc, item, injected)
		}(v)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	votes := make([]judgment.Vote, 0, len(voters))
	for v := range results {
		votes = append(votes, v)
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].VoterID < votes[j].VoterID })
	return votes
}

func (o *Orchestrator) runSequential(ctx context.Context, item judgment.Item, injected InjectedContext, voters []VoterConfig) []judgment.Vote {
	var votes []judgment.Vote
	for _, v := range voters {
		vote := o.invokeVoter(ctx, v, item, injected)
		votes = append(votes, vote)
		if vote.Success && v.Blocking && vote.Response == judgment.ResponseBlock {
			break
		}
	}
	return votes
}

func (o *Orchestrator) invokeVoter(ctx context.Context, vc VoterConfig, item judgment.Item, injected InjectedContext) judgment.Vote {
	start := time.Now()
	voteCtx, cancel := context.WithTimeout(ctx, vc.Timeout)
	defer cancel()

	type outcome struct {
		result VoteResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := vc.Voter.Vote(voteCtx, item, injected)
		done <- outcome{r, err}
	}()

	select {
	case o := <-done:
		latency := time.Since(start).Milliseconds()
		if o.err != nil {
			return judgment.Vote{VoterID: vc.ID, Weight: vc.Weight, Blocking: vc.Blocking, Success: false, Error: o.err.Error(), LatencyMs: latency}
		}
		return judgment.Vote{
			VoterID: vc.ID, Score: o.result.Score, Verdict: o.result.Verdict,
			Response: o.result.Response, Weight: vc.Weight, Blocking: vc.Blocking, Reason: o.result.Reason,
			Dimensions: o.result.Dimensions, Insights: o.result.Insights, Success: true, LatencyMs: latency,
		}
	case <-voteCtx.Done():
		return judgment.Vote{VoterID: vc.ID, Weight: vc.Weight, Blocking: vc.Blocking, Success: false, Error: "timeout", LatencyMs: time.Since(start).Milliseconds()}
	}
}

func (o *Orchestrator) recordStats(votes []judgment.Vote) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, v := range votes {
		st, ok := o.stats[v.VoterID]
		if !ok {
			st = &VoterStats{}
			o.stats[v.VoterID] = st
		}
		st.Total++
		if !v.Success {
			st.Errors++
			continue
		}
		switch v.Response {
		case judgment.ResponseBlock:
			st.Block++
		default:
			st.Allow++
		}
	}
}

// findBlocker implements I4: a successful vote from a voter configured
// blocking, with response=block, always dominates, checked before any
// ratio computation. A non-blocking voter's block response only lowers
// its contribution to the consensus ratio -- it never short-circuits it.
func findBlocker(votes []judgment.Vote) (judgment.Vote, bool) {
	for _, v := range votes {
		if v.Success && v.Blocking && v.Response == judgment.ResponseBlock {
			return v, true
		}
	}
	return judgment.Vote{}, false
}

func (o *Orchestrator) buildBlockedJudgment(item judgment.Item, votes []judgment.Vote, blocker judgment.Vote, start time.Time, itemType string) judgment.Judgment {
	return judgment.Judgment{
		ID: uuid.NewString(), ItemType: itemType, GlobalScore: 0, Verdict: judgment.VerdictBark,
		Dimensions: map[string]float64{}, AxiomScores: map[judgment.Axiom]float64{},
		Confidence: judgment.ClampConfidence(judgment.PhiInv), Blocked: true, BlockedBy: blocker.VoterID,
		Votes: votes, Timestamp: time.Now(), LatencyMs: time.Since(start).Milliseconds(),
		Insights: topInsights(votes),
	}
}

// aggregate implements spec §4.10 step 5-6: weighted consensus ratio over
// successful votes, then weighted-average dimension/global aggregation.
func (o *Orchestrator) aggregate(item judgment.Item, votes []judgment.Vote, start time.Time, itemType string) judgment.Judgment {
	var successful []judgment.Vote
	for _, v := range votes {
		if v.Success {
			successful = append(successful, v)
		}
	}

	ratio, reached := consensusRatio(successful, o.cfg.ConsensusThreshold)

	dims := weightedDimensions(successful)
	globalScore := weightedGlobalScore(successful)
	verdict := judgment.VerdictForScore(globalScore)

	confidence := judgment.ClampConfidence(ratio * judgment.PhiInv)
	if !reached {
		confidence = judgment.ClampConfidence(confidence * judgment.PhiInv2 / judgment.PhiInv)
	}

	return judgment.Judgment{
		ID: uuid.NewString(), ItemType: itemType, GlobalScore: globalScore, Verdict: verdict,
		Dimensions: dims, AxiomScores: map[judgment.Axiom]float64{}, Confidence: confidence,
		Votes: votes, Timestamp: time.Now(), LatencyMs: time.Since(start).Milliseconds(),
		Insights: topInsights(votes),
	}
}

func consensusRatio(successful []judgment.Vote, threshold float64) (float64, bool) {
	var allowWeight, totalWeight float64
	for _, v := range successful {
		totalWeight += v.Weight
		if v.Response == judgment.ResponseAllow || v.Response == judgment.ResponseApprove {
			allowWeight += v.Weight
		}
	}
	if totalWeight == 0 {
		return 0, false
	}
	ratio := allowWeight / totalWeight
	return ratio, ratio >= threshold
}

func weightedGlobalScore(votes []judgment.Vote) float64 {
	var num, den float64
	for _, v := range votes {
		num += v.Score * v.Weight
		den += v.Weight
	}
	if den == 0 {
		return 0
	}
	return judgment.Clamp01To100(num / den)
}

func weightedDimensions(votes []judgment.Vote) map[string]float64 {
	num := make(map[string]float64)
	den := make(map[string]float64)
	for _, v := range votes {
		for name, score := range v.Dimensions {
			num[name] += score * v.Weight
			den[name] += v.Weight
		}
	}
	out := make(map[string]float64, len(num))
	for name, n := range num {
		if den[name] > 0 {
			out[name] = judgment.Clamp01To100(n / den[name])
		}
	}
	return out
}

func topInsights(votes []judgment.Vote) []string {
	var all []string
	for _, v := range votes {
		all = append(all, v.Insights...)
	}
	if len(all) > 10 {
		all = all[:10]
	}
	return all
}

// StatsFor returns a snapshot of total/allow/block/error counts for a
// voter.
func (o *Orchestrator) StatsFor(voterID string) VoterStats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if st, ok := o.stats[voterID]; ok {
		return *st
	}
	return VoterStats{}
}
