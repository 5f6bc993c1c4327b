// Package strategy implements the Strategy Manager: stuck-state detection
// and cooldown-bounded switch suggestions (spec §4.9).
package strategy

import (
	"sort"
	"sync"
	"time"

	"github.com/ragnar-no-sleep/cynic/capability"
	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/taskdesc"
)

const (
	consecutiveFailureThreshold = 3
	sameErrorWindowCount        = 2
	fileHotspotThreshold        = 3
	timeoutWindowCount          = 2
	escalationLoopThreshold     = 2

	window             = 5 * time.Minute
	defaultCooldown    = 30 * time.Second
	maxSwitchesSession = 10
)

// Event is one outcome observed for an agent's attempt at a task.
type Event struct {
	Agent     string
	ErrorType string
	File      string
	Timeout   bool
	Escalated bool
	Success   bool
	At        time.Time
}

// StuckReason names the stuck indicator that fired.
type StuckReason string

const (
	ReasonConsecutiveFailures StuckReason = "consecutive_failures"
	ReasonSameError           StuckReason = "same_error_cluster"
	ReasonFileHotspot         StuckReason = "file_hotspot"
	ReasonTimeouts            StuckReason = "repeated_timeouts"
	ReasonEscalationLoop      StuckReason = "escalation_loop"
)

// Suggestion is one ranked recommendation for unsticking a stuck agent.
type Suggestion struct {
	Kind       string
	Agent      string
	Confidence float64
}

// Detector holds the bounded recent-event window and cooldown/switch
// bookkeeping for stuck-state detection.
type Detector struct {
	mu             sync.Mutex
	events         []Event
	lastSwitch     time.Time
	switchCount    int
	cooldown       time.Duration
	learnedSuccess map[string]string // context -> strategy that worked
	matrix         *capability.Matrix
}

// New builds a Detector. matrix may be nil, in which case the
// "alternative agents" suggestion tier is skipped.
func New(matrix *capability.Matrix) *Detector {
	return &Detector{cooldown: defaultCooldown, learnedSuccess: make(map[string]string), matrix: matrix}
}

// Record appends an observed event and prunes anything outside the
// sliding window.
func (d *Detector) Record(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	cutoff := time.Now().Add(-window)
	kept := d.events[:0]
	for _, ev := range d.events {
		if ev.At.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	d.events = kept
}

// StuckReasons returns every stuck indicator currently triggered for
// agent (spec §4.9's five indicators).
func (d *Detector) StuckReasons(agent string) []StuckReason {
	d.mu.Lock()
	defer d.mu.Unlock()

	var reasons []StuckReason

	if consecutiveFailures(d.events, agent) >= consecutiveFailureThreshold {
		reasons = append(reasons, ReasonConsecutiveFailures)
	}
	if maxSameErrorCount(d.events, agent) >= sameErrorWindowCount {
		reasons = append(reasons, ReasonSameError)
	}
	if maxFileHotspot(d.events, agent) >= fileHotspotThreshold {
		reasons = append(reasons, ReasonFileHotspot)
	}
	if countTimeouts(d.events, agent) >= timeoutWindowCount {
		reasons = append(reasons, ReasonTimeouts)
	}
	if countEscalationFailures(d.events) >= escalationLoopThreshold {
		reasons = append(reasons, ReasonEscalationLoop)
	}

	return reasons
}

func consecutiveFailures(events []Event, agent string) int {
	count := 0
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Agent != agent {
			continue
		}
		if events[i].Success {
			break
		}
		count++
	}
	return count
}

func maxSameErrorCount(events []Event, agent string) int {
	counts := make(map[string]int)
	max := 0
	for _, e := range events {
		if e.Agent != agent || e.ErrorType == "" {
			continue
		}
		counts[e.ErrorType]++
		if counts[e.ErrorType] > max {
			max = counts[e.ErrorType]
		}
	}
	return max
}

func maxFileHotspot(events []Event, agent string) int {
	counts := make(map[string]int)
	max := 0
	for _, e := range events {
		if e.Agent != agent || e.Success || e.File == "" {
			continue
		}
		counts[e.File]++
		if counts[e.File] > max {
			max = counts[e.File]
		}
	}
	return max
}

func countTimeouts(events []Event, agent string) int {
	n := 0
	for _, e := range events {
		if e.Agent == agent && e.Timeout {
			n++
		}
	}
	return n
}

func countEscalationFailures(events []Event) int {
	n := 0
	for _, e := range events {
		if e.Agent == "CYNIC" && e.Escalated && !e.Success {
			n++
		}
	}
	return n
}

// Suggest ranks alternatives for a stuck agent: a previously-learned
// successful strategy for contextKey, then up to three alternative
// agents excluding tried ones, then escalate/decompose/retry-with-
// context/request-human-intervention, each capped at phi^-1 confidence.
// Returns nil if the cooldown has not elapsed or the session switch
// budget is exhausted.
func (d *Detector) Suggest(task taskdesc.Descriptor, contextKey string, tried []string) []Suggestion {
	d.mu.Lock()
	if time.Since(d.lastSwitch) < d.cooldown || d.switchCount >= maxSwitchesSession {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	var suggestions []Suggestion

	if strat, ok := d.learnedSuccess[contextKey]; ok {
		suggestions = append(suggestions, Suggestion{Kind: "learned_strategy:" + strat, Confidence: judgment.PhiInv})
	}

	if d.matrix != nil {
		triedSet := make(map[string]bool, len(tried))
		for _, a := range tried {
			triedSet[a] = true
		}
		candidates := d.matrix.FindBestAgents(task, len(tried)+3)
		added := 0
		for _, c := range candidates {
			if triedSet[c] {
				continue
			}
			suggestions = append(suggestions, Suggestion{Kind: "alternative_agent", Agent: c, Confidence: judgment.PhiInv2})
			added++
			if added >= 3 {
				break
			}
		}
	}

	suggestions = append(suggestions,
		Suggestion{Kind: "escalate", Confidence: judgment.PhiInv2},
		Suggestion{Kind: "decompose", Confidence: judgment.PhiInv3},
		Suggestion{Kind: "retry_with_context", Confidence: judgment.PhiInv3},
		Suggestion{Kind: "request_human_intervention", Confidence: 0.1},
	)

	sort.SliceStable(suggestions, func(i, j int) bool { return suggestions[i].Confidence > suggestions[j].Confidence })

	d.mu.Lock()
	d.lastSwitch = time.Now()
	d.switchCount++
	d.mu.Unlock()

	return suggestions
}

// RecordLearnedStrategy remembers that strategy worked for contextKey, so
// future Suggest calls surface it first.
func (d *Detector) RecordLearnedStrategy(contextKey, strategy string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.learnedSuccess[contextKey] = strategy
}
