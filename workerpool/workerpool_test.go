package workerpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragnar-no-sleep/cynic/judgment"
)

func waitForTerminal(t *testing.T, p *Pool, id string, within time.Duration) judgment.Task {
	t.Helper()
	deadline := time.Now().Add(within)
	for time.Now().Before(deadline) {
		if task, ok := p.Get(id); ok && task.IsTerminal() {
			return task
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s did not reach terminal state within %s", id, within)
	return judgment.Task{}
}

// S5: a submitted task runs to completion and its result is retrievable.
func TestSubmitRunsToCompletion(t *testing.T) {
	cfg := NewConfig()
	p := New(cfg)
	defer p.Shutdown(context.Background())

	id, err := p.Submit(judgment.Task{Type: "score", Priority: 50}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		report(50, "halfway")
		return "done", nil
	})
	require.NoError(t, err)

	final := waitForTerminal(t, p, id, time.Second)
	assert.Equal(t, judgment.TaskCompleted, final.Status)
	assert.Equal(t, "done", final.Result)
}

func TestHigherPriorityDispatchedFirst(t *testing.T) {
	cfg := NewConfig()
	cfg.Concurrency = 1
	p := New(cfg)
	defer p.Shutdown(context.Background())

	var order []string
	block := make(chan struct{})
	first, err := p.Submit(judgment.Task{Type: "gate", Priority: 1}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		<-block
		return nil, nil
	})
	require.NoError(t, err)

	low, err := p.Submit(judgment.Task{Type: "low", Priority: 10}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		order = append(order, "low")
		return nil, nil
	})
	require.NoError(t, err)

	high, err := p.Submit(judgment.Task{Type: "high", Priority: 90}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		order = append(order, "high")
		return nil, nil
	})
	require.NoError(t, err)

	close(block)
	waitForTerminal(t, p, first, time.Second)
	waitForTerminal(t, p, high, time.Second)
	waitForTerminal(t, p, low, time.Second)

	require.Len(t, order, 2)
	assert.Equal(t, "high", order[0])
}

// P8: the queue never accepts more tasks than its configured capacity.
func TestSubmitRejectsBeyondQueueCapacity(t *testing.T) {
	cfg := NewConfig()
	cfg.Concurrency = 1
	cfg.QueueCapacity = 1
	p := New(cfg)
	defer p.Shutdown(context.Background())

	block := make(chan struct{})
	_, err := p.Submit(judgment.Task{Type: "gate"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		<-block
		return nil, nil
	})
	require.NoError(t, err)

	_, err = p.Submit(judgment.Task{Type: "queued"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		return nil, nil
	})
	require.NoError(t, err)

	_, err = p.Submit(judgment.Task{Type: "overflow"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrQueueFull)
	close(block)
}

func TestTaskExceedingTimeoutIsMarkedTimeout(t *testing.T) {
	cfg := NewConfig()
	cfg.Timeouts = TimeoutConfig{Default: 20 * time.Millisecond, Min: time.Millisecond, Max: time.Second}
	p := New(cfg)
	defer p.Shutdown(context.Background())

	id, err := p.Submit(judgment.Task{Type: "slow"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		select {
		case <-time.After(time.Second):
			return "too slow", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	require.NoError(t, err)

	final := waitForTerminal(t, p, id, 500*time.Millisecond)
	assert.Equal(t, judgment.TaskTimeout, final.Status)
}

func TestCancelStopsRunningTask(t *testing.T) {
	p := New(NewConfig())
	defer p.Shutdown(context.Background())

	started := make(chan struct{})
	id, err := p.Submit(judgment.Task{Type: "cancelme"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)

	<-started
	assert.True(t, p.Cancel(id))

	final := waitForTerminal(t, p, id, time.Second)
	assert.Equal(t, judgment.TaskCancelled, final.Status)
}

func TestResolveTimeoutClampsIntoRange(t *testing.T) {
	cfg := TimeoutConfig{Default: 30 * time.Second, Min: 5 * time.Second, Max: 60 * time.Second}
	assert.Equal(t, 30*time.Second, cfg.ResolveTimeout(0))
	assert.Equal(t, 5*time.Second, cfg.ResolveTimeout(time.Second))
	assert.Equal(t, 60*time.Second, cfg.ResolveTimeout(time.Hour))
}

func TestAutoDispatchReturnsFastCompletionSynchronously(t *testing.T) {
	p := New(NewConfig())
	defer p.Shutdown(context.Background())

	res, err := p.AutoDispatch(context.Background(), judgment.Task{Type: "fast"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.False(t, res.Async)
	assert.Equal(t, judgment.TaskCompleted, res.Task.Status)
}

// S5: when the handler outruns the race window, AutoDispatch hands back
// an async result instead of blocking until completion.
func TestAutoDispatchFallsBackToAsyncPastRaceWindow(t *testing.T) {
	cfg := NewConfig()
	cfg.AutoDispatchRace = 20 * time.Millisecond
	p := New(cfg)
	defer p.Shutdown(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	res, err := p.AutoDispatch(context.Background(), judgment.Task{Type: "slow"}, func(ctx context.Context, task judgment.Task, report func(int, string)) (any, error) {
		close(started)
		<-release
		return "done", nil
	})
	require.NoError(t, err)
	assert.True(t, res.Async)
	assert.NotEqual(t, judgment.TaskCompleted, res.Task.Status)

	<-started
	close(release)
}
