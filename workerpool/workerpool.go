// Package workerpool implements the background worker pool: a bounded
// priority queue, cooperative cancellation, per-task timeouts, progress
// events, and AutoDispatch, which returns a task directly when it finishes
// within a race window and hands back the still-running task otherwise
// (spec §4.11).
package workerpool

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ragnar-no-sleep/cynic/judgment"
	"github.com/ragnar-no-sleep/cynic/metrics"
)

// Default tunables (spec §4.11).
const (
	DefaultConcurrency      = 13
	DefaultQueueCapacity    = 55
	DefaultProgressEvery    = 5 * time.Second
	DefaultAutoDispatchRace = 6180 * time.Millisecond // ~6.18s
)

// TimeoutConfig bounds how long a task may run before it is cancelled,
// generalizing a per-task/default/minimum/maximum timeout policy.
type TimeoutConfig struct {
	Default time.Duration
	Min     time.Duration
	Max     time.Duration
}

// Validate reports whether the configuration is internally consistent.
func (c TimeoutConfig) Validate() error {
	if c.Min < 0 || c.Max < 0 || c.Default < 0 {
		return judgment.NewResultError(judgment.ErrCodeConfig, "workerpool", "timeouts must be non-negative")
	}
	if c.Min > 0 && c.Max > 0 && c.Min > c.Max {
		return judgment.NewResultError(judgment.ErrCodeConfig, "workerpool", "min timeout exceeds max timeout")
	}
	return nil
}

// ResolveTimeout clamps a requested timeout into [Min,Max], falling back
// to Default when requested is zero.
func (c TimeoutConfig) ResolveTimeout(requested time.Duration) time.Duration {
	d := requested
	if d <= 0 {
		d = c.Default
	}
	if c.Min > 0 && d < c.Min {
		d = c.Min
	}
	if c.Max > 0 && d > c.Max {
		d = c.Max
	}
	return d
}

// ProgressEvent is emitted periodically while a task runs.
type ProgressEvent struct {
	TaskID   string
	Progress int
	Message  string
	At       time.Time
}

// Handler executes a task's payload. It should watch ctx for cancellation
// and may call report to publish progress.
type Handler func(ctx context.Context, task judgment.Task, report func(progress int, message string)) (any, error)

// Config tunes the pool's concurrency, queue bound, and timeouts.
type Config struct {
	Concurrency      int
	QueueCapacity    int
	Timeouts         TimeoutConfig
	ProgressEvery    time.Duration
	AutoDispatchRace time.Duration
	Backend          Backend
}

// NewConfig returns the spec defaults.
func NewConfig() Config {
	return Config{
		Concurrency:      DefaultConcurrency,
		QueueCapacity:    DefaultQueueCapacity,
		Timeouts:         TimeoutConfig{Default: 30 * time.Second, Min: time.Second, Max: 5 * time.Minute},
		ProgressEvery:    DefaultProgressEvery,
		AutoDispatchRace: DefaultAutoDispatchRace,
	}
}

// Backend optionally persists task state (e.g. Redis) so tasks survive a
// process restart. A nil Backend means in-memory only.
type Backend interface {
	Save(ctx context.Context, task judgment.Task) error
	Load(ctx context.Context, id string) (judgment.Task, bool, error)
}

type queuedTask struct {
	task     judgment.Task
	handler  Handler
	index    int
	enqueued time.Time
}

// priorityQueue is a max-heap on (priority, FIFO-within-priority).
type priorityQueue []*queuedTask

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].task.Priority != pq[j].task.Priority {
		return pq[i].task.Priority > pq[j].task.Priority
	}
	return pq[i].enqueued.Before(pq[j].enqueued)
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}
func (pq *priorityQueue) Push(x any) {
	qt := x.(*queuedTask)
	qt.index = len(*pq)
	*pq = append(*pq, qt)
}
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]
	return item
}

// Pool is the bounded-concurrency, bounded-queue background worker pool.
type Pool struct {
	cfg Config

	mu       sync.Mutex
	queue    priorityQueue
	tasks    map[string]*judgment.Task
	cancels  map[string]context.CancelFunc
	notEmpty chan struct{}

	progressSubs   map[string][]chan ProgressEvent
	progressSubsMu sync.Mutex

	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once

	metrics *metrics.Recorder
}

// WithMetrics attaches a metrics.Recorder so submissions and completions
// are reported to the configured MeterProvider instead of discarded.
func (p *Pool) WithMetrics(r *metrics.Recorder) *Pool {
	p.metrics = r
	return p
}

// New builds a Pool and starts its worker goroutines.
func New(cfg Config) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultQueueCapacity
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if cfg.AutoDispatchRace <= 0 {
		cfg.AutoDispatchRace = DefaultAutoDispatchRace
	}
	p := &Pool{
		cfg:          cfg,
		tasks:        make(map[string]*judgment.Task),
		cancels:      make(map[string]context.CancelFunc),
		notEmpty:     make(chan struct{}, 1),
		progressSubs: make(map[string][]chan ProgressEvent),
		stopCh:       make(chan struct{}),
		metrics:      metrics.NoopRecorder(),
	}
	heap.Init(&p.queue)
	for i := 0; i < cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// saveBackend persists a task snapshot if a durable Backend is configured.
// Failures are swallowed: the Backend is a recovery aid, not a correctness
// requirement, so in-memory state remains authoritative.
func (p *Pool) saveBackend(t judgment.Task) {
	if p.cfg.Backend == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.cfg.Backend.Save(ctx, t)
}

// Recover loads a task snapshot from the configured Backend, for use after
// a process restart. It returns false if no Backend is configured or the
// task was never persisted.
func (p *Pool) Recover(ctx context.Context, id string) (judgment.Task, bool, error) {
	if p.cfg.Backend == nil {
		return judgment.Task{}, false, nil
	}
	return p.cfg.Backend.Load(ctx, id)
}

// ErrQueueFull is returned by Submit when the bounded queue is at capacity.
var ErrQueueFull = judgment.NewResultError(judgment.ErrCodeSaturation, "workerpool", "task queue is at capacity")

// Submit enqueues a task for asynchronous execution and returns its ID.
func (p *Pool) Submit(task judgment.Task, handler Handler) (string, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Status = judgment.TaskPending
	task.CreatedAt = time.Now()
	task.TimeoutMs = p.cfg.Timeouts.ResolveTimeout(time.Duration(task.TimeoutMs) * time.Millisecond).Milliseconds()

	p.mu.Lock()
	if len(p.queue) >= p.cfg.QueueCapacity {
		p.mu.Unlock()
		return "", ErrQueueFull
	}
	t := task
	p.tasks[t.ID] = &t
	heap.Push(&p.queue, &queuedTask{task: t, handler: handler, enqueued: time.Now()})
	p.mu.Unlock()

	p.saveBackend(t)

	p.metrics.RecordTaskSubmitted(context.Background(), task.Type)
	p.metrics.SetQueueDepth(context.Background(), 1)

	select {
	case p.notEmpty <- struct{}{}:
	default:
	}
	return task.ID, nil
}

// autoDispatchResult is the outcome of racing synchronous execution against
// the async path.
type autoDispatchResult struct {
	Task  judgment.Task
	Async bool
}

// AutoDispatch submits the task to the pool and waits up to the race
// window (Config.AutoDispatchRace, default ~6.18s) for it to finish: if
// it reaches a terminal state first, the caller gets it back with Async
// false; otherwise the caller gets the still-running task with Async true
// and can poll it by ID. The handler always runs on a pool worker (there
// is no separate inline run), and AutoDispatch does not wait for the task
// once the window has passed.
func (p *Pool) AutoDispatch(ctx context.Context, task judgment.Task, handler Handler) (autoDispatchResult, error) {
	id, err := p.Submit(task, handler)
	if err != nil {
		return autoDispatchResult{}, err
	}

	deadline := time.NewTimer(p.cfg.AutoDispatchRace)
	defer deadline.Stop()
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if t, ok := p.Get(id); ok && t.IsTerminal() {
				return autoDispatchResult{Task: t, Async: false}, nil
			}
		case <-deadline.C:
			t, _ := p.Get(id)
			return autoDispatchResult{Task: t, Async: true}, nil
		case <-ctx.Done():
			p.Cancel(id)
			return autoDispatchResult{}, ctx.Err()
		}
	}
}

// Get returns a snapshot of task state by ID.
func (p *Pool) Get(id string) (judgment.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[id]
	if !ok {
		return judgment.Task{}, false
	}
	return *t, true
}

// Cancel cooperatively cancels a running or pending task.
func (p *Pool) Cancel(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.cancels[id]; ok {
		cancel()
	}
	t, ok := p.tasks[id]
	if !ok || t.IsTerminal() {
		return false
	}
	t.Status = judgment.TaskCancelled
	now := time.Now()
	t.CompletedAt = &now
	return true
}

// Subscribe returns a channel of progress events for a task; the channel
// is closed once the task reaches a terminal state.
func (p *Pool) Subscribe(id string) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 8)
	p.progressSubsMu.Lock()
	p.progressSubs[id] = append(p.progressSubs[id], ch)
	p.progressSubsMu.Unlock()
	return ch
}

func (p *Pool) publishProgress(ev ProgressEvent) {
	p.progressSubsMu.Lock()
	defer p.progressSubsMu.Unlock()
	for _, ch := range p.progressSubs[ev.TaskID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (p *Pool) closeSubs(id string) {
	p.progressSubsMu.Lock()
	defer p.progressSubsMu.Unlock()
	for _, ch := range p.progressSubs[id] {
		close(ch)
	}
	delete(p.progressSubs, id)
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopCh:
			return
		case <-p.notEmpty:
			for {
				qt, ok := p.dequeue()
				if !ok {
					break
				}
				p.run(qt)
			}
		}
	}
}

func (p *Pool) dequeue() (*queuedTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil, false
	}
	qt := heap.Pop(&p.queue).(*queuedTask)
	p.metrics.SetQueueDepth(context.Background(), -1)
	return qt, true
}

func (p *Pool) run(qt *queuedTask) {
	timeout := time.Duration(qt.task.TimeoutMs) * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	p.mu.Lock()
	t := p.tasks[qt.task.ID]
	if t.Status == judgment.TaskCancelled {
		// cancelled while still pending: never start the handler
		snapshot := *t
		p.mu.Unlock()
		p.saveBackend(snapshot)
		go p.closeSubs(qt.task.ID)
		return
	}
	p.cancels[qt.task.ID] = cancel
	t.Status = judgment.TaskRunning
	now := time.Now()
	t.StartedAt = &now
	p.mu.Unlock()

	progressTicker := time.NewTicker(p.cfg.ProgressEvery)
	defer progressTicker.Stop()
	progressDone := make(chan struct{})
	defer close(progressDone)
	go func() {
		for {
			select {
			case <-progressTicker.C:
				if snap, ok := p.Get(qt.task.ID); ok {
					p.publishProgress(ProgressEvent{TaskID: qt.task.ID, Progress: snap.Progress, Message: snap.ProgressMessage, At: time.Now()})
				}
			case <-progressDone:
				return
			}
		}
	}()

	report := func(progress int, message string) {
		p.mu.Lock()
		if tt, ok := p.tasks[qt.task.ID]; ok {
			tt.Progress = progress
			tt.ProgressMessage = message
		}
		p.mu.Unlock()
		p.publishProgress(ProgressEvent{TaskID: qt.task.ID, Progress: progress, Message: message, At: time.Now()})
	}

	result, err := qt.handler(ctx, *t, report)

	p.mu.Lock()
	delete(p.cancels, qt.task.ID)
	final := p.tasks[qt.task.ID]
	completedAt := time.Now()
	final.CompletedAt = &completedAt
	switch {
	case final.Status == judgment.TaskCancelled:
		// already terminal, leave as-is
	case ctx.Err() == context.DeadlineExceeded:
		final.Status = judgment.TaskTimeout
		final.Error = "task exceeded its timeout"
	case err != nil:
		final.Status = judgment.TaskFailed
		final.Error = err.Error()
	default:
		final.Status = judgment.TaskCompleted
		final.Result = result
		final.Progress = 100
	}
	snapshot := *final
	p.mu.Unlock()

	p.metrics.RecordTaskCompleted(context.Background(), snapshot.Type, string(snapshot.Status))
	p.saveBackend(snapshot)
	go p.closeSubs(qt.task.ID)
}

// Shutdown stops accepting new dequeues and waits for in-flight tasks to
// finish or the context to expire, whichever comes first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() { close(p.stopCh) })
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// QueueDepth returns the number of tasks currently waiting to run.
func (p *Pool) QueueDepth() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
