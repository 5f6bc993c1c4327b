package judgment

import "time"

// TaskStatus is the lifecycle state of a worker-pool task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
	TaskTimeout   TaskStatus = "timeout"
)

// Task is a unit of work submitted to the background worker pool (§3,
// §4.11). Priority is in [0,100]; higher priority is dispatched first.
type Task struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	Payload         any            `json:"payload,omitempty"`
	Priority        int            `json:"priority"`
	Status          TaskStatus     `json:"status"`
	Progress        int            `json:"progress"`
	ProgressMessage string         `json:"progressMessage,omitempty"`
	Result          any            `json:"result,omitempty"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	StartedAt       *time.Time     `json:"startedAt,omitempty"`
	CompletedAt     *time.Time     `json:"completedAt,omitempty"`
	TimeoutMs       int64          `json:"timeoutMs,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Age returns how long ago the task was created.
func (t Task) Age() time.Duration {
	return time.Since(t.CreatedAt)
}

// Duration returns the wall-clock time the task spent running, or zero if
// it has not completed.
func (t Task) Duration() time.Duration {
	if t.StartedAt == nil || t.CompletedAt == nil {
		return 0
	}
	return t.CompletedAt.Sub(*t.StartedAt)
}

// HasError reports whether the task ended with a recorded error.
func (t Task) HasError() bool {
	return t.Error != ""
}

// IsTerminal reports whether the task has reached a status from which it
// will never transition again.
func (t Task) IsTerminal() bool {
	switch t.Status {
	case TaskCompleted, TaskFailed, TaskCancelled, TaskTimeout:
		return true
	default:
		return false
	}
}
