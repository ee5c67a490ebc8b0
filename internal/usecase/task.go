package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskKind names the long-running operation a task wraps
type TaskKind string

const (
	TaskFeedAnalysis TaskKind = "feed_analysis"
	TaskDownload     TaskKind = "download"
	TaskUpload       TaskKind = "upload"
)

// TaskState is the lifecycle of a task
type TaskState string

const (
	TaskRunning   TaskState = "running"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
	TaskCancelled TaskState = "cancelled"
)

// Progress is a coarse done/total counter with a human message
type Progress struct {
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// Task tracks one long-running operation. Cancellation flows through the
// context handed out at start, so the worker observes it at its next
// checkpoint rather than being killed mid-write.
type Task struct {
	ID   string
	Kind TaskKind

	mu       sync.RWMutex
	state    TaskState
	progress Progress
	err      error
	cancel   context.CancelFunc
	started  time.Time
	finished time.Time
}

// TaskSnapshot is an immutable view of a task for the delivery layer
type TaskSnapshot struct {
	ID       string    `json:"id"`
	Kind     TaskKind  `json:"kind"`
	State    TaskState `json:"state"`
	Progress Progress  `json:"progress"`
	Error    string    `json:"error,omitempty"`
	Started  time.Time `json:"started_at"`
	Finished time.Time `json:"finished_at,omitempty"`
}

// SetProgress updates the task's progress counter.
func (t *Task) SetProgress(done, total int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress = Progress{Done: done, Total: total, Message: message}
}

// Complete marks the task finished successfully. A task cancelled before
// completion stays cancelled.
func (t *Task) Complete() {
	t.finish(TaskCompleted, nil)
}

// Fail marks the task finished with an error.
func (t *Task) Fail(err error) {
	t.finish(TaskFailed, err)
}

// Cancel requests cooperative cancellation via the task's context.
func (t *Task) Cancel() {
	t.mu.Lock()
	if t.state == TaskRunning {
		t.state = TaskCancelled
		t.finished = time.Now()
	}
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (t *Task) finish(state TaskState, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TaskRunning {
		return
	}
	t.state = state
	t.err = err
	t.finished = time.Now()
}

// Snapshot returns a copy of the task's current state.
func (t *Task) Snapshot() TaskSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := TaskSnapshot{
		ID:       t.ID,
		Kind:     t.Kind,
		State:    t.state,
		Progress: t.progress,
		Started:  t.started,
		Finished: t.finished,
	}
	if t.err != nil {
		snap.Error = t.err.Error()
	}
	return snap
}

// TaskRegistry hands out cancellable tasks and keeps them addressable by ID.
type TaskRegistry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// NewTaskRegistry creates an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: make(map[string]*Task)}
}

// Start registers a new running task and returns it together with the
// context the worker must honor.
func (r *TaskRegistry) Start(ctx context.Context, kind TaskKind) (*Task, context.Context) {
	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		ID:      uuid.NewString(),
		Kind:    kind,
		state:   TaskRunning,
		cancel:  cancel,
		started: time.Now(),
	}

	r.mu.Lock()
	r.tasks[task.ID] = task
	r.mu.Unlock()

	return task, taskCtx
}

// Get looks up a task by ID.
func (r *TaskRegistry) Get(id string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[id]
	return task, ok
}

// List returns snapshots of all known tasks.
func (r *TaskRegistry) List() []TaskSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snaps := make([]TaskSnapshot, 0, len(r.tasks))
	for _, task := range r.tasks {
		snaps = append(snaps, task.Snapshot())
	}
	return snaps
}

// Cancel cancels the task with the given ID. It reports whether the task
// exists.
func (r *TaskRegistry) Cancel(id string) bool {
	task, ok := r.Get(id)
	if !ok {
		return false
	}
	task.Cancel()
	return true
}
