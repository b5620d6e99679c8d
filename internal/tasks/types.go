package tasks

import (
	"context"
	"time"
)

// TaskType represents the type of task
type TaskType string

const (
	TaskTypeFeedRefresh       TaskType = "feed_refresh"
	TaskTypeSubscriptionsSync TaskType = "subscriptions_sync"
)

var knownTaskTypes = []TaskType{TaskTypeFeedRefresh, TaskTypeSubscriptionsSync}

// TaskStatus represents the current status of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task is a unit of background work
type Task struct {
	ID        string
	Type      TaskType
	Status    TaskStatus
	Data      map[string]interface{}
	CreatedAt time.Time
	StartedAt *time.Time
	EndedAt   *time.Time
	Error     string
}

// TaskHandler executes tasks of the types it can handle
type TaskHandler interface {
	Execute(ctx context.Context, task *Task) error
	CanHandle(taskType TaskType) bool
}

// TaskEvent is published when a task starts, completes or fails
type TaskEvent struct {
	Type      TaskEventType
	TaskID    string
	TaskType  TaskType
	Status    TaskStatus
	Data      map[string]interface{}
	Error     string
	Pending   int // queued or running tasks after this event
	Timestamp time.Time
}

type TaskEventType string

const (
	TaskEventStarted   TaskEventType = "task_started"
	TaskEventCompleted TaskEventType = "task_completed"
	TaskEventFailed    TaskEventType = "task_failed"
)

// Manager runs tasks on a bounded pool of workers
type Manager interface {
	Start(ctx context.Context) error
	Stop() error
	AddTask(task *Task) error
	GetTask(id string) (*Task, error)
	ListTasks(filter TaskFilter) ([]*Task, error)
	// Subscribe returns the event stream. There is a single stream shared by
	// all callers.
	Subscribe() <-chan TaskEvent
	RegisterHandler(handler TaskHandler) error
	// Pending is the number of queued or running tasks
	Pending() int
	ClearFinishedTasks() int
}

type TaskFilter struct {
	Type   *TaskType
	Status *TaskStatus
	Limit  int
}
