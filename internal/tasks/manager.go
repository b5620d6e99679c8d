package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jarv/justread/internal/logging"
)

var (
	ErrQueueFull    = errors.New("task queue is full")
	ErrTaskNotFound = errors.New("task not found")
	ErrNotRunning   = errors.New("task manager is not running")
)

// DefaultManager implements Manager with a fixed number of workers reading
// from a buffered queue.
type DefaultManager struct {
	maxWorkers int
	tasks      map[string]*Task
	taskQueue  chan *Task
	handlers   map[TaskType]TaskHandler
	events     chan TaskEvent
	pending    int
	mutex      sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	running    bool
}

func NewManager(maxWorkers int) *DefaultManager {
	return &DefaultManager{
		maxWorkers: max(maxWorkers, 1),
		tasks:      make(map[string]*Task),
		taskQueue:  make(chan *Task, 256),
		handlers:   make(map[TaskType]TaskHandler),
		events:     make(chan TaskEvent, 256),
	}
}

func (m *DefaultManager) Start(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.running {
		return fmt.Errorf("task manager is already running")
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.running = true

	for i := 0; i < m.maxWorkers; i++ {
		m.wg.Add(1)
		go m.work(m.ctx)
	}
	return nil
}

// Stop cancels running tasks and returns without waiting for workers. The
// event channel is closed once they have all exited.
func (m *DefaultManager) Stop() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.running {
		return ErrNotRunning
	}

	m.cancel()
	m.running = false
	go func() {
		m.wg.Wait()
		close(m.events)
	}()
	return nil
}

func (m *DefaultManager) AddTask(task *Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.running {
		return ErrNotRunning
	}

	task.Status = TaskStatusPending
	select {
	case m.taskQueue <- task:
		m.tasks[task.ID] = task
		m.pending++
		return nil
	default:
		return ErrQueueFull
	}
}

func (m *DefaultManager) GetTask(id string) (*Task, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	task, exists := m.tasks[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	return task, nil
}

func (m *DefaultManager) ListTasks(filter TaskFilter) ([]*Task, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var tasks []*Task
	for _, task := range m.tasks {
		if filter.Type != nil && task.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		tasks = append(tasks, task)
		if filter.Limit > 0 && len(tasks) >= filter.Limit {
			break
		}
	}
	return tasks, nil
}

func (m *DefaultManager) Subscribe() <-chan TaskEvent {
	return m.events
}

func (m *DefaultManager) RegisterHandler(handler TaskHandler) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	registered := false
	for _, taskType := range knownTaskTypes {
		if !handler.CanHandle(taskType) {
			continue
		}
		if _, exists := m.handlers[taskType]; exists {
			return fmt.Errorf("handler for task type %s already exists", taskType)
		}
		m.handlers[taskType] = handler
		registered = true
	}
	if !registered {
		return fmt.Errorf("handler does not handle any known task type")
	}
	return nil
}

func (m *DefaultManager) Pending() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.pending
}

// ClearFinishedTasks forgets completed and failed tasks and returns how many
// were removed.
func (m *DefaultManager) ClearFinishedTasks() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	count := 0
	for id, task := range m.tasks {
		if task.Status == TaskStatusCompleted || task.Status == TaskStatusFailed {
			delete(m.tasks, id)
			count++
		}
	}
	return count
}

func (m *DefaultManager) publishEvent(event TaskEvent) {
	select {
	case m.events <- event:
	default:
		logging.Warn("Event channel full, dropping event", "type", event.Type, "taskID", event.TaskID)
	}
}

func (m *DefaultManager) work(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-m.taskQueue:
			m.execute(ctx, task)
		}
	}
}

func (m *DefaultManager) execute(ctx context.Context, task *Task) {
	m.mutex.Lock()
	task.Status = TaskStatusRunning
	now := time.Now()
	task.StartedAt = &now
	handler, exists := m.handlers[task.Type]
	pending := m.pending
	m.mutex.Unlock()

	m.publishEvent(TaskEvent{
		Type:      TaskEventStarted,
		TaskID:    task.ID,
		TaskType:  task.Type,
		Status:    TaskStatusRunning,
		Data:      task.Data,
		Pending:   pending,
		Timestamp: now,
	})

	var err error
	if !exists {
		err = fmt.Errorf("no handler found for task type: %s", task.Type)
	} else {
		err = handler.Execute(ctx, task)
	}
	m.finish(task, err)
}

func (m *DefaultManager) finish(task *Task, err error) {
	m.mutex.Lock()
	now := time.Now()
	task.EndedAt = &now
	event := TaskEvent{
		Type:      TaskEventCompleted,
		TaskID:    task.ID,
		TaskType:  task.Type,
		Status:    TaskStatusCompleted,
		Data:      task.Data,
		Timestamp: now,
	}
	if err != nil {
		task.Status = TaskStatusFailed
		task.Error = err.Error()
		event.Type = TaskEventFailed
		event.Status = TaskStatusFailed
		event.Error = task.Error
	} else {
		task.Status = TaskStatusCompleted
	}
	m.pending--
	event.Pending = m.pending
	m.mutex.Unlock()

	if err != nil {
		logging.Error("Task failed", "taskID", task.ID, "type", task.Type, "error", err)
	}
	m.publishEvent(event)
}
