package ingest

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is one published write task. Batches apply synchronously, so a task
// is already published by the time its id reaches the client; the registry
// exists so `GET /1/tasks/{id}` has something truthful to answer.
type Task struct {
	ID        int64
	Key       string
	Index     string
	Status    string
	CreatedAt time.Time
}

// TaskRegistry hands out task ids and remembers recent tasks. Internally
// synchronized; shared across handlers.
type TaskRegistry struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]Task
}

// NewTaskRegistry builds an empty registry.
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{tasks: map[int64]Task{}}
}

// Publish records a completed write task for indexName and returns it.
func (r *TaskRegistry) Publish(indexName string) Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	task := Task{
		ID:        r.nextID,
		Key:       uuid.NewString(),
		Index:     indexName,
		Status:    "published",
		CreatedAt: time.Now().UTC(),
	}
	r.tasks[task.ID] = task
	return task
}

// Get looks a task up by numeric id.
func (r *TaskRegistry) Get(id int64) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}
