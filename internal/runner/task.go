package runner

import (
	"context"
	"sort"
	"time"
)

// Task is a background job the runner executes on a cron schedule.
type Task interface {
	// Name returns the unique name of the task
	Name() string

	// Schedule returns the cron expression this task runs on
	Schedule() string

	// Run executes the task
	Run(ctx context.Context) error

	// Timeout returns the maximum time one run may take
	Timeout() time.Duration
}

// TaskRegistry holds all registered tasks. Registration happens during
// startup, before the runner starts; it is not safe for concurrent use.
type TaskRegistry struct {
	tasks map[string]Task
}

// NewTaskRegistry creates an empty task registry
func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{
		tasks: make(map[string]Task),
	}
}

// Register adds a task, replacing any previous task of the same name.
func (r *TaskRegistry) Register(task Task) {
	r.tasks[task.Name()] = task
}

// Get returns a task by name
func (r *TaskRegistry) Get(name string) (Task, bool) {
	task, exists := r.tasks[name]
	return task, exists
}

// Names returns the registered task names in stable order.
func (r *TaskRegistry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
