package controller

import "sync"

// Task is a deferred action run on the control loop.
type Task func(c *Controller) error

// TaskQueue is a FIFO of deferred tasks.
// Push is safe from any goroutine; the control loop pops.
type TaskQueue struct {
	mu    sync.Mutex
	tasks []Task
}

// Push appends a task.
func (q *TaskQueue) Push(t Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
}

// Pop removes and returns the oldest task.
func (q *TaskQueue) Pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return t, true
}

// Len returns the number of pending tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
