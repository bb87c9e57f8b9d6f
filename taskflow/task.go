// Package taskflow is a small task board whose changes are fanned out to
// live clients through a publish/subscribe Broker.
package taskflow

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrTaskNotFound is returned when a task id does not exist.
	ErrTaskNotFound = errors.New("taskflow: task not found")
	// ErrInvalidTask is returned for tasks that fail validation.
	ErrInvalidTask = errors.New("taskflow: invalid task")
	// ErrPublish wraps broker failures after a mutation was persisted.
	ErrPublish = errors.New("taskflow: publish failed")
	// ErrBrokerClosed is returned by a broker after Close.
	ErrBrokerClosed = errors.New("taskflow: broker closed")
)

// Status is the board column a task sits in.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses returns the board columns in display order.
func Statuses() []Status {
	return []Status{StatusTodo, StatusInProgress, StatusDone}
}

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

func (s Status) rank() int {
	switch s {
	case StatusTodo:
		return 0
	case StatusInProgress:
		return 1
	}
	return 2
}

// Priority orders tasks within a column.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities returns every priority, highest first.
func Priorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityLow}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// Task is a single card on the board.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate reports ErrInvalidTask for an empty title or an unknown enum value.
func (t Task) Validate() error {
	switch {
	case strings.TrimSpace(t.Title) == "":
		return errors.Join(ErrInvalidTask, errors.New("title is required"))
	case len(t.Title) > 200:
		return errors.Join(ErrInvalidTask, errors.New("title is too long"))
	case !t.Status.Valid():
		return errors.Join(ErrInvalidTask, errors.New("unknown status "+string(t.Status)))
	case !t.Priority.Valid():
		return errors.Join(ErrInvalidTask, errors.New("unknown priority "+string(t.Priority)))
	}
	return nil
}

// EventType names a board mutation.
type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

// Event is published once for every persisted mutation.
type Event struct {
	Type EventType `json:"type"`
	Task Task      `json:"task"`
	At   time.Time `json:"at"`
}

// TaskStore persists tasks.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	SaveTask(ctx context.Context, t Task) error
	DeleteTask(ctx context.Context, id string) error
}
