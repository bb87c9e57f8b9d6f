package taskflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTask holds the user supplied fields of a task.
type NewTask struct {
	Title       string   `json:"title" form:"title"`
	Description string   `json:"description" form:"description"`
	Priority    Priority `json:"priority" form:"priority"`
}

// Column is one board column with its tasks in display order.
type Column struct {
	Status Status
	Tasks  []Task
}

// Board applies mutations to a TaskStore and publishes the resulting events.
// When publishing fails after the store succeeded, mutations return the
// persisted task together with an error wrapping ErrPublish.
type Board struct {
	store  TaskStore
	broker Broker
	now    func() time.Time
}

// NewBoard returns a board backed by store that publishes to broker.
func NewBoard(store TaskStore, broker Broker) *Board {
	return &Board{
		store:  store,
		broker: broker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns all tasks ordered by column, priority and age.
func (b *Board) List(ctx context.Context) ([]Task, error) {
	tasks, err := b.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("taskflow: list: %w", err)
	}
	sortTasks(tasks)
	return tasks, nil
}

// Columns groups the board's tasks by status.
func (b *Board) Columns(ctx context.Context) ([]Column, error) {
	tasks, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	return Group(tasks), nil
}

// Create validates and stores a new todo task.
func (b *Board) Create(ctx context.Context, in NewTask) (Task, error) {
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	now := b.now()
	t := Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Status:      StatusTodo,
		Priority:    in.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	if err := b.store.SaveTask(ctx, t); err != nil {
		return Task{}, fmt.Errorf("taskflow: save: %w", err)
	}
	return t, b.publish(ctx, EventCreated, t)
}

// SetStatus moves a task to another column.
func (b *Board) SetStatus(ctx context.Context, id string, status Status) (Task, error) {
	if !status.Valid() {
		return Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTask, status)
	}
	t, err := b.store.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	t.Status = status
	t.UpdatedAt = b.now()
	if err := b.store.SaveTask(ctx, t); err != nil {
		return Task{}, fmt.Errorf("taskflow: save: %w", err)
	}
	return t, b.publish(ctx, EventUpdated, t)
}

// Delete removes a task.
func (b *Board) Delete(ctx context.Context, id string) error {
	t, err := b.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := b.store.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("taskflow: delete: %w", err)
	}
	return b.publish(ctx, EventDeleted, t)
}

// Subscribe streams board events until ctx is done.
func (b *Board) Subscribe(ctx context.Context) (<-chan Event, error) {
	return b.broker.Subscribe(ctx)
}

func (b *Board) publish(ctx context.Context, typ EventType, t Task) error {
	if err := b.broker.Publish(ctx, Event{Type: typ, Task: t, At: b.now()}); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrPublish, typ, t.ID, err)
	}
	return nil
}

// Group splits sorted tasks into one Column per status.
func Group(tasks []Task) []Column {
	cols := make([]Column, 0, 3)
	for _, s := range Statuses() {
		col := Column{Status: s}
		for _, t := range tasks {
			if t.Status == s {
				col.Tasks = append(col.Tasks, t)
			}
		}
		cols = append(cols, col)
	}
	return cols
}

func sortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Status != b.Status {
			return a.Status.rank() < b.Status.rank()
		}
		if a.Priority != b.Priority {
			return a.Priority.rank() < b.Priority.rank()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
