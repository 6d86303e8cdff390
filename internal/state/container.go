// Package state holds the in-memory task collection and keeps it in step
// with a persistence backend.
//
// Every action performs one backend call and applies the confirmed result.
// Memory is never changed before the backend succeeds, so a failed action
// leaves the collection exactly as it was.
package state

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"tasklist/internal/service"
)

// Snapshot is a point-in-time copy of the container state.
type Snapshot struct {
	Tasks   []service.Task
	Loading bool
	Err     string
}

// Container is the authoritative in-memory view of the tasks.
type Container struct {
	svc service.Service
	log logrus.FieldLogger

	mu       sync.RWMutex
	tasks    []service.Task
	loading  bool
	errMsg   string
	onChange func(Snapshot)
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Container) { c.log = log }
}

// WithOnChange registers an observer called with a snapshot after every
// state transition. It runs synchronously on the acting goroutine.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Container) { c.onChange = fn }
}

// New creates an empty Container over svc.
func New(svc service.Service, opts ...Option) *Container {
	c := &Container{
		svc:   svc,
		tasks: []service.Task{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.log = l
	}
	return c
}

// Service returns the backend the container persists to.
func (c *Container) Service() service.Service {
	return c.svc
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Container) snapshotLocked() Snapshot {
	tasks := make([]service.Task, len(c.tasks))
	copy(tasks, c.tasks)
	return Snapshot{Tasks: tasks, Loading: c.loading, Err: c.errMsg}
}

// Tasks returns a copy of the current collection in display order.
func (c *Container) Tasks() []service.Task {
	return c.Snapshot().Tasks
}

// Loading reports whether a load is in flight.
func (c *Container) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the message of the last load failure, or "".
func (c *Container) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}

// Find returns the in-memory task with the given ID.
func (c *Container) Find(id string) (service.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return service.Task{}, false
}

// update applies fn under the write lock and notifies the observer.
func (c *Container) update(fn func()) {
	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	onChange := c.onChange
	c.mu.Unlock()

	if onChange != nil {
		onChange(snap)
	}
}

// Load replaces the collection with the backend's, sorted most recently
// updated first. A failure is recorded in Err and the previous collection is
// kept; it does not block later actions.
func (c *Container) Load(ctx context.Context) {
	c.update(func() {
		c.loading = true
		c.errMsg = ""
	})

	tasks, err := c.svc.List(ctx)
	if err != nil {
		c.log.WithError(err).Warn("failed to load tasks")
		msg := err.Error()
		if msg == "" {
			msg = "failed to load tasks"
		}
		c.update(func() {
			c.loading = false
			c.errMsg = msg
		})
		return
	}

	sorted := make([]service.Task, len(tasks))
	copy(sorted, tasks)
	service.SortByUpdatedDesc(sorted)

	c.update(func() {
		c.loading = false
		c.tasks = sorted
	})
	c.log.WithField("count", len(sorted)).Debug("tasks loaded")
}

// Reload is the manual reload trigger. Same as Load.
func (c *Container) Reload(ctx context.Context) {
	c.Load(ctx)
}

// AddTask creates a task and puts it at the front of the collection.
// A title that trims to empty is ignored. The collection is not re-sorted;
// the next Load restores updatedAt order.
func (c *Container) AddTask(ctx context.Context, title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil
	}

	created, err := c.svc.Create(ctx, trimmed)
	if err != nil {
		return err
	}

	c.update(func() {
		tasks := make([]service.Task, 0, len(c.tasks)+1)
		tasks = append(tasks, created)
		for _, t := range c.tasks {
			if t.ID != created.ID {
				tasks = append(tasks, t)
			}
		}
		c.tasks = tasks
	})
	return nil
}

// ToggleTask flips the completion flag of the task with the given ID.
// Unknown IDs are ignored.
func (c *Container) ToggleTask(ctx context.Context, id string) error {
	current, ok := c.Find(id)
	if !ok {
		return nil
	}

	updated, err := c.svc.Update(ctx, id, service.SetCompleted(!current.Completed))
	if err != nil {
		return err
	}
	c.replace(updated)
	return nil
}

// EditTask changes the title of the task with the given ID.
// A title that trims to empty is ignored.
func (c *Container) EditTask(ctx context.Context, id, title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil
	}

	updated, err := c.svc.Update(ctx, id, service.SetTitle(trimmed))
	if err != nil {
		return err
	}
	c.replace(updated)
	return nil
}

// RemoveTask deletes the task with the given ID and drops it from memory.
func (c *Container) RemoveTask(ctx context.Context, id string) error {
	if err := c.svc.Delete(ctx, id); err != nil {
		return err
	}

	c.update(func() {
		kept := make([]service.Task, 0, len(c.tasks))
		for _, t := range c.tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		c.tasks = kept
	})
	return nil
}

// replace swaps the entry matching updated.ID for updated.
func (c *Container) replace(updated service.Task) {
	c.update(func() {
		tasks := make([]service.Task, len(c.tasks))
		for i, t := range c.tasks {
			if t.ID == updated.ID {
				t = updated
			}
			tasks[i] = t
		}
		c.tasks = tasks
	})
}
