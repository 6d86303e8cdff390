// Package local implements service.Service on top of a durable key/value store.
// The whole task collection lives under a single key as one JSON array.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tasklist/internal/service"
)

// DefaultKey is the storage key used when none is configured.
const DefaultKey = "todos"

// Client implements service.Service using a Store.
type Client struct {
	store Store
	key   string
	log   logrus.FieldLogger

	now   func() time.Time
	newID func() string

	// mu serializes read-modify-write cycles within this process.
	// Other processes sharing the key are not coordinated: last writer wins.
	mu sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.key = key
		}
	}
}

// WithLogger sets the logger used to report malformed stored data.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithIDGenerator overrides ID generation (for testing).
func WithIDGenerator(newID func() string) Option {
	return func(c *Client) { c.newID = newID }
}

// New creates a Client over store.
func New(store Store, opts ...Option) *Client {
	c := &Client{
		store: store,
		key:   DefaultKey,
		now:   time.Now,
		newID: uuid.NewString,
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

// Key returns the storage key in use.
func (c *Client) Key() string {
	return c.key
}

// List implements service.Service.
func (c *Client) List(ctx context.Context) ([]service.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read(ctx)
}

// Create implements service.Service.
func (c *Client) Create(ctx context.Context, title string) (service.Task, error) {
	title, err := service.NormalizeTitle(title)
	if err != nil {
		return service.Task{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tasks, err := c.read(ctx)
	if err != nil {
		return service.Task{}, err
	}

	now := c.now().UTC()
	task := service.Task{
		ID:        c.newID(),
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tasks = append(tasks, task)

	if err := c.write(ctx, tasks); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Update implements service.Service.
func (c *Client) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	if patch.Title != nil {
		title, err := service.NormalizeTitle(*patch.Title)
		if err != nil {
			return service.Task{}, err
		}
		patch.Title = &title
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tasks, err := c.read(ctx)
	if err != nil {
		return service.Task{}, err
	}

	idx := -1
	for i, t := range tasks {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return service.Task{}, fmt.Errorf("%w: %s", service.ErrNotFound, id)
	}

	updated := patch.Apply(tasks[idx])
	// updatedAt never moves backwards, even if the wall clock does.
	now := c.now().UTC()
	if now.Before(updated.UpdatedAt) {
		now = updated.UpdatedAt
	}
	if now.Before(updated.CreatedAt) {
		now = updated.CreatedAt
	}
	updated.UpdatedAt = now
	tasks[idx] = updated

	if err := c.write(ctx, tasks); err != nil {
		return service.Task{}, err
	}
	return updated, nil
}

// Delete implements service.Service.
func (c *Client) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	tasks, err := c.read(ctx)
	if err != nil {
		return err
	}

	kept := tasks[:0]
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	return c.write(ctx, kept)
}

// read loads the collection. A missing or malformed value reads as empty;
// malformed data is logged and will be overwritten by the next write.
func (c *Client) read(ctx context.Context) ([]service.Task, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.key, err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []service.Task{}, nil
	}

	var tasks []service.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		c.log.WithFields(logrus.Fields{
			"key":   c.key,
			"error": err,
		}).Warn("stored tasks are malformed, starting from an empty collection")
		return []service.Task{}, nil
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

func (c *Client) write(ctx context.Context, tasks []service.Task) error {
	if tasks == nil {
		tasks = []service.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}

// Close closes the underlying store if it holds resources.
func (c *Client) Close() error {
	if closer, ok := c.store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
