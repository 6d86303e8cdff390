// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tasklist/internal/service"
)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.RWMutex
	tasks []service.Task
	clock time.Time
	seq   int

	// Calls counts backend calls by operation name.
	Calls map[string]int

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

// NewFakeService creates an empty FakeService.
// Its clock starts at 2024-01-01 UTC and advances one second per mutation.
func NewFakeService() *FakeService {
	return &FakeService{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Calls: make(map[string]int),
	}
}

func (f *FakeService) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

// AddTask seeds a task and returns it.
func (f *FakeService) AddTask(id, title string, completed bool) service.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := f.tick()
	task := service.Task{ID: id, Title: title, Completed: completed, CreatedAt: now, UpdatedAt: now}
	f.tasks = append(f.tasks, task)
	return task
}

// Stored returns a copy of the backend collection.
func (f *FakeService) Stored() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := make([]service.Task, len(f.tasks))
	copy(result, f.tasks)
	return result
}

// List implements service.Service.
func (f *FakeService) List(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.Calls["list"]++
	f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Stored(), nil
}

// Create implements service.Service.
func (f *FakeService) Create(ctx context.Context, title string) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["create"]++
	if f.CreateErr != nil {
		return service.Task{}, f.CreateErr
	}

	title, err := service.NormalizeTitle(title)
	if err != nil {
		return service.Task{}, err
	}

	f.seq++
	now := f.tick()
	task := service.Task{
		ID:        fmt.Sprintf("task-%d", f.seq),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.tasks = append(f.tasks, task)
	return task, nil
}

// Update implements service.Service.
func (f *FakeService) Update(ctx context.Context, id string, patch service.TaskPatch) (service.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["update"]++
	if f.UpdateErr != nil {
		return service.Task{}, f.UpdateErr
	}

	for i, t := range f.tasks {
		if t.ID == id {
			t = patch.Apply(t)
			t.UpdatedAt = f.tick()
			f.tasks[i] = t
			return t, nil
		}
	}
	return service.Task{}, service.ErrNotFound
}

// Delete implements service.Service.
func (f *FakeService) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["delete"]++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			break
		}
	}
	return nil
}
