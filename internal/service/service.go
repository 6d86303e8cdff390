// Package service defines the backend-agnostic interface for task persistence.
package service

import "context"

// Service defines the interface for task backend operations.
// Every persistence backend (local store, remote HTTP, Google Tasks)
// goes through this interface. Commands never import a backend directly.
type Service interface {
	// List returns all tasks in backend order.
	// Sorting for display is the caller's job.
	List(ctx context.Context) ([]Task, error)

	// Create stores a new task with the given title.
	// Returns ErrEmptyTitle if the title trims to empty.
	// The returned task carries its assigned ID and timestamps.
	Create(ctx context.Context, title string) (Task, error)

	// Update merges the non-nil fields of patch into the task with the given ID
	// and refreshes UpdatedAt. Returns ErrNotFound if the ID is absent.
	Update(ctx context.Context, id string, patch TaskPatch) (Task, error)

	// Delete removes the task with the given ID.
	// Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error
}
