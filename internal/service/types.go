package service

import (
	"sort"
	"time"
)

// Task represents a single task item.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskPatch holds the fields of a partial update.
// Nil fields are left unchanged.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply merges the patch into t. It does not touch timestamps.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// SetTitle returns a patch that changes only the title.
func SetTitle(title string) TaskPatch {
	return TaskPatch{Title: &title}
}

// SetCompleted returns a patch that changes only the completion flag.
func SetCompleted(completed bool) TaskPatch {
	return TaskPatch{Completed: &completed}
}

// SortByUpdatedDesc sorts tasks in place, most recently updated first.
// Ties keep their relative order.
func SortByUpdatedDesc(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
}
