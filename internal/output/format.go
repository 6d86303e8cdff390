// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tasklist/internal/service"
)

// FormatTask formats a task line.
// Format: "{N:>4}  [x] {TITLE}\n" ("[ ]" for open tasks).
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, checkbox(task.Completed), normalizeTitle(task.Title))
}

// FormatTaskDetail formats a task with its ID and timestamps.
// Format: "{N:>4}  [x] {TITLE}\n      id: {ID}  updated: {RFC3339}\n"
func FormatTaskDetail(w io.Writer, num int, task service.Task) {
	FormatTask(w, num, task)
	fmt.Fprintf(w, "      id: %s  updated: %s\n", task.ID, task.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
}

func checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
