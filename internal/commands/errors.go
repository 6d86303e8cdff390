package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tasklist/internal/exitcode"
	"tasklist/internal/service"
	"tasklist/internal/state"
)

// loadTasks loads the container and reports a load failure.
// Returns false if the command should stop.
func loadTasks(ctx context.Context, st *state.Container, errOut io.Writer) bool {
	st.Load(ctx)
	if msg := st.Err(); msg != "" {
		fmt.Fprintf(errOut, "error: backend error: %s\n", msg)
		return false
	}
	return true
}

// reportActionError prints an action failure and returns the exit code.
func reportActionError(errOut io.Writer, err error) int {
	switch {
	case errors.Is(err, service.ErrNotFound):
		fmt.Fprintln(errOut, "error: task not found")
		return exitcode.UserError
	case errors.Is(err, service.ErrEmptyTitle):
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	default:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}
}

// resolveRef parses and resolves a task reference argument.
// Returns false (after printing) if the reference is missing or unknown.
func resolveRef(st *state.Container, args []string, errOut io.Writer) (service.Task, bool) {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task reference required")
		return service.Task{}, false
	}
	ref, err := ParseTaskRef(args[0])
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, false
	}
	task, err := ResolveTaskRef(st, ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Task{}, false
	}
	return task, true
}
