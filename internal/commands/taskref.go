package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tasklist/internal/service"
	"tasklist/internal/state"
)

// ErrTaskRefRequired is returned when no task reference is provided.
var ErrTaskRefRequired = errors.New("task reference required")

// TaskRef is a parsed task reference.
// Either Num is a 1-based position in the list as printed by `list`,
// or ID is a task ID.
type TaskRef struct {
	Num int
	ID  string
}

func (r TaskRef) String() string {
	if r.ID != "" {
		return r.ID
	}
	return strconv.Itoa(r.Num)
}

// ParseTaskRef parses a task reference from a single argument.
// Supported formats:
//   - "3": position 3
//   - "0b6f8a1e-...": task ID
func ParseTaskRef(arg string) (TaskRef, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return TaskRef{}, fmt.Errorf("task number out of range: %s", arg)
		}
		return TaskRef{Num: num}, nil
	}

	return TaskRef{ID: arg}, nil
}

// ResolveTaskRef finds the task a reference points at in a loaded container.
// Positions count from the first task in display order.
func ResolveTaskRef(st *state.Container, ref TaskRef) (service.Task, error) {
	if ref.ID != "" {
		task, ok := st.Find(ref.ID)
		if !ok {
			return service.Task{}, fmt.Errorf("task not found: %s", ref.ID)
		}
		return task, nil
	}

	tasks := st.Tasks()
	if ref.Num < 1 || ref.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", ref.Num)
	}
	return tasks[ref.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
