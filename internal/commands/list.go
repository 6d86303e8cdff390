package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/output"
	"tasklist/internal/state"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `tasklist` (no args) and `tasklist list`.
type ListCmd struct {
	long     bool
	openOnly bool
}

// SetLong enables ID and timestamp output (for testing).
func (c *ListCmd) SetLong(long bool) {
	c.long = long
}

// SetOpenOnly hides completed tasks (for testing).
func (c *ListCmd) SetOpenOnly(open bool) {
	c.openOnly = open
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "tasklist list [--long] [--open]" }
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.long, "long", false, "")
	fs.BoolVar(&c.long, "l", false, "")
	fs.BoolVar(&c.openOnly, "open", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, st *state.Container, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	if !loadTasks(ctx, st, errOut) {
		return exitcode.BackendError
	}

	tasks := st.Tasks()
	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	// Hidden tasks keep their numbers so refs stay valid.
	for i, task := range tasks {
		if c.openOnly && task.Completed {
			continue
		}
		if c.long {
			output.FormatTaskDetail(out, i+1, task)
		} else {
			output.FormatTask(out, i+1, task)
		}
	}
	return exitcode.Success
}
