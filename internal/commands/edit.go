package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/state"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command.
type EditCmd struct{}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return []string{"rename"} }
func (c *EditCmd) Synopsis() string   { return "Change a task's title" }
func (c *EditCmd) Usage() string      { return "tasklist edit <ref> <title...>" }
func (c *EditCmd) NeedsBackend() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, st *state.Container, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "error: task reference required")
		return exitcode.UserError
	}
	title := strings.TrimSpace(strings.Join(args[1:], " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	if !loadTasks(ctx, st, errOut) {
		return exitcode.BackendError
	}

	task, ok := resolveRef(st, args, errOut)
	if !ok {
		return exitcode.UserError
	}

	// Unchanged titles don't touch the backend.
	if title != task.Title {
		if err := st.EditTask(ctx, task.ID, title); err != nil {
			return reportActionError(errOut, err)
		}
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
