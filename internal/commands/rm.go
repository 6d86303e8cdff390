package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/state"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "tasklist rm <ref>" }
func (c *RmCmd) NeedsBackend() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, st *state.Container, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	if !loadTasks(ctx, st, errOut) {
		return exitcode.BackendError
	}

	id, ok := removalID(st, args, errOut)
	if !ok {
		return exitcode.UserError
	}

	if err := st.RemoveTask(ctx, id); err != nil {
		return reportActionError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// removalID resolves the task to delete. An ID ref is passed through even
// when it is not in the loaded list, since deleting an absent task succeeds.
func removalID(st *state.Container, args []string, errOut io.Writer) (string, bool) {
	if len(args) > 0 {
		if ref, err := ParseTaskRef(args[0]); err == nil && ref.ID != "" {
			return ref.ID, true
		}
	}
	task, ok := resolveRef(st, args, errOut)
	return task.ID, ok
}
