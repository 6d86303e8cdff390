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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "tasklist help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, st *state.Container, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range DefaultRegistry.All() {
		names := append([]string{cmd.Name()}, cmd.Aliases()...)
		fmt.Fprintf(out, "  %-14s %s\n", strings.Join(names, ", "), cmd.Synopsis())
	}
	return exitcode.Success
}

const helpText = `Usage:
  tasklist                                   List all tasks
  tasklist list [common flags] [--long] [--open]
  tasklist add [common flags] <title...>
  tasklist create [common flags] <title...>
  tasklist toggle [common flags] <ref>
  tasklist done [common flags] <ref>
  tasklist edit [common flags] <ref> <title...>
  tasklist rm [common flags] <ref>
  tasklist serve [common flags] [--addr <host:port>]
  tasklist config [common flags]
  tasklist login [common flags]
  tasklist logout [common flags]
  tasklist help
  tasklist version

A <ref> is a task number as printed by list, or a task id.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKLIST_API_BASE   Use the todos HTTP API at this base URL
  TASKLIST_BACKEND    local, remote or googletasks
  TASKLIST_STORE      Local store: file or redis
`
