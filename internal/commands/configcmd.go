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
	Register(&ConfigCmd{})
}

// ConfigCmd prints the effective settings.
type ConfigCmd struct{}

func (c *ConfigCmd) Name() string       { return "config" }
func (c *ConfigCmd) Aliases() []string  { return nil }
func (c *ConfigCmd) Synopsis() string   { return "Print the effective configuration" }
func (c *ConfigCmd) Usage() string      { return "tasklist config [common flags]" }
func (c *ConfigCmd) NeedsBackend() bool { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, st *state.Container, args []string, out, errOut io.Writer) int {
	mode, err := cfg.Mode()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	fmt.Fprintf(out, "# dir: %s\n# mode: %s\n", cfg.Dir, mode)
	if err := cfg.WriteSettings(out); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
