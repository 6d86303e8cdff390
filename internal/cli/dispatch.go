package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"tasklist/internal/commands"
	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/logging"
	"tasklist/internal/service"
	"tasklist/internal/state"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, log *logrus.Logger) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// Flags require a command
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return reportFlagError(errOut, err)
	}

	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return exitcode.AuthError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	level := cfg.Settings.LogLevel
	if debug {
		level = "debug"
	}
	log := logging.New(errOut, level, cfg.Settings.LogFormat)

	if !cmd.NeedsBackend() {
		return cmd.Run(ctx, cfg, nil, positionalArgs, out, errOut)
	}

	mode, err := cfg.Mode()
	if err != nil {
		fmt.Fprintf(errOut, "error: config error: %s\n", err)
		return exitcode.AuthError
	}
	if mode.Kind == config.GoogleTasks {
		if !cfg.HasOAuthClient() {
			fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n", cfg.Dir)
			return exitcode.AuthError
		}
		if !cfg.HasToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: tasklist login)")
			return exitcode.AuthError
		}
	}

	if d.factory == nil {
		fmt.Fprintln(errOut, "error: no backend configured")
		return exitcode.BackendError
	}
	svc, err := d.factory(ctx, cfg, log)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "token") || strings.Contains(msg, "auth") {
			fmt.Fprintf(errOut, "error: auth error: %s\n", msg)
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: backend error: %s\n", msg)
		return exitcode.BackendError
	}
	if closer, ok := svc.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.WithError(err).Warn("closing backend")
			}
		}()
	}

	st := state.New(svc, state.WithLogger(log))
	return cmd.Run(ctx, cfg, st, positionalArgs, out, errOut)
}

// reportFlagError prints a flag parse failure in the CLI's error format.
func reportFlagError(errOut io.Writer, err error) int {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "flag needs an argument"):
		// "flag needs an argument: -config"
		parts := strings.SplitN(errStr, ":", 2)
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", strings.TrimSpace(parts[len(parts)-1]))
	case strings.HasPrefix(errStr, "flag provided but not defined:"):
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
	default:
		fmt.Fprintf(errOut, "error: %s\n", errStr)
	}
	return exitcode.UserError
}
