package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/logging"
	"tasklist/internal/server"
	"tasklist/internal/state"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

func init() {
	Register(&ServeCmd{})
}

// ServeCmd implements the serve command.
type ServeCmd struct {
	addr string

	// ready, if set, receives the bound address once listening (for testing).
	ready chan<- string
}

// SetReady registers a channel that receives the listen address (for testing).
func (c *ServeCmd) SetReady(ch chan<- string) {
	c.ready = ch
}

// SetAddr sets the listen address (for testing).
func (c *ServeCmd) SetAddr(addr string) {
	c.addr = addr
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Serve the todos HTTP API" }
func (c *ServeCmd) Usage() string      { return "tasklist serve [--addr <host:port>]" }
func (c *ServeCmd) NeedsBackend() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.addr, "addr", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, st *state.Container, args []string, out, errOut io.Writer) int {
	addr := c.addr
	if addr == "" {
		addr = cfg.Settings.HTTPAddr
	}

	// The server logs every request, so it gets its own info-level logger.
	level := cfg.Settings.LogLevel
	if cfg.Debug {
		level = "debug"
	} else if level == "" || level == "warn" {
		level = "info"
	}
	log := logging.New(errOut, level, cfg.Settings.LogFormat)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(errOut, "error: could not listen on %s: %v\n", addr, err)
		return exitcode.UserError
	}

	srv := &http.Server{
		Handler:      server.New(st.Service(), log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.WithField("addr", listener.Addr().String()).Info("HTTP server listening")
	if c.ready != nil {
		c.ready <- listener.Addr().String()
	}

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Fprintf(errOut, "error: server error: %v\n", err)
			return exitcode.BackendError
		}
		return exitcode.Success
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(errOut, "error: shutdown: %v\n", err)
		return exitcode.BackendError
	}
	log.Info("HTTP server stopped")
	return exitcode.Success
}
