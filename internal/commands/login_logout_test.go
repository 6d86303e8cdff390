package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tasklist/internal/commands"
	"tasklist/internal/config"
	"tasklist/internal/exitcode"
)

const testOAuthClient = `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`

// credentialsDir returns a config dir holding the given files.
func credentialsDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func runAuthCommand(ctx context.Context, cmd commands.Command, cfg *config.Config) (stdout, stderr string, code int) {
	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(ctx, cfg, nil, nil, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestLoginCommand_NoOAuthClient(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}

	stdout, stderr, code := runAuthCommand(context.Background(), &commands.LoginCmd{}, cfg)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "oauth_client.json not found") {
		t.Errorf("expected missing credentials message, got %q", stderr)
	}
}

// A stored token that cannot be refreshed must not short-circuit login.
// The context is cancelled up front so the command stops at the callback wait.
func TestLoginCommand_UnusableTokenStartsFlow(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"corrupt", `not json`},
		{"no refresh token", `{"access_token":"expired","token_type":"Bearer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := credentialsDir(t, map[string]string{
				config.OAuthClientFile: testOAuthClient,
				config.TokenFile:       tt.token,
			})
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			stdout, _, code := runAuthCommand(ctx, &commands.LoginCmd{}, &config.Config{Dir: dir})

			if stdout == "already logged in\n" {
				t.Error("should not report an unusable token as logged in")
			}
			if code == exitcode.Success {
				t.Error("expected login to stop without a callback")
			}
		})
	}
}

func TestLogoutCommand_RemovesOnlyToken(t *testing.T) {
	dir := credentialsDir(t, map[string]string{
		config.OAuthClientFile: testOAuthClient,
		config.TokenFile:       `{"access_token":"a","refresh_token":"r"}`,
	})
	cfg := &config.Config{Dir: dir}

	stdout, stderr, code := runAuthCommand(context.Background(), &commands.LogoutCmd{}, cfg)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected 'ok', got %q", stdout)
	}
	if cfg.HasToken() {
		t.Error("token.json should be removed")
	}
	if !cfg.HasOAuthClient() {
		t.Error("oauth_client.json should be kept")
	}
}

func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	for _, quiet := range []bool{false, true} {
		cfg := &config.Config{Dir: t.TempDir(), Quiet: quiet}

		stdout, _, code := runAuthCommand(context.Background(), &commands.LogoutCmd{}, cfg)

		if code != exitcode.Success {
			t.Errorf("quiet=%v: expected exit code %d, got %d", quiet, exitcode.Success, code)
		}
		want := "not logged in\n"
		if quiet {
			want = ""
		}
		if stdout != want {
			t.Errorf("quiet=%v: expected %q, got %q", quiet, want, stdout)
		}
	}
}
