// Package config handles the XDG configuration directory, the settings file
// and environment overrides.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// AppName is the application directory name.
	AppName = "tasklist"

	// SettingsFile is the optional settings filename inside the config directory.
	SettingsFile = "config.toml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"
)

// Settings are read from config.toml and overridden by the environment.
type Settings struct {
	// APIBase is the remote base URL. Its presence selects remote mode.
	APIBase string `toml:"api_base" env:"TASKLIST_API_BASE"`

	// Backend explicitly names the backend: local, remote or googletasks.
	Backend string `toml:"backend" env:"TASKLIST_BACKEND"`

	// Store names the local durable store: file or redis.
	Store string `toml:"store" env:"TASKLIST_STORE" env-default:"file"`

	// StorageKey is the key holding the whole task collection.
	StorageKey string `toml:"storage_key" env:"TASKLIST_STORAGE_KEY" env-default:"todos"`

	RedisAddr     string `toml:"redis_addr" env:"TASKLIST_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `toml:"redis_password" env:"TASKLIST_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"TASKLIST_REDIS_DB" env-default:"0"`

	// HTTPAddr is the listen address of the serve command.
	HTTPAddr string `toml:"http_addr" env:"TASKLIST_HTTP_ADDR" env-default:":8080"`

	LogLevel  string `toml:"log_level" env:"LOG_LEVEL" env-default:"warn"`
	LogFormat string `toml:"log_format" env:"LOG_FORMAT" env-default:"text"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Settings Settings
}

// New creates a new Config with the default or specified config directory
// and loads its settings.
// If configDir is empty, uses XDG_CONFIG_HOME/tasklist or $HOME/.config/tasklist.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{Dir: dir}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads config.toml if it exists, then applies environment overrides
// and defaults.
func (c *Config) Load() error {
	var s Settings
	path := c.SettingsPath()
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &s); err != nil {
			return fmt.Errorf("invalid %s: %w", SettingsFile, err)
		}
	} else if err := cleanenv.ReadEnv(&s); err != nil {
		return fmt.Errorf("invalid environment: %w", err)
	}
	c.Settings = s
	return nil
}

// Mode resolves the persistence backend from the settings.
func (c *Config) Mode() (Mode, error) {
	return ResolveMode(c.Settings.Backend, c.Settings.APIBase)
}

// WriteSettings encodes the effective settings as TOML.
func (c *Config) WriteSettings(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c.Settings)
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to the settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
