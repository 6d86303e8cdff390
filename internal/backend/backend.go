// Package backend selects the persistence implementation for the configured mode.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tasklist/internal/backend/googletasks"
	"tasklist/internal/backend/local"
	"tasklist/internal/backend/remote"
	"tasklist/internal/config"
	"tasklist/internal/service"
)

// New creates the Service for cfg's mode.
// The result may implement io.Closer; callers should close it when done.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (service.Service, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	log.WithField("mode", mode.String()).Debug("selected backend")

	switch mode.Kind {
	case config.Remote:
		return remote.New(mode.BaseURL, remote.WithLogger(log)), nil
	case config.GoogleTasks:
		return googletasks.New(ctx, cfg)
	case config.Local:
		store, err := NewStore(cfg)
		if err != nil {
			return nil, err
		}
		return local.New(store, local.WithKey(cfg.Settings.StorageKey), local.WithLogger(log)), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s", mode)
	}
}

// NewStore creates the local durable store named by the settings.
func NewStore(cfg *config.Config) (local.Store, error) {
	s := cfg.Settings
	switch strings.ToLower(strings.TrimSpace(s.Store)) {
	case "", "file":
		return local.NewFileStore(cfg.Dir), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		})
		return local.NewRedisStore(rdb), nil
	default:
		return nil, fmt.Errorf("unknown store: %s", s.Store)
	}
}
