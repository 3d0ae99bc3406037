// Package kv provides whole-value key-value persistence for practice
// configuration, the user credential and session history.
package kv

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rehearse-dev/rehearse/internal/config"
)

// Keys used by the rest of the application.
const (
	KeyPracticeConfig = "practiceConfig"
	KeyUserAPIKey     = "userApiKey"
	KeyHistory        = "interviewHistory"
)

// Store reads and writes whole string values by key.
// Get reports ok=false (and a nil error) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the backend selected by cfg.Driver. Relative sqlite paths are
// resolved against projectRoot.
func Open(cfg config.StorageConfig, projectRoot string) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Path
		if path == "" {
			path = config.DefaultConfig().Storage.Path
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		return NewSQLiteStore(path)
	case "redis":
		return NewRedisStore(cfg.RedisURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
