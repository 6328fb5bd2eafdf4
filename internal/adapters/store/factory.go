package store

import (
	"context"
	"fmt"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

// Options configures store creation.
type Options struct {
	// Backend selects the implementation: "none", "memory", "sqlite",
	// "json", or "redis". Empty means "none".
	Backend string

	// Path is the database or state file path (sqlite, json backends).
	Path string

	// Redis connection settings (redis backend).
	Addr     string
	Password string
	DB       int
}

// New creates a WorkflowStore for the configured backend.
func New(ctx context.Context, opts Options) (core.WorkflowStore, error) {
	switch opts.Backend {
	case "", "none":
		return NewNopStore(), nil
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(opts.Path)
	case "json":
		return NewJSONFileStore(opts.Path)
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Closeable is an optional interface for stores that hold resources.
type Closeable interface {
	Close() error
}

// Close safely closes a store if it implements Closeable.
func Close(s core.WorkflowStore) error {
	if closeable, ok := s.(Closeable); ok {
		return closeable.Close()
	}
	return nil
}
