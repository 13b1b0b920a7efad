package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/mazecode/pkg/adapters/file"
	"github.com/aretw0/mazecode/pkg/adapters/memory"
	"github.com/aretw0/mazecode/pkg/adapters/redis"
	"github.com/aretw0/mazecode/pkg/adapters/sqlite"
	"github.com/aretw0/mazecode/pkg/persistence/middleware"
	"github.com/aretw0/mazecode/pkg/ports"
	"github.com/aretw0/mazecode/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// Store backends selectable from the command line.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// StoreOptions selects and configures the save slot backend.
type StoreOptions struct {
	Kind     string
	Dir      string
	RedisURL string
}

// OpenSaves creates the session manager over the configured backend.
// Snapshots are validated before mws run. The returned close function
// releases the backend.
func OpenSaves(ctx context.Context, opts StoreOptions, logger *slog.Logger, mws ...middleware.Middleware) (*session.Manager, func() error, error) {
	noop := func() error { return nil }
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	kind := opts.Kind
	if kind == "" && opts.RedisURL != "" {
		kind = StoreRedis
	}

	wrap := func(store ports.SnapshotStore) ports.SnapshotStore {
		return middleware.Chain(store, append(mws, middleware.NewValidationMiddleware())...)
	}

	switch kind {
	case StoreMemory:
		return session.NewManager(wrap(memory.NewStore()), session.WithLogger(logger)), noop, nil

	case "", StoreFile:
		store := file.New(filepath.Join(dir, ".mazecode", "saves"))
		return session.NewManager(wrap(store), session.WithLogger(logger)), noop, nil

	case StoreSQLite:
		store, err := sqlite.Open(ctx, filepath.Join(dir, ".mazecode", "saves.db"))
		if err != nil {
			return nil, nil, err
		}
		return session.NewManager(wrap(store), session.WithLogger(logger)), store.Close, nil

	case StoreRedis:
		if opts.RedisURL == "" {
			return nil, nil, fmt.Errorf("redis store requires --redis-url")
		}
		ropts, err := backend.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(ropts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store := redis.NewFromClient(client)
		locker := redis.NewLocker(client, redis.DefaultPrefix)
		logger.Info("Using Redis save store", "addr", ropts.Addr)
		return session.NewManager(wrap(store),
			session.WithLocker(locker),
			session.WithLogger(logger),
		), store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q (memory, file, sqlite, redis)", kind)
	}
}
