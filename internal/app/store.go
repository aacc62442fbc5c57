package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifyrelay/pkg/config"
	"github.com/dmitrymomot/notifyrelay/pkg/logger"
	"github.com/dmitrymomot/notifyrelay/pkg/mongo"
	"github.com/dmitrymomot/notifyrelay/pkg/notifications"
	"github.com/dmitrymomot/notifyrelay/pkg/pg"
	"github.com/dmitrymomot/notifyrelay/pkg/redis"
)

// Store is an opened status store together with the function releasing its
// connection.
type Store struct {
	notifications.Storage
	Driver string
	close  func(context.Context) error
}

// Close releases the underlying connection. It is safe on a nil Store.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// OpenStore connects the status store selected by driver. Connection settings
// for the driver are read from the environment.
func OpenStore(ctx context.Context, driver string, log *slog.Logger) (*Store, error) {
	log = log.With(logger.Component("status_store"), slog.String("driver", driver))

	var (
		store *Store
		err   error
	)
	switch driver {
	case StoreMongo:
		store, err = openMongo(ctx)
	case StorePostgres:
		store, err = openPostgres(ctx, log)
	case StoreRedis:
		store, err = openRedis(ctx)
	case StoreMemory:
		store = &Store{Storage: notifications.NewMemoryStorage()}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, driver)
	}
	if err != nil {
		return nil, err
	}

	store.Driver = driver
	log.InfoContext(ctx, "status store connected")
	return store, nil
}

func openMongo(ctx context.Context) (*Store, error) {
	var cfg mongo.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	db, err := mongo.NewWithDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	storage, err := notifications.NewMongoStorage(ctx, db)
	if err != nil {
		_ = mongo.Disconnect(ctx, db)
		return nil, err
	}

	return &Store{
		Storage: storage,
		close:   func(ctx context.Context) error { return mongo.Disconnect(ctx, db) },
	}, nil
}

func openPostgres(ctx context.Context, log *slog.Logger) (*Store, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := pg.Migrate(ctx, pool, notifications.Migrations, notifications.MigrationsDir, cfg, log); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		Storage: notifications.NewPostgresStorage(pool),
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func openRedis(ctx context.Context) (*Store, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Store{
		Storage: notifications.NewRedisStorage(client, cfg.KeyPrefix),
		close:   func(context.Context) error { return client.Close() },
	}, nil
}
