package main

import (
	"context"
	"fmt"

	"github.com/uchsash/medistore/api/controllers"
	"github.com/uchsash/medistore/pkg/config"
	"github.com/uchsash/medistore/pkg/db"
	"github.com/uchsash/medistore/pkg/kv"
	"github.com/uchsash/medistore/pkg/logger"
	"github.com/uchsash/medistore/pkg/migrate"
	"github.com/uchsash/medistore/pkg/redis"
)

// storage is the opened cart backend plus everything that must be pinged
// for readiness and closed on shutdown, in close order.
type storage struct {
	backend   kv.Store
	readiness map[string]controllers.Pinger
	closers   []func() error
}

func openStorage(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		backend := kv.NewMemory()
		return &storage{
			backend:   backend,
			readiness: map[string]controllers.Pinger{},
			closers:   []func() error{backend.Close},
		}, nil

	case config.StorageRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap redis: %w", err)
		}
		backend := kv.NewRedis(client, logg)
		return &storage{
			backend:   backend,
			readiness: map[string]controllers.Pinger{"redis": client},
			closers:   []func() error{backend.Close, client.Close},
		}, nil

	case config.StorageSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
		if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("dev migrations: %w", err)
		}
		backend := kv.NewSQL(client.DB(), cfg.Storage.PollInterval, logg)
		return &storage{
			backend:   backend,
			readiness: map[string]controllers.Pinger{"database": client},
			closers:   []func() error{backend.Close, client.Close},
		}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}
