package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/luikyv/go-introspect/internal/config"
	"github.com/luikyv/go-introspect/internal/storage"
	"github.com/luikyv/go-introspect/internal/storage/bolt"
	"github.com/luikyv/go-introspect/internal/storage/mongodb"
	mysqlstore "github.com/luikyv/go-introspect/internal/storage/mysql"
	"github.com/luikyv/go-introspect/pkg/goidc"
)

type stores struct {
	clients goidc.ClientManager
	tokens  goidc.AccessTokenManager
	// purgeExpired is set for backends that don't remove expired tokens on
	// their own.
	purgeExpired func(context.Context) (int64, error)
	close        func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		return &stores{
			clients: storage.NewClientManager(),
			tokens:  storage.NewAccessTokenManager(),
			close:   func(context.Context) error { return nil },
		}, nil
	case config.StorageBolt:
		db, err := bolt.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		return &stores{
			clients: bolt.NewClientManager(db),
			tokens:  bolt.NewAccessTokenManager(db),
			close:   func(context.Context) error { return db.Close() },
		}, nil
	case config.StorageMongoDB:
		database, err := mongodb.Connect(ctx, cfg.Storage.MongoDB.URI, cfg.Storage.MongoDB.Database)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, database); err != nil {
			_ = database.Client().Disconnect(ctx)
			return nil, err
		}
		return &stores{
			clients: mongodb.NewClientManager(database),
			tokens:  mongodb.NewAccessTokenManager(database),
			close:   database.Client().Disconnect,
		}, nil
	case config.StorageMySQL:
		db, err := mysqlstore.Open(ctx, mysqlstore.DSN{
			Username: cfg.Storage.MySQL.Username,
			Password: cfg.Storage.MySQL.Password,
			Addr:     cfg.Storage.MySQL.Addr,
			Name:     cfg.Storage.MySQL.Database,
			TLS:      cfg.Storage.MySQL.TLS,
			CAFile:   cfg.Storage.MySQL.CAFile,
		})
		if err != nil {
			return nil, err
		}
		if err := mysqlstore.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		tokens := mysqlstore.NewAccessTokenManager(db)
		return &stores{
			clients:      mysqlstore.NewClientManager(db),
			tokens:       tokens,
			purgeExpired: tokens.DeleteExpired,
			close:        func(context.Context) error { return db.Close() },
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

var errVolatileStorage = errors.New("the memory storage is not shared with the server, configure a persistent storage driver")

// withPersistentStores loads the configuration and runs exec with stores that
// outlive the current process.
func withPersistentStores(
	ctx context.Context,
	opts *rootOptions,
	exec func(cfg *config.Config, st *stores) error,
) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	if cfg.Storage.Driver == config.StorageMemory {
		return errVolatileStorage
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close(context.Background()) }()

	return exec(cfg, st)
}
