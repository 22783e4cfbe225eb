package main

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/atinyakov/bizops/internal/config"
	"github.com/atinyakov/bizops/internal/db"
	"github.com/atinyakov/bizops/internal/kvstore"
)

// openStore builds the key-value backend selected by options.Store. The
// returned close function releases its connections.
func openStore(ctx context.Context, options *config.Options, log *zap.Logger) (kvstore.Store, func(), error) {
	noop := func() {}

	switch options.Store {
	case "", "file":
		fs, err := kvstore.NewFileStore(options.StorePath)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil

	case "postgres":
		conn, err := db.InitPostgres(options.DatabaseDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("cannot init database: %w", err)
		}
		return kvstore.NewPostgresStore(conn), func() { _ = conn.Close() }, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: options.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("ping redis: %w", err)
		}
		return kvstore.NewRedisStore(rdb, options.RedisPrefix), func() { _ = rdb.Close() }, nil

	case "memory":
		log.Warn("using in-memory store, the session will not survive a restart")
		return kvstore.NewMemoryStore(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store %q", options.Store)
}
