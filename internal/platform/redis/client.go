// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis manages the go-redis client behind the shared key-value store.

When REDIS_URL is set, rate-limit windows, lockout entries and password reset
tokens live here so every instance sees the same counters. Without it the
process falls back to the in-memory store.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter traffic is a handful of small commands per auth request.
const (
	poolSize     = 10
	minIdleConns = 2
	dialTimeout  = 3 * time.Second
	ioTimeout    = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

/*
NewClient parses redisURL, applies the pool settings and pings the server.

A URL that carries its own pool_size keeps it. The client is closed again
when the first ping fails.
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis_url_invalid: %w", err)
	}

	if options.PoolSize == 0 {
		options.PoolSize = poolSize
	}
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout

	client := redis.NewClient(options)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping reports whether the server answers within the ping timeout. Used by
// startup and the readiness probe.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis_ping_failed: %w", err)
	}
	return nil
}

// Close releases the pool and logs a failure instead of returning it.
func Close(client *redis.Client, logger *slog.Logger) {
	logger.Info("closing redis client")
	if err := client.Close(); err != nil {
		logger.Error("redis_close_error", slog.Any("error", err))
	}
}
