// Package cache holds the short-lived web backend state kept in Redis:
// one-time passwords and the current refresh token of each account.
package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/virevo/virevo/internal/config"
)

// Redis wraps a go-redis client with logging helpers.
type Redis struct {
	client *redis.Client
	logger *slog.Logger
}

// New returns a Redis client based on provided configuration.
func New(cfg config.RedisConfig, logger *slog.Logger) *Redis {
	opts := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return NewFromClient(redis.NewClient(opts), logger)
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, logger: logger.With("component", "redis")}
}

// Client exposes the underlying go-redis client.
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// WaitReady pings until Redis answers, retrying every interval. It returns
// the context error if ctx ends first.
func (r *Redis) WaitReady(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		err := r.Ping(ctx)
		if err == nil {
			r.logger.InfoContext(ctx, "Redis connected", "addr", r.client.Options().Addr)
			return nil
		}
		r.logger.WarnContext(ctx, "Redis not reachable, retrying", "error", err, "retry_in", interval)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases Redis resources.
func (r *Redis) Close() error {
	return r.client.Close()
}
