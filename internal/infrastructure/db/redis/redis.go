package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

const (
	defaultTimeout = 5 * time.Second
	retryBase      = 250 * time.Millisecond
)

// Config describes the Redis instance backing the token denylist.
type Config struct {
	Addr     string
	Password string
	DB       int
	// Timeout bounds dialing and each ping.
	Timeout  time.Duration
	PoolSize int
	Retries  uint64
	Log      zerolog.Logger
}

func (cfg Config) options(timeout time.Duration) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  timeout,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}
}

// Connect returns a client once the server answers a ping. Failed pings are
// retried with exponential backoff up to cfg.Retries times.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := redis.NewClient(cfg.options(timeout))

	var attempt uint64
	backoff := retry.WithMaxRetries(cfg.Retries, retry.NewExponential(retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			cfg.Log.Warn().Err(err).Uint64("attempt", attempt).Str("addr", cfg.Addr).Msg("redis not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping after %d attempts: %w", attempt, err)
	}
	return client, nil
}

// Ping reports whether the server is reachable; used by the readiness check.
func Ping(ctx context.Context, client *redis.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
