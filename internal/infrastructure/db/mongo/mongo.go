package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// defaultTimeout bounds each connection attempt and every single-document operation.
const defaultTimeout = 10 * time.Second

const retryBase = 250 * time.Millisecond

// Config describes the deployment the user repository lives in.
type Config struct {
	URI      string
	Database string
	// Timeout bounds server selection for a single attempt.
	Timeout     time.Duration
	MaxPoolSize uint64
	// Retries is how many extra pings are made before giving up on startup.
	Retries uint64
	Log     zerolog.Logger
}

// Connect builds a client and waits for a primary to answer, backing off
// exponentially between attempts. The database handle is returned alongside
// the client so callers can disconnect on shutdown.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName("account-service").
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	// mongo.Connect validates options and starts monitoring; it does not dial.
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	var attempt uint64
	backoff := retry.WithMaxRetries(cfg.Retries, retry.NewExponential(retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
			cfg.Log.Warn().Err(err).Uint64("attempt", attempt).Msg("mongo not reachable yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, nil, fmt.Errorf("mongo ping after %d attempts: %w", attempt, err)
	}

	return client, client.Database(cfg.Database), nil
}

// Ping reports whether a primary is reachable; used by the readiness check.
func Ping(ctx context.Context, client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return client.Ping(ctx, readpref.Primary())
}
