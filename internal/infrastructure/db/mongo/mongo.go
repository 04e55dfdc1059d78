package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultTimeout = 10 * time.Second
	opTimeout      = 5 * time.Second
)

// Config captures the settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
	// Attempts bounds the connection retries. Zero means a single attempt.
	Attempts uint64
	Backoff  time.Duration
	Logger   zerolog.Logger
}

// Connect establishes a MongoDB client, verifies connectivity with a ping and
// returns both the client and the selected database. Failed attempts are
// retried with exponential backoff.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := cfg.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	var client *mongo.Client
	attempt := 0
	err := retry.Do(ctx, retry.WithMaxRetries(cfg.Attempts, retry.NewExponential(base)), func(ctx context.Context) error {
		attempt++
		c, err := dial(ctx, cfg.URI, timeout)
		if err != nil {
			cfg.Logger.Warn().Err(err).Int("attempt", attempt).Msg("mongo not reachable")
			return retry.RetryableError(err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return client, client.Database(cfg.Database), nil
}

func dial(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
