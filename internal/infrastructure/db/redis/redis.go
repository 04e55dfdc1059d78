package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

const defaultTimeout = 5 * time.Second

// Config captures the settings for establishing a Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
	Timeout  time.Duration
	// Attempts bounds the connection retries. Zero means a single attempt.
	Attempts uint64
	Backoff  time.Duration
	Logger   zerolog.Logger
}

// Connect initialises a Redis client and validates connectivity with a ping,
// retrying with exponential backoff.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := cfg.Backoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	attempt := 0
	err := retry.Do(ctx, retry.WithMaxRetries(cfg.Attempts, retry.NewExponential(base)), func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			cfg.Logger.Warn().Err(err).Int("attempt", attempt).Msg("redis not reachable")
			return retry.RetryableError(fmt.Errorf("redis ping: %w", err))
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}
