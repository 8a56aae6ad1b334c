package kv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"hub-backend/internal/shared/telemetry"
)

// Options controls the Redis client and the startup ping loop.
type Options struct {
	Addr        string
	Password    string
	DB          int
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// Connect builds a Redis client and pings it until it answers or attempts run out.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	if strings.TrimSpace(opts.Addr) == "" {
		return nil, fmt.Errorf("REDIS_ADDR is empty")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff == nil {
		opts.Backoff = func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt)) * time.Second
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
	})

	var err error
	for i := 0; i < opts.MaxAttempts; i++ {
		if i > 0 {
			wait := opts.Backoff(i)
			telemetry.Info("redis.retry_wait", map[string]any{"backoff_ms": wait.Milliseconds()})
			select {
			case <-ctx.Done():
				client.Close()
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		err = client.Ping(ctx).Err()
		if err == nil {
			telemetry.Info("redis.connected", map[string]any{"addr": opts.Addr, "attempts": i + 1})
			return client, nil
		}
		telemetry.Warn("redis.ping_failed", map[string]any{"attempt": i + 1, "error": err.Error()})
	}

	client.Close()
	return nil, fmt.Errorf("connect redis after %d attempts: %w", opts.MaxAttempts, err)
}
