package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/course-conditions/internal/config"
)

// RateLimiter provides Redis-based fixed-window rate limiting for report
// submissions
type RateLimiter struct {
	client *redis.Client
	cfg    *config.RateLimitConfig
	logger *slog.Logger
}

// NewRateLimiter creates a new Redis rate limiter
func NewRateLimiter(redisCfg *config.RedisConfig, cfg *config.RateLimitConfig, logger *slog.Logger) (*RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         redisCfg.Addr,
		Password:     redisCfg.Password,
		DB:           redisCfg.DB,
		PoolSize:     redisCfg.PoolSize,
		MinIdleConns: redisCfg.MinIdleConns,
		DialTimeout:  redisCfg.DialTimeout,
		ReadTimeout:  redisCfg.ReadTimeout,
		WriteTimeout: redisCfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RateLimiter{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (l *RateLimiter) Close() error {
	return l.client.Close()
}

// submissionKey returns the Redis key for a user's submission counter
func (l *RateLimiter) submissionKey(userID string) string {
	return fmt.Sprintf("conditions:submissions:%s", userID)
}

// Allow counts a submission against the user's fixed window and reports
// whether it is within the configured limit
func (l *RateLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	key := l.submissionKey(userID)

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("incrementing submission counter: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return false, fmt.Errorf("setting counter expiry: %w", err)
		}
	}

	return count <= int64(l.cfg.MaxSubmissions), nil
}
