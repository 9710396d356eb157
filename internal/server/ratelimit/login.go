// Package ratelimit throttles clients: failed logins per account through
// Redis and request rate per client address in memory.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = common.NewKindError(common.ErrRateLimited, "too many failed login attempts")

// LoginLimiter counts failed logins per key in Redis. Once maxAttempts
// failures pile up within cooldown the key is locked out until the counter
// expires. Redis outages fail open: logins are not blocked, only logged.
type LoginLimiter struct {
	redis       redis.Cmdable
	maxAttempts int64
	cooldown    time.Duration
	logger      logging.Logger
}

func NewLoginLimiter(rdb redis.Cmdable, maxAttempts int, cooldown time.Duration, logger logging.Logger) *LoginLimiter {
	return &LoginLimiter{
		redis:       rdb,
		maxAttempts: int64(maxAttempts),
		cooldown:    cooldown,
		logger:      logger,
	}
}

func (l *LoginLimiter) key(k string) string {
	return "gophauth:login_fail:" + k
}

func (l *LoginLimiter) Allow(ctx context.Context, k string) error {
	count, err := l.redis.Get(ctx, l.key(k)).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn(ctx, "login limiter unavailable", "error", err)
		}
		return nil
	}
	if count >= l.maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

func (l *LoginLimiter) Failure(ctx context.Context, k string) error {
	key := l.key(k)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("login limiter incr: %w", err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.cooldown).Err(); err != nil {
			return fmt.Errorf("login limiter expire: %w", err)
		}
	}
	return nil
}

func (l *LoginLimiter) Reset(ctx context.Context, k string) error {
	if err := l.redis.Del(ctx, l.key(k)).Err(); err != nil {
		return fmt.Errorf("login limiter reset: %w", err)
	}
	return nil
}
