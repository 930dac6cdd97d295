package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrRateLimitExceeded = errors.New("rate_limit_exceeded")

// Limit is one window policy: at most Requests per Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Limiter counts requests by (subject, action) in Redis so the count is
// shared across instances. INCR is atomic, which gives the required
// increment-and-compare semantics under concurrent admins.
type Limiter struct {
	redis *redis.Client
	log   *zap.Logger
}

func New(client *redis.Client, log *zap.Logger) *Limiter {
	return &Limiter{
		redis: client,
		log:   log.Named("ratelimit"),
	}
}

// Check raises ErrRateLimitExceeded when the request would exceed the
// limit; it must be called before any work begins.
func (l *Limiter) Check(ctx context.Context, subjectID, action string, limit Limit) error {
	if limit.Requests <= 0 || limit.Window <= 0 {
		return nil
	}

	key := fmt.Sprintf("ratelimit:%s:%s", action, subjectID)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		l.log.Error("rate limit counter unavailable",
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}

	// First hit opens the window.
	if count == 1 {
		l.redis.Expire(ctx, key, limit.Window)
	}

	if count > int64(limit.Requests) {
		return ErrRateLimitExceeded
	}
	return nil
}
