package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLimiter(t *testing.T) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return New(client, zap.NewNop()), srv
}

func TestCheckAllowsUpToLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{Requests: 5, Window: 30 * time.Minute}

	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.Check(ctx, "admin-1", "payments.import", limit))
	}

	err := limiter.Check(ctx, "admin-1", "payments.import", limit)
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
}

func TestCheckIsolatesSubjectsAndActions(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{Requests: 1, Window: time.Minute}

	assert.NoError(t, limiter.Check(ctx, "admin-1", "payments.import", limit))
	assert.ErrorIs(t, limiter.Check(ctx, "admin-1", "payments.import", limit), ErrRateLimitExceeded)

	// Different subject and different action both have fresh windows.
	assert.NoError(t, limiter.Check(ctx, "admin-2", "payments.import", limit))
	assert.NoError(t, limiter.Check(ctx, "admin-1", "payments.delete", limit))
}

func TestCheckWindowExpires(t *testing.T) {
	limiter, srv := newTestLimiter(t)
	ctx := context.Background()
	limit := Limit{Requests: 1, Window: time.Minute}

	assert.NoError(t, limiter.Check(ctx, "admin-1", "payments.import", limit))
	assert.ErrorIs(t, limiter.Check(ctx, "admin-1", "payments.import", limit), ErrRateLimitExceeded)

	srv.FastForward(2 * time.Minute)

	assert.NoError(t, limiter.Check(ctx, "admin-1", "payments.import", limit))
}

func TestCheckZeroLimitDisabled(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	assert.NoError(t, limiter.Check(context.Background(), "admin-1", "anything", Limit{}))
}
