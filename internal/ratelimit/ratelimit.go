// Package ratelimit throttles form submissions per client with a Redis-backed
// fixed window. It only protects the inbox from floods; a legitimate visitor
// submits once or twice.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the limiter's verdict for one request.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // zero when Allowed
}

// Limiter is the interface the HTTP middleware depends on. Tests inject a
// stub; production uses *RedisLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter allows at most limit hits per key in each window.
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

// NewRedisLimiter returns a fixed-window limiter. limit and window must be
// positive; config validation guarantees that.
func NewRedisLimiter(client redis.UniversalClient, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "qualify:ratelimit:",
	}
}

// Allow counts one hit for key. The first hit in a window starts the expiry;
// INCR and EXPIRE NX run in one MULTI so a crash cannot leave a key without
// a TTL.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := l.prefix + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis: %w", err)
	}

	return decide(incr.Val(), ttl.Val(), l.limit, l.window), nil
}

// decide turns the window's hit count and remaining TTL into a Decision.
// PTTL reports -1 (no expiry) or -2 (key gone) as negative durations; the
// full window is used as the retry hint then.
func decide(count int64, ttl time.Duration, limit int, window time.Duration) Decision {
	if count <= int64(limit) {
		return Decision{Allowed: true, Remaining: limit - int(count)}
	}

	retry := ttl
	if retry <= 0 {
		retry = window
	}
	return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}
}

// ─── CONNECTION ───────────────────────────────────────────────────────────────

var ErrConnectionFailed = errors.New("ratelimit: redis connection failed")

// Open parses a redis:// or rediss:// URL and pings the server, retrying with
// linear backoff.
func Open(ctx context.Context, url string, attempts int, interval time.Duration) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse url: %w", err)
	}
	opts.PoolSize = 10
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.DialTimeout = 5 * time.Second

	attempts = max(attempts, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrConnectionFailed, ctx.Err())
		case <-time.After(time.Duration(i+1) * interval):
		}
	}
	return nil, errors.Join(ErrConnectionFailed, lastErr)
}
