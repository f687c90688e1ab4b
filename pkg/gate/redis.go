package gate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/subsync/pkg/logger"
	"github.com/dmitrymomot/subsync/pkg/metrics"
)

// DefaultRedisKeyPrefix namespaces cached answers.
const DefaultRedisKeyPrefix = "subsync:entitled:"

// RedisClient is the subset of redis.Cmdable used by RedisChecker.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisChecker shares cached answers between replicas. Redis failures fall
// through to the wrapped checker, so the gate keeps working without the
// cache.
type RedisChecker struct {
	client  RedisClient
	next    Checker
	ttl     time.Duration
	prefix  string
	log     *slog.Logger
	metrics *metrics.Metrics
}

// RedisOption configures a RedisChecker.
type RedisOption func(*RedisChecker)

// WithRedisTTL sets the key expiry.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(c *RedisChecker) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithRedisKeyPrefix overrides DefaultRedisKeyPrefix.
func WithRedisKeyPrefix(prefix string) RedisOption {
	return func(c *RedisChecker) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithRedisLogger sets the logger for degraded-cache warnings.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(c *RedisChecker) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRedisMetrics counts hits, misses and errors.
func WithRedisMetrics(m *metrics.Metrics) RedisOption {
	return func(c *RedisChecker) {
		c.metrics = m
	}
}

// NewRedisChecker wraps next with a Redis cache. Any redis.Cmdable works as
// client. Panics if client or next is nil.
func NewRedisChecker(client RedisClient, next Checker, opts ...RedisOption) *RedisChecker {
	if client == nil {
		panic("gate: redis client is required")
	}
	if next == nil {
		panic("gate: checker is required")
	}
	c := &RedisChecker{
		client: client,
		next:   next,
		ttl:    DefaultCacheTTL,
		prefix: DefaultRedisKeyPrefix,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisChecker) key(userID string) string {
	return c.prefix + userID
}

func (c *RedisChecker) Entitled(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrMissingUserID
	}

	val, err := c.client.Get(ctx, c.key(userID)).Result()
	switch {
	case err == nil:
		c.metrics.GateCacheLookup("hit")
		return val == "1", nil
	case errors.Is(err, redis.Nil):
		c.metrics.GateCacheLookup("miss")
	default:
		c.metrics.GateCacheLookup("error")
		c.log.WarnContext(ctx, "entitlement cache read failed",
			logger.Component("gate"), logger.UserID(userID), logger.Error(err))
	}

	entitled, err := c.next.Entitled(ctx, userID)
	if err != nil {
		return false, err
	}

	v := "0"
	if entitled {
		v = "1"
	}
	if err := c.client.Set(ctx, c.key(userID), v, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "entitlement cache write failed",
			logger.Component("gate"), logger.UserID(userID), logger.Error(err))
	}
	return entitled, nil
}

// Invalidate deletes the cached answer.
func (c *RedisChecker) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return err
	}
	if inv, ok := c.next.(Invalidator); ok {
		return inv.Invalidate(ctx, userID)
	}
	return nil
}
