package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// RedisLimiter shares counters across instances. On any Redis error it
// answers from an in-process MemoryLimiter.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	cfg      Config
	fallback *MemoryLimiter
	logger   utils.Logger
	now      func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, cfg Config, logger utils.Logger) *RedisLimiter {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		cfg:      cfg,
		fallback: NewMemoryLimiter(cfg),
		logger:   logger,
		now:      time.Now,
	}
}

func (l *RedisLimiter) Check(ctx context.Context, key string) Decision {
	d, err := l.check(ctx, l.prefix+key)
	if err != nil {
		l.logger.Warn("Redis rate limiter unavailable, using in-memory counter", "error", err)
		return l.fallback.Check(ctx, key)
	}
	return d
}

func (l *RedisLimiter) check(ctx context.Context, key string) (Decision, error) {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incr.Val())
	ttl := pttl.Val()
	if ttl <= 0 {
		// First hit of the window, or a key left without expiry
		if err := l.client.PExpire(ctx, key, l.cfg.Window).Err(); err != nil {
			return Decision{}, err
		}
		ttl = l.cfg.Window
	}

	return decide(l.cfg.Limit, count, l.now().Add(ttl)), nil
}
