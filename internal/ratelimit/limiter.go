// Package ratelimit implements the fixed-window per-client request limiter.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultLimit   = 10
	DefaultWindow  = 5 * time.Minute
	DefaultMaxKeys = 500
)

// Decision is the outcome of one Check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the time left until the window resets
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Limiter counts requests per key in fixed windows
type Limiter interface {
	Check(ctx context.Context, key string) Decision
}

type Config struct {
	Limit   int
	Window  time.Duration
	MaxKeys int
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.MaxKeys <= 0 {
		c.MaxKeys = DefaultMaxKeys
	}
	return c
}

func decide(limit, count int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
