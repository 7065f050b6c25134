package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter keeps one window per key in a bounded LRU. An entry expires a
// window after it was created; counting never refreshes its TTL.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries *expirable.LRU[string, *window]
	cfg     Config
	now     func() time.Time
}

func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	cfg = cfg.withDefaults()
	return &MemoryLimiter{
		entries: expirable.NewLRU[string, *window](cfg.MaxKeys, nil, cfg.Window),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Check(_ context.Context, key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries.Get(key)
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		w = &window{start: now}
		l.entries.Add(key, w)
	}
	w.count++

	return decide(l.cfg.Limit, w.count, w.start.Add(l.cfg.Window))
}

// Len is the number of tracked keys
func (l *MemoryLimiter) Len() int {
	return l.entries.Len()
}
