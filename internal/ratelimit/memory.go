package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps a sliding log of action timestamps per key.
// It is process-local: run a RedisLimiter when several replicas share users.
type MemoryLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time
	log    map[string][]time.Time
	mu     sync.Mutex
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		log:    make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	events := l.log[key]
	kept := events[:0]
	for _, at := range events {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.log[key] = kept
		return false, nil
	}
	l.log[key] = append(kept, now)
	return true, nil
}
