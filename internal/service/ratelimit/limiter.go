// Package ratelimit throttles inbound requests per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultMaxKeys = 10000

type entry struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu      sync.RWMutex
	m       map[string]*entry
	rps     float64
	burst   int
	maxKeys int
	now     func() time.Time
}

// New creates a limiter allowing rps sustained and burst instantaneous requests per key.
func New(rps float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		m:       make(map[string]*entry),
		rps:     rps,
		burst:   burst,
		maxKeys: defaultMaxKeys,
		now:     time.Now,
	}
}

// Allow consumes one token for key.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.m)
}

func (l *Limiter) get(key string) *rate.Limiter {
	now := l.now()

	l.mu.RLock()
	e, ok := l.m[key]
	l.mu.RUnlock()
	if ok {
		l.mu.Lock()
		e.seen = now
		l.mu.Unlock()
		return e.lim
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.m[key]; ok {
		e.seen = now
		return e.lim
	}
	if len(l.m) >= l.maxKeys {
		l.evictLocked(now)
	}
	e = &entry{lim: rate.NewLimiter(rate.Limit(l.rps), l.burst), seen: now}
	l.m[key] = e
	return e.lim
}

// evictLocked drops keys whose bucket has been full for a while, then the oldest if still at capacity.
func (l *Limiter) evictLocked(now time.Time) {
	idle := time.Minute
	if l.rps > 0 {
		refill := time.Duration(float64(l.burst) / l.rps * float64(time.Second))
		if refill > idle {
			idle = refill
		}
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range l.m {
		if now.Sub(e.seen) > idle {
			delete(l.m, k)
			continue
		}
		if oldestKey == "" || e.seen.Before(oldest) {
			oldestKey, oldest = k, e.seen
		}
	}
	if len(l.m) >= l.maxKeys && oldestKey != "" {
		delete(l.m, oldestKey)
	}
}
