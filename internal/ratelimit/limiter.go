// Package ratelimit throttles evidence uploads per user.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter reports whether one more event for key is allowed now.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Policy is a token bucket: PerMinute tokens per minute, up to Burst at once.
type Policy struct {
	PerMinute int
	Burst     int
}

func (p Policy) normalized() Policy {
	if p.PerMinute <= 0 {
		p.PerMinute = 1
	}
	if p.Burst <= 0 {
		p.Burst = 1
	}
	return p
}

// Local keeps one in-memory bucket per key. Buckets idle for longer than
// idleTTL are dropped on a later call.
type Local struct {
	policy  Policy
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLocal(p Policy) *Local {
	return &Local{
		policy:   p.normalized(),
		idleTTL:  3 * time.Minute,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > time.Minute {
		l.sweep(now)
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(float64(l.policy.PerMinute)/60), l.policy.Burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1), nil
}

func (l *Local) sweep(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idleTTL {
			delete(l.visitors, k)
		}
	}
	l.lastSweep = now
}

// Len is the number of tracked keys.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}
