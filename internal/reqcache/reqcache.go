// Package reqcache memoizes entity reads for the lifetime of one request.
//
// Middleware opens a Scope at the start of a request and drops it at the end,
// so nothing is shared across requests. Without a scope on the context every
// call goes straight to the loader.
package reqcache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

type ctxKey struct{}

// Scope holds the values loaded during one request.
type Scope struct {
	mu      sync.Mutex
	entries map[string]any
	group   singleflight.Group
}

func NewScope() *Scope {
	return &Scope{entries: make(map[string]any)}
}

// WithScope attaches a fresh scope to ctx.
func WithScope(ctx context.Context) (context.Context, *Scope) {
	s := NewScope()
	return context.WithValue(ctx, ctxKey{}, s), s
}

// FromContext returns the scope attached to ctx, or nil.
func FromContext(ctx context.Context) *Scope {
	s, _ := ctx.Value(ctxKey{}).(*Scope)
	return s
}

func cacheKey(kind string, id any) string {
	return fmt.Sprintf("%s:%v", kind, id)
}

// Do returns the cached value for (kind, id) or calls load once and caches
// its result. Concurrent callers for the same key share one load. Errors are
// returned to every waiting caller but never cached.
func Do[T any](ctx context.Context, kind string, id any, load func() (T, error)) (T, error) {
	s := FromContext(ctx)
	if s == nil {
		return load()
	}

	key := cacheKey(kind, id)
	s.mu.Lock()
	if v, ok := s.entries[key]; ok {
		s.mu.Unlock()
		if t, ok := v.(T); ok {
			return t, nil
		}
		var zero T
		return zero, fmt.Errorf("reqcache: %s holds %T", key, v)
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do(key, func() (any, error) {
		t, err := load()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.entries[key] = t
		s.mu.Unlock()
		return t, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops a cached value, typically after a write.
func Invalidate(ctx context.Context, kind string, id any) {
	s := FromContext(ctx)
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.entries, cacheKey(kind, id))
	s.mu.Unlock()
}

// Reset empties the scope.
func (s *Scope) Reset() {
	s.mu.Lock()
	s.entries = make(map[string]any)
	s.mu.Unlock()
}

// Len is the number of cached values.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
