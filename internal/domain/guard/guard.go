// Package guard tracks keys with work in flight so the same key is never
// processed twice at once.
package guard

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard is a keyed try-lock. Acquire never blocks.
type Guard interface {
	// Acquire marks key as in flight. Returns false if key is already held
	// or the guard is at capacity.
	Acquire(ctx context.Context, key string) bool

	// Release clears key. Releasing a key that is not held is a no-op.
	Release(ctx context.Context, key string)

	// Held reports whether key is in flight.
	Held(ctx context.Context, key string) bool

	Size() int64
}

// inFlightGuard implements Guard with a map under a mutex.
// For bounded mode (maxSize > 0): Acquire fails once maxSize keys are held.
// For unbounded mode (maxSize <= 0): any number of keys may be held.
type inFlightGuard struct {
	mu      sync.Mutex
	held    map[string]struct{}
	maxSize int
	size    atomic.Int64
}

// NewInFlightGuard creates a new in-memory guard with configuration options.
func NewInFlightGuard(opts ...Option) Guard {
	g := &inFlightGuard{}

	// Apply all options
	for _, opt := range opts {
		opt(g)
	}

	g.held = make(map[string]struct{})
	return g
}

// Acquire marks key as in flight if nobody holds it.
func (g *inFlightGuard) Acquire(ctx context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[key]; exists {
		return false
	}
	if g.maxSize > 0 && len(g.held) >= g.maxSize {
		return false
	}

	g.held[key] = struct{}{}
	g.size.Add(1)
	return true
}

// Release clears key.
func (g *inFlightGuard) Release(ctx context.Context, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.held[key]; exists {
		delete(g.held, key)
		g.size.Add(-1)
	}
}

// Held reports whether key is in flight.
func (g *inFlightGuard) Held(ctx context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, exists := g.held[key]
	return exists
}

// Size returns the number of keys currently held.
func (g *inFlightGuard) Size() int64 {
	return g.size.Load()
}
