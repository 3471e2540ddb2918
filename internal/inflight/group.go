// Package inflight implements a keyed single-flight registry that keeps a
// settled result around for a short window before evicting it.
package inflight

import (
	"context"
	"sync"
	"time"

	"github.com/andres-erbsen/clock"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a settled result keeps being served.
const DefaultTTL = 2 * time.Second

// Group shares one computation per key among concurrent callers and retains
// its result for TTL after it settles. The zero value is not usable; use New.
type Group[T any] struct {
	clock clock.Clock
	ttl   time.Duration

	flights singleflight.Group

	mu      sync.Mutex
	settled map[string]settled[T]
}

type settled[T any] struct {
	val     T
	expires time.Time
}

// New returns a Group retaining settled results for ttl. A nil clock means
// the wall clock.
func New[T any](ttl time.Duration, clk clock.Clock) *Group[T] {
	if clk == nil {
		clk = clock.New()
	}
	return &Group[T]{
		clock:   clk,
		ttl:     ttl,
		settled: make(map[string]settled[T]),
	}
}

// Do returns the result of fn for key. While a computation for key is in
// flight, or its settled result is still retained, fn is not called again.
// shared reports whether the value was handed to more than one caller.
//
// fn runs detached from ctx's cancellation so that one caller giving up
// does not abort the computation for the others; when ctx ends first, Do
// returns ctx.Err() and the computation still populates the cache.
func (g *Group[T]) Do(ctx context.Context, key string, fn func(context.Context) T) (v T, shared bool, err error) {
	if v, ok := g.lookup(key); ok {
		return v, true, nil
	}

	detached := context.WithoutCancel(ctx)
	var cached bool
	ch := g.flights.DoChan(key, func() (any, error) {
		// a flight for key may have settled between lookup and DoChan
		if v, ok := g.lookup(key); ok {
			cached = true
			return v, nil
		}
		v := fn(detached)
		g.remember(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val.(T), res.Shared || cached, nil
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	}
}

// Len reports how many settled results are currently retained.
func (g *Group[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.evictExpiredLocked()
	return len(g.settled)
}

func (g *Group[T]) lookup(key string) (T, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.settled[key]
	if !ok {
		var zero T
		return zero, false
	}
	if !g.clock.Now().Before(e.expires) {
		delete(g.settled, key)
		var zero T
		return zero, false
	}
	return e.val, true
}

func (g *Group[T]) remember(key string, v T) {
	if g.ttl <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.settled[key] = settled[T]{val: v, expires: g.clock.Now().Add(g.ttl)}
	g.evictExpiredLocked()
}

// evictExpiredLocked must be called with g.mu held.
func (g *Group[T]) evictExpiredLocked() {
	now := g.clock.Now()
	for key, e := range g.settled {
		if !now.Before(e.expires) {
			delete(g.settled, key)
		}
	}
}
