package singleflight

import (
	"context"
	"fmt"
	"sync"
)

// Group manages a set of in-flight calls to prevent duplicate work.
// A key is forgotten as soon as its call returns, before any waiter wakes,
// so a later call with the same key always runs fn again.
type Group[T any] struct {
	mu sync.Mutex
	m  map[string]*call[T]
}

// call represents an active function call.
type call[T any] struct {
	done chan struct{}
	val  T
	err  error
	dups int
}

// New creates a new singleflight Group.
func New[T any]() *Group[T] {
	return &Group[T]{m: make(map[string]*call[T])}
}

// Do executes and returns the results of the given function, making sure that
// only one execution is in-flight for a given key at a time. If a duplicate
// comes in, the duplicate caller waits for the original to complete and
// receives the same results. shared reports whether the result was handed to
// more than one caller. A waiter whose ctx ends returns ctx.Err() while the
// original call keeps running.
func (g *Group[T]) Do(ctx context.Context, key string, fn func() (T, error)) (v T, err error, shared bool) {
	g.mu.Lock()
	if c, ok := g.m[key]; ok {
		c.dups++
		g.mu.Unlock()
		select {
		case <-c.done:
			return c.val, c.err, true
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err(), true
		}
	}

	c := &call[T]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.doCall(c, key, fn)
	return c.val, c.err, c.dups > 0
}

func (g *Group[T]) doCall(c *call[T], key string, fn func() (T, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.err = fmt.Errorf("singleflight: panic in call for %q: %v", key, r)
		}
		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
}

// Waiters returns the number of callers waiting on key, and whether a call is in flight.
func (g *Group[T]) Waiters(key string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.m[key]
	if !ok {
		return 0, false
	}
	return c.dups, true
}

// Len returns the number of keys currently in flight.
func (g *Group[T]) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}

// ForgetKey removes the key from the group's map, effectively allowing
// future calls with the same key to execute even if a previous call
// is still in progress.
func (g *Group[T]) ForgetKey(key string) {
	g.mu.Lock()
	delete(g.m, key)
	g.mu.Unlock()
}
