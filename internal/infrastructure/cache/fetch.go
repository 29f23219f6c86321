package cache

import (
	"context"
	"time"
)

// Query describes how to produce and cache one keyed value.
type Query[T any] struct {
	Key Key
	Fn  func(ctx context.Context) (T, error)

	// StaleTime overrides the cache default when positive.
	StaleTime time.Duration
	// Retry defaults to DefaultQueryRetry.
	Retry RetryFunc
	// Backoff overrides the cache default delays when Base is set.
	Backoff Backoff
	// RefetchOnError lets a cached failure trigger a new call. When false the
	// stored error is returned until the entry is invalidated.
	RefetchOnError bool
}

// Fetch returns the cached value for q.Key when fresh, and otherwise calls q.Fn.
// Concurrent fetches of one key share a single in-flight call. A caller whose ctx
// ends gets ctx.Err() while the shared call keeps running for the others.
func Fetch[T any](ctx context.Context, c *QueryCache, q Query[T]) (T, error) {
	var zero T
	k := q.Key.String()

	staleTime := q.StaleTime
	if staleTime <= 0 {
		staleTime = c.staleTime
	}

	c.mu.RLock()
	if e, ok := c.entries[k]; ok {
		if c.isFresh(e, staleTime) {
			v, _ := e.Value.(T)
			c.mu.RUnlock()
			return v, nil
		}
		if e.Status == StatusError && !e.Invalidated && !q.RefetchOnError {
			err := e.Err
			c.mu.RUnlock()
			return zero, err
		}
	}
	c.mu.RUnlock()

	retry := q.Retry
	if retry == nil {
		retry = DefaultQueryRetry
	}
	bo := c.backoff
	if q.Backoff.Base > 0 {
		bo = q.Backoff.normalized()
	}

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	// The shared call outlives any single caller; each caller stops waiting on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(k, func() (interface{}, error) {
		return c.run(shared, q.Key, func(ctx context.Context) (any, error) {
			return q.Fn(ctx)
		}, retry, bo)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		out, _ := res.Val.(T)
		return out, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Select fetches q and maps the result through fn.
func Select[T, R any](ctx context.Context, c *QueryCache, q Query[T], fn func(T) R) (R, error) {
	v, err := Fetch(ctx, c, q)
	if err != nil {
		var zero R
		return zero, err
	}
	return fn(v), nil
}

// Data returns the cached success value for key without fetching.
func Data[T any](c *QueryCache, key Key) (T, bool) {
	var zero T
	e, ok := c.Peek(key)
	if !ok || e.Status != StatusSuccess {
		return zero, false
	}
	v, ok := e.Value.(T)
	return v, ok
}
