package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"portal-client/utils/logger"
)

// Key identifies a cache entry by its ordered parts.
type Key []string

func (k Key) String() string {
	return strings.Join(k, "/")
}

// Status is the settled state of an entry.
type Status int

const (
	StatusPending Status = iota
	StatusError
	StatusSuccess
)

func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "pending"
	}
}

// Entry is a snapshot of one cached query.
type Entry struct {
	Key          Key
	Value        any
	Err          error
	Status       Status
	UpdatedAt    time.Time
	Invalidated  bool
	Fetching     bool
	FailureCount int
}

// HasValue reports whether a successful value is held.
func (e Entry) HasValue() bool {
	return e.Status == StatusSuccess && e.Value != nil
}

// EventType classifies cache notifications.
type EventType int

const (
	EventUpdated EventType = iota
	EventRemoved
	EventCleared
)

// Event is delivered to subscribers after every cache change.
type Event struct {
	Type EventType
	Key  Key
}

// QueryCache is a process-wide keyed store of query results.
// All methods are safe for concurrent use.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	epochs  map[string]uint64

	group singleflight.Group

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int

	staleTime time.Duration
	backoff   Backoff
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithStaleTime sets how long a success stays fresh when a query does not say.
func WithStaleTime(d time.Duration) Option {
	return func(c *QueryCache) { c.staleTime = d }
}

// WithBackoff sets the default retry delays.
func WithBackoff(b Backoff) Option {
	return func(c *QueryCache) { c.backoff = b.normalized() }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *QueryCache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *QueryCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates an empty cache.
func New(opts ...Option) *QueryCache {
	c := &QueryCache{
		entries: make(map[string]*Entry),
		epochs:  make(map[string]uint64),
		subs:    make(map[int]func(Event)),
		backoff: DefaultBackoff,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Peek returns a snapshot of the entry for key.
func (c *QueryCache) Peek(key Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Keys lists the current entry keys.
func (c *QueryCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

// SetData stores v as a fresh success for key.
func (c *QueryCache) SetData(key Key, v any) {
	k := key.String()
	c.mu.Lock()
	c.epochs[k]++
	c.entries[k] = &Entry{
		Key:       key,
		Value:     v,
		Status:    StatusSuccess,
		UpdatedAt: c.now(),
	}
	c.mu.Unlock()
	c.group.Forget(k)
	c.notify(Event{Type: EventUpdated, Key: key})
}

// Invalidate marks every entry whose key starts with prefix as needing a refetch.
// Data is kept until the refetch settles.
func (c *QueryCache) Invalidate(prefix Key) {
	changed := c.apply(prefix, func(k string, e *Entry) {
		e.Invalidated = true
		c.epochs[k]++
	})
	for _, key := range changed {
		c.group.Forget(key.String())
		c.notify(Event{Type: EventUpdated, Key: key})
	}
}

// Remove drops every entry whose key starts with prefix.
func (c *QueryCache) Remove(prefix Key) {
	changed := c.apply(prefix, func(k string, _ *Entry) {
		delete(c.entries, k)
		c.epochs[k]++
	})
	for _, key := range changed {
		c.group.Forget(key.String())
		c.notify(Event{Type: EventRemoved, Key: key})
	}
}

// Reset returns matching entries to their initial pending state.
func (c *QueryCache) Reset(prefix Key) {
	c.Remove(prefix)
}

// Clear drops every entry.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
		c.epochs[k]++
	}
	c.entries = make(map[string]*Entry)
	c.mu.Unlock()

	for _, k := range keys {
		c.group.Forget(k)
	}
	c.notify(Event{Type: EventCleared})
}

// Subscribe registers fn for change events and returns its cancel function.
func (c *QueryCache) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *QueryCache) notify(ev Event) {
	c.subMu.RLock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// apply runs fn under the write lock on entries matching prefix and returns their keys.
func (c *QueryCache) apply(prefix Key, fn func(k string, e *Entry)) []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	var changed []Key
	for k, e := range c.entries {
		if hasPrefix(e.Key, prefix) {
			changed = append(changed, e.Key)
			fn(k, e)
		}
	}
	return changed
}

func hasPrefix(key, prefix Key) bool {
	if len(prefix) > len(key) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (c *QueryCache) isFresh(e *Entry, staleTime time.Duration) bool {
	return e.Status == StatusSuccess && !e.Invalidated && c.now().Sub(e.UpdatedAt) < staleTime
}

// begin marks key as fetching and returns the epoch the result must match to be stored.
func (c *QueryCache) begin(key Key) uint64 {
	k := key.String()
	c.mu.Lock()
	e, ok := c.entries[k]
	if !ok {
		e = &Entry{Key: key, Status: StatusPending}
		c.entries[k] = e
	}
	e.Fetching = true
	epoch := c.epochs[k]
	c.mu.Unlock()
	c.notify(Event{Type: EventUpdated, Key: key})
	return epoch
}

// settle records the outcome unless the entry was invalidated or removed meanwhile.
func (c *QueryCache) settle(key Key, epoch uint64, v any, err error, failures int) {
	k := key.String()
	c.mu.Lock()
	if c.epochs[k] != epoch {
		if e, ok := c.entries[k]; ok {
			e.Fetching = false
		}
		c.mu.Unlock()
		c.logger.Debug("discarding superseded query result", "key", k)
		return
	}
	e, ok := c.entries[k]
	if !ok {
		e = &Entry{Key: key}
		c.entries[k] = e
	}
	e.Fetching = false
	e.FailureCount = failures
	if err != nil {
		e.Status = StatusError
		e.Err = err
		e.Value = nil
	} else {
		e.Status = StatusSuccess
		e.Value = v
		e.Err = nil
		e.UpdatedAt = c.now()
		e.Invalidated = false
	}
	c.mu.Unlock()
	c.notify(Event{Type: EventUpdated, Key: key})
}

// abandon ends a fetch without touching the entry's settled state.
func (c *QueryCache) abandon(key Key) {
	k := key.String()
	c.mu.Lock()
	e, ok := c.entries[k]
	if ok {
		e.Fetching = false
	}
	c.mu.Unlock()
	if ok {
		c.notify(Event{Type: EventUpdated, Key: key})
	}
}

// cancelled reports whether err comes from ctx ending rather than from the backend.
func cancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}

// run executes fn with retries and stores the settled result.
// A cancelled run leaves the entry as it was before the fetch began.
func (c *QueryCache) run(ctx context.Context, key Key, fn func(context.Context) (any, error), retry RetryFunc, bo Backoff) (any, error) {
	epoch := c.begin(key)
	policy := bo.New()
	ctx = logger.WithCacheKey(ctx, key.String())

	failures := 0
	for {
		v, err := fn(ctx)
		if err == nil {
			c.settle(key, epoch, v, nil, failures)
			return v, nil
		}

		if cancelled(ctx, err) {
			c.abandon(key)
			return nil, err
		}
		if retry == nil || !retry(failures, err) {
			c.settle(key, epoch, nil, err, failures+1)
			return nil, err
		}

		delay := policy.NextBackOff()
		c.logger.DebugContext(ctx, "query failed, retrying", "failure_count", failures+1, "retry_in", delay, "error", err)
		failures++

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			c.abandon(key)
			return nil, ctx.Err()
		}
	}
}
